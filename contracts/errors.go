package contracts

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a record is missing a required field or
// combination of identifying fields. It is never retried.
var ErrInvalidArgument = errors.New("batam: invalid argument")

func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Custom report formats the analytics system knows how to render.
const (
	FormatStandard    = "STANDARD_FORMAT"
	FormatUpgrade     = "UPGRADE_FORMAT"
	FormatPerformance = "PERFORMANCE_FORMAT"
)

// validateCustomFormat checks the custom-format trio: when enabled, the
// format value must be one of the recognized constants.
func validateCustomFormat(enabled bool, format string) error {
	if !enabled {
		return nil
	}
	switch format {
	case FormatStandard, FormatUpgrade, FormatPerformance:
		return nil
	default:
		return invalidArgf("custom format %q is not a recognized format", format)
	}
}
