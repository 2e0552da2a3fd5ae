package contracts

import (
	"encoding/json"
	"fmt"
)

// Action identifies the operation a message asks the analytics system to
// perform.
type Action string

// Actions recognized by the BATAM consumer.
const (
	ActionCreateBuild  Action = "create_build"
	ActionUpdateBuild  Action = "update_build"
	ActionRunAnalysis  Action = "run_analysis"
	ActionCreateReport Action = "create_report"
	ActionUpdateReport Action = "update_report"
	ActionCreateTest   Action = "create_test"
	ActionUpdateTest   Action = "update_test"
)

// Envelope is the wire message: the action name plus the record embedded as a
// raw JSON value, never a nested string.
type Envelope struct {
	Action Action          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// Seal serializes record and wraps it in an envelope for the given action.
// The returned string is exactly what goes on the wire.
func Seal(action Action, record any) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("contracts: serialize %s record: %w", action, err)
	}

	body, err := json.Marshal(Envelope{Action: action, Data: data})
	if err != nil {
		return "", fmt.Errorf("contracts: encode %s envelope: %w", action, err)
	}

	return string(body), nil
}
