package telemetry

import (
	"log/slog"
	"os"
)

// LogLevel reads the logging level from the LOG_LEVEL environment variable.
// Recognized values: DEBUG, INFO, WARN, ERROR. Defaults to INFO.
func LogLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger builds a slog logger driven by environment variables and
// installs it as the default. LOG_FORMAT selects the handler: "text" for
// development, anything else gets JSON.
func SetupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: LogLevel(),
	}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
