package logger

import (
	"log/slog"
	"os"
)

// New returns the service-wide structured logger. JSON output when
// JUSTICE_LOG_FORMAT=json (production), text otherwise.
func New() *slog.Logger {
	var handler slog.Handler
	if os.Getenv("JUSTICE_LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	return slog.New(handler)
}
