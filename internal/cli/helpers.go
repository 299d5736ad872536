package cli

import (
	"log/slog"

	"github.com/aretw0/orocos/internal/logging"
)

// CreateLogger configures the application logger. Logs go to Stderr so that
// Stdout only carries command output (or JSON-RPC for "orocos mcp").
func CreateLogger(level slog.Level, quiet bool) *slog.Logger {
	if quiet {
		return logging.NewNop()
	}
	return logging.New(level)
}
