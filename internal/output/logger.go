/*
PURPOSE:
  Provides a structured logger for Judge Runner.
  Wraps slog for consistent output.

REQUIREMENTS:
  User-specified:
  - Progress line per generated and per evaluated answer.

  Implementation-discovered:
  - Level is configurable (log_level) so debug traces stay quiet by default.

ARCHITECTURE INTEGRATION:
  - Used everywhere.

ERROR HANDLING:
  - Unknown levels fall back to info.

IMPLEMENTATION RULES:
  - Use `log/slog` (Go 1.21+).

USAGE:
  output.Logger.Info("message", "key", "value")
  output.SetLevel("debug")

RELATED FILES:
  - All.
*/

package output

import (
	"log/slog"
	"os"
)

var (
	level  = new(slog.LevelVar)
	Logger *slog.Logger
)

func init() {
	Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// SetLogger allows overriding the default logger (e.g. for testing or config changes)
func SetLogger(l *slog.Logger) {
	Logger = l
}

// SetLevel sets the minimum level of the default logger.
// Valid levels are: "debug", "info", "warn", "error".
func SetLevel(name string) {
	switch name {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}
