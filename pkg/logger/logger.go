package logger

import (
	"log/slog"
	"os"
)

// Setup configures the global logger for the given environment and returns
// it. Production gets JSON output for log shippers; everything else gets
// human-readable text at debug level.
func Setup(env string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("service", "halcyon")
	slog.SetDefault(logger)

	return logger
}
