package logging

import (
	"log/slog"
	"os"
)

// Init configures the process-wide slog default. Verbose enables debug
// output; logs go to stderr so report output on stdout stays clean.
func Init(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
