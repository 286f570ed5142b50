package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog configures the default slog logger. Verbose enables debug
// level output, which the scraping code uses to log every portal
// request it makes.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
