// Package logging constructs the process-wide zerolog.Logger.
package logging

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/zortex-io/zortex-core/internal/config"
)

// New returns a configured zerolog.Logger. In development it writes a
// human-readable console format at debug level; otherwise structured JSON
// at the configured level.
func New(cfg *config.Config) zerolog.Logger {
	var out zerolog.ConsoleWriter
	lvl := zerolog.InfoLevel

	if lvl2, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		lvl = lvl2
	}
	if cfg.Env == "development" {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if cfg.Env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
		return zerolog.New(out).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
