package logging

import (
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edvin/valet/internal/config"
)

// NewLogger creates a structured zerolog.Logger writing to w, tagged with a
// fresh run_id so every line from one CLI invocation can be grouped.
// Non-empty config fields are added automatically.
func NewLogger(w io.Writer, cfg *config.Config) zerolog.Logger {
	ctx := zerolog.New(w).With().
		Timestamp().
		Str("service", "valet").
		Str("run_id", uuid.New().String())

	if cfg.User != "" {
		ctx = ctx.Str("user", cfg.User)
	}
	if cfg.PHPVersion != "" {
		ctx = ctx.Str("php_version", cfg.PHPVersion)
	}

	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
