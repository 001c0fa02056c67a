package host

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/edvin/valet/internal/phpfpm"
)

var _ phpfpm.CommandRunner = (*CommandLine)(nil)

// CommandLine runs shell command lines through sh -c.
type CommandLine struct {
	logger zerolog.Logger
}

// NewCommandLine creates a CommandRunner.
func NewCommandLine(logger zerolog.Logger) *CommandLine {
	return &CommandLine{logger: logger.With().Str("component", "cli").Logger()}
}

// Run executes command and returns combined stdout and stderr. Commands that
// exit non-zero still return their output with a nil error, since status
// probes report through the exit code. Only failure to run sh is an error.
func (c *CommandLine) Run(ctx context.Context, command string) (string, error) {
	output, err := runCombined(ctx, "sh", "-c", command)

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		c.logger.Debug().Str("command", command).Int("exit_code", exitErr.ExitCode()).Msg("command exited non-zero")
		return string(output), nil
	}
	if err != nil {
		return "", fmt.Errorf("run %q: %w", command, err)
	}

	c.logger.Debug().Str("command", command).Msg("command succeeded")
	return string(output), nil
}
