package host

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandLine_Run(t *testing.T) {
	c := NewCommandLine(zerolog.Nop())

	tests := []struct {
		name     string
		command  string
		expected string
	}{
		{name: "stdout", command: "echo hello", expected: "hello\n"},
		{name: "stderr is captured", command: "echo oops >&2", expected: "oops\n"},
		{name: "non-zero exit keeps output", command: "echo Loaded: not-found; exit 4", expected: "Loaded: not-found\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := c.Run(context.Background(), tc.command)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func TestCommandLine_Run_StartFailure(t *testing.T) {
	failure := errors.New(`exec: "sh": executable file not found in $PATH`)
	calls := stubRun(t, func(string, []string) ([]byte, error) { return nil, failure })

	out, err := NewCommandLine(zerolog.Nop()).Run(context.Background(), "service php8.1-fpm status")

	assert.Empty(t, out)
	assert.ErrorIs(t, err, failure)
	require.Len(t, *calls, 1)
	assert.Equal(t, []string{"-c", "service php8.1-fpm status"}, (*calls)[0].args)
}
