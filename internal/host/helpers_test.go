package host

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
	env  []string
}

func (c call) String() string {
	return strings.TrimSpace(c.name + " " + strings.Join(c.args, " "))
}

// stubRun replaces runCombined for the duration of the test and records
// every invocation.
func stubRun(t *testing.T, fn func(name string, args []string) ([]byte, error)) *[]call {
	t.Helper()

	calls := &[]call{}
	orig := runCombined
	runCombined = func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{name: name, args: args})
		return fn(name, args)
	}
	t.Cleanup(func() { runCombined = orig })
	return calls
}

func stubTTY(t *testing.T, err error) *[]call {
	t.Helper()

	calls := &[]call{}
	orig := runTTY
	runTTY = func(_ context.Context, out io.Writer, env []string, name string, args ...string) error {
		*calls = append(*calls, call{name: name, args: args, env: env})
		_, _ = io.WriteString(out, "Reading package lists... Done\n")
		return err
	}
	t.Cleanup(func() { runTTY = orig })
	return calls
}

// exitError returns a genuine *exec.ExitError with the given status.
func exitError(t *testing.T, code int) error {
	t.Helper()

	err := exec.Command("sh", "-c", "exit "+strconv.Itoa(code)).Run()
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	return err
}
