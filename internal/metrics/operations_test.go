package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/valet/internal/phpfpm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: ResultSuccess},
		{name: "config dir", err: &phpfpm.ConfigDirectoryNotFoundError{Candidates: []string{"/etc/php-fpm.d"}}, expected: ResultConfigDirNotFound},
		{name: "service", err: &phpfpm.ServiceNotFoundError{Name: "php8.1-fpm"}, expected: ResultServiceNotFound},
		{name: "wrapped service", err: fmt.Errorf("restart: %w", &phpfpm.ServiceNotFoundError{Name: "php8.1-fpm"}), expected: ResultServiceNotFound},
		{name: "other", err: errors.New("exit status 1"), expected: ResultError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.err))
		})
	}
}

func TestOperations_Observe(t *testing.T) {
	o := NewOperations()
	start := time.Now()

	o.Observe("install", start, nil)
	o.Observe("install", start, nil)
	o.Observe("restart", start, &phpfpm.ServiceNotFoundError{Name: "php8.1-fpm"})

	assert.Equal(t, 2.0, testutil.ToFloat64(o.total.WithLabelValues("install", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.total.WithLabelValues("restart", ResultServiceNotFound)))
	assert.Equal(t, 0.0, testutil.ToFloat64(o.total.WithLabelValues("restart", ResultSuccess)))

	n, err := testutil.GatherAndCount(o.Gatherer(), "valet_fpm_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOperations_WriteTextfile(t *testing.T) {
	o := NewOperations()
	o.Observe("uninstall", time.Now(), nil)

	path := filepath.Join(t.TempDir(), "valet.prom")
	require.NoError(t, o.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `valet_fpm_operations_total{operation="uninstall",result="success"} 1`)
	assert.Contains(t, string(data), "valet_fpm_last_run_timestamp_seconds")
}
