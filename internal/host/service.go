package host

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edvin/valet/internal/phpfpm"
)

var (
	_ phpfpm.ServiceManager = (*SystemdManager)(nil)
	_ phpfpm.ServiceManager = (*SysVManager)(nil)
	_ phpfpm.ServiceManager = (*DirectManager)(nil)
)

// runCombined runs a command and returns its combined output. Tests swap it.
var runCombined = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ---------------------------------------------------------------------------
// SystemdManager: hosts booted with systemd
// ---------------------------------------------------------------------------

// SystemdManager controls services with systemctl.
type SystemdManager struct {
	logger zerolog.Logger
}

// NewSystemdManager creates a ServiceManager backed by systemd.
func NewSystemdManager(logger zerolog.Logger) *SystemdManager {
	return &SystemdManager{logger: logger.With().Str("svc_mgr", "systemd").Logger()}
}

func (s *SystemdManager) Restart(ctx context.Context, unit string) error {
	s.logger.Debug().Str("unit", unit).Msg("systemctl restart")
	return sysctl(ctx, "restart", unit)
}

func (s *SystemdManager) Stop(ctx context.Context, unit string) error {
	s.logger.Debug().Str("unit", unit).Msg("systemctl stop")
	return sysctl(ctx, "stop", unit)
}

// ---------------------------------------------------------------------------
// SysVManager: hosts with the service(8) wrapper but no systemd
// ---------------------------------------------------------------------------

// SysVManager controls services through the `service` wrapper script.
type SysVManager struct {
	logger zerolog.Logger
}

// NewSysVManager creates a ServiceManager backed by service(8).
func NewSysVManager(logger zerolog.Logger) *SysVManager {
	return &SysVManager{logger: logger.With().Str("svc_mgr", "sysv").Logger()}
}

func (s *SysVManager) Restart(ctx context.Context, unit string) error {
	s.logger.Debug().Str("unit", unit).Msg("service restart")
	return service(ctx, unit, "restart")
}

func (s *SysVManager) Stop(ctx context.Context, unit string) error {
	s.logger.Debug().Str("unit", unit).Msg("service stop")
	return service(ctx, unit, "stop")
}

// ---------------------------------------------------------------------------
// DirectManager: containers without an init system
// ---------------------------------------------------------------------------

// DirectManager signals the php-fpm master process directly. Restart is a
// graceful reload (USR2), which is how php-fpm re-reads its pools.
type DirectManager struct {
	logger zerolog.Logger
}

// NewDirectManager creates a ServiceManager for environments without an
// init system.
func NewDirectManager(logger zerolog.Logger) *DirectManager {
	return &DirectManager{logger: logger.With().Str("svc_mgr", "direct").Logger()}
}

func (d *DirectManager) Restart(ctx context.Context, unit string) error {
	pattern := processPattern(unit)
	d.logger.Debug().Str("unit", unit).Str("pattern", pattern).Msg("restart: sending SIGUSR2")
	return pkillSignal(ctx, pattern, "USR2")
}

func (d *DirectManager) Stop(ctx context.Context, unit string) error {
	pattern := processPattern(unit)
	d.logger.Debug().Str("unit", unit).Str("pattern", pattern).Msg("stop: sending SIGTERM")
	err := pkillSignal(ctx, pattern, "TERM")
	// pkill exits 1 when no process matched.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		d.logger.Warn().Str("unit", unit).Msg("no matching process, nothing to stop")
		return nil
	}
	return err
}

// processPattern maps a php<version>-fpm unit name to the command line of
// its master process.
func processPattern(unit string) string {
	if strings.HasPrefix(unit, "php") && strings.HasSuffix(unit, "-fpm") {
		return "php-fpm: master process"
	}
	return unit
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func sysctl(ctx context.Context, args ...string) error {
	if output, err := runCombined(ctx, "systemctl", args...); err != nil {
		return fmt.Errorf("systemctl %v: %s: %w", args, string(output), err)
	}
	return nil
}

func service(ctx context.Context, unit, action string) error {
	if output, err := runCombined(ctx, "service", unit, action); err != nil {
		return fmt.Errorf("service %s %s: %s: %w", unit, action, string(output), err)
	}
	return nil
}

func pkillSignal(ctx context.Context, process, signal string) error {
	if output, err := runCombined(ctx, "pkill", "-"+signal, "-f", process); err != nil {
		return fmt.Errorf("pkill -%s %s: %s: %w", signal, process, string(output), err)
	}
	return nil
}
