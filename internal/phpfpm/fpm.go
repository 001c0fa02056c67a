// Package phpfpm installs and configures the PHP-FPM pool that serves valet
// sites. It owns a single drop-in file, valet.conf, inside whichever pool
// directory the host's PHP packaging uses, and drives the versioned
// php<version>-fpm service through an injected ServiceManager.
package phpfpm

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ConfigFileName is the tool-managed drop-in written into the pool directory.
const ConfigFileName = "valet.conf"

// notFoundMarkers are what `service <unit> status` prints for unknown units:
// "Loaded: not-found" from systemctl on Debian, "Unit ... could not be
// found." from the systemd service wrapper on Fedora.
var notFoundMarkers = []string{"not-found", "could not be found"}

// Settings are the per-invocation values the configurator needs from its
// caller. They are fixed for the lifetime of an FPM.
type Settings struct {
	// User is the real (non-elevated) user the pool runs as.
	User string
	// HomePath is the valet home directory, substituted into the template.
	HomePath string
	// LogDir must exist and be owned by User before the pool starts.
	LogDir string
	// Version pins the PHP version. Empty means ask the PackageManager.
	Version string
	// TemplatePath overrides the embedded pool template.
	TemplatePath string
}

// FPM manages the valet PHP-FPM pool configuration and service lifecycle.
type FPM struct {
	logger   zerolog.Logger
	settings Settings
	version  string

	pm    PackageManager
	sm    ServiceManager
	cli   CommandRunner
	files FileStore
}

// New creates a configurator. The PHP version is resolved here, once, and
// reused by every later call.
func New(ctx context.Context, logger zerolog.Logger, settings Settings, pm PackageManager, sm ServiceManager, cli CommandRunner, files FileStore) (*FPM, error) {
	version := settings.Version
	if version == "" {
		v, err := pm.PHPVersion(ctx)
		if err != nil {
			return nil, err
		}
		version = v
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, fmt.Errorf("empty PHP version")
	}

	return &FPM{
		logger:   logger.With().Str("component", "php-fpm").Str("version", version).Logger(),
		settings: settings,
		version:  version,
		pm:       pm,
		sm:       sm,
		cli:      cli,
		files:    files,
	}, nil
}

// Version returns the PHP version this configurator targets.
func (f *FPM) Version() string {
	return f.version
}

// packageName is also the candidate service name.
func (f *FPM) packageName() string {
	return "php" + f.version + "-fpm"
}

// ConfigCandidates returns the pool directories to probe, in priority order.
func ConfigCandidates(version string) []string {
	return []string{
		"/etc/php/" + version + "/fpm/pool.d", // Debian, Ubuntu
		"/etc/php" + version + "/fpm/pool.d",  // older Ubuntu
		"/etc/php-fpm.d",                      // Fedora, RHEL
	}
}

// Install makes sure php-fpm is installed, writes the valet pool config and
// restarts the service.
func (f *FPM) Install(ctx context.Context) error {
	pkg := f.packageName()

	installed, err := f.pm.Installed(ctx, pkg)
	if err != nil {
		return err
	}
	if !installed {
		f.logger.Info().Str("package", pkg).Msg("installing package")
		if err := f.pm.EnsureInstalled(ctx, pkg); err != nil {
			return err
		}
	}

	if err := f.files.EnsureDirExists(f.settings.LogDir, f.settings.User); err != nil {
		return err
	}

	if err := f.InstallConfiguration(ctx); err != nil {
		return err
	}

	return f.Restart(ctx)
}

// Uninstall removes the valet pool config, if present, and restarts php-fpm
// so it falls back to the stock pools.
func (f *FPM) Uninstall(ctx context.Context) error {
	dir, err := f.ConfigPath()
	if err != nil {
		return err
	}

	path := filepath.Join(dir, ConfigFileName)
	if !f.files.Exists(path) {
		f.logger.Debug().Str("path", path).Msg("no valet pool config, nothing to remove")
		return nil
	}

	f.logger.Info().Str("path", path).Msg("removing valet pool config")
	if err := f.files.Unlink(path); err != nil {
		return err
	}

	return f.Restart(ctx)
}

// InstallConfiguration renders the pool template for the current user and
// overwrites valet.conf with it.
func (f *FPM) InstallConfiguration(_ context.Context) error {
	tmpl := DefaultTemplate()
	if f.settings.TemplatePath != "" {
		contents, err := f.files.Get(f.settings.TemplatePath)
		if err != nil {
			return err
		}
		tmpl = contents
	}

	dir, err := f.ConfigPath()
	if err != nil {
		return err
	}

	path := filepath.Join(dir, ConfigFileName)
	f.logger.Info().
		Str("path", path).
		Str("user", f.settings.User).
		Msg("writing valet pool config")

	return f.files.PutAsUser(path, Render(tmpl, f.settings.User, f.settings.HomePath), f.settings.User)
}

// Restart restarts the php-fpm service.
func (f *FPM) Restart(ctx context.Context) error {
	service, err := f.ServiceName(ctx)
	if err != nil {
		return err
	}
	f.logger.Info().Str("service", service).Msg("restarting")
	return f.sm.Restart(ctx, service)
}

// Stop stops the php-fpm service.
func (f *FPM) Stop(ctx context.Context) error {
	service, err := f.ServiceName(ctx)
	if err != nil {
		return err
	}
	f.logger.Info().Str("service", service).Msg("stopping")
	return f.sm.Stop(ctx, service)
}

// ServiceName returns php<version>-fpm after checking that the init system
// knows the unit. A unit reported as missing yields *ServiceNotFoundError.
func (f *FPM) ServiceName(ctx context.Context) (string, error) {
	service := f.packageName()

	out, err := f.cli.Run(ctx, "service "+service+" status")
	if err != nil {
		return "", err
	}
	for _, marker := range notFoundMarkers {
		if strings.Contains(out, marker) {
			return "", &ServiceNotFoundError{Name: service}
		}
	}

	return service, nil
}

// ConfigPath returns the first existing pool directory for this version.
func (f *FPM) ConfigPath() (string, error) {
	candidates := ConfigCandidates(f.version)
	for _, dir := range candidates {
		if f.files.IsDir(dir) {
			return dir, nil
		}
	}
	return "", &ConfigDirectoryNotFoundError{Candidates: candidates}
}
