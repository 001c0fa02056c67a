package phpfpm

import "context"

// PackageManager installs and queries OS packages.
type PackageManager interface {
	// Installed reports whether the named package is present.
	Installed(ctx context.Context, pkg string) (bool, error)

	// EnsureInstalled installs the named package, failing if it cannot.
	EnsureInstalled(ctx context.Context, pkg string) error

	// PHPVersion returns the major.minor version of the default PHP runtime.
	PHPVersion(ctx context.Context) (string, error)
}

// ServiceManager controls named init-system services.
type ServiceManager interface {
	Restart(ctx context.Context, unit string) error
	Stop(ctx context.Context, unit string) error
}

// CommandRunner executes a shell command line and returns its combined
// stdout and stderr. A non-zero exit status is not reported as an error.
type CommandRunner interface {
	Run(ctx context.Context, command string) (string, error)
}

// FileStore is the subset of filesystem operations the configurator needs.
type FileStore interface {
	Exists(path string) bool
	IsDir(path string) bool
	Get(path string) (string, error)

	// PutAsUser writes contents to path and hands ownership to user.
	PutAsUser(path, contents, user string) error

	Unlink(path string) error

	// EnsureDirExists creates path if missing, owned by owner.
	EnsureDirExists(path, owner string) error
}
