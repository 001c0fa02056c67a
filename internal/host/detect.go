package host

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/edvin/valet/internal/phpfpm"
)

// Swapped in tests.
var (
	lookPath      = exec.LookPath
	systemdRunDir = "/run/systemd/system"
)

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// DetectPackageManager returns the PackageManager for kind: "apt", "dnf" or
// "auto", which picks whichever installer is on PATH.
func DetectPackageManager(logger zerolog.Logger, kind string, out io.Writer) (phpfpm.PackageManager, error) {
	switch kind {
	case "apt":
		return NewApt(logger, out), nil
	case "dnf":
		return NewDnf(logger, out), nil
	case "", "auto":
		if _, err := lookPath("apt-get"); err == nil {
			return NewApt(logger, out), nil
		}
		if _, err := lookPath("dnf"); err == nil {
			return NewDnf(logger, out), nil
		}
		return nil, fmt.Errorf("no supported package manager found (need apt-get or dnf)")
	default:
		return nil, fmt.Errorf("unknown package manager %q", kind)
	}
}

// DetectServiceManager returns the ServiceManager for kind: "systemd",
// "sysv", "direct" or "auto". Auto prefers systemd when it is PID 1, then
// the service(8) wrapper, then direct signalling.
func DetectServiceManager(logger zerolog.Logger, kind string) (phpfpm.ServiceManager, error) {
	switch kind {
	case "systemd":
		return NewSystemdManager(logger), nil
	case "sysv":
		return NewSysVManager(logger), nil
	case "direct":
		return NewDirectManager(logger), nil
	case "", "auto":
		if dirExists(systemdRunDir) {
			return NewSystemdManager(logger), nil
		}
		if _, err := lookPath("service"); err == nil {
			return NewSysVManager(logger), nil
		}
		logger.Warn().Msg("no init system detected, signalling php-fpm directly")
		return NewDirectManager(logger), nil
	default:
		return nil, fmt.Errorf("unknown service manager %q", kind)
	}
}
