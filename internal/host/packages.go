package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"github.com/rs/zerolog"

	"github.com/edvin/valet/internal/phpfpm"
)

var (
	_ phpfpm.PackageManager = (*Apt)(nil)
	_ phpfpm.PackageManager = (*Dnf)(nil)
)

var phpVersionRe = regexp.MustCompile(`(?m)^PHP (\d+\.\d+)\.`)

// versionedFPMRe matches Debian-style versioned package names.
var versionedFPMRe = regexp.MustCompile(`^php\d+\.\d+-`)

// runTTY runs a command under a pseudo-terminal, copying its output to out.
// Tests swap it.
var runTTY = func(ctx context.Context, out io.Writer, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	cmd.Env = append(cmd.Env, env...)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	defer ptmx.Close()

	// EIO is how the pty reports that the child closed its side.
	if _, err := io.Copy(out, ptmx); err != nil && !errors.Is(err, syscall.EIO) {
		return fmt.Errorf("read %s output: %w", name, err)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Apt: Debian, Ubuntu
// ---------------------------------------------------------------------------

// Apt manages packages with dpkg and apt-get.
type Apt struct {
	logger zerolog.Logger
	out    io.Writer
}

// NewApt creates an apt-backed PackageManager. Installer output goes to out.
func NewApt(logger zerolog.Logger, out io.Writer) *Apt {
	return &Apt{logger: logger.With().Str("pkg_mgr", "apt").Logger(), out: out}
}

func (a *Apt) Installed(ctx context.Context, pkg string) (bool, error) {
	output, err := runCombined(ctx, "dpkg-query", "-W", "-f=${Status}", pkg)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// dpkg-query exits 1 for packages it has never heard of.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dpkg-query %s: %w", pkg, err)
	}
	return strings.Contains(string(output), "install ok installed"), nil
}

func (a *Apt) EnsureInstalled(ctx context.Context, pkg string) error {
	a.logger.Info().Str("package", pkg).Msg("apt-get install")
	return runTTY(ctx, a.out, []string{"DEBIAN_FRONTEND=noninteractive"}, "apt-get", "install", "-y", pkg)
}

func (a *Apt) PHPVersion(ctx context.Context) (string, error) {
	return phpVersion(ctx)
}

// ---------------------------------------------------------------------------
// Dnf: Fedora, RHEL
// ---------------------------------------------------------------------------

// Dnf manages packages with rpm and dnf. Fedora ships a single unversioned
// php-fpm package, so versioned names are mapped onto it.
type Dnf struct {
	logger zerolog.Logger
	out    io.Writer
}

// NewDnf creates a dnf-backed PackageManager. Installer output goes to out.
func NewDnf(logger zerolog.Logger, out io.Writer) *Dnf {
	return &Dnf{logger: logger.With().Str("pkg_mgr", "dnf").Logger(), out: out}
}

func (d *Dnf) Installed(ctx context.Context, pkg string) (bool, error) {
	_, err := runCombined(ctx, "rpm", "-q", dnfPackageName(pkg))
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("rpm -q %s: %w", pkg, err)
	}
	return true, nil
}

func (d *Dnf) EnsureInstalled(ctx context.Context, pkg string) error {
	name := dnfPackageName(pkg)
	d.logger.Info().Str("package", name).Msg("dnf install")
	return runTTY(ctx, d.out, nil, "dnf", "install", "-y", name)
}

func (d *Dnf) PHPVersion(ctx context.Context) (string, error) {
	return phpVersion(ctx)
}

func dnfPackageName(pkg string) string {
	return versionedFPMRe.ReplaceAllString(pkg, "php-")
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func phpVersion(ctx context.Context) (string, error) {
	output, err := runCombined(ctx, "php", "-v")
	if err != nil {
		return "", fmt.Errorf("php -v: %s: %w", string(output), err)
	}
	return parsePHPVersion(string(output))
}

// parsePHPVersion extracts major.minor from `php -v` output.
func parsePHPVersion(output string) (string, error) {
	m := phpVersionRe.FindStringSubmatch(output)
	if m == nil {
		return "", fmt.Errorf("unrecognised php -v output: %q", firstLine(output))
	}
	return m[1], nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
