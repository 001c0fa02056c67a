package host

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"strconv"
	"syscall"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/edvin/valet/internal/phpfpm"
)

var _ phpfpm.FileStore = (*Filesystem)(nil)

// Filesystem implements phpfpm.FileStore on the local disk.
type Filesystem struct {
	logger zerolog.Logger
}

// NewFilesystem creates a FileStore for the local disk.
func NewFilesystem(logger zerolog.Logger) *Filesystem {
	return &Filesystem{logger: logger.With().Str("component", "files").Logger()}
}

// Exists reports whether path is present. Only missing paths count as
// absent; other Stat failures such as EACCES are logged and reported as
// present, leaving the caller's next operation on path to return the error.
func (f *Filesystem) Exists(path string) bool {
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return false
	}
	f.logger.Warn().Err(err).Str("path", path).Msg("cannot stat path")
	return true
}

func (f *Filesystem) IsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR) {
			f.logger.Warn().Err(err).Str("path", path).Msg("cannot stat directory")
		}
		return false
	}
	return info.IsDir()
}

func (f *Filesystem) Get(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// PutAsUser atomically replaces path with contents. The pending file is
// chowned before the rename so the new file never appears root-owned.
func (f *Filesystem) PutAsUser(path, contents, owner string) error {
	uid, gid, err := lookupIDs(owner)
	if err != nil {
		return err
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer pending.Cleanup()

	if _, err := pending.WriteString(contents); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := pending.Chown(uid, gid); err != nil {
		return fmt.Errorf("chown %s to %s: %w", path, owner, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	f.logger.Debug().Str("path", path).Str("owner", owner).Int("bytes", len(contents)).Msg("wrote file")
	return nil
}

// Unlink removes path. A missing file is not an error.
func (f *Filesystem) Unlink(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// EnsureDirExists creates path and hands it to owner. Existing directories
// are left alone, ownership included.
func (f *Filesystem) EnsureDirExists(path, owner string) error {
	if f.IsDir(path) {
		return nil
	}

	uid, gid, err := lookupIDs(owner)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	if err := os.Chown(path, uid, gid); err != nil {
		return fmt.Errorf("chown %s to %s: %w", path, owner, err)
	}

	f.logger.Debug().Str("path", path).Str("owner", owner).Msg("created directory")
	return nil
}

func lookupIDs(name string) (int, int, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup user %s: %w", name, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, fmt.Errorf("parse uid %q for %s: %w", u.Uid, name, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return 0, 0, fmt.Errorf("parse gid %q for %s: %w", u.Gid, name, err)
	}
	return uid, gid, nil
}
