package phpfpm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/stretchr/testify/mock"
)

type mockPackageManager struct {
	mock.Mock
}

func (m *mockPackageManager) Installed(ctx context.Context, pkg string) (bool, error) {
	args := m.Called(ctx, pkg)
	return args.Bool(0), args.Error(1)
}

func (m *mockPackageManager) EnsureInstalled(ctx context.Context, pkg string) error {
	args := m.Called(ctx, pkg)
	return args.Error(0)
}

func (m *mockPackageManager) PHPVersion(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type mockServiceManager struct {
	mock.Mock
}

func (m *mockServiceManager) Restart(ctx context.Context, unit string) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *mockServiceManager) Stop(ctx context.Context, unit string) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, command string) (string, error) {
	args := m.Called(ctx, command)
	return args.String(0), args.Error(1)
}

// memFiles is an in-memory FileStore. Every mutation is appended to ops.
type memFiles struct {
	dirs   map[string]bool
	files  map[string]string
	owners map[string]string
	ops    []string
}

func newMemFiles(dirs ...string) *memFiles {
	m := &memFiles{
		dirs:   make(map[string]bool),
		files:  make(map[string]string),
		owners: make(map[string]string),
	}
	for _, d := range dirs {
		m.dirs[d] = true
	}
	return m
}

func (m *memFiles) Exists(path string) bool {
	_, ok := m.files[path]
	return ok || m.dirs[path]
}

func (m *memFiles) IsDir(path string) bool {
	return m.dirs[path]
}

func (m *memFiles) Get(path string) (string, error) {
	contents, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("read %s: %w", path, os.ErrNotExist)
	}
	return contents, nil
}

func (m *memFiles) PutAsUser(path, contents, user string) error {
	m.files[path] = contents
	m.owners[path] = user
	m.ops = append(m.ops, "put "+path)
	return nil
}

func (m *memFiles) Unlink(path string) error {
	delete(m.files, path)
	delete(m.owners, path)
	m.ops = append(m.ops, "unlink "+path)
	return nil
}

func (m *memFiles) EnsureDirExists(path, owner string) error {
	if !m.dirs[path] {
		m.dirs[path] = true
		m.owners[path] = owner
		m.ops = append(m.ops, "mkdir "+path)
	}
	return nil
}

func (m *memFiles) mutations() string {
	return strings.Join(m.ops, "\n")
}
