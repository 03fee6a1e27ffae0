package vcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Constructor builds a backend rooted at a repository path.
type Constructor func(path string) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[BackendKind]Constructor{}
)

// Register installs a backend constructor. Called from the backend packages'
// init functions.
func Register(kind BackendKind, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = ctor
}

// Detect probes a repository's on-disk markers and reports its backend kind.
// A .jj directory wins over .git because jj colocated repos carry both.
// Detection fails closed: an unmarked path is ErrNotRepository, never a guess.
func Detect(path string) (BackendKind, error) {
	if isDir(filepath.Join(path, ".jj")) {
		return KindChange, nil
	}
	// A .git entry may be a directory (primary repo) or a file (worktree
	// link); both mark a git repository.
	if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
		return KindDirectory, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrNotRepository, path)
}

// OpenKind opens a backend of an explicit kind at path.
func OpenKind(kind BackendKind, path string) (Backend, error) {
	registryMu.RLock()
	ctor, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no %s backend registered", ErrBackendUnavailable, kind)
	}
	return ctor(path)
}

// Open auto-detects the backend kind at path and opens it.
func Open(path string) (Backend, error) {
	kind, err := Detect(path)
	if err != nil {
		return nil, err
	}
	return OpenKind(kind, path)
}

// DetectValid detects the kind and verifies the backend considers the
// repository usable.
func DetectValid(ctx context.Context, path string) (BackendKind, error) {
	kind, err := Detect(path)
	if err != nil {
		return 0, err
	}
	b, err := OpenKind(kind, path)
	if err != nil {
		return 0, err
	}
	if !b.IsValid(ctx) {
		return 0, fmt.Errorf("%w: %s", ErrNotRepository, path)
	}
	return kind, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
