package vcs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectGitDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir .git: %v", err)
	}

	kind, err := Detect(dir)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if kind != KindDirectory {
		t.Errorf("Detect = %v, want KindDirectory", kind)
	}
}

func TestDetectGitWorktreeFile(t *testing.T) {
	// A worktree carries .git as a file pointing at the main repo.
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: /elsewhere/.git/worktrees/x\n"), 0o644); err != nil {
		t.Fatalf("write .git file: %v", err)
	}

	kind, err := Detect(dir)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if kind != KindDirectory {
		t.Errorf("Detect = %v, want KindDirectory", kind)
	}
}

func TestDetectJJWinsOverGit(t *testing.T) {
	// Colocated jj repos contain both markers; jj must win.
	dir := t.TempDir()
	for _, marker := range []string{".jj", ".git"} {
		if err := os.Mkdir(filepath.Join(dir, marker), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", marker, err)
		}
	}

	kind, err := Detect(dir)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if kind != KindChange {
		t.Errorf("Detect = %v, want KindChange", kind)
	}
}

func TestDetectFailsClosed(t *testing.T) {
	_, err := Detect(t.TempDir())
	if !errors.Is(err, ErrNotRepository) {
		t.Errorf("Detect on empty dir = %v, want ErrNotRepository", err)
	}
}

func TestOpenKindUnregistered(t *testing.T) {
	_, err := OpenKind(BackendKind(99), t.TempDir())
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("OpenKind(99) = %v, want ErrBackendUnavailable", err)
	}
}

func TestBackendKindString(t *testing.T) {
	if got := KindDirectory.String(); got != "git" {
		t.Errorf("KindDirectory.String() = %q, want %q", got, "git")
	}
	if got := KindChange.String(); got != "jj" {
		t.Errorf("KindChange.String() = %q, want %q", got, "jj")
	}
}
