// Package git implements the directory-isolation backend over the git
// executable.
//
// Isolation unit: a worktree, a full working-directory copy tied to one
// branch, so concurrent sessions never see each other's uncommitted state.
// Head and switch operations reflect the worktree's own branch pointer,
// independent of the source repository's current branch.
//
// Thread safety:
//   - Git methods are safe for concurrent use as they don't maintain mutable state.
//   - The Git value itself should not be copied after creation.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/helmling/arbor/internal/vcs"
)

// Git provides git operations for a repository.
type Git struct {
	repoRoot string
}

func init() {
	vcs.Register(vcs.KindDirectory, func(path string) (vcs.Backend, error) {
		return New(path)
	})
}

// New creates a Git instance for the given path.
func New(path string) (*Git, error) {
	root, err := findRepoRoot(path)
	if err != nil {
		return nil, err
	}
	return &Git{repoRoot: root}, nil
}

// Kind reports the isolation strategy of this backend.
func (g *Git) Kind() vcs.BackendKind {
	return vcs.KindDirectory
}

// WorkDir returns the repository root path.
func (g *Git) WorkDir() string {
	return g.repoRoot
}

// IsRepo checks if the path is inside a git repository.
func IsRepo(path string) bool {
	_, err := findRepoRoot(path)
	return err == nil
}

// findRepoRoot locates the git repository root.
func findRepoRoot(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	out, err := runGit(context.Background(), absPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %s", vcs.ErrNotRepository, absPath)
	}

	return strings.TrimSpace(out), nil
}

// Head returns the current working position of this directory.
func (g *Git) Head(ctx context.Context) (vcs.HeadInfo, error) {
	commit, err := g.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return vcs.HeadInfo{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	branch, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return vcs.HeadInfo{}, fmt.Errorf("get current branch: %w", err)
	}
	branchName := strings.TrimSpace(branch)
	if branchName == "HEAD" {
		// Detached head
		branchName = ""
	}

	subject, err := g.run(ctx, "log", "-1", "--format=%s", "HEAD")
	if err != nil {
		return vcs.HeadInfo{}, fmt.Errorf("get head description: %w", err)
	}

	return vcs.HeadInfo{
		Branch:      branchName,
		ChangeID:    vcs.ChangeID(strings.TrimSpace(commit)),
		Description: strings.TrimSpace(subject),
	}, nil
}

// IsClean reports whether the working copy has no uncommitted changes and no
// in-progress merge or rebase.
func (g *Git) IsClean(ctx context.Context) (bool, error) {
	op, err := g.OngoingOperation(ctx)
	if err != nil {
		return false, err
	}
	if op != vcs.OpNone {
		return false, nil
	}

	dirty, err := g.HasUncommittedChanges(ctx)
	if err != nil {
		return false, err
	}
	return !dirty, nil
}

// IsValid reports whether the repository exists and responds to git.
func (g *Git) IsValid(ctx context.Context) bool {
	_, err := g.run(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// IsWorktree returns true if this directory is a linked worktree rather than
// the main repository. Worktrees have .git as a file, main repos as a directory.
func (g *Git) IsWorktree() bool {
	info, err := os.Stat(filepath.Join(g.repoRoot, ".git"))
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// run executes a git command in the repo root.
func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	return runGit(ctx, g.repoRoot, args...)
}

// runGit executes a git command in dir, classifying stderr on failure.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg == "" {
			errMsg = err.Error()
		}
		return "", vcs.ClassifyOutput(errMsg)
	}

	return stdout.String(), nil
}
