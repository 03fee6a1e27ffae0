package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/helmling/arbor/internal/log"
)

// Worktree represents a git worktree.
type Worktree struct {
	Path   string // Absolute path to worktree
	Branch string // Branch checked out in worktree
	Commit string // HEAD commit
	Bare   bool   // Is this the bare repository
	Main   bool   // Is this the main worktree
}

// ListWorktrees returns all worktrees of the repository.
func (g *Git) ListWorktrees(ctx context.Context) ([]Worktree, error) {
	out, err := g.run(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("list worktrees: %w", err)
	}

	var worktrees []Worktree
	var current Worktree

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if current.Path != "" {
				worktrees = append(worktrees, current)
				current = Worktree{}
			}
			continue
		}

		if strings.HasPrefix(line, "worktree ") {
			current.Path = strings.TrimPrefix(line, "worktree ")
		} else if strings.HasPrefix(line, "HEAD ") {
			current.Commit = strings.TrimPrefix(line, "HEAD ")
		} else if strings.HasPrefix(line, "branch ") {
			branch := strings.TrimPrefix(line, "branch ")
			current.Branch = strings.TrimPrefix(branch, "refs/heads/")
		} else if line == "bare" {
			current.Bare = true
		}
	}

	if current.Path != "" {
		worktrees = append(worktrees, current)
	}

	if len(worktrees) > 0 {
		worktrees[0].Main = true
	}

	return worktrees, nil
}

// CreateWorktree creates a worktree at path on a new branch forked from base.
// Atomic from the caller's perspective: on failure any partially written
// directory is removed before returning.
func (g *Git) CreateWorktree(ctx context.Context, path, branch, base string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	args := []string{"worktree", "add", "-b", branch, absPath}
	if base != "" {
		args = append(args, base)
	}

	if _, err := g.run(ctx, args...); err != nil {
		// git cleans up after itself on most failures; make sure.
		if _, statErr := os.Stat(absPath); statErr == nil {
			_ = os.RemoveAll(absPath)
			_ = g.PruneWorktrees(ctx)
		}
		return fmt.Errorf("create worktree: %w", err)
	}

	return nil
}

// CheckoutWorktree creates a worktree at path for an already existing branch.
func (g *Git) CheckoutWorktree(ctx context.Context, path, branch string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	if _, err := g.run(ctx, "worktree", "add", absPath, branch); err != nil {
		return fmt.Errorf("checkout worktree: %w", err)
	}

	return nil
}

// EnsureWorktree recreates a missing worktree for branch at path. Stale
// worktree records are pruned first so a previously deleted directory does
// not block the add.
func (g *Git) EnsureWorktree(ctx context.Context, path, branch string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if _, err := os.Stat(absPath); err == nil {
		return nil
	}

	if err := g.PruneWorktrees(ctx); err != nil {
		log.Warn("prune worktrees before recreate", log.Err(err))
	}

	exists, _ := g.BranchExists(ctx, branch)
	if exists {
		return g.CheckoutWorktree(ctx, absPath, branch)
	}

	base, err := g.GetBaseBranch(ctx)
	if err != nil {
		return fmt.Errorf("find base branch: %w", err)
	}
	return g.CreateWorktree(ctx, absPath, branch, base)
}

// MoveWorktree moves a worktree to a new location, keeping the repository's
// linkage intact.
func (g *Git) MoveWorktree(ctx context.Context, from, to string) error {
	if _, err := g.run(ctx, "worktree", "move", from, to); err != nil {
		return fmt.Errorf("move worktree %s to %s: %w", from, to, err)
	}
	return nil
}

// PruneWorktrees removes stale worktree records.
func (g *Git) PruneWorktrees(ctx context.Context) error {
	_, err := g.run(ctx, "worktree", "prune")
	return err
}

// WorktreeExists checks if a worktree is registered at the given path.
func (g *Git) WorktreeExists(ctx context.Context, path string) bool {
	worktrees, err := g.ListWorktrees(ctx)
	if err != nil {
		return false
	}

	absPath, _ := filepath.Abs(path)
	for _, wt := range worktrees {
		if wt.Path == absPath {
			return true
		}
	}

	return false
}

// CleanupWorktree removes the worktree at path and deletes its branch.
// Idempotent: a worktree or branch that is already gone is not an error, so
// rollback and explicit cleanup can both reach the same handle.
func (g *Git) CleanupWorktree(ctx context.Context, path, branch string) error {
	if _, err := g.run(ctx, "worktree", "remove", "--force", path); err != nil {
		if !isMissingWorktree(err) {
			// The record may be stale while the directory lingers.
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return fmt.Errorf("remove worktree %s: %w", path, err)
			}
		}
	}

	if err := g.PruneWorktrees(ctx); err != nil {
		log.Debug("prune after worktree cleanup", log.Err(err))
	}

	if branch != "" {
		if err := g.DeleteBranch(ctx, branch); err != nil && !isMissingBranch(err) {
			return fmt.Errorf("delete worktree branch %s: %w", branch, err)
		}
	}

	return nil
}

// CleanupSuspectedWorktree removes a directory that looks like a stray
// worktree, detaching it from its source repository when that can still be
// found. Used by the orphan sweep where no repository record exists anymore.
func CleanupSuspectedWorktree(ctx context.Context, path string) error {
	mainRepo, err := mainRepoFor(path)
	if err == nil {
		g := &Git{repoRoot: mainRepo}
		if _, err := g.run(ctx, "worktree", "remove", "--force", path); err == nil {
			_ = g.PruneWorktrees(ctx)
			return nil
		}
		// Fall through to direct removal; prune so the stale record goes too.
		defer func() { _ = g.PruneWorktrees(ctx) }()
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove suspected worktree %s: %w", path, err)
	}
	return nil
}

// mainRepoFor resolves the source repository of a worktree by reading its
// .git link file ("gitdir: <main>/.git/worktrees/<name>").
func mainRepoFor(worktreePath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(worktreePath, ".git"))
	if err != nil {
		return "", err
	}

	line := strings.TrimSpace(string(data))
	gitdir, ok := strings.CutPrefix(line, "gitdir: ")
	if !ok {
		return "", errors.New("not a worktree link file")
	}

	// <main>/.git/worktrees/<name> -> <main>
	dir := filepath.Clean(gitdir)
	for range 3 {
		dir = filepath.Dir(dir)
	}
	if dir == "." || dir == string(filepath.Separator) {
		return "", errors.New("cannot resolve main repository")
	}
	return dir, nil
}

func isMissingWorktree(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "is not a working tree") ||
		strings.Contains(msg, "No such file or directory") ||
		strings.Contains(msg, "not a valid path")
}

func isMissingBranch(err error) bool {
	return strings.Contains(err.Error(), "not found")
}
