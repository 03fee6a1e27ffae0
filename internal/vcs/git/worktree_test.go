package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/helmling/arbor/internal/testutil"
)

func TestCreateWorktree(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	wtPath := filepath.Join(t.TempDir(), "session-1")
	if err := g.CreateWorktree(ctx, wtPath, "ws/session-1", "main"); err != nil {
		t.Fatalf("CreateWorktree: %v", err)
	}

	if _, err := os.Stat(filepath.Join(wtPath, "README.md")); err != nil {
		t.Errorf("worktree should contain checked-out files: %v", err)
	}
	if !g.WorktreeExists(ctx, wtPath) {
		t.Error("worktree should be registered")
	}
	testutil.AssertBranchExists(t, dir, "ws/session-1")

	if got := testutil.GetCurrentBranch(t, wtPath); got != "ws/session-1" {
		t.Errorf("worktree branch = %q, want %q", got, "ws/session-1")
	}
	// Source repo stays on its own branch.
	if got := testutil.GetCurrentBranch(t, dir); got != "main" {
		t.Errorf("source branch = %q, want %q", got, "main")
	}
}

func TestCreateWorktreeBadBaseLeavesNothing(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	wtPath := filepath.Join(t.TempDir(), "broken")
	if err := g.CreateWorktree(context.Background(), wtPath, "ws/broken", "no-such-base"); err == nil {
		t.Fatal("CreateWorktree with bad base should fail")
	}

	if _, err := os.Stat(wtPath); !os.IsNotExist(err) {
		t.Errorf("failed creation should leave no directory behind, stat err = %v", err)
	}
}

func TestCleanupWorktreeIdempotent(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	wtPath := filepath.Join(t.TempDir(), "session-2")
	if err := g.CreateWorktree(ctx, wtPath, "ws/session-2", "main"); err != nil {
		t.Fatalf("CreateWorktree: %v", err)
	}

	if err := g.CleanupWorktree(ctx, wtPath, "ws/session-2"); err != nil {
		t.Fatalf("CleanupWorktree: %v", err)
	}
	if _, err := os.Stat(wtPath); !os.IsNotExist(err) {
		t.Error("worktree directory should be gone")
	}
	testutil.AssertBranchMissing(t, dir, "ws/session-2")

	// Second cleanup of the same handle must not fail.
	if err := g.CleanupWorktree(ctx, wtPath, "ws/session-2"); err != nil {
		t.Errorf("second CleanupWorktree: %v", err)
	}
}

func TestMoveWorktree(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	base := t.TempDir()
	from := filepath.Join(base, "old-spot")
	to := filepath.Join(base, "new-spot")
	if err := g.CreateWorktree(ctx, from, "ws/move-me", "main"); err != nil {
		t.Fatalf("CreateWorktree: %v", err)
	}

	if err := g.MoveWorktree(ctx, from, to); err != nil {
		t.Fatalf("MoveWorktree: %v", err)
	}

	if _, err := os.Stat(from); !os.IsNotExist(err) {
		t.Error("old location should be gone")
	}
	if !g.WorktreeExists(ctx, to) {
		t.Error("worktree should be registered at the new location")
	}
	if got := testutil.GetCurrentBranch(t, to); got != "ws/move-me" {
		t.Errorf("moved worktree branch = %q, want %q", got, "ws/move-me")
	}
}

func TestEnsureWorktreeRecreatesMissing(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	wtPath := filepath.Join(t.TempDir(), "session-3")
	if err := g.CreateWorktree(ctx, wtPath, "ws/session-3", "main"); err != nil {
		t.Fatalf("CreateWorktree: %v", err)
	}

	// Simulate a crash that lost the directory but kept the branch.
	if err := os.RemoveAll(wtPath); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}

	if err := g.EnsureWorktree(ctx, wtPath, "ws/session-3"); err != nil {
		t.Fatalf("EnsureWorktree: %v", err)
	}
	if _, err := os.Stat(filepath.Join(wtPath, "README.md")); err != nil {
		t.Errorf("recreated worktree should contain files: %v", err)
	}

	// Already present: a second call is a no-op.
	if err := g.EnsureWorktree(ctx, wtPath, "ws/session-3"); err != nil {
		t.Errorf("EnsureWorktree on existing worktree: %v", err)
	}
}

func TestCleanupSuspectedWorktree(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	wtPath := filepath.Join(t.TempDir(), "stray")
	if err := g.CreateWorktree(ctx, wtPath, "ws/stray", "main"); err != nil {
		t.Fatalf("CreateWorktree: %v", err)
	}

	if err := CleanupSuspectedWorktree(ctx, wtPath); err != nil {
		t.Fatalf("CleanupSuspectedWorktree: %v", err)
	}
	if _, err := os.Stat(wtPath); !os.IsNotExist(err) {
		t.Error("stray worktree should be removed")
	}
	if g.WorktreeExists(ctx, wtPath) {
		t.Error("stray worktree should be deregistered")
	}
}

func TestCleanupSuspectedWorktreePlainDir(t *testing.T) {
	// Not a worktree at all: falls back to direct removal.
	dir := filepath.Join(t.TempDir(), "junk")
	testutil.WriteFile(t, filepath.Join(dir, "file.txt"), "junk\n")

	if err := CleanupSuspectedWorktree(context.Background(), dir); err != nil {
		t.Fatalf("CleanupSuspectedWorktree: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("plain directory should be removed")
	}
}

func TestMainRepoFor(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	wtPath := filepath.Join(t.TempDir(), "linked")
	if err := g.CreateWorktree(context.Background(), wtPath, "ws/linked", "main"); err != nil {
		t.Fatalf("CreateWorktree: %v", err)
	}

	main, err := mainRepoFor(wtPath)
	if err != nil {
		t.Fatalf("mainRepoFor: %v", err)
	}
	if main != g.WorkDir() {
		t.Errorf("mainRepoFor = %q, want %q", main, g.WorkDir())
	}
}
