package git

import (
	"context"
	"errors"
	"testing"

	"github.com/helmling/arbor/internal/testutil"
	"github.com/helmling/arbor/internal/vcs"
)

func TestNew(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)

	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if g.WorkDir() == "" {
		t.Error("WorkDir should not be empty")
	}
	if g.Kind() != vcs.KindDirectory {
		t.Errorf("Kind = %v, want KindDirectory", g.Kind())
	}
}

func TestNewNotARepo(t *testing.T) {
	_, err := New(t.TempDir())
	if !errors.Is(err, vcs.ErrNotRepository) {
		t.Errorf("New on non-repo = %v, want ErrNotRepository", err)
	}
}

func TestHead(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	head, err := g.Head(context.Background())
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head.Branch != "main" {
		t.Errorf("Head.Branch = %q, want %q", head.Branch, "main")
	}
	if head.ChangeID == "" {
		t.Error("Head.ChangeID should not be empty")
	}
	if head.Description != "initial commit" {
		t.Errorf("Head.Description = %q, want %q", head.Description, "initial commit")
	}
}

func TestIsClean(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	clean, err := g.IsClean(ctx)
	if err != nil {
		t.Fatalf("IsClean: %v", err)
	}
	if !clean {
		t.Error("fresh repo should be clean")
	}

	testutil.WriteFile(t, dir+"/dirty.txt", "x\n")

	clean, err = g.IsClean(ctx)
	if err != nil {
		t.Fatalf("IsClean: %v", err)
	}
	if clean {
		t.Error("repo with untracked file should not be clean")
	}
}

func TestCreateAndAbandonChange(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	testutil.WriteFile(t, dir+"/feature.txt", "feature\n")
	id, err := g.CreateChange(ctx, "add feature", vcs.CreateChangeOptions{StageAll: true})
	if err != nil {
		t.Fatalf("CreateChange: %v", err)
	}

	exists, err := g.ChangeExists(ctx, id)
	if err != nil {
		t.Fatalf("ChangeExists: %v", err)
	}
	if !exists {
		t.Errorf("change %s should exist", id)
	}

	info, err := g.GetChange(ctx, id)
	if err != nil {
		t.Fatalf("GetChange: %v", err)
	}
	if info.Description != "add feature" {
		t.Errorf("Description = %q, want %q", info.Description, "add feature")
	}
	if len(info.ParentIDs) != 1 {
		t.Errorf("ParentIDs = %d, want 1", len(info.ParentIDs))
	}

	if err := g.AbandonChange(ctx, id); err != nil {
		t.Fatalf("AbandonChange: %v", err)
	}
	head, err := g.Head(ctx)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head.ChangeID == id {
		t.Error("head should have moved off the abandoned change")
	}
}

func TestListChanges(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	testutil.WriteFileAndCommit(t, dir, "a.txt", "a\n", "second commit")
	testutil.WriteFileAndCommit(t, dir, "b.txt", "b\n", "third commit")

	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	changes, err := g.ListChanges(context.Background(), vcs.ChangeFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListChanges: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("ListChanges = %d entries, want 2", len(changes))
	}
	if changes[0].Description != "third commit" {
		t.Errorf("newest change = %q, want %q", changes[0].Description, "third commit")
	}
}

func TestBranchLifecycle(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := g.CreateBranch(ctx, "feature/x", ""); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	exists, err := g.BranchExists(ctx, "feature/x")
	if err != nil {
		t.Fatalf("BranchExists: %v", err)
	}
	if !exists {
		t.Error("created branch should exist")
	}

	if err := g.RenameBranch(ctx, "feature/x", "feature/y"); err != nil {
		t.Fatalf("RenameBranch: %v", err)
	}
	if err := g.DeleteBranch(ctx, "feature/y"); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}
	testutil.AssertBranchMissing(t, dir, "feature/y")
}

func TestIsBranchNameValid(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"feature/login", true},
		{"fix-123", true},
		{"", false},
		{"has space", false},
		{"double..dot", false},
		{"ends.lock", false},
	}
	for _, tt := range tests {
		if got := g.IsBranchNameValid(tt.name); got != tt.want {
			t.Errorf("IsBranchNameValid(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGetBaseBranch(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	base, err := g.GetBaseBranch(context.Background())
	if err != nil {
		t.Fatalf("GetBaseBranch: %v", err)
	}
	if base != "main" {
		t.Errorf("GetBaseBranch = %q, want %q", base, "main")
	}
}
