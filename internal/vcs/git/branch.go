package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/helmling/arbor/internal/vcs"
)

// CreateBranch creates a branch without checking it out.
func (g *Git) CreateBranch(ctx context.Context, name string, base vcs.ChangeID) error {
	args := []string{"branch", name}
	if base != "" {
		args = append(args, base.String())
	}
	if _, err := g.run(ctx, args...); err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

// DeleteBranch force-deletes a branch.
func (g *Git) DeleteBranch(ctx context.Context, name string) error {
	if _, err := g.run(ctx, "branch", "-D", name); err != nil {
		return fmt.Errorf("delete branch %s: %w", name, err)
	}
	return nil
}

// RenameBranch renames a branch.
func (g *Git) RenameBranch(ctx context.Context, oldName, newName string) error {
	if _, err := g.run(ctx, "branch", "-m", oldName, newName); err != nil {
		return fmt.Errorf("rename branch %s to %s: %w", oldName, newName, err)
	}
	return nil
}

// ListBranches returns all local branches.
func (g *Git) ListBranches(ctx context.Context) ([]vcs.BranchInfo, error) {
	out, err := g.run(ctx, "branch", "-v", "--no-abbrev")
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}

	var branches []vcs.BranchInfo
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		b := vcs.BranchInfo{}
		if strings.HasPrefix(line, "* ") {
			b.IsCurrent = true
			line = line[2:]
		}

		parts := strings.Fields(line)
		if len(parts) >= 2 {
			b.Name = parts[0]
			b.ChangeID = vcs.ChangeID(parts[1])
		}

		branches = append(branches, b)
	}

	return branches, nil
}

// CurrentBranch returns the current branch name.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("get current branch: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Switch checks out a branch or commit.
func (g *Git) Switch(ctx context.Context, target string) error {
	if _, err := g.run(ctx, "checkout", target); err != nil {
		return fmt.Errorf("git checkout %s: %w", target, err)
	}
	return nil
}

// BranchExists checks if a local branch exists.
func (g *Git) BranchExists(ctx context.Context, name string) (bool, error) {
	_, err := g.run(ctx, "rev-parse", "--verify", "refs/heads/"+name)
	return err == nil, nil
}

// IsBranchNameValid reports whether name is a legal branch name.
func (g *Git) IsBranchNameValid(name string) bool {
	if name == "" {
		return false
	}
	_, err := g.run(context.Background(), "check-ref-format", "--branch", name)
	return err == nil
}

// GetBaseBranch finds the base branch (usually main or master).
func (g *Git) GetBaseBranch(ctx context.Context) (string, error) {
	candidates := []string{"main", "master", "develop"}

	for _, name := range candidates {
		if ok, _ := g.BranchExists(ctx, name); ok {
			return name, nil
		}
	}

	for _, name := range candidates {
		if ok, _ := g.RemoteBranchExists(ctx, "origin", name); ok {
			return name, nil
		}
	}

	branches, err := g.ListBranches(ctx)
	if err != nil {
		return "", err
	}
	if len(branches) > 0 {
		return branches[0].Name, nil
	}

	return "", fmt.Errorf("no base branch found")
}

// RebaseWithStrategy rebases the current branch onto another ref with a
// merge-strategy option. The auto-merge flow uses "theirs" so the agent's
// changes win over concurrent upstream edits.
func (g *Git) RebaseWithStrategy(ctx context.Context, onto, strategy string) error {
	args := []string{"rebase"}
	if strategy != "" {
		args = append(args, "-X", strategy)
	}
	args = append(args, onto)
	if _, err := g.run(ctx, args...); err != nil {
		return fmt.Errorf("rebase onto %s: %w", onto, err)
	}
	return nil
}
