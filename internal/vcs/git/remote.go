package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/helmling/arbor/internal/vcs"
)

// Fetch fetches from a remote.
func (g *Git) Fetch(ctx context.Context, opts vcs.FetchOptions) error {
	remote := opts.Remote
	if remote == "" {
		remote = "origin"
	}

	args := []string{"fetch", remote}
	if opts.Branch != "" {
		args = append(args, opts.Branch)
	}
	if opts.Prune {
		args = append(args, "--prune")
	}

	if _, err := g.run(ctx, args...); err != nil {
		return fmt.Errorf("fetch %s: %w", remote, err)
	}
	return nil
}

// Push pushes to a remote.
func (g *Git) Push(ctx context.Context, opts vcs.PushOptions) error {
	remote := opts.Remote
	if remote == "" {
		remote = "origin"
	}
	branch := opts.Branch
	if branch == "" {
		branch = "HEAD"
	}

	args := []string{"push", remote, branch}
	if opts.Force {
		args = []string{"push", "--force-with-lease", remote, branch}
	}

	if _, err := g.run(ctx, args...); err != nil {
		return fmt.Errorf("push %s %s: %w", remote, branch, err)
	}
	return nil
}

// RemoteBranchExists checks if a remote branch exists.
func (g *Git) RemoteBranchExists(ctx context.Context, remote, branch string) (bool, error) {
	_, err := g.run(ctx, "rev-parse", "--verify", fmt.Sprintf("refs/remotes/%s/%s", remote, branch))
	return err == nil, nil
}

// GetRemoteURL returns the URL for a remote.
func (g *Git) GetRemoteURL(ctx context.Context, name string) (string, error) {
	out, err := g.run(ctx, "remote", "get-url", name)
	if err != nil {
		return "", fmt.Errorf("get remote URL %s: %w", name, err)
	}
	return strings.TrimSpace(out), nil
}

// SetRemoteURL sets the URL for a remote.
func (g *Git) SetRemoteURL(ctx context.Context, name, url string) error {
	if _, err := g.run(ctx, "remote", "set-url", name, url); err != nil {
		return fmt.Errorf("set remote URL %s: %w", name, err)
	}
	return nil
}

// ListRemotes returns all remote names.
func (g *Git) ListRemotes(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "remote")
	if err != nil {
		return nil, fmt.Errorf("list remotes: %w", err)
	}

	var remotes []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			remotes = append(remotes, line)
		}
	}
	return remotes, nil
}
