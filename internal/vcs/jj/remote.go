package jj

import (
	"context"
	"fmt"
	"strings"

	"github.com/helmling/arbor/internal/vcs"
)

// Remote synchronization goes through jj's git interop layer. Failures
// carry the backend's stderr and are classified into the shared sentinel
// errors so callers can distinguish auth failures from rejected pushes.

// Fetch fetches from a remote.
func (j *JJ) Fetch(ctx context.Context, opts vcs.FetchOptions) error {
	args := []string{"git", "fetch", "--remote", remoteOrDefault(opts.Remote)}
	if opts.Branch != "" {
		args = append(args, "--branch", opts.Branch)
	}

	if _, err := j.run(ctx, args...); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	return nil
}

// Push pushes a bookmark to a remote. An empty branch pushes whatever
// bookmarks track the remote, matching `jj git push` defaults.
func (j *JJ) Push(ctx context.Context, opts vcs.PushOptions) error {
	// Force is implicit: jj pushes the tracked bookmark state even when it
	// moved backwards, so no extra flag exists.
	args := []string{"git", "push", "--remote", remoteOrDefault(opts.Remote)}
	if opts.Branch != "" {
		args = append(args, "--bookmark", opts.Branch, "--allow-new")
	}

	if _, err := j.run(ctx, args...); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

// PushChange pushes a single change to the remote under a generated
// bookmark, publishing a session's work without naming a branch first.
func (j *JJ) PushChange(ctx context.Context, id vcs.ChangeID, remote string) error {
	if _, err := j.run(ctx, "git", "push", "--remote", remoteOrDefault(remote), "--change", id.String()); err != nil {
		return fmt.Errorf("push change %s: %w", id, err)
	}
	return nil
}

// RemoteBranchExists reports whether remote has a bookmark named branch.
func (j *JJ) RemoteBranchExists(ctx context.Context, remote, branch string) (bool, error) {
	branches, err := j.ListBranches(ctx)
	if err != nil {
		return false, err
	}

	want := branch + "@" + remoteOrDefault(remote)
	for _, b := range branches {
		if b.Name == want {
			return true, nil
		}
	}
	return false, nil
}

// GetRemoteURL returns the URL of a named remote.
func (j *JJ) GetRemoteURL(ctx context.Context, name string) (string, error) {
	out, err := j.run(ctx, "git", "remote", "list")
	if err != nil {
		return "", fmt.Errorf("get remote %s: %w", name, err)
	}

	for _, line := range strings.Split(out, "\n") {
		remote, url, ok := strings.Cut(line, " ")
		if ok && remote == name {
			return url, nil
		}
	}
	return "", fmt.Errorf("get remote %s: not configured", name)
}

// SetRemoteURL updates the URL of a named remote.
func (j *JJ) SetRemoteURL(ctx context.Context, name, url string) error {
	if _, err := j.run(ctx, "git", "remote", "set-url", name, url); err != nil {
		return fmt.Errorf("set remote %s: %w", name, err)
	}
	return nil
}

// ListRemotes returns configured remote names.
func (j *JJ) ListRemotes(ctx context.Context) ([]string, error) {
	out, err := j.run(ctx, "git", "remote", "list")
	if err != nil {
		return nil, fmt.Errorf("list remotes: %w", err)
	}

	var remotes []string
	for _, line := range strings.Split(out, "\n") {
		if name, _, ok := strings.Cut(line, " "); ok && name != "" {
			remotes = append(remotes, name)
		}
	}
	return remotes, nil
}

func remoteOrDefault(remote string) string {
	if remote == "" {
		return "origin"
	}
	return remote
}
