package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/helmling/arbor/internal/vcs"
)

// CreateChange commits the working copy and returns the commit hash.
func (g *Git) CreateChange(ctx context.Context, message string, opts vcs.CreateChangeOptions) (vcs.ChangeID, error) {
	if opts.Base != "" {
		if err := g.Switch(ctx, opts.Base.String()); err != nil {
			return "", fmt.Errorf("switch to base %s: %w", opts.Base, err)
		}
	}

	if opts.StageAll {
		if _, err := g.run(ctx, "add", "-A"); err != nil {
			return "", fmt.Errorf("git add: %w", err)
		}
	}

	if _, err := g.run(ctx, "commit", "--allow-empty", "-m", message); err != nil {
		return "", fmt.Errorf("git commit: %w", err)
	}

	out, err := g.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("get commit hash: %w", err)
	}
	return vcs.ChangeID(strings.TrimSpace(out)), nil
}

// AmendChange amends the current commit, optionally replacing its message.
func (g *Git) AmendChange(ctx context.Context, message string) error {
	args := []string{"commit", "--amend", "--allow-empty"}
	if message != "" {
		args = append(args, "-m", message)
	} else {
		args = append(args, "--no-edit")
	}
	if _, err := g.run(ctx, args...); err != nil {
		return fmt.Errorf("git commit --amend: %w", err)
	}
	return nil
}

// changeLogFormat is unit-separator joined: hash, parents, author, unix time, subject.
const changeLogFormat = "%H%x1f%P%x1f%an <%ae>%x1f%at%x1f%s"

// GetChange returns metadata for one commit.
func (g *Git) GetChange(ctx context.Context, id vcs.ChangeID) (vcs.ChangeInfo, error) {
	out, err := g.run(ctx, "log", "-1", "--format="+changeLogFormat, id.String())
	if err != nil {
		return vcs.ChangeInfo{}, fmt.Errorf("get change %s: %w", id, err)
	}

	info, ok := parseChangeLine(strings.TrimSpace(out))
	if !ok {
		return vcs.ChangeInfo{}, fmt.Errorf("unexpected log output for %s", id)
	}
	return info, nil
}

// ListChanges lists commits newest first.
func (g *Git) ListChanges(ctx context.Context, filter vcs.ChangeFilter) ([]vcs.ChangeInfo, error) {
	args := []string{"log", "--format=" + changeLogFormat}
	if filter.Limit > 0 {
		args = append(args, "-n", strconv.Itoa(filter.Limit))
	}
	if filter.Author != "" {
		args = append(args, "--author="+filter.Author)
	}
	if !filter.Since.IsZero() {
		args = append(args, "--since="+filter.Since.Format(time.RFC3339))
	}
	if filter.Branch != "" {
		args = append(args, filter.Branch)
	}

	out, err := g.run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}

	var changes []vcs.ChangeInfo
	for _, line := range strings.Split(out, "\n") {
		if info, ok := parseChangeLine(line); ok {
			changes = append(changes, info)
		}
	}
	return changes, nil
}

// AbandonChange drops a commit by resetting its branch to the parent. Only
// meaningful for head commits; anything else needs history rewriting, which
// this adapter does not do.
func (g *Git) AbandonChange(ctx context.Context, id vcs.ChangeID) error {
	head, err := g.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}
	if strings.TrimSpace(head) != id.String() {
		return fmt.Errorf("abandon %s: only the head commit can be abandoned", id)
	}
	if _, err := g.run(ctx, "reset", "--hard", "HEAD~1"); err != nil {
		return fmt.Errorf("abandon %s: %w", id, err)
	}
	return nil
}

// ChangeExists checks whether a commit is reachable.
func (g *Git) ChangeExists(ctx context.Context, id vcs.ChangeID) (bool, error) {
	_, err := g.run(ctx, "cat-file", "-e", id.String()+"^{commit}")
	if err != nil {
		return false, nil
	}
	return true, nil
}

func parseChangeLine(line string) (vcs.ChangeInfo, bool) {
	parts := strings.Split(line, "\x1f")
	if len(parts) != 5 || parts[0] == "" {
		return vcs.ChangeInfo{}, false
	}

	var parents []vcs.ChangeID
	for _, p := range strings.Fields(parts[1]) {
		parents = append(parents, vcs.ChangeID(p))
	}

	ts, _ := strconv.ParseInt(parts[3], 10, 64)

	return vcs.ChangeInfo{
		ID:          vcs.ChangeID(parts[0]),
		ParentIDs:   parents,
		Author:      parts[2],
		Timestamp:   time.Unix(ts, 0),
		Description: parts[4],
	}, true
}
