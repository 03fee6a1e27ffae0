package jj

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/helmling/arbor/internal/vcs"
)

// CreateChange starts a new change on top of base (or the current change)
// and returns its stable change id. jj snapshots the working copy on its
// own, so StageAll is a no-op here.
func (j *JJ) CreateChange(ctx context.Context, message string, opts vcs.CreateChangeOptions) (vcs.ChangeID, error) {
	args := []string{"new", "-m", message}
	if opts.Base != "" {
		args = append(args, opts.Base.String())
	}

	if _, err := j.run(ctx, args...); err != nil {
		return "", fmt.Errorf("create change: %w", err)
	}

	return j.currentChangeID(ctx)
}

// AmendChange rewrites the description of the working-copy change.
func (j *JJ) AmendChange(ctx context.Context, message string) error {
	if _, err := j.run(ctx, "describe", "-m", message); err != nil {
		return fmt.Errorf("amend change: %w", err)
	}
	return nil
}

// GetChange returns metadata for one change.
func (j *JJ) GetChange(ctx context.Context, id vcs.ChangeID) (vcs.ChangeInfo, error) {
	out, err := j.log(ctx, id.String(), changeTemplate)
	if err != nil {
		return vcs.ChangeInfo{}, fmt.Errorf("get change %s: %w", id, err)
	}

	line := strings.TrimSuffix(out, "\n")
	info, ok := parseChangeLine(line)
	if !ok {
		return vcs.ChangeInfo{}, fmt.Errorf("get change %s: %w", id, vcs.ErrChangeNotFound)
	}

	return info, nil
}

// ListChanges lists changes newest first, honoring the filter.
func (j *JJ) ListChanges(ctx context.Context, filter vcs.ChangeFilter) ([]vcs.ChangeInfo, error) {
	revset := "::@"
	if filter.Branch != "" {
		revset = "::" + filter.Branch
	}
	if filter.Author != "" {
		revset += " & author(" + strconv.Quote(filter.Author) + ")"
	}
	if !filter.Since.IsZero() {
		revset += ` & committer_date(after:` + strconv.Quote(filter.Since.Format("2006-01-02 15:04:05")) + `)`
	}

	args := []string{"log", "-r", revset, "--no-graph", "-T", changeTemplate}
	if filter.Limit > 0 {
		args = append(args, "-n", strconv.Itoa(filter.Limit))
	}

	out, err := j.run(ctx, args...)
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

// AbandonChange drops a change from the visible history. The content stays
// recoverable through the operation log.
func (j *JJ) AbandonChange(ctx context.Context, id vcs.ChangeID) error {
	if _, err := j.run(ctx, "abandon", id.String()); err != nil {
		return fmt.Errorf("abandon change %s: %w", id, err)
	}
	return nil
}

// RebaseOnto rebases one change onto a destination revision or bookmark.
// Conflicts don't stop jj; the rebased change carries conflict markers and
// reports them through HasConflicts.
func (j *JJ) RebaseOnto(ctx context.Context, id vcs.ChangeID, dest string) error {
	if _, err := j.run(ctx, "rebase", "-r", id.String(), "-d", dest); err != nil {
		return fmt.Errorf("rebase %s onto %s: %w", id, dest, err)
	}
	return nil
}

// ChangeExists reports whether the change id resolves.
func (j *JJ) ChangeExists(ctx context.Context, id vcs.ChangeID) (bool, error) {
	_, err := j.log(ctx, id.String(), `change_id.short()`)
	if err != nil {
		if errors.Is(err, vcs.ErrChangeNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check change %s: %w", id, err)
	}
	return true, nil
}

func (j *JJ) currentChangeID(ctx context.Context) (vcs.ChangeID, error) {
	out, err := j.log(ctx, "@", `change_id.short()`)
	if err != nil {
		return "", fmt.Errorf("read working-copy change id: %w", err)
	}
	return vcs.ChangeID(strings.TrimSpace(out)), nil
}
