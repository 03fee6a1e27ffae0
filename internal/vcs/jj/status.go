package jj

import (
	"context"
	"fmt"
	"strings"

	"github.com/helmling/arbor/internal/vcs"
)

// DiffChanges lists files differing between two changes.
func (j *JJ) DiffChanges(ctx context.Context, from, to vcs.ChangeID) ([]vcs.FileDiff, error) {
	out, err := j.run(ctx, "diff", "--from", from.String(), "--to", to.String(), "--summary")
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", from, to, err)
	}
	return parseDiffSummary(out), nil
}

// DiffUncommitted lists files the working-copy change touches relative to
// its parent. jj snapshots on every command, so this is the closest
// equivalent to git's uncommitted diff.
func (j *JJ) DiffUncommitted(ctx context.Context) ([]vcs.FileDiff, error) {
	out, err := j.run(ctx, "diff", "-r", "@", "--summary")
	if err != nil {
		return nil, fmt.Errorf("diff working copy: %w", err)
	}
	return parseDiffSummary(out), nil
}

// Status reports per-file working-copy state. jj tracks every file, so
// nothing is ever untracked; conflicted paths are folded in from the
// resolver.
func (j *JJ) Status(ctx context.Context) ([]vcs.FileStatus, error) {
	diffs, err := j.DiffUncommitted(ctx)
	if err != nil {
		return nil, err
	}

	conflicted := make(map[string]bool)
	conflicts, err := j.ListConflicts(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range conflicts {
		conflicted[c.Path] = true
	}

	var statuses []vcs.FileStatus
	for _, d := range diffs {
		kind := vcs.StatusModified
		switch {
		case conflicted[d.Path]:
			kind = vcs.StatusConflicted
		case d.ChangeType == vcs.FileAdded:
			kind = vcs.StatusAdded
		case d.ChangeType == vcs.FileDeleted:
			kind = vcs.StatusDeleted
		}
		statuses = append(statuses, vcs.FileStatus{Path: d.Path, Kind: kind})
	}

	return statuses, nil
}

// HasUncommittedChanges reports whether the working-copy change is non-empty.
func (j *JJ) HasUncommittedChanges(ctx context.Context) (bool, error) {
	out, err := j.log(ctx, "@", `if(empty, "t", "f")`)
	if err != nil {
		return false, fmt.Errorf("check working copy: %w", err)
	}
	return strings.TrimSpace(out) == "f", nil
}

// HasConflicts reports whether the working-copy change has conflict markers.
func (j *JJ) HasConflicts(ctx context.Context) (bool, error) {
	out, err := j.log(ctx, "@", `if(conflict, "c", "-")`)
	if err != nil {
		return false, fmt.Errorf("check conflicts: %w", err)
	}
	return strings.TrimSpace(out) == "c", nil
}

// ListConflicts returns the conflicted paths of the working copy.
func (j *JJ) ListConflicts(ctx context.Context) ([]vcs.ConflictInfo, error) {
	has, err := j.HasConflicts(ctx)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, nil
	}

	// `jj resolve --list` prints "path    description" per conflict.
	out, err := j.run(ctx, "resolve", "--list")
	if err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}

	var conflicts []vcs.ConflictInfo
	for _, line := range strings.Split(out, "\n") {
		if path, _, ok := strings.Cut(line, " "); ok && path != "" {
			conflicts = append(conflicts, vcs.ConflictInfo{Path: path})
		} else if line != "" {
			conflicts = append(conflicts, vcs.ConflictInfo{Path: line})
		}
	}

	return conflicts, nil
}

// ResolveConflict hands one path to jj's builtin resolver.
func (j *JJ) ResolveConflict(ctx context.Context, path string) error {
	if _, err := j.run(ctx, "resolve", path); err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	return nil
}

// AbortOperation undoes the last operation. jj never leaves a half-applied
// merge or rebase behind the way git does, so undo is the whole story.
func (j *JJ) AbortOperation(ctx context.Context) error {
	if _, err := j.run(ctx, "undo"); err != nil {
		return fmt.Errorf("undo: %w", err)
	}
	return nil
}

// OngoingOperation always reports none: jj operations are atomic.
func (j *JJ) OngoingOperation(ctx context.Context) (vcs.Operation, error) {
	return vcs.OpNone, nil
}

// parseDiffSummary reads `jj diff --summary` output: one "X path" line per
// file, where X is M, A, D, R or C.
func parseDiffSummary(out string) []vcs.FileDiff {
	var diffs []vcs.FileDiff
	for _, line := range strings.Split(out, "\n") {
		marker, rest, ok := strings.Cut(line, " ")
		if !ok || marker == "" {
			continue
		}

		d := vcs.FileDiff{Path: rest}
		switch marker {
		case "A":
			d.ChangeType = vcs.FileAdded
		case "D":
			d.ChangeType = vcs.FileDeleted
		case "M":
			d.ChangeType = vcs.FileModified
		case "R", "C":
			// Rename lines look like "R {old => new}".
			if d.ChangeType = vcs.FileRenamed; marker == "C" {
				d.ChangeType = vcs.FileCopied
			}
			if old, newPath, ok := splitRename(rest); ok {
				d.OldPath, d.Path = old, newPath
			}
		default:
			continue
		}
		diffs = append(diffs, d)
	}
	return diffs
}

func splitRename(s string) (oldPath, newPath string, ok bool) {
	open := strings.Index(s, "{")
	end := strings.Index(s, "}")
	if open < 0 || end < open {
		return "", "", false
	}

	prefix, suffix := s[:open], s[end+1:]
	inner := s[open+1 : end]
	oldPart, newPart, found := strings.Cut(inner, " => ")
	if !found {
		return "", "", false
	}

	return prefix + oldPart + suffix, prefix + newPart + suffix, true
}
