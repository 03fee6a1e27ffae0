package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/helmling/arbor/internal/vcs"
)

// Git porcelain v1 format constants
// Format: XY PATH where X=index status, Y=worktree status
// See: https://git-scm.com/docs/git-status#_short_format
const (
	gitStatusIndexPos   = 0 // Position of index (staged) status character
	gitStatusWorkDirPos = 1 // Position of working directory status character
	gitStatusPathStart  = 3 // Position where file path begins (after "XY ")
	gitStatusMinLength  = 4 // Minimum valid entry length (XY + space + at least 1 char)
)

// Status returns the state of files in the working copy.
func (g *Git) Status(ctx context.Context) ([]vcs.FileStatus, error) {
	out, err := g.run(ctx, "status", "--porcelain", "-z")
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}

	if out == "" {
		return nil, nil
	}

	var files []vcs.FileStatus
	entries := strings.Split(strings.TrimSuffix(out, "\x00"), "\x00")
	for _, entry := range entries {
		if len(entry) < gitStatusMinLength {
			continue
		}
		files = append(files, vcs.FileStatus{
			Path: strings.TrimSpace(entry[gitStatusPathStart:]),
			Kind: statusKind(entry[gitStatusIndexPos], entry[gitStatusWorkDirPos]),
		})
	}

	return files, nil
}

// HasUncommittedChanges reports whether the working copy is dirty.
func (g *Git) HasUncommittedChanges(ctx context.Context) (bool, error) {
	files, err := g.Status(ctx)
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

// DiffChanges returns the file-level diff between two commits.
func (g *Git) DiffChanges(ctx context.Context, from, to vcs.ChangeID) ([]vcs.FileDiff, error) {
	out, err := g.run(ctx, "diff", "--name-status", "-z", from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", from, to, err)
	}
	return parseNameStatus(out), nil
}

// DiffUncommitted returns the file-level diff of the working copy against HEAD.
func (g *Git) DiffUncommitted(ctx context.Context) ([]vcs.FileDiff, error) {
	out, err := g.run(ctx, "diff", "--name-status", "-z", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("diff uncommitted: %w", err)
	}
	return parseNameStatus(out), nil
}

// HasConflicts reports whether any path is in conflicted state.
func (g *Git) HasConflicts(ctx context.Context) (bool, error) {
	conflicts, err := g.ListConflicts(ctx)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// ListConflicts returns all conflicted paths.
func (g *Git) ListConflicts(ctx context.Context) ([]vcs.ConflictInfo, error) {
	out, err := g.run(ctx, "diff", "--name-only", "--diff-filter=U", "-z")
	if err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}

	var conflicts []vcs.ConflictInfo
	for _, path := range strings.Split(strings.TrimSuffix(out, "\x00"), "\x00") {
		if path != "" {
			conflicts = append(conflicts, vcs.ConflictInfo{Path: path})
		}
	}
	return conflicts, nil
}

// ResolveConflict marks one conflicted path as resolved by staging it.
func (g *Git) ResolveConflict(ctx context.Context, path string) error {
	if _, err := g.run(ctx, "add", "--", path); err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	return nil
}

// AbortOperation aborts an in-progress merge or rebase.
func (g *Git) AbortOperation(ctx context.Context) error {
	op, err := g.OngoingOperation(ctx)
	if err != nil {
		return err
	}

	switch op {
	case vcs.OpRebase:
		if _, err := g.run(ctx, "rebase", "--abort"); err != nil {
			return fmt.Errorf("abort rebase: %w", err)
		}
	case vcs.OpMerge:
		if _, err := g.run(ctx, "merge", "--abort"); err != nil {
			return fmt.Errorf("abort merge: %w", err)
		}
	case vcs.OpNone:
		return fmt.Errorf("no operation in progress")
	}
	return nil
}

// OngoingOperation reports an in-progress merge or rebase by probing the git
// dir's state markers.
func (g *Git) OngoingOperation(ctx context.Context) (vcs.Operation, error) {
	out, err := g.run(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return vcs.OpNone, fmt.Errorf("resolve git dir: %w", err)
	}
	gitDir := strings.TrimSpace(out)
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(g.repoRoot, gitDir)
	}

	for _, marker := range []string{"rebase-merge", "rebase-apply"} {
		if _, err := os.Stat(filepath.Join(gitDir, marker)); err == nil {
			return vcs.OpRebase, nil
		}
	}
	if _, err := os.Stat(filepath.Join(gitDir, "MERGE_HEAD")); err == nil {
		return vcs.OpMerge, nil
	}

	return vcs.OpNone, nil
}

func statusKind(index, workdir byte) vcs.FileStatusKind {
	switch {
	case index == '?' || workdir == '?':
		return vcs.StatusUntracked
	case index == 'U' || workdir == 'U', index == 'A' && workdir == 'A', index == 'D' && workdir == 'D':
		return vcs.StatusConflicted
	case index == 'A':
		return vcs.StatusAdded
	case index == 'D' || workdir == 'D':
		return vcs.StatusDeleted
	default:
		return vcs.StatusModified
	}
}

// parseNameStatus parses "git diff --name-status -z" output. Entries are
// STATUS\0PATH\0, with renames as STATUS\0OLD\0NEW\0.
func parseNameStatus(out string) []vcs.FileDiff {
	fields := strings.Split(strings.TrimSuffix(out, "\x00"), "\x00")

	var diffs []vcs.FileDiff
	for i := 0; i < len(fields); i++ {
		status := fields[i]
		if status == "" || i+1 >= len(fields) {
			continue
		}

		var d vcs.FileDiff
		switch status[0] {
		case 'A':
			d.ChangeType = vcs.FileAdded
		case 'D':
			d.ChangeType = vcs.FileDeleted
		case 'R':
			d.ChangeType = vcs.FileRenamed
		case 'C':
			d.ChangeType = vcs.FileCopied
		default:
			d.ChangeType = vcs.FileModified
		}

		if d.ChangeType == vcs.FileRenamed || d.ChangeType == vcs.FileCopied {
			if i+2 >= len(fields) {
				break
			}
			d.OldPath = fields[i+1]
			d.Path = fields[i+2]
			i += 2
		} else {
			d.Path = fields[i+1]
			i++
		}

		diffs = append(diffs, d)
	}
	return diffs
}
