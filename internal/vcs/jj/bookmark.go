package jj

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/helmling/arbor/internal/vcs"
)

// jj calls branches "bookmarks". The Branches interface maps onto them
// one to one, except that jj has no notion of a current branch: the
// working copy sits on a change, and bookmarks merely point at changes.

// CreateBranch creates a bookmark pointing at base (or the working copy).
func (j *JJ) CreateBranch(ctx context.Context, name string, base vcs.ChangeID) error {
	args := []string{"bookmark", "create", name}
	if base != "" {
		args = append(args, "-r", base.String())
	}

	if _, err := j.run(ctx, args...); err != nil {
		return fmt.Errorf("create bookmark %s: %w", name, err)
	}
	return nil
}

// SetBookmark points an existing or new bookmark at a revision, moving it
// backwards if needed.
func (j *JJ) SetBookmark(ctx context.Context, name string, target vcs.ChangeID) error {
	if _, err := j.run(ctx, "bookmark", "set", name, "-r", target.String(), "--allow-backwards"); err != nil {
		return fmt.Errorf("set bookmark %s: %w", name, err)
	}
	return nil
}

// DeleteBranch deletes a bookmark.
func (j *JJ) DeleteBranch(ctx context.Context, name string) error {
	if _, err := j.run(ctx, "bookmark", "delete", name); err != nil {
		return fmt.Errorf("delete bookmark %s: %w", name, err)
	}
	return nil
}

// RenameBranch renames a bookmark.
func (j *JJ) RenameBranch(ctx context.Context, oldName, newName string) error {
	if _, err := j.run(ctx, "bookmark", "rename", oldName, newName); err != nil {
		return fmt.Errorf("rename bookmark %s: %w", oldName, err)
	}
	return nil
}

// ListBranches lists local and remote bookmarks.
func (j *JJ) ListBranches(ctx context.Context) ([]vcs.BranchInfo, error) {
	out, err := j.run(ctx, "bookmark", "list", "--all-remotes",
		"-T", `name ++ if(remote, "@" ++ remote) ++ "`+fieldSep+`" ++ normal_target.change_id().short() ++ "\n"`)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}

	var branches []vcs.BranchInfo
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(line, fieldSep, 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		branches = append(branches, vcs.BranchInfo{
			Name:     parts[0],
			ChangeID: vcs.ChangeID(parts[1]),
			IsRemote: strings.ContainsRune(parts[0], '@'),
		})
	}

	return branches, nil
}

// CurrentBranch returns the first bookmark on the working-copy change, or
// empty when none points at it.
func (j *JJ) CurrentBranch(ctx context.Context) (string, error) {
	head, err := j.Head(ctx)
	if err != nil {
		return "", err
	}
	return head.Branch, nil
}

// Switch moves the working copy onto a bookmark or change.
func (j *JJ) Switch(ctx context.Context, target string) error {
	if _, err := j.run(ctx, "edit", target); err != nil {
		return fmt.Errorf("switch to %s: %w", target, err)
	}
	return nil
}

// BranchExists reports whether a local bookmark with the name exists.
func (j *JJ) BranchExists(ctx context.Context, name string) (bool, error) {
	out, err := j.run(ctx, "bookmark", "list", name, "-T", `name ++ "\n"`)
	if err != nil {
		if errors.Is(err, vcs.ErrChangeNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check bookmark %s: %w", name, err)
	}

	for _, line := range strings.Split(out, "\n") {
		if line == name {
			return true, nil
		}
	}
	return false, nil
}

// IsBranchNameValid applies git's ref-name rules, which jj enforces for
// bookmarks that get exported to git.
func (j *JJ) IsBranchNameValid(name string) bool {
	if name == "" || name == "@" {
		return false
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, ".") || strings.HasSuffix(name, ".lock") ||
		strings.HasSuffix(name, "/") {
		return false
	}
	if strings.Contains(name, "..") || strings.Contains(name, "@{") ||
		strings.Contains(name, "//") {
		return false
	}
	for _, r := range name {
		switch {
		case r <= ' ' || r == 0x7f:
			return false
		case strings.ContainsRune("~^:?*[\\", r):
			return false
		}
	}
	return true
}
