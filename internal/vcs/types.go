package vcs

import "time"

// ChangeID identifies a single logical change in a backend.
// For git this is a commit hash; for jj it is the stable change id,
// which survives rewrites of the underlying revision.
type ChangeID string

// String returns the raw identifier.
func (c ChangeID) String() string {
	return string(c)
}

// HeadInfo describes the current working position of a repository.
type HeadInfo struct {
	Branch      string // Empty when not on a branch
	ChangeID    ChangeID
	Description string
}

// ChangeInfo holds metadata about a change.
type ChangeInfo struct {
	ID          ChangeID
	ParentIDs   []ChangeID
	Author      string
	Timestamp   time.Time
	Description string
	Empty       bool
}

// ChangeFilter narrows a change listing.
type ChangeFilter struct {
	Branch string
	Author string
	Since  time.Time
	Limit  int
}

// BranchInfo describes a branch.
type BranchInfo struct {
	Name      string
	ChangeID  ChangeID
	IsCurrent bool
	IsRemote  bool
}

// FileChangeType classifies a file-level diff entry.
type FileChangeType int

const (
	FileAdded FileChangeType = iota
	FileModified
	FileDeleted
	FileRenamed
	FileCopied
)

// FileDiff describes one file in a diff.
type FileDiff struct {
	Path       string
	OldPath    string // Set for renames
	ChangeType FileChangeType
}

// FileStatusKind classifies working-copy file state.
type FileStatusKind int

const (
	StatusUntracked FileStatusKind = iota
	StatusModified
	StatusAdded
	StatusDeleted
	StatusConflicted
)

// FileStatus describes one file in the working copy.
type FileStatus struct {
	Path string
	Kind FileStatusKind
}

// ConflictInfo describes one conflicted path.
type ConflictInfo struct {
	Path string
}

// Operation identifies an in-progress backend operation.
type Operation int

const (
	OpNone Operation = iota
	OpMerge
	OpRebase
)

// CreateChangeOptions configures change creation.
type CreateChangeOptions struct {
	// Base is the change to branch from. Empty means the current change.
	Base ChangeID
	// StageAll stages every working-copy modification first (git only;
	// jj snapshots the working copy automatically).
	StageAll bool
}

// FetchOptions configures a fetch.
type FetchOptions struct {
	Remote string // Defaults to "origin"
	Branch string // Empty fetches all branches
	Prune  bool
}

// PushOptions configures a push.
type PushOptions struct {
	Remote string // Defaults to "origin"
	Branch string // Empty pushes the current branch
	Force  bool
}
