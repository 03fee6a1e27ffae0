// Package vcs defines the capability abstraction shared by the workspace
// orchestrator's backends.
//
// Two isolation strategies exist:
//   - directory isolation (git): each session gets its own working directory
//     via a worktree, tied to its own branch
//   - change isolation (jj): sessions share one directory and are tracked as
//     separate logical changes by the backend itself
//
// The interfaces here group operations by concern so the orchestrator never
// branches on a concrete backend beyond its Kind. Every operation returns an
// error for expected failures (missing ref, dirty tree, network); nothing in
// this package panics on them.
package vcs

import "context"

// BackendKind identifies a backend's isolation strategy.
type BackendKind int

const (
	// KindDirectory is git: isolation by a disposable working-tree copy.
	KindDirectory BackendKind = iota
	// KindChange is jj: isolation by an in-place logical change.
	KindChange
)

func (k BackendKind) String() string {
	switch k {
	case KindDirectory:
		return "git"
	case KindChange:
		return "jj"
	default:
		return "unknown"
	}
}

// Repository covers repository lifecycle and state queries.
type Repository interface {
	// WorkDir returns the working directory path.
	WorkDir() string

	// Head returns the current working position.
	Head(ctx context.Context) (HeadInfo, error)

	// IsClean reports whether the repository has no uncommitted changes
	// and no in-progress operation.
	IsClean(ctx context.Context) (bool, error)

	// IsValid reports whether the repository exists and is usable.
	IsValid(ctx context.Context) bool
}

// Changes covers creation and querying of logical changes.
type Changes interface {
	Repository

	CreateChange(ctx context.Context, message string, opts CreateChangeOptions) (ChangeID, error)
	AmendChange(ctx context.Context, message string) error
	GetChange(ctx context.Context, id ChangeID) (ChangeInfo, error)
	ListChanges(ctx context.Context, filter ChangeFilter) ([]ChangeInfo, error)

	// AbandonChange discards a change. For git this resets the branch; for
	// jj it abandons the change in the operation log.
	AbandonChange(ctx context.Context, id ChangeID) error

	ChangeExists(ctx context.Context, id ChangeID) (bool, error)
}

// Branches covers branch and ref management.
type Branches interface {
	Repository

	CreateBranch(ctx context.Context, name string, base ChangeID) error
	DeleteBranch(ctx context.Context, name string) error
	RenameBranch(ctx context.Context, oldName, newName string) error
	ListBranches(ctx context.Context) ([]BranchInfo, error)
	CurrentBranch(ctx context.Context) (string, error)

	// Switch moves the working copy to a branch or change.
	Switch(ctx context.Context, target string) error

	BranchExists(ctx context.Context, name string) (bool, error)
	IsBranchNameValid(name string) bool
}

// Remotes covers remote synchronization.
type Remotes interface {
	Repository

	Fetch(ctx context.Context, opts FetchOptions) error
	Push(ctx context.Context, opts PushOptions) error
	RemoteBranchExists(ctx context.Context, remote, branch string) (bool, error)
	GetRemoteURL(ctx context.Context, name string) (string, error)
	SetRemoteURL(ctx context.Context, name, url string) error
	ListRemotes(ctx context.Context) ([]string, error)
}

// Diff covers diff and status queries.
type Diff interface {
	Repository

	DiffChanges(ctx context.Context, from, to ChangeID) ([]FileDiff, error)
	DiffUncommitted(ctx context.Context) ([]FileDiff, error)
	Status(ctx context.Context) ([]FileStatus, error)
	HasUncommittedChanges(ctx context.Context) (bool, error)
}

// Conflicts covers conflict inspection and resolution.
type Conflicts interface {
	Repository

	HasConflicts(ctx context.Context) (bool, error)
	ListConflicts(ctx context.Context) ([]ConflictInfo, error)
	ResolveConflict(ctx context.Context, path string) error
	AbortOperation(ctx context.Context) error
	OngoingOperation(ctx context.Context) (Operation, error)
}

// Backend is the full capability set a backend must implement.
type Backend interface {
	Changes
	Branches
	Remotes
	Diff
	Conflicts

	Kind() BackendKind
}
