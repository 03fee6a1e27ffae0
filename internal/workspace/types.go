package workspace

import (
	"context"

	"github.com/google/uuid"

	"github.com/helmling/arbor/internal/vcs"
)

// Repo describes one repository participating in a workspace.
type Repo struct {
	ID   uuid.UUID
	Name string
	// Path is the primary checkout the isolation is created from.
	Path string
	// DefaultTargetBranch is used when an Input does not override it.
	DefaultTargetBranch string
}

// Input pairs a repository with the branch a session's work targets.
type Input struct {
	Repo Repo
	// TargetBranch overrides Repo.DefaultTargetBranch when set.
	TargetBranch string
}

func (in Input) targetBranch() string {
	if in.TargetBranch != "" {
		return in.TargetBranch
	}
	return in.Repo.DefaultTargetBranch
}

// Handle records how one repository was isolated for one workspace.
type Handle struct {
	RepoID   uuid.UUID
	RepoName string
	// SourcePath is the primary checkout the isolation came from.
	SourcePath string
	// Path is where the session works: the worktree directory for
	// directory isolation, the shared checkout for change isolation.
	Path string
	// TargetBranch is the branch the session's work will merge into.
	TargetBranch string
	Kind         vcs.BackendKind
	// ChangeID is set for change isolation only.
	ChangeID vcs.ChangeID
}

// Workspace is the result of a successful Create.
type Workspace struct {
	// Dir is the container directory holding per-repo worktrees.
	Dir     string
	Branch  string
	Handles []Handle
}

// Registry answers whether a container directory is still referenced by a
// live session record. The orphan sweep treats unreferenced containers as
// garbage.
type Registry interface {
	ContainerRefExists(ctx context.Context, containerDir string) (bool, error)
}
