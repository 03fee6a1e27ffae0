// Package workspace orchestrates multi-repository workspaces for agent
// sessions.
//
// A workspace is one container directory holding an isolated view of every
// repository a session touches. Git repositories get a worktree under
// the container on a fresh branch; jj repositories get a logical change in
// place and contribute no subdirectory. Creation is all-or-nothing: a
// failure on any repository rolls back everything already set up and
// removes the container.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/helmling/arbor/internal/log"
	"github.com/helmling/arbor/internal/vcs"
	"github.com/helmling/arbor/internal/vcs/git"
	"github.com/helmling/arbor/internal/vcs/jj"
)

// ErrNoRepositories is returned by Create and Ensure when the
// repository list is empty.
var ErrNoRepositories = errors.New("workspace needs at least one repository")

// Manager creates, repairs and removes workspaces under a base directory.
type Manager struct {
	baseDir string
	// sweepDisabled is consulted at the start of every orphan sweep, so
	// an operator can flip it without restarting anything.
	sweepDisabled func() bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithSweepDisabled installs the operator flag consulted before each orphan
// sweep.
func WithSweepDisabled(f func() bool) Option {
	return func(m *Manager) {
		m.sweepDisabled = f
	}
}

// NewManager returns a Manager rooted at baseDir.
func NewManager(baseDir string, opts ...Option) *Manager {
	m := &Manager{
		baseDir:       baseDir,
		sweepDisabled: func() bool { return false },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BaseDir returns the directory workspace containers live under.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Create sets up a workspace at dir for the given repositories, in input
// order. Each git repository gets a worktree at dir/<name> on a new branch
// named branch, forked from its target branch. Each jj repository gets a new
// change described "workspace: <branch>" and keeps working in place.
//
// If any repository fails, every handle created before it is rolled back,
// the container directory is removed, and the returned error names the
// failing repository.
func (m *Manager) Create(ctx context.Context, dir string, inputs []Input, branch string) (*Workspace, error) {
	if len(inputs) == 0 {
		return nil, ErrNoRepositories
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}

	var handles []Handle
	for _, in := range inputs {
		handle, err := m.isolate(ctx, dir, in, branch)
		if err != nil {
			m.rollback(ctx, dir, handles, branch)
			return nil, fmt.Errorf("create workspace for repo %q: %w", in.Repo.Name, err)
		}
		handles = append(handles, handle)
	}

	log.Info("created workspace",
		log.WorkspaceDir(dir), "branch", branch, "repos", len(handles))

	return &Workspace{Dir: dir, Branch: branch, Handles: handles}, nil
}

// isolate sets up one repository's isolation and returns its handle. The
// source repository is probed and validated before anything is created.
func (m *Manager) isolate(ctx context.Context, dir string, in Input, branch string) (Handle, error) {
	kind, err := vcs.DetectValid(ctx, in.Repo.Path)
	if err != nil {
		return Handle{}, err
	}

	handle := Handle{
		RepoID:       in.Repo.ID,
		RepoName:     in.Repo.Name,
		SourcePath:   in.Repo.Path,
		TargetBranch: in.targetBranch(),
		Kind:         kind,
	}

	switch kind {
	case vcs.KindDirectory:
		g, err := git.New(in.Repo.Path)
		if err != nil {
			return Handle{}, err
		}

		path := filepath.Join(dir, in.Repo.Name)
		if err := g.CreateWorktree(ctx, path, branch, in.targetBranch()); err != nil {
			return Handle{}, err
		}
		handle.Path = path

	case vcs.KindChange:
		j, err := jj.New(in.Repo.Path)
		if err != nil {
			return Handle{}, err
		}

		id, err := j.CreateSession(ctx, branch, "")
		if err != nil {
			return Handle{}, err
		}
		handle.Path = in.Repo.Path
		handle.ChangeID = id

	default:
		return Handle{}, fmt.Errorf("%w: kind %s", vcs.ErrBackendUnavailable, kind)
	}

	return handle, nil
}

// rollback undoes the handles created so far, newest first, then removes
// the container directory. The removal is non-recursive: a container that
// still holds content we did not create stays in place. Individual failures
// are logged, not propagated: the original creation error is what the
// caller needs to see.
func (m *Manager) rollback(ctx context.Context, dir string, handles []Handle, branch string) {
	for i := len(handles) - 1; i >= 0; i-- {
		h := handles[i]
		if err := m.releaseHandle(ctx, h, branch); err != nil {
			log.Error("rollback failed for repo",
				log.RepoName(h.RepoName), log.Err(err))
		}
	}

	if err := os.Remove(dir); err != nil {
		log.Warn("workspace dir left in place during rollback",
			log.WorkspaceDir(dir), log.Err(err))
	}
}

// releaseHandle undoes one handle's isolation.
func (m *Manager) releaseHandle(ctx context.Context, h Handle, branch string) error {
	switch h.Kind {
	case vcs.KindDirectory:
		g, err := git.New(h.SourcePath)
		if err != nil {
			return err
		}
		return g.CleanupWorktree(ctx, h.Path, branch)

	case vcs.KindChange:
		j, err := jj.New(h.SourcePath)
		if err != nil {
			return err
		}
		return j.CleanupSession(ctx, h.ChangeID)

	default:
		return fmt.Errorf("%w: kind %s", vcs.ErrBackendUnavailable, h.Kind)
	}
}

// Ensure makes sure the workspace at dir is usable, recreating whatever is
// missing. It migrates a single-repository legacy layout first, recreates
// missing git worktrees, and leaves jj repositories alone (their sessions
// live in repo history, not under dir). Ensure is idempotent and touches
// nothing when everything is already in place.
func (m *Manager) Ensure(ctx context.Context, dir string, repos []Repo, branch string) error {
	if len(repos) == 0 {
		return ErrNoRepositories
	}

	if len(repos) == 1 {
		migrated, err := m.migrateLegacyLayout(ctx, dir, repos[0])
		if err != nil {
			return fmt.Errorf("migrate legacy workspace %s: %w", dir, err)
		}
		if migrated {
			log.Info("migrated legacy workspace layout",
				log.WorkspaceDir(dir), log.RepoName(repos[0].Name))
		}
	}

	for _, repo := range repos {
		kind, err := vcs.Detect(repo.Path)
		if err != nil {
			return fmt.Errorf("ensure workspace for repo %q: %w", repo.Name, err)
		}
		if kind != vcs.KindDirectory {
			continue
		}

		g, err := git.New(repo.Path)
		if err != nil {
			return fmt.Errorf("ensure workspace for repo %q: %w", repo.Name, err)
		}

		path := filepath.Join(dir, repo.Name)
		if err := g.EnsureWorktree(ctx, path, branch); err != nil {
			return fmt.Errorf("ensure workspace for repo %q: %w", repo.Name, err)
		}
	}

	return nil
}

// Cleanup tears down the workspace at dir. Git worktrees and their session
// branches are removed; jj changes stay in repo history, where abandoning
// them would lose completed work. Container removal is best-effort and only
// logged: cleanup must never block other teardown work.
func (m *Manager) Cleanup(ctx context.Context, dir string, repos []Repo, branch string) error {
	for _, repo := range repos {
		kind, err := vcs.Detect(repo.Path)
		if err != nil {
			// A vanished source repo has nothing left to clean.
			log.Warn("skipping cleanup for unrecognized repo",
				log.RepoName(repo.Name), log.Err(err))
			continue
		}
		if kind != vcs.KindDirectory {
			continue
		}

		g, err := git.New(repo.Path)
		if err != nil {
			return fmt.Errorf("cleanup workspace for repo %q: %w", repo.Name, err)
		}

		path := filepath.Join(dir, repo.Name)
		if err := g.CleanupWorktree(ctx, path, branch); err != nil {
			return fmt.Errorf("cleanup workspace for repo %q: %w", repo.Name, err)
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		log.Warn("failed to remove workspace dir",
			log.WorkspaceDir(dir), log.Err(err))
	}

	return nil
}
