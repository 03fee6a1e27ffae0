// Package automerge lands a finished agent session's work on its target
// branches without human review.
//
// Projects opt in per project. Merges for the same project are serialized
// through a per-project lock so two sessions finishing together cannot
// interleave their fetch/rebase/push sequences; different projects proceed
// independently. Conflicts during the rebase resolve in favor of the
// session's changes, which is the whole point of opting in.
package automerge

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/helmling/arbor/internal/log"
	"github.com/helmling/arbor/internal/vcs"
	"github.com/helmling/arbor/internal/vcs/git"
	"github.com/helmling/arbor/internal/vcs/jj"
	"github.com/helmling/arbor/internal/workspace"
)

// Project identifies the merge domain and whether it opted in.
type Project struct {
	ID        uuid.UUID
	AutoMerge bool
}

// Completion describes one finished agent session.
type Completion struct {
	Project   Project
	SessionID uuid.UUID
	Workspace *workspace.Workspace
}

// ReviewOpener opens a pull or merge request after a successful push.
// Implementations live in internal/forge.
type ReviewOpener interface {
	OpenReview(ctx context.Context, remoteURL, branch, target, title string) (string, error)
}

// Coordinator serializes auto-merges per project.
type Coordinator struct {
	mu    sync.RWMutex
	locks map[uuid.UUID]*sync.Mutex

	// opener is optional; when set, a review is opened for each pushed
	// repository as a non-blocking follow-up.
	opener ReviewOpener
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithReviewOpener makes the coordinator open a PR/MR after each
// successful push.
func WithReviewOpener(o ReviewOpener) Option {
	return func(c *Coordinator) {
		c.opener = o
	}
}

// NewCoordinator returns a ready Coordinator.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{locks: make(map[uuid.UUID]*sync.Mutex)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// projectLock returns the mutex for a project, creating it on first use.
// The map never shrinks; its size is bounded by the number of live
// projects.
func (c *Coordinator) projectLock(id uuid.UUID) *sync.Mutex {
	c.mu.RLock()
	m, ok := c.locks[id]
	c.mu.RUnlock()
	if ok {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok = c.locks[id]; !ok {
		m = &sync.Mutex{}
		c.locks[id] = m
	}
	return m
}

// Merge lands a completed session's work on the target branch of every
// repository in its workspace. It returns nil when the project has not
// opted in. Failures keep their vcs classification (auth, rejected push,
// conflict) and name the repository they came from.
func (c *Coordinator) Merge(ctx context.Context, completion Completion) error {
	if !completion.Project.AutoMerge {
		log.Debug("auto-merge not enabled, skipping",
			log.SessionID(completion.SessionID.String()))
		return nil
	}

	lock := c.projectLock(completion.Project.ID)
	lock.Lock()
	defer lock.Unlock()

	log.Info("auto-merging session",
		log.SessionID(completion.SessionID.String()),
		log.WorkspaceDir(completion.Workspace.Dir))

	for _, h := range completion.Workspace.Handles {
		if err := c.mergeHandle(ctx, h, completion.Workspace.Branch); err != nil {
			return fmt.Errorf("auto-merge repo %q: %w", h.RepoName, err)
		}
	}

	return nil
}

// mergeHandle runs the fetch/rebase/push sequence for one repository.
func (c *Coordinator) mergeHandle(ctx context.Context, h workspace.Handle, branch string) error {
	switch h.Kind {
	case vcs.KindDirectory:
		return c.mergeWorktree(ctx, h, branch)
	case vcs.KindChange:
		return c.mergeChange(ctx, h, branch)
	default:
		return fmt.Errorf("%w: kind %s", vcs.ErrBackendUnavailable, h.Kind)
	}
}

func (c *Coordinator) mergeWorktree(ctx context.Context, h workspace.Handle, branch string) error {
	g, err := git.New(h.Path)
	if err != nil {
		return err
	}

	if err := g.Fetch(ctx, vcs.FetchOptions{Branch: h.TargetBranch}); err != nil {
		return fmt.Errorf("fetch %s: %w", h.TargetBranch, err)
	}

	// Favor the session's side of any conflict.
	if err := g.RebaseWithStrategy(ctx, "origin/"+h.TargetBranch, "theirs"); err != nil {
		return fmt.Errorf("rebase onto %s: %w", h.TargetBranch, err)
	}

	if err := g.Push(ctx, vcs.PushOptions{Branch: "HEAD:" + h.TargetBranch}); err != nil {
		return fmt.Errorf("push to %s: %w", h.TargetBranch, err)
	}

	c.openReview(ctx, g, branch, h)
	return nil
}

func (c *Coordinator) mergeChange(ctx context.Context, h workspace.Handle, branch string) error {
	j, err := jj.New(h.Path)
	if err != nil {
		return err
	}

	if err := j.Fetch(ctx, vcs.FetchOptions{Branch: h.TargetBranch}); err != nil {
		return fmt.Errorf("fetch %s: %w", h.TargetBranch, err)
	}

	if err := j.RebaseOnto(ctx, h.ChangeID, h.TargetBranch+"@origin"); err != nil {
		return fmt.Errorf("rebase onto %s: %w", h.TargetBranch, err)
	}

	// jj rebases never stop, they record conflicts in the change.
	conflicted, err := j.HasConflicts(ctx)
	if err != nil {
		return err
	}
	if conflicted {
		return fmt.Errorf("rebase onto %s: %w", h.TargetBranch, vcs.ErrConflict)
	}

	if err := j.SetBookmark(ctx, h.TargetBranch, h.ChangeID); err != nil {
		return err
	}

	if err := j.Push(ctx, vcs.PushOptions{Branch: h.TargetBranch}); err != nil {
		return fmt.Errorf("push to %s: %w", h.TargetBranch, err)
	}

	c.openReview(ctx, j, branch, h)
	return nil
}

// remoteURLer is the slice of both backends openReview needs.
type remoteURLer interface {
	GetRemoteURL(ctx context.Context, name string) (string, error)
}

// openReview opens a PR/MR as a follow-up. It never affects the merge
// result; failures are logged and dropped.
func (c *Coordinator) openReview(ctx context.Context, repo remoteURLer, branch string, h workspace.Handle) {
	if c.opener == nil {
		return
	}

	remoteURL, err := repo.GetRemoteURL(ctx, "origin")
	if err != nil {
		log.Warn("cannot open review, no origin remote",
			log.RepoName(h.RepoName), log.Err(err))
		return
	}

	url, err := c.opener.OpenReview(ctx, remoteURL, branch, h.TargetBranch,
		"Agent session "+branch)
	if err != nil {
		log.Warn("failed to open review",
			log.RepoName(h.RepoName), log.Err(err))
		return
	}

	log.Info("opened review", log.RepoName(h.RepoName), "url", url)
}
