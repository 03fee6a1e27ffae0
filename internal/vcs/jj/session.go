package jj

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/helmling/arbor/internal/log"
	"github.com/helmling/arbor/internal/vcs"
)

// Session describes one logical change serving as an agent session.
type Session struct {
	ChangeID    vcs.ChangeID
	Description string
}

// sessionPrefix marks changes created by CreateSession so ListSessions can
// find them again.
const sessionPrefix = "workspace: "

// SessionDescription renders the description a session change carries.
func SessionDescription(branchName string) string {
	return sessionPrefix + branchName
}

// CreateSession starts a new change for an agent session on top of base and
// returns its change id. An empty base starts from the current working copy.
func (j *JJ) CreateSession(ctx context.Context, branchName string, base vcs.ChangeID) (vcs.ChangeID, error) {
	if base != "" {
		if _, err := j.run(ctx, "edit", base.String()); err != nil {
			return "", fmt.Errorf("edit base %s: %w", base, err)
		}
	}

	id, err := j.CreateChange(ctx, SessionDescription(branchName), vcs.CreateChangeOptions{})
	if err != nil {
		return "", fmt.Errorf("create session %s: %w", branchName, err)
	}

	log.Debug("created jj session", log.ChangeID(id.String()), "branch", branchName)
	return id, nil
}

// SwitchSession moves the working copy onto a session's change.
func (j *JJ) SwitchSession(ctx context.Context, id vcs.ChangeID) error {
	if _, err := j.run(ctx, "edit", id.String()); err != nil {
		return fmt.Errorf("switch to session %s: %w", id, err)
	}
	return nil
}

// CleanupSession abandons a session's change. A change that no longer
// resolves means someone already abandoned it, which is the state cleanup
// wants anyway; the abandoned content stays recoverable in the operation
// log either way.
func (j *JJ) CleanupSession(ctx context.Context, id vcs.ChangeID) error {
	if err := j.AbandonChange(ctx, id); err != nil {
		if errors.Is(err, vcs.ErrChangeNotFound) {
			log.Debug("session change already gone", log.ChangeID(id.String()))
			return nil
		}
		return fmt.Errorf("cleanup session %s: %w", id, err)
	}

	log.Debug("abandoned jj session", log.ChangeID(id.String()))
	return nil
}

// ListSessions returns the visible session changes, newest first.
func (j *JJ) ListSessions(ctx context.Context) ([]Session, error) {
	out, err := j.run(ctx, "log", "-r", `description(glob:"workspace: *")`, "--no-graph",
		"-T", `change_id.short() ++ "`+fieldSep+`" ++ description.first_line() ++ "\n"`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var sessions []Session
	for _, line := range strings.Split(out, "\n") {
		id, desc, ok := strings.Cut(line, fieldSep)
		if !ok || id == "" {
			continue
		}
		sessions = append(sessions, Session{
			ChangeID:    vcs.ChangeID(id),
			Description: desc,
		})
	}

	return sessions, nil
}

// HasGitBackend reports whether the repository stores its objects in git,
// which is what the interop commands and colocated checkouts require.
func (j *JJ) HasGitBackend() bool {
	info, err := os.Stat(filepath.Join(j.repoRoot, ".jj", "repo", "store", "git"))
	if err == nil && info.IsDir() {
		return true
	}
	// A colocated repo points at the sibling .git directory instead.
	_, err = os.Stat(filepath.Join(j.repoRoot, ".jj", "repo", "store", "git_target"))
	return err == nil
}

// GitExport exports bookmarks to the underlying git repository.
func (j *JJ) GitExport(ctx context.Context) error {
	if _, err := j.run(ctx, "git", "export"); err != nil {
		return fmt.Errorf("git export: %w", err)
	}
	return nil
}

// GitImport imports refs from the underlying git repository.
func (j *JJ) GitImport(ctx context.Context) error {
	if _, err := j.run(ctx, "git", "import"); err != nil {
		return fmt.Errorf("git import: %w", err)
	}
	return nil
}
