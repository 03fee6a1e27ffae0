package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/helmling/arbor/internal/log"
	"github.com/helmling/arbor/internal/vcs/git"
)

// migrationSuffix names the sibling directory a legacy worktree is parked
// in while its container is rebuilt around it.
const migrationSuffix = "-migrating"

// migrateLegacyLayout converts a legacy single-repository workspace, where
// dir itself is the worktree, into the container layout where the worktree
// lives at dir/<repo.Name>.
//
// Legacy detection: dir exists, dir/.git is a file (the worktree marker; a
// primary checkout has a .git directory), and dir/<repo.Name> is absent.
// Anything else is left untouched.
//
// The worktree is moved to a "<dir>-migrating" sibling, dir is recreated
// empty, and the worktree is moved back in under the repo name. If the
// process dies between the moves, the sibling is unreferenced by any
// session record and the orphan sweep collects it.
func (m *Manager) migrateLegacyLayout(ctx context.Context, dir string, repo Repo) (bool, error) {
	if _, err := os.Stat(dir); err != nil {
		return false, nil
	}

	gitMarker, err := os.Lstat(filepath.Join(dir, ".git"))
	if err != nil || gitMarker.IsDir() {
		return false, nil
	}

	target := filepath.Join(dir, repo.Name)
	if _, err := os.Stat(target); err == nil {
		return false, nil
	}

	g, err := git.New(repo.Path)
	if err != nil {
		return false, err
	}

	temp := dir + migrationSuffix
	if _, err := os.Stat(temp); err == nil {
		// Debris from an interrupted earlier migration.
		log.Warn("removing stale migration directory", log.WorkspaceDir(temp))
		if err := os.RemoveAll(temp); err != nil {
			return false, fmt.Errorf("remove stale migration dir: %w", err)
		}
	}

	if err := g.MoveWorktree(ctx, dir, temp); err != nil {
		return false, fmt.Errorf("move worktree aside: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("recreate workspace dir: %w", err)
	}

	if err := g.MoveWorktree(ctx, temp, target); err != nil {
		return false, fmt.Errorf("move worktree into container: %w", err)
	}

	// The move should have consumed temp; clear any leftovers.
	if err := os.RemoveAll(temp); err != nil {
		log.Warn("failed to remove migration leftovers",
			log.WorkspaceDir(temp), log.Err(err))
	}

	return true, nil
}
