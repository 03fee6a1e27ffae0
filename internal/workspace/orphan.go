package workspace

import (
	"context"
	"os"
	"path/filepath"

	"github.com/helmling/arbor/internal/log"
	"github.com/helmling/arbor/internal/vcs/git"
)

// SweepOrphans removes workspace containers under the base directory that
// no live session record references anymore. These accumulate when a
// process dies between creating a workspace and persisting its record, or
// when a record is deleted without teardown.
//
// The sweep is entirely best-effort: every outcome is logged and nothing is
// returned, because no caller can do anything useful with a partial sweep
// failure. The operator disable flag is consulted before the base directory
// is touched at all.
func (m *Manager) SweepOrphans(ctx context.Context, registry Registry) {
	if m.sweepDisabled() {
		log.Info("orphan sweep disabled by operator flag")
		return
	}

	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error("failed to read workspace base dir",
				log.WorkspaceDir(m.baseDir), log.Err(err))
		}
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		container := filepath.Join(m.baseDir, entry.Name())
		referenced, err := registry.ContainerRefExists(ctx, container)
		if err != nil {
			log.Error("failed to check workspace reference",
				log.WorkspaceDir(container), log.Err(err))
			continue
		}
		if referenced {
			continue
		}

		m.removeOrphan(ctx, container)
	}
}

// removeOrphan tears down one unreferenced container. Subdirectories are
// treated as suspected worktrees so their administrative entries in the
// primary repositories get released, not just the files.
func (m *Manager) removeOrphan(ctx context.Context, container string) {
	log.Info("removing orphaned workspace", log.WorkspaceDir(container))

	children, err := os.ReadDir(container)
	if err != nil {
		log.Warn("failed to list orphaned workspace",
			log.WorkspaceDir(container), log.Err(err))
	}

	for _, child := range children {
		if !child.IsDir() {
			continue
		}
		path := filepath.Join(container, child.Name())
		if err := git.CleanupSuspectedWorktree(ctx, path); err != nil {
			log.Warn("failed to clean suspected worktree",
				log.WorkspaceDir(path), log.Err(err))
		}
	}

	if err := os.RemoveAll(container); err != nil {
		log.Error("failed to remove orphaned workspace",
			log.WorkspaceDir(container), log.Err(err))
		return
	}

	log.Info("removed orphaned workspace", log.WorkspaceDir(container))
}
