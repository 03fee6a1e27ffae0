package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var sweepLive []string

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove orphaned workspace containers",
	Long: `Scan the workspace base directory and remove containers no live session
references. Containers named with --live are kept; everything else under
the base directory is torn down, including its worktree entries in the
source repositories.

The sweep can be disabled entirely with disable_orphan_scan in the config
file or ARBOR_DISABLE_ORPHAN_SCAN=true.

Examples:
  arbor sweep --live ./ws-1 --live ./ws-2
  arbor sweep`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepLive, "live", nil, "Container dir still in use (repeatable)")
}

// liveListRegistry answers reference checks from a fixed list of live
// container paths.
type liveListRegistry map[string]bool

func (r liveListRegistry) ContainerRefExists(_ context.Context, containerDir string) (bool, error) {
	abs, err := filepath.Abs(containerDir)
	if err != nil {
		return false, err
	}
	return r[abs], nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	registry := make(liveListRegistry, len(sweepLive))
	for _, dir := range sweepLive {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolve --live %s: %w", dir, err)
		}
		registry[abs] = true
	}

	newManager().SweepOrphans(cmd.Context(), registry)
	return nil
}
