package commands

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/helmling/arbor/internal/workspace"
)

var (
	wsRepos  []string
	wsBranch string
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Create, repair and remove agent workspaces",
}

var workspaceCreateCmd = &cobra.Command{
	Use:   "create <dir>",
	Short: "Create a workspace for a set of repositories",
	Long: `Create a workspace container at <dir> holding an isolated view of every
given repository. Git repositories get a worktree at <dir>/<name> on a new
branch; jj repositories get a logical change and keep working in place.

Creation is all-or-nothing: if any repository fails, everything already set
up is rolled back and the container is removed.

Repositories are given as --repo name=path or --repo name=path@target to
override the branch the session's work will merge into (default: the
repository's main branch).

Examples:
  arbor workspace create ./ws-1 --repo api=~/src/api --branch agent-fix
  arbor workspace create ./ws-2 --repo api=~/src/api@develop --repo web=~/src/web --branch agent-2`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkspaceCreate,
}

var workspaceEnsureCmd = &cobra.Command{
	Use:   "ensure <dir>",
	Short: "Repair a workspace, recreating whatever is missing",
	Long: `Ensure the workspace at <dir> is usable. Missing git worktrees are
recreated on their session branch; a legacy single-repository layout (the
workspace directory itself being the worktree) is migrated to the container
layout first. Does nothing when everything is already in place.`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkspaceEnsure,
}

var workspaceCleanupCmd = &cobra.Command{
	Use:   "cleanup <dir>",
	Short: "Tear down a workspace",
	Long: `Remove the workspace at <dir>: git worktrees and their session branches
are deleted, jj changes stay in repository history. Safe to run twice.`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkspaceCleanup,
}

func init() {
	rootCmd.AddCommand(workspaceCmd)
	workspaceCmd.AddCommand(workspaceCreateCmd, workspaceEnsureCmd, workspaceCleanupCmd)

	for _, cmd := range []*cobra.Command{workspaceCreateCmd, workspaceEnsureCmd, workspaceCleanupCmd} {
		cmd.Flags().StringArrayVar(&wsRepos, "repo", nil, "Repository as name=path[@target] (repeatable)")
		cmd.Flags().StringVar(&wsBranch, "branch", "", "Session branch name")
		_ = cmd.MarkFlagRequired("repo")
		_ = cmd.MarkFlagRequired("branch")
	}
}

// parseRepoSpec parses a name=path[@target] repository spec.
func parseRepoSpec(spec string) (workspace.Input, error) {
	name, rest, ok := strings.Cut(spec, "=")
	if !ok || name == "" || rest == "" {
		return workspace.Input{}, fmt.Errorf("invalid repo spec %q, want name=path[@target]", spec)
	}

	path, target, _ := strings.Cut(rest, "@")
	if path == "" {
		return workspace.Input{}, fmt.Errorf("invalid repo spec %q, empty path", spec)
	}

	return workspace.Input{
		Repo: workspace.Repo{
			ID:                  uuid.NewSHA1(uuid.NameSpaceURL, []byte(path)),
			Name:                name,
			Path:                path,
			DefaultTargetBranch: "main",
		},
		TargetBranch: target,
	}, nil
}

func parseRepoSpecs(specs []string) ([]workspace.Input, error) {
	inputs := make([]workspace.Input, 0, len(specs))
	for _, spec := range specs {
		in, err := parseRepoSpec(spec)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func runWorkspaceCreate(cmd *cobra.Command, args []string) error {
	inputs, err := parseRepoSpecs(wsRepos)
	if err != nil {
		return err
	}

	ws, err := newManager().Create(cmd.Context(), args[0], inputs, wsBranch)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "created workspace %s on branch %s\n", ws.Dir, ws.Branch)
	for _, h := range ws.Handles {
		fmt.Fprintf(out, "  %s (%s): %s\n", h.RepoName, h.Kind, h.Path)
	}
	return nil
}

func runWorkspaceEnsure(cmd *cobra.Command, args []string) error {
	inputs, err := parseRepoSpecs(wsRepos)
	if err != nil {
		return err
	}

	repos := make([]workspace.Repo, 0, len(inputs))
	for _, in := range inputs {
		repos = append(repos, in.Repo)
	}

	if err := newManager().Ensure(cmd.Context(), args[0], repos, wsBranch); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "workspace %s ready\n", args[0])
	return nil
}

func runWorkspaceCleanup(cmd *cobra.Command, args []string) error {
	inputs, err := parseRepoSpecs(wsRepos)
	if err != nil {
		return err
	}

	repos := make([]workspace.Repo, 0, len(inputs))
	for _, in := range inputs {
		repos = append(repos, in.Repo)
	}

	if err := newManager().Cleanup(cmd.Context(), args[0], repos, wsBranch); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "workspace %s removed\n", args[0])
	return nil
}
