package commands

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/helmling/arbor/internal/automerge"
	"github.com/helmling/arbor/internal/forge"
	"github.com/helmling/arbor/internal/vcs"
	"github.com/helmling/arbor/internal/vcs/jj"
	"github.com/helmling/arbor/internal/workspace"
)

var mergeProject string

var mergeCmd = &cobra.Command{
	Use:   "merge <dir>",
	Short: "Land a finished session's work on its target branches",
	Long: `Merge the session working in the workspace at <dir> onto each
repository's target branch: fetch, rebase favoring the session's changes,
push. Merges for the same project are serialized; requires automerge.enabled
in the config.

With automerge.open_reviews set, a pull or merge request is opened on the
repository's forge after each push (tokens from forge.github_token /
forge.gitlab_token or the matching ARBOR_ environment variables).

Examples:
  arbor merge ./ws-1 --repo api=~/src/api --branch agent-fix
  arbor merge ./ws-2 --repo api=~/src/api@develop --branch agent-2 --project 7f9c...`,
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringArrayVar(&wsRepos, "repo", nil, "Repository as name=path[@target] (repeatable)")
	mergeCmd.Flags().StringVar(&wsBranch, "branch", "", "Session branch name")
	mergeCmd.Flags().StringVar(&mergeProject, "project", "", "Project UUID for merge serialization")
	_ = mergeCmd.MarkFlagRequired("repo")
	_ = mergeCmd.MarkFlagRequired("branch")
}

func runMerge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := args[0]

	inputs, err := parseRepoSpecs(wsRepos)
	if err != nil {
		return err
	}

	projectID := uuid.New()
	if mergeProject != "" {
		projectID, err = uuid.Parse(mergeProject)
		if err != nil {
			return fmt.Errorf("invalid --project: %w", err)
		}
	}

	ws, err := reconstructWorkspace(cmd, dir, inputs)
	if err != nil {
		return err
	}

	var opts []automerge.Option
	if cfg.AutoMerge.OpenReviews {
		opts = append(opts, automerge.WithReviewOpener(forge.NewOpener(forge.Tokens{
			GitHub: cfg.Forge.GitHubToken,
			GitLab: cfg.Forge.GitLabToken,
		})))
	}

	err = automerge.NewCoordinator(opts...).Merge(ctx, automerge.Completion{
		Project:   automerge.Project{ID: projectID, AutoMerge: cfg.AutoMerge.Enabled},
		SessionID: uuid.New(),
		Workspace: ws,
	})
	if err != nil {
		return err
	}

	if !cfg.AutoMerge.Enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "auto-merge is disabled (set automerge.enabled), nothing done")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "merged session %s\n", wsBranch)
	return nil
}

// reconstructWorkspace rebuilds the handles for an existing workspace from
// its repositories: git repositories map to their worktree under dir, jj
// repositories to their current working-copy change.
func reconstructWorkspace(cmd *cobra.Command, dir string, inputs []workspace.Input) (*workspace.Workspace, error) {
	ws := &workspace.Workspace{Dir: dir, Branch: wsBranch}

	for _, in := range inputs {
		kind, err := vcs.Detect(in.Repo.Path)
		if err != nil {
			return nil, fmt.Errorf("repo %q: %w", in.Repo.Name, err)
		}

		target := in.TargetBranch
		if target == "" {
			target = in.Repo.DefaultTargetBranch
		}

		h := workspace.Handle{
			RepoID:       in.Repo.ID,
			RepoName:     in.Repo.Name,
			SourcePath:   in.Repo.Path,
			TargetBranch: target,
			Kind:         kind,
		}

		switch kind {
		case vcs.KindDirectory:
			h.Path = filepath.Join(dir, in.Repo.Name)
		case vcs.KindChange:
			j, err := jj.New(in.Repo.Path)
			if err != nil {
				return nil, fmt.Errorf("repo %q: %w", in.Repo.Name, err)
			}
			head, err := j.Head(cmd.Context())
			if err != nil {
				return nil, fmt.Errorf("repo %q: %w", in.Repo.Name, err)
			}
			h.Path = in.Repo.Path
			h.ChangeID = head.ChangeID
		}

		ws.Handles = append(ws.Handles, h)
	}

	return ws, nil
}
