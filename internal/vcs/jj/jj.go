// Package jj implements the change-isolation backend over the Jujutsu (jj)
// executable.
//
// jj lets multiple agent sessions share one working directory: each session
// is a separate logical change, and the backend keeps them apart at the
// change layer instead of the filesystem layer. No worktree copies, and
// cleanup is `jj abandon` instead of directory removal. This package invokes
// the backend faithfully and surfaces its results; it does not implement any
// serialization of its own.
package jj

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/helmling/arbor/internal/vcs"
)

// Template field separator for log output parsing.
const fieldSep = "\x1f"

// JJ provides jj operations for a repository.
type JJ struct {
	repoRoot string
}

func init() {
	vcs.Register(vcs.KindChange, func(path string) (vcs.Backend, error) {
		return New(path)
	})
}

// New creates a JJ instance rooted at the repository containing path.
func New(path string) (*JJ, error) {
	if _, err := exec.LookPath("jj"); err != nil {
		return nil, fmt.Errorf("%w: jj not found in PATH", vcs.ErrBackendUnavailable)
	}

	out, err := runJJ(context.Background(), path, "root")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", vcs.ErrNotRepository, path)
	}

	return &JJ{repoRoot: strings.TrimSpace(out)}, nil
}

// IsAvailable reports whether the jj executable is usable.
func IsAvailable(ctx context.Context) bool {
	_, err := vcs.CheckJJ(ctx)
	return err == nil
}

// IsRepo checks if the path is inside a jj repository.
func IsRepo(path string) bool {
	_, err := runJJ(context.Background(), path, "root")
	return err == nil
}

// Kind reports the isolation strategy of this backend.
func (j *JJ) Kind() vcs.BackendKind {
	return vcs.KindChange
}

// WorkDir returns the repository root path. All sessions share it.
func (j *JJ) WorkDir() string {
	return j.repoRoot
}

// Head returns the current working-copy change.
func (j *JJ) Head(ctx context.Context) (vcs.HeadInfo, error) {
	out, err := j.log(ctx, "@", `change_id.short() ++ "`+fieldSep+`" ++ bookmarks.join(",") ++ "`+fieldSep+`" ++ description.first_line()`)
	if err != nil {
		return vcs.HeadInfo{}, fmt.Errorf("get head: %w", err)
	}

	parts := strings.SplitN(strings.TrimSpace(out), fieldSep, 3)
	if len(parts) != 3 {
		return vcs.HeadInfo{}, fmt.Errorf("unexpected log output: %q", out)
	}

	branch := parts[1]
	if idx := strings.IndexByte(branch, ','); idx >= 0 {
		branch = branch[:idx]
	}

	return vcs.HeadInfo{
		Branch:      strings.TrimSuffix(branch, "*"),
		ChangeID:    vcs.ChangeID(parts[0]),
		Description: parts[2],
	}, nil
}

// IsClean reports whether the working-copy change is empty and conflict-free.
func (j *JJ) IsClean(ctx context.Context) (bool, error) {
	out, err := j.log(ctx, "@", `if(empty, "t", "f") ++ if(conflict, "c", "-")`)
	if err != nil {
		return false, fmt.Errorf("check clean: %w", err)
	}
	return strings.TrimSpace(out) == "t-", nil
}

// IsValid reports whether the repository responds to jj.
func (j *JJ) IsValid(ctx context.Context) bool {
	_, err := j.run(ctx, "root")
	return err == nil
}

// log runs jj log for one revset with a template, no graph decoration.
func (j *JJ) log(ctx context.Context, revset, template string) (string, error) {
	return j.run(ctx, "log", "-r", revset, "--no-graph", "-T", template)
}

// run executes a jj command in the repo root.
func (j *JJ) run(ctx context.Context, args ...string) (string, error) {
	return runJJ(ctx, j.repoRoot, args...)
}

// runJJ executes a jj command in dir, classifying stderr on failure.
func runJJ(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "jj", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg == "" {
			errMsg = err.Error()
		}
		return "", vcs.ClassifyOutput(errMsg)
	}

	return stdout.String(), nil
}

// changeTemplate renders the fields parseChangeLine expects.
const changeTemplate = `change_id.short() ++ "` + fieldSep + `" ++ parents.map(|p| p.change_id().short()).join(" ") ++ "` + fieldSep + `" ++ author ++ "` + fieldSep + `" ++ committer.timestamp().format("%s") ++ "` + fieldSep + `" ++ if(empty, "t", "f") ++ "` + fieldSep + `" ++ description.first_line() ++ "\n"`

func parseChangeLine(line string) (vcs.ChangeInfo, bool) {
	parts := strings.Split(line, fieldSep)
	if len(parts) != 6 || parts[0] == "" {
		return vcs.ChangeInfo{}, false
	}

	var parents []vcs.ChangeID
	for _, p := range strings.Fields(parts[1]) {
		parents = append(parents, vcs.ChangeID(p))
	}

	ts, _ := strconv.ParseInt(parts[3], 10, 64)

	return vcs.ChangeInfo{
		ID:          vcs.ChangeID(parts[0]),
		ParentIDs:   parents,
		Author:      parts[2],
		Timestamp:   time.Unix(ts, 0),
		Empty:       parts[4] == "t",
		Description: parts[5],
	}, true
}
