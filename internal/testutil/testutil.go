// Package testutil provides shared testing utilities for arbor tests.
package testutil

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// CreateTempGitRepo creates an initialized git repository in a temporary directory.
// It configures user.email and user.name, and creates an initial commit on main.
// Returns the path to the repository root.
func CreateTempGitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	if err := runGit(t, dir, "init", "-b", "main"); err != nil {
		t.Skipf("git not available: %v", err)
	}

	// Configure git user (required for commits)
	MustRunGit(t, dir, "config", "user.email", "test@example.com")
	MustRunGit(t, dir, "config", "user.name", "Test User")

	// Create initial commit (many operations require at least one commit)
	WriteFile(t, filepath.Join(dir, "README.md"), "# Test Repository\n")
	MustRunGit(t, dir, "add", ".")
	MustRunGit(t, dir, "commit", "-m", "initial commit")

	return dir
}

// CreateTempJJRepo creates a jj repository colocated with git in a temporary
// directory. Skips the test when jj is not installed.
func CreateTempJJRepo(t *testing.T) string {
	t.Helper()
	RequireJJ(t)

	dir := CreateTempGitRepo(t)
	MustRunJJ(t, dir, "git", "init", "--colocate")

	return dir
}

// RequireJJ skips the test when the jj executable is unavailable.
func RequireJJ(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("jj"); err != nil {
		t.Skip("jj not available")
	}
}

// WriteFile creates a file with the given content, creating parent directories as needed.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

// WriteFileAndCommit writes a file and commits it.
func WriteFileAndCommit(t *testing.T, dir, relativePath, content, message string) {
	t.Helper()
	WriteFile(t, filepath.Join(dir, relativePath), content)
	MustRunGit(t, dir, "add", relativePath)
	MustRunGit(t, dir, "commit", "-m", message)
}

// GetCurrentBranch returns the current branch name.
func GetCurrentBranch(t *testing.T, repoDir string) string {
	t.Helper()

	return strings.TrimSpace(RunGit(t, repoDir, "branch", "--show-current"))
}

// AssertBranchExists fails the test if the branch doesn't exist.
func AssertBranchExists(t *testing.T, repoDir, branch string) {
	t.Helper()
	if err := runGit(t, repoDir, "rev-parse", "--verify", "refs/heads/"+branch); err != nil {
		t.Errorf("branch %q does not exist in %s", branch, repoDir)
	}
}

// AssertBranchMissing fails the test if the branch exists.
func AssertBranchMissing(t *testing.T, repoDir, branch string) {
	t.Helper()
	if err := runGit(t, repoDir, "rev-parse", "--verify", "refs/heads/"+branch); err == nil {
		t.Errorf("branch %q still exists in %s", branch, repoDir)
	}
}

// RunGit runs a git command and returns its combined output, failing on error.
func RunGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %s", args, output)
	}

	return string(output)
}

// MustRunGit runs a git command and fails the test if it errors.
func MustRunGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	if err := runGit(t, dir, args...); err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
}

// MustRunJJ runs a jj command and fails the test if it errors.
func MustRunJJ(t *testing.T, dir string, args ...string) {
	t.Helper()
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "jj", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"JJ_USER=Test User",
		"JJ_EMAIL=test@example.com",
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("jj %v failed: %s", args, output)
	}
}

// runGit runs a git command and returns any error.
func runGit(t *testing.T, dir string, args ...string) error {
	t.Helper()
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_DATE=2020-01-01T00:00:00Z",
		"GIT_COMMITTER_DATE=2020-01-01T00:00:00Z",
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("git %v failed: %s", args, output)
	}

	return err
}
