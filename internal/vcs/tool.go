package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/mod/semver"
)

// MinJJVersion is the oldest jj release whose command surface we invoke
// (bookmark subcommands replaced branch in 0.23).
const MinJJVersion = "v0.23.0"

// ToolInfo describes a version-control executable found on PATH.
type ToolInfo struct {
	Name    string
	Path    string
	Version string // Canonical semver with leading "v", empty if unparsable
}

// LookupTool resolves a version-control executable and parses its version.
// Returns ErrBackendUnavailable when the binary is missing or not runnable.
func LookupTool(ctx context.Context, name string) (ToolInfo, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return ToolInfo{}, fmt.Errorf("%w: %s not found in PATH", ErrBackendUnavailable, name)
	}

	cmd := exec.CommandContext(ctx, path, "--version")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ToolInfo{}, fmt.Errorf("%w: %s --version: %v", ErrBackendUnavailable, name, err)
	}

	return ToolInfo{
		Name:    name,
		Path:    path,
		Version: parseToolVersion(out.String()),
	}, nil
}

// CheckJJ verifies the jj executable exists and is new enough.
func CheckJJ(ctx context.Context) (ToolInfo, error) {
	info, err := LookupTool(ctx, "jj")
	if err != nil {
		return ToolInfo{}, err
	}
	if info.Version != "" && semver.Compare(info.Version, MinJJVersion) < 0 {
		return ToolInfo{}, fmt.Errorf("%w: jj %s is older than supported %s",
			ErrBackendUnavailable, info.Version, MinJJVersion)
	}
	return info, nil
}

// parseToolVersion extracts a canonical semver from "--version" output such
// as "git version 2.43.0" or "jj 0.25.0-abcdef".
func parseToolVersion(out string) string {
	for _, field := range strings.Fields(out) {
		v := field
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if semver.IsValid(v) {
			return semver.Canonical(v)
		}
		// Strip trailing build noise like "2.43.0.windows.1"
		if idx := nthDot(v, 3); idx > 0 && semver.IsValid(v[:idx]) {
			return semver.Canonical(v[:idx])
		}
	}
	return ""
}

// nthDot returns the index of the n-th dot in s, or -1.
func nthDot(s string, n int) int {
	count := 0
	for i, r := range s {
		if r == '.' {
			count++
			if count == n {
				return i
			}
		}
	}
	return -1
}
