// Package forge opens pull and merge requests on the hosting services an
// auto-merged session pushed to. Which service a repository lives on is
// derived from its origin remote URL.
package forge

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUnknownHost means the remote URL belongs to no supported forge.
	ErrUnknownHost = errors.New("unsupported forge host")
	// ErrNoToken means no API token is configured for the forge.
	ErrNoToken = errors.New("no forge token configured")
)

// HostKind identifies a supported hosting service.
type HostKind int

const (
	HostGitHub HostKind = iota
	HostGitLab
)

func (h HostKind) String() string {
	switch h {
	case HostGitHub:
		return "github"
	case HostGitLab:
		return "gitlab"
	default:
		return "unknown"
	}
}

// Remote is a parsed forge remote.
type Remote struct {
	Kind  HostKind
	Host  string
	Owner string // For GitLab this may be a nested group path
	Repo  string
}

// ProjectPath returns the owner/repo path the forge APIs expect.
func (r Remote) ProjectPath() string {
	return r.Owner + "/" + r.Repo
}

// sshRemotePattern matches scp-style remotes: git@host:owner/repo.git
var sshRemotePattern = regexp.MustCompile(`^(?:ssh://)?git@([^:/]+)[:/](.+?)(?:\.git)?$`)

// ParseRemote classifies a git remote URL as a GitHub or GitLab project.
func ParseRemote(url string) (Remote, error) {
	url = strings.TrimSpace(url)

	var host, path string
	switch {
	case strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "http://"):
		rest := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
		host, path, _ = strings.Cut(rest, "/")
	default:
		m := sshRemotePattern.FindStringSubmatch(url)
		if m == nil {
			return Remote{}, fmt.Errorf("%w: %s", ErrUnknownHost, url)
		}
		host, path = m[1], m[2]
	}

	path = strings.TrimSuffix(strings.TrimSuffix(path, "/"), ".git")
	slash := strings.LastIndex(path, "/")
	if slash <= 0 || slash == len(path)-1 {
		return Remote{}, fmt.Errorf("%w: no project path in %s", ErrUnknownHost, url)
	}

	remote := Remote{
		Host:  host,
		Owner: path[:slash],
		Repo:  path[slash+1:],
	}

	switch {
	case host == "github.com":
		remote.Kind = HostGitHub
	case host == "gitlab.com" || strings.HasPrefix(host, "gitlab."):
		remote.Kind = HostGitLab
	default:
		return Remote{}, fmt.Errorf("%w: %s", ErrUnknownHost, host)
	}

	return remote, nil
}

// ptr is a helper to create a pointer to a value.
func ptr[T any](v T) *T {
	return &v
}
