package forge

import (
	"context"
	"fmt"
)

// Tokens holds per-forge API tokens. Empty tokens disable the forge.
type Tokens struct {
	GitHub string
	GitLab string
}

// Opener routes review creation to the right forge based on the remote
// URL. It satisfies the auto-merge coordinator's follow-up hook.
type Opener struct {
	tokens Tokens
}

// NewOpener returns an Opener using the given tokens.
func NewOpener(tokens Tokens) *Opener {
	return &Opener{tokens: tokens}
}

// OpenReview opens a pull or merge request from branch into target on the
// forge hosting remoteURL, and returns the review's URL.
func (o *Opener) OpenReview(ctx context.Context, remoteURL, branch, target, title string) (string, error) {
	remote, err := ParseRemote(remoteURL)
	if err != nil {
		return "", err
	}

	switch remote.Kind {
	case HostGitHub:
		if o.tokens.GitHub == "" {
			return "", fmt.Errorf("%w: github", ErrNoToken)
		}
		client := NewGitHubClient(o.tokens.GitHub, remote.Owner, remote.Repo)
		return client.CreatePullRequest(ctx, title, "", branch, target)

	case HostGitLab:
		if o.tokens.GitLab == "" {
			return "", fmt.Errorf("%w: gitlab", ErrNoToken)
		}
		client, err := NewGitLabClient(o.tokens.GitLab, remote.Host, remote.ProjectPath())
		if err != nil {
			return "", err
		}
		return client.CreateMergeRequest(ctx, title, "", branch, target)

	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownHost, remote.Host)
	}
}
