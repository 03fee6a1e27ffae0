package forge

import (
	"context"
	"fmt"

	"github.com/google/go-github/v67/github"
	"golang.org/x/oauth2"
)

// GitHubClient wraps the GitHub API client for one repository.
type GitHubClient struct {
	gh    *github.Client
	owner string
	repo  string
}

// NewGitHubClient creates a GitHub API client authenticated with token.
func NewGitHubClient(token, owner, repo string) *GitHubClient {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &GitHubClient{
		gh:    github.NewClient(tc),
		owner: owner,
		repo:  repo,
	}
}

// CreatePullRequest opens a pull request from head into base and returns
// its URL.
func (c *GitHubClient) CreatePullRequest(ctx context.Context, title, body, head, base string) (string, error) {
	pr, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title: ptr(title),
		Body:  ptr(body),
		Head:  ptr(head),
		Base:  ptr(base),
	})
	if err != nil {
		return "", fmt.Errorf("create pull request: %w", err)
	}
	return pr.GetHTMLURL(), nil
}
