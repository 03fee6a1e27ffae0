package forge

import (
	"context"
	"fmt"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// GitLabClient wraps the GitLab API client for one project.
type GitLabClient struct {
	gl          *gitlab.Client
	projectPath string
}

// NewGitLabClient creates a GitLab API client. A host other than
// gitlab.com configures the self-hosted base URL.
func NewGitLabClient(token, host, projectPath string) (*GitLabClient, error) {
	var options []gitlab.ClientOptionFunc
	if host != "" && host != "gitlab.com" {
		options = append(options, gitlab.WithBaseURL("https://"+strings.TrimSuffix(host, "/")+"/api/v4"))
	}

	client, err := gitlab.NewClient(token, options...)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}

	return &GitLabClient{gl: client, projectPath: projectPath}, nil
}

// CreateMergeRequest opens a merge request from sourceBranch into
// targetBranch and returns its URL.
func (c *GitLabClient) CreateMergeRequest(ctx context.Context, title, description, sourceBranch, targetBranch string) (string, error) {
	mr, _, err := c.gl.MergeRequests.CreateMergeRequest(c.projectPath, &gitlab.CreateMergeRequestOptions{
		Title:              ptr(title),
		Description:        ptr(description),
		SourceBranch:       ptr(sourceBranch),
		TargetBranch:       ptr(targetBranch),
		RemoveSourceBranch: ptr(true),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create merge request: %w", err)
	}

	return mr.WebURL, nil
}
