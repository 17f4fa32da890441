package pr

import (
	"context"
	"fmt"
	"strings"

	"github.com/xanzy/go-gitlab"
)

// GitLabProvider implements Provider for GitLab repositories.
type GitLabProvider struct {
	client    *gitlab.Client
	projectID string // Numeric ID or "namespace/project"
}

// NewGitLabProvider creates a GitLab provider.
// baseURL is the GitLab instance URL (empty for gitlab.com).
func NewGitLabProvider(token, baseURL, projectID string) (*GitLabProvider, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if projectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}

	var client *gitlab.Client
	var err error

	if baseURL != "" {
		client, err = gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	} else {
		client, err = gitlab.NewClient(token)
	}
	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}

	return &GitLabProvider{
		client:    client,
		projectID: projectID,
	}, nil
}

// NewGitLabProviderFromURL creates a GitLab provider from a remote URL,
// handling self-hosted instances.
func NewGitLabProviderFromURL(token, remoteURL string) (*GitLabProvider, error) {
	owner, repo, err := ParseRepoFromURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}

	var baseURL string
	if !strings.Contains(remoteURL, "gitlab.com") {
		trimmed := strings.TrimPrefix(remoteURL, "https://")
		trimmed = strings.TrimPrefix(trimmed, "http://")
		if parts := strings.Split(trimmed, "/"); len(parts) > 0 {
			baseURL = "https://" + parts[0]
		}
	}

	return NewGitLabProvider(token, baseURL, owner+"/"+repo)
}

// CreatePR creates a new merge request.
func (p *GitLabProvider) CreatePR(ctx context.Context, opts Options) (*PullRequest, error) {
	targetBranch := opts.Base
	if targetBranch == "" {
		targetBranch = "main"
	}

	mrOpts := &gitlab.CreateMergeRequestOptions{
		Title:        gitlab.Ptr(opts.Title),
		Description:  gitlab.Ptr(opts.Body),
		SourceBranch: gitlab.Ptr(opts.Head),
		TargetBranch: gitlab.Ptr(targetBranch),
	}

	// GitLab marks drafts via a title prefix.
	if opts.Draft {
		mrOpts.Title = gitlab.Ptr("Draft: " + opts.Title)
	}
	if len(opts.Labels) > 0 {
		mrOpts.Labels = gitlab.Ptr(gitlab.LabelOptions(opts.Labels))
	}

	mr, _, err := p.client.MergeRequests.CreateMergeRequest(p.projectID, mrOpts, gitlab.WithContext(ctx))
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("create merge request: %w", err)
	}

	result := &PullRequest{
		ID:    mr.IID,
		URL:   mr.WebURL,
		Title: mr.Title,
		Head:  mr.SourceBranch,
		Base:  mr.TargetBranch,
	}
	if mr.CreatedAt != nil {
		result.CreatedAt = *mr.CreatedAt
	}
	return result, nil
}
