package pr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHubProvider implements Provider for GitHub repositories.
type GitHubProvider struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubProvider creates a GitHub provider.
// token is a personal access token.
func NewGitHubProvider(token, owner, repo string) (*GitHubProvider, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	return &GitHubProvider{
		client: github.NewClient(tc),
		owner:  owner,
		repo:   repo,
	}, nil
}

// NewGitHubProviderFromURL creates a GitHub provider from a remote URL.
func NewGitHubProviderFromURL(token, remoteURL string) (*GitHubProvider, error) {
	owner, repo, err := ParseRepoFromURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}
	return NewGitHubProvider(token, owner, repo)
}

// CreatePR creates a new pull request.
func (p *GitHubProvider) CreatePR(ctx context.Context, opts Options) (*PullRequest, error) {
	base := opts.Base
	if base == "" {
		base = "main"
	}

	newPR := &github.NewPullRequest{
		Title: github.String(opts.Title),
		Body:  github.String(opts.Body),
		Base:  github.String(base),
		Head:  github.String(opts.Head),
		Draft: github.Bool(opts.Draft),
	}

	created, resp, err := p.client.PullRequests.Create(ctx, p.owner, p.repo, newPR)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			if strings.Contains(err.Error(), "A pull request already exists") {
				return nil, ErrExists
			}
			if strings.Contains(err.Error(), "No commits between") {
				return nil, ErrNoChanges
			}
		}
		return nil, fmt.Errorf("create PR: %w", err)
	}

	if len(opts.Labels) > 0 {
		_, _, err = p.client.Issues.AddLabelsToIssue(ctx, p.owner, p.repo, created.GetNumber(), opts.Labels)
		if err != nil {
			// Label failures don't invalidate the created PR.
			slog.Warn("failed to add labels to PR", "error", err, "pr", created.GetNumber())
		}
	}

	return &PullRequest{
		ID:        created.GetNumber(),
		URL:       created.GetHTMLURL(),
		Title:     created.GetTitle(),
		Head:      created.GetHead().GetRef(),
		Base:      created.GetBase().GetRef(),
		CreatedAt: created.GetCreatedAt().Time,
	}, nil
}
