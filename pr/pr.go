// Package pr creates pull requests on the hosting platform after a pushed
// run. The platform is detected from the remote URL; GitHub and GitLab are
// supported.
package pr

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider creates pull requests on a hosting platform.
type Provider interface {
	// CreatePR creates a new pull request.
	CreatePR(ctx context.Context, opts Options) (*PullRequest, error)
}

// Options configures pull request creation.
type Options struct {
	Title  string   // PR title (required)
	Body   string   // PR description (markdown)
	Base   string   // Target branch (default: "main")
	Head   string   // Source branch
	Labels []string // Labels to apply
	Draft  bool     // Create as draft
}

// PullRequest represents a created pull request.
type PullRequest struct {
	ID        int       // PR number/ID
	URL       string    // Web URL
	Title     string    // PR title
	Head      string    // Source branch
	Base      string    // Target branch
	CreatedAt time.Time // Creation time
}

// SummaryBody builds a PR description from the commit messages of a run.
func SummaryBody(messages []string) string {
	var body strings.Builder
	body.WriteString("## Commits\n\n")
	for _, msg := range messages {
		// First line only; bodies stay in the commits themselves.
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		body.WriteString("- ")
		body.WriteString(msg)
		body.WriteString("\n")
	}
	return body.String()
}

// DetectPlatform identifies the hosting platform from a remote URL.
func DetectPlatform(remoteURL string) (string, error) {
	lower := strings.ToLower(remoteURL)

	if strings.Contains(lower, "github.com") {
		return "github", nil
	}
	if strings.Contains(lower, "gitlab") {
		return "gitlab", nil
	}

	return "", ErrUnknownProvider
}

// ParseRepoFromURL extracts owner and repo from a git remote URL.
func ParseRepoFromURL(remoteURL string) (owner, repo string, err error) {
	// SSH URLs: git@github.com:owner/repo.git
	if strings.HasPrefix(remoteURL, "git@") {
		parts := strings.Split(remoteURL, ":")
		if len(parts) != 2 {
			return "", "", fmt.Errorf("invalid SSH URL format")
		}
		path := strings.TrimSuffix(parts[1], ".git")
		pathParts := strings.Split(path, "/")
		if len(pathParts) != 2 {
			return "", "", fmt.Errorf("invalid repository path")
		}
		return pathParts[0], pathParts[1], nil
	}

	// HTTPS URLs: https://github.com/owner/repo.git
	remoteURL = strings.TrimPrefix(remoteURL, "https://")
	remoteURL = strings.TrimPrefix(remoteURL, "http://")
	remoteURL = strings.TrimSuffix(remoteURL, ".git")

	parts := strings.Split(remoteURL, "/")
	if len(parts) < 3 {
		return "", "", fmt.Errorf("invalid URL format")
	}

	return parts[len(parts)-2], parts[len(parts)-1], nil
}
