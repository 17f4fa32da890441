package pr

import (
	"fmt"
	"os"
)

// ProviderFromEnv creates a provider based on the remote URL, taking the
// access token from the environment.
//
// Environment variables checked:
//   - GITHUB_TOKEN for GitHub
//   - GITLAB_TOKEN for GitLab
//   - GIT_TOKEN as fallback for either
func ProviderFromEnv(remoteURL string) (Provider, error) {
	platform, err := DetectPlatform(remoteURL)
	if err != nil {
		return nil, err
	}

	switch platform {
	case "github":
		token := os.Getenv("GITHUB_TOKEN")
		if token == "" {
			token = os.Getenv("GIT_TOKEN")
		}
		if token == "" {
			return nil, fmt.Errorf("%w: set GITHUB_TOKEN or GIT_TOKEN", ErrNoToken)
		}
		return NewGitHubProviderFromURL(token, remoteURL)

	case "gitlab":
		token := os.Getenv("GITLAB_TOKEN")
		if token == "" {
			token = os.Getenv("GIT_TOKEN")
		}
		if token == "" {
			return nil, fmt.Errorf("%w: set GITLAB_TOKEN or GIT_TOKEN", ErrNoToken)
		}
		return NewGitLabProviderFromURL(token, remoteURL)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, platform)
	}
}
