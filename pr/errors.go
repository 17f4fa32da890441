package pr

import "errors"

// PR provider errors
var (
	// ErrUnknownProvider indicates the git remote uses an unknown platform.
	ErrUnknownProvider = errors.New("unknown git provider")

	// ErrExists indicates a PR already exists for the branch.
	ErrExists = errors.New("pull request already exists for this branch")

	// ErrNoChanges indicates there are no changes between branches.
	ErrNoChanges = errors.New("no changes between branches")

	// ErrNoToken indicates no access token is available for the platform.
	ErrNoToken = errors.New("no access token configured")
)
