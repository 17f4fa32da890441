package git

import "errors"

// Git operation errors.
var (
	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrNothingToCommit indicates there are no staged changes to commit.
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrNothingStaged indicates the staging area is empty.
	ErrNothingStaged = errors.New("no staged changes found")

	// ErrNoUpstream indicates the current branch has no upstream tracking branch.
	ErrNoUpstream = errors.New("no upstream branch")

	// ErrNoRemote indicates the requested remote does not exist.
	ErrNoRemote = errors.New("remote does not exist")

	// ErrPushFailed indicates a push operation failed.
	ErrPushFailed = errors.New("push failed")
)

// Error wraps a git command error with context.
type Error struct {
	Op     string // Operation that failed (e.g., "commit", "push")
	Output string // Combined stdout/stderr output
	Err    error  // Underlying error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return e.Op + ": " + e.Output
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
