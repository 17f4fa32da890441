// Package git provides the version-control operations commitflow needs:
// listing staged changes, per-path diffs, staging, committing, and pushing.
//
// Key types:
//
//   - Context: Repository handle with operations scoped to a working directory
//   - StatusEntry: One staged path with its change code
//   - CommandRunner: Interface for executing git commands (with mock for testing)
//   - Error: Wrapped git command errors with operation context
//
// All operations shell out to the git binary so the user's real configuration,
// hooks, and credential helpers apply unchanged.
package git
