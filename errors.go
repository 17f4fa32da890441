package commitflow

import (
	"errors"
	"fmt"
	"strings"
)

// Partitioning errors. These are the only errors that abort a run outright:
// with no changes to work on there is nothing to recover into.
var (
	// ErrEmptyChangeSet indicates there are no changes to partition.
	ErrEmptyChangeSet = errors.New("no changes to commit")

	// ErrNoMatchingFiles indicates explicit targets matched no changed files.
	ErrNoMatchingFiles = errors.New("no changed files match the given paths")

	// ErrProposalInvalid indicates an AI grouping proposal referenced paths
	// outside the change set and could not be repaired.
	ErrProposalInvalid = errors.New("grouping proposal references unknown paths")
)

// ErrRunCancelled indicates the user cancelled the whole run. It is a normal
// terminal state, not a failure; callers should exit cleanly on it.
var ErrRunCancelled = errors.New("run cancelled by user")

// GenerationErrorKind classifies provider failures.
type GenerationErrorKind string

const (
	// GenerationTransient covers timeouts, rate limits, and network failures.
	// The generator retries these a bounded number of times.
	GenerationTransient GenerationErrorKind = "transient"

	// GenerationAuth covers missing or rejected credentials. Never retried.
	GenerationAuth GenerationErrorKind = "auth"

	// GenerationMalformed covers unparseable or empty provider output.
	// Never auto-retried; the user is offered a custom message instead.
	GenerationMalformed GenerationErrorKind = "malformed"
)

// GenerationError wraps a provider failure with its retry classification.
type GenerationError struct {
	Kind GenerationErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may retry the request.
func (e *GenerationError) Retryable() bool {
	return e.Kind == GenerationTransient
}

// NewGenerationError wraps err with the given kind.
func NewGenerationError(kind GenerationErrorKind, err error) *GenerationError {
	return &GenerationError{Kind: kind, Err: err}
}

// ValidationError reports a grouping proposal that breaks the total-partition
// invariant: every changed path assigned to exactly one group.
type ValidationError struct {
	Unknown    []string // paths not present in the change set
	Duplicated []string // paths assigned to more than one group
	Missing    []string // changed paths the proposal left out
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Unknown) > 0 {
		parts = append(parts, fmt.Sprintf("unknown paths: %s", strings.Join(e.Unknown, ", ")))
	}
	if len(e.Duplicated) > 0 {
		parts = append(parts, fmt.Sprintf("duplicated paths: %s", strings.Join(e.Duplicated, ", ")))
	}
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing paths: %s", strings.Join(e.Missing, ", ")))
	}
	if len(parts) == 0 {
		return "invalid grouping proposal"
	}
	return "invalid grouping proposal: " + strings.Join(parts, "; ")
}

// Is lets errors.Is match any ValidationError against ErrProposalInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrProposalInvalid
}
