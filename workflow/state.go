package workflow

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	commitflow "github.com/randalmurphal/commitflow"
	"github.com/randalmurphal/commitflow/pr"
)

// State is the complete state for an unattended commit pipeline run.
// Nodes read the fields earlier nodes filled in and add their own.
type State struct {
	// Identification
	RunID string `json:"runId"`

	// Input
	Policy   commitflow.Policy `json:"policy,omitempty"`
	Excludes []string          `json:"excludes,omitempty"`
	Count    int               `json:"count,omitempty"`
	Style    commitflow.Style  `json:"style,omitempty"`
	Push     bool              `json:"push,omitempty"`
	Remote   string            `json:"remote,omitempty"`
	OpenPR   bool              `json:"openPr,omitempty"`
	PRBase   string            `json:"prBase,omitempty"`

	// Pipeline progress
	Branch    string                `json:"branch,omitempty"`
	ChangeSet *commitflow.ChangeSet `json:"-"`
	Partition *commitflow.Partition `json:"partition,omitempty"`
	Messages  map[string]string     `json:"messages,omitempty"` // group ID -> chosen message
	Report    *commitflow.RunReport `json:"-"`
	PR        *pr.PullRequest       `json:"pr,omitempty"`
	PRCreated time.Time             `json:"prCreated,omitempty"`

	// Error tracking
	Error string `json:"error,omitempty"`
}

// NewState creates a pipeline state with defaults: directory partitioning,
// three candidates per group, no push.
func NewState() State {
	return State{
		RunID:  generateRunID(),
		Policy: commitflow.PolicyDirectory,
		Count:  3,
		Style:  commitflow.StyleGeneral,
		Remote: "origin",
	}
}

// WithPolicy sets the partitioning policy.
func (s State) WithPolicy(policy commitflow.Policy) State {
	s.Policy = policy
	return s
}

// WithPush enables pushing after the commits.
func (s State) WithPush() State {
	s.Push = true
	return s
}

// WithPR enables pull request creation. Implies push.
func (s State) WithPR(base string) State {
	s.Push = true
	s.OpenPR = true
	s.PRBase = base
	return s
}

// SetError records an error on the state.
func (s *State) SetError(err error) {
	if err != nil {
		s.Error = err.Error()
	}
}

// HasError returns true if state has an error.
func (s State) HasError() bool {
	return s.Error != ""
}

// CommitCount returns the number of commits made so far.
func (s State) CommitCount() int {
	if s.Report == nil {
		return 0
	}
	return s.Report.CommitCount()
}

// generateRunID creates a unique run ID
func generateRunID() string {
	timestamp := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s-%s", timestamp, randomSuffix(4))
}

// randomSuffix generates a random hex suffix
func randomSuffix(bytes int) string {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		// Fallback to timestamp-based suffix on entropy failure
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
