// Package notify delivers commit run events to external sinks. A run emits
// an event when it starts, when each commit lands, and when it completes or
// fails; sinks include Slack webhooks, generic HTTP webhooks, and slog.
package notify

import (
	"context"
	"time"
)

// EventType represents the type of commit run event.
type EventType string

// Event type constants.
const (
	EventRunStarted    EventType = "run_started"
	EventRunCompleted  EventType = "run_completed"
	EventRunFailed     EventType = "run_failed"
	EventCommitCreated EventType = "commit_created"
	EventPushCompleted EventType = "push_completed"
	EventPushFailed    EventType = "push_failed"
	EventPRCreated     EventType = "pr_created"
)

// Severity constants for notifications.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Event describes a commit run event for notification.
type Event struct {
	Type      EventType      `json:"type"`
	RunID     string         `json:"run_id"`
	Repo      string         `json:"repo"`
	Branch    string         `json:"branch,omitempty"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Notifier sends notifications about commit run events.
type Notifier interface {
	// Notify sends a notification. Implementations should handle errors
	// gracefully; a failed notification never fails the run.
	Notify(ctx context.Context, event Event) error
}
