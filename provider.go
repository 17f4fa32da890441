package commitflow

import "context"

// Style selects the commit message format.
type Style string

const (
	// StyleGeneral produces plain imperative-mood messages.
	StyleGeneral Style = "general"

	// StyleConventional produces type(scope): subject messages.
	StyleConventional Style = "conventional"
)

// GenerateRequest asks a provider for commit message candidates.
type GenerateRequest struct {
	Diff   string   // Unified diff for the group
	Files  []string // Paths in the group, for context
	Count  int      // Number of candidates wanted
	Style  Style    // Message format
	Locale string   // BCP-47-ish locale for the message language
}

// GroupingRequest asks a provider to group related changes together.
type GroupingRequest struct {
	Files []string          // All changed paths
	Diffs map[string]string // Per-path diff text
	Count int               // Candidates to pre-generate per group
	Style Style
}

// Provider is the AI collaborator contract. Implementations classify their
// failures with GenerationError so the engine can decide what is retryable.
type Provider interface {
	// GenerateMessages returns commit message candidates in provider order.
	GenerateMessages(ctx context.Context, req GenerateRequest) ([]string, error)

	// InferGroups proposes a grouping of related changes. The proposal is
	// untrusted: the partitioner validates it against the change set before
	// promoting it to Groups.
	InferGroups(ctx context.Context, req GroupingRequest) (*PartitionProposal, error)
}
