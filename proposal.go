package commitflow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProposedGroup is one group in an AI grouping proposal.
type ProposedGroup struct {
	Name        string   `json:"group"`
	Files       []string `json:"files"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Messages    []string `json:"commit_messages"`
}

// PartitionProposal is the raw output of a grouping request. It has not been
// validated against the change set; see Partitioner.promote.
type PartitionProposal struct {
	Groups []ProposedGroup
}

// ParseProposal decodes a provider's grouping response. The response is
// expected to be a JSON array of group objects, possibly wrapped in markdown
// code fences or surrounded by prose.
func ParseProposal(raw string) (*PartitionProposal, error) {
	cleaned := strings.TrimSpace(raw)

	// Strip markdown code fences
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	// Extract the outermost JSON array when mixed with prose
	start := strings.IndexByte(cleaned, '[')
	end := strings.LastIndexByte(cleaned, ']')
	if start < 0 || end <= start {
		return nil, NewGenerationError(GenerationMalformed,
			fmt.Errorf("no JSON array in grouping response"))
	}
	cleaned = cleaned[start : end+1]

	var groups []ProposedGroup
	if err := json.Unmarshal([]byte(cleaned), &groups); err != nil {
		return nil, NewGenerationError(GenerationMalformed,
			fmt.Errorf("decode grouping response: %w", err))
	}
	if len(groups) == 0 {
		return nil, NewGenerationError(GenerationMalformed,
			fmt.Errorf("grouping response contains no groups"))
	}

	return &PartitionProposal{Groups: groups}, nil
}
