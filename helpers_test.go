package commitflow

import (
	"context"
	"fmt"
)

// fakeProvider answers generation and grouping requests from scripts.
type fakeProvider struct {
	// messages are returned by successive GenerateMessages calls.
	messages [][]string

	// generateErrs are returned, in order, before messages are consumed.
	// A nil entry means the call succeeds with the next message set.
	generateErrs []error

	// proposals are returned by successive InferGroups calls.
	proposals []*PartitionProposal

	// groupErrs mirror generateErrs for InferGroups.
	groupErrs []error

	generateCalls int
	groupCalls    int
	lastGenerate  GenerateRequest
	lastGrouping  GroupingRequest
}

func (f *fakeProvider) GenerateMessages(ctx context.Context, req GenerateRequest) ([]string, error) {
	f.generateCalls++
	f.lastGenerate = req

	if len(f.generateErrs) > 0 {
		err := f.generateErrs[0]
		f.generateErrs = f.generateErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	if len(f.messages) == 0 {
		return nil, fmt.Errorf("fakeProvider: no message sets left")
	}
	msgs := f.messages[0]
	f.messages = f.messages[1:]
	return msgs, nil
}

func (f *fakeProvider) InferGroups(ctx context.Context, req GroupingRequest) (*PartitionProposal, error) {
	f.groupCalls++
	f.lastGrouping = req

	if len(f.groupErrs) > 0 {
		err := f.groupErrs[0]
		f.groupErrs = f.groupErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	if len(f.proposals) == 0 {
		return nil, fmt.Errorf("fakeProvider: no proposals left")
	}
	p := f.proposals[0]
	f.proposals = f.proposals[1:]
	return p, nil
}

// testChangeSet builds a change set of modified files with synthetic diffs.
func testChangeSet(paths ...string) *ChangeSet {
	changes := make([]FileChange, len(paths))
	for i, p := range paths {
		changes[i] = FileChange{
			Path:   p,
			Status: StatusModified,
			Diff:   fmt.Sprintf("diff --git a/%s b/%s\n+change\n", p, p),
		}
	}
	return NewChangeSet(changes)
}
