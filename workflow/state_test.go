package workflow

import (
	"errors"
	"strings"
	"testing"

	commitflow "github.com/randalmurphal/commitflow"
)

func TestNewState(t *testing.T) {
	s := NewState()

	if s.RunID == "" {
		t.Error("RunID is empty")
	}
	if !strings.Contains(s.RunID, "-") {
		t.Errorf("RunID = %q, want date-prefixed", s.RunID)
	}
	if s.Policy != commitflow.PolicyDirectory {
		t.Errorf("Policy = %q, want directory", s.Policy)
	}
	if s.Count != 3 {
		t.Errorf("Count = %d, want 3", s.Count)
	}
	if s.Push || s.OpenPR {
		t.Error("push and PR should default off")
	}

	// Each state gets its own run ID.
	if NewState().RunID == s.RunID {
		t.Error("run IDs collide")
	}
}

func TestStateBuilders(t *testing.T) {
	s := NewState().WithPolicy(commitflow.PolicyRelated).WithPush()
	if s.Policy != commitflow.PolicyRelated || !s.Push {
		t.Errorf("state = %+v", s)
	}

	s = NewState().WithPR("main")
	if !s.OpenPR || !s.Push || s.PRBase != "main" {
		t.Errorf("WithPR state = %+v", s)
	}
}

func TestStateError(t *testing.T) {
	s := NewState()
	if s.HasError() {
		t.Error("fresh state has an error")
	}

	s.SetError(errors.New("partition failed"))
	if !s.HasError() || s.Error != "partition failed" {
		t.Errorf("state error = %q", s.Error)
	}

	s2 := NewState()
	s2.SetError(nil)
	if s2.HasError() {
		t.Error("SetError(nil) recorded an error")
	}
}

func TestStateCommitCount(t *testing.T) {
	s := NewState()
	if s.CommitCount() != 0 {
		t.Errorf("CommitCount = %d, want 0", s.CommitCount())
	}

	s.Report = &commitflow.RunReport{Results: []commitflow.CommitResult{
		{Outcome: commitflow.OutcomeCommitted},
		{Outcome: commitflow.OutcomeSkipped},
		{Outcome: commitflow.OutcomeCommitted},
	}}
	if s.CommitCount() != 2 {
		t.Errorf("CommitCount = %d, want 2", s.CommitCount())
	}
}
