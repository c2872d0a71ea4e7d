package report

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ev(ts, test, original, healed string, success bool) Event {
	return Event{
		Timestamp:       ts,
		TestName:        test,
		OriginalLocator: original,
		HealedLocator:   healed,
		Success:         success,
	}
}

func TestSummary_MergeDedupByIdentity(t *testing.T) {
	s := &Summary{}
	first := ev("2026-08-26T10:00:00.000000001Z", "login", "#old", "byTestId('new')", true)

	if added := s.Merge([]Event{first}); added != 1 {
		t.Fatalf("first merge added = %d, want 1", added)
	}

	// Same identity key, different payload: still the same occurrence.
	dup := first
	dup.HealedLocator = "byRole('button')"
	dup.Success = false
	if added := s.Merge([]Event{dup}); added != 0 {
		t.Errorf("duplicate merge added = %d, want 0", added)
	}
	if len(s.Changes) != 1 {
		t.Fatalf("len(Changes) = %d, want 1", len(s.Changes))
	}
	if diff := cmp.Diff(first, s.Changes[0]); diff != "" {
		t.Errorf("existing event must win (-want +got):\n%s", diff)
	}

	// Same timestamp, different locator: distinct identity.
	other := ev(first.Timestamp, "login", "#other", "", false)
	if added := s.Merge([]Event{other}); added != 1 {
		t.Errorf("distinct identity added = %d, want 1", added)
	}
}

func TestSummary_RecountDerivesEverything(t *testing.T) {
	s := &Summary{Changes: []Event{
		ev("t1", "login", "#a", "byTestId('a2')", true),
		ev("t2", "login", "#b", "", false),
		ev("t3", "checkout", "#c", "byText('Pay')", true),
	}}
	s.Recount()

	if s.TotalHealingAttempts != 3 {
		t.Errorf("TotalHealingAttempts = %d, want 3", s.TotalHealingAttempts)
	}
	if s.SuccessfulHealing != 2 || s.FailedHealing != 1 {
		t.Errorf("partition = %d/%d, want 2/1", s.SuccessfulHealing, s.FailedHealing)
	}
	if s.SuccessfulHealing+s.FailedHealing != s.TotalHealingAttempts {
		t.Error("success + failed must equal total")
	}
	if s.TotalTests != 2 {
		t.Errorf("TotalTests = %d, want 2 distinct test names", s.TotalTests)
	}
	if s.Timestamp == "" {
		t.Error("Recount must stamp the summary")
	}
}

func TestSummary_LiveMappingsLastWriteWins(t *testing.T) {
	s := &Summary{Changes: []Event{
		ev("t1", "login", "#a", "byTestId('first')", true),
		ev("t2", "login", "#b", "", false),
		ev("t3", "login", "#a", "byTestId('second')", true),
		ev("t4", "login", "#c", "byLabel('Email')", true),
	}}

	got := s.LiveMappings()
	want := []Mapping{
		{OriginalLocator: "#a", HealedLocator: "byTestId('second')"},
		{OriginalLocator: "#c", HealedLocator: "byLabel('Email')"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LiveMappings mismatch (-want +got):\n%s", diff)
	}
}
