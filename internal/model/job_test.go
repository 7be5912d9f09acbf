package model

import "testing"

func TestSummarize(t *testing.T) {
	results := []MatchResult{
		{Verdict: VerdictAutoApproved},
		{Verdict: VerdictAutoApproved},
		{Verdict: VerdictNeedsReview},
		{Verdict: VerdictRejected},
		{Verdict: VerdictUnmatched},
		{Verdict: VerdictError},
	}

	s := Summarize(results)
	if s.Matched != 2 || s.NeedsReview != 1 || s.NoMatch != 1 || s.Unmatched != 1 || s.Errors != 1 {
		t.Errorf("Summarize() = %+v", s)
	}
	if s.TotalResults != 6 {
		t.Errorf("TotalResults = %d, want 6", s.TotalResults)
	}
}

func TestJobProgress(t *testing.T) {
	job := ReconciliationJob{TotalPairs: 200, ProcessedPairs: 50}
	if got := job.Progress(); got != 25 {
		t.Errorf("Progress() = %v, want 25", got)
	}

	empty := ReconciliationJob{}
	if got := empty.Progress(); got != 0 {
		t.Errorf("Progress() with zero pairs = %v, want 0", got)
	}
}

func TestJobStatusTerminal(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobPending, false},
		{JobProcessing, false},
		{JobCompleted, true},
		{JobFailed, true},
		{JobCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestEstimateSeconds(t *testing.T) {
	// No history: 1ms per pair fallback.
	fresh := PerformanceStats{}
	if got := fresh.EstimateSeconds(1000); got != 1.0 {
		t.Errorf("fallback estimate = %v, want 1.0", got)
	}

	// 1000 pairs in 10s means 100 pairs/s.
	seasoned := PerformanceStats{
		SuccessfulJobs:      2,
		TotalPairsProcessed: 1000,
		TotalProcessingSecs: 10,
	}
	if got := seasoned.EstimateSeconds(500); got != 5.0 {
		t.Errorf("throughput estimate = %v, want 5.0", got)
	}
}

func TestAccepted(t *testing.T) {
	if !(MatchResult{Verdict: VerdictAutoApproved}).Accepted() {
		t.Error("auto_approved should be accepted")
	}
	if !(MatchResult{Verdict: VerdictNeedsReview}).Accepted() {
		t.Error("needs_review should be accepted")
	}
	if (MatchResult{Verdict: VerdictRejected}).Accepted() {
		t.Error("rejected should not be accepted")
	}
	if (MatchResult{Verdict: VerdictUnmatched}).Accepted() {
		t.Error("unmatched should not be accepted")
	}
}
