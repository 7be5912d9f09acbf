package model

import "time"

// JobStatus tracks the lifecycle of a reconciliation job.
type JobStatus string

// Job lifecycle states. The only caller-requested mid-flight transition
// is processing -> cancelled.
const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// JobMetrics captures performance figures for a finished job.
type JobMetrics struct {
	Elapsed         time.Duration `json:"elapsed"`
	PairsPerSecond  float64       `json:"pairs_per_second"`
	MatchRate       float64       `json:"match_rate"`
	PeakMemoryBytes uint64        `json:"peak_memory_bytes"`
}

// JobSummary aggregates verdict counts over a job's results.
type JobSummary struct {
	Matched      int `json:"matched"`
	NeedsReview  int `json:"needs_review"`
	NoMatch      int `json:"no_match"`
	Unmatched    int `json:"unmatched"`
	Errors       int `json:"errors"`
	TotalResults int `json:"total_results"`
}

// Summarize tallies verdicts into a JobSummary.
func Summarize(results []MatchResult) JobSummary {
	s := JobSummary{TotalResults: len(results)}
	for _, r := range results {
		switch r.Verdict {
		case VerdictAutoApproved:
			s.Matched++
		case VerdictNeedsReview:
			s.NeedsReview++
		case VerdictRejected:
			s.NoMatch++
		case VerdictUnmatched:
			s.Unmatched++
		case VerdictError:
			s.Errors++
		}
	}
	return s
}

// ReconciliationJob is the orchestrator-owned record of one batch run.
// All mutation goes through the orchestrator; readers receive copies.
type ReconciliationJob struct {
	ID             string        `json:"job_id"`
	Status         JobStatus     `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	StartedAt      time.Time     `json:"started_at,omitempty"`
	CompletedAt    time.Time     `json:"completed_at,omitempty"`
	TotalPairs     int           `json:"total_pairs"`
	ProcessedPairs int           `json:"processed_pairs"`
	MatchesFound   int           `json:"matches_found"`
	Errors         []string      `json:"errors"`
	Results        []MatchResult `json:"results,omitempty"`
	Summary        JobSummary    `json:"summary"`
	Metrics        JobMetrics    `json:"performance_metrics"`
}

// Progress returns completion as a percentage in [0,100].
func (j *ReconciliationJob) Progress() float64 {
	if j.TotalPairs == 0 {
		return 0
	}
	return float64(j.ProcessedPairs) / float64(j.TotalPairs) * 100
}
