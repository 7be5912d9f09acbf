package model

import "time"

// Verdict is the decision attached to an evaluated candidate pair.
type Verdict string

// Possible verdicts for a match result.
const (
	VerdictAutoApproved Verdict = "auto_approved"
	VerdictNeedsReview  Verdict = "needs_review"
	VerdictRejected     Verdict = "rejected"
	VerdictUnmatched    Verdict = "unmatched"
	VerdictError        Verdict = "error"
)

// ScoreSource records which scoring path produced a result's confidence.
type ScoreSource string

// Scoring provenance values.
const (
	SourceExact      ScoreSource = "exact"
	SourceSimilarity ScoreSource = "similarity"
	SourceModel      ScoreSource = "model"
)

// CandidatePair references one reward record and one pos record
// provisionally considered for matching. Indexes refer to the position
// of each record in the job's input slices and drive stable ordering.
type CandidatePair struct {
	Reward      TransactionRecord
	POS         TransactionRecord
	RewardNorm  NormalizedFields
	POSNorm     NormalizedFields
	RewardIndex int
	POSIndex    int
}

// ComponentScores holds the per-field similarity components in [0,1].
// It always accompanies a MatchResult so decisions stay auditable.
type ComponentScores struct {
	Name    float64 `json:"name"`
	Phone   float64 `json:"phone"`
	Email   float64 `json:"email"`
	Amount  float64 `json:"amount"`
	Timing  float64 `json:"timing"`
	Service float64 `json:"service"`
}

// MatchResult is the immutable outcome of evaluating one candidate pair.
type MatchResult struct {
	Pair           CandidatePair     `json:"-"`
	Reward         TransactionRecord `json:"reward_transaction"`
	POS            TransactionRecord `json:"pos_transaction"`
	Verdict        Verdict           `json:"result"`
	Confidence     float64           `json:"confidence"`
	Scores         ComponentScores   `json:"component_scores"`
	Provenance     ScoreSource       `json:"provenance"`
	ProcessingTime time.Duration     `json:"processing_time"`
	Err            string            `json:"error,omitempty"`
}

// Evaluation is the scoring outcome for a pair before a verdict is applied.
type Evaluation struct {
	Scores     ComponentScores
	Confidence float64
	Provenance ScoreSource
}

// Accepted reports whether this result claims its records for the
// one-to-one assignment (auto-approved or review-worthy).
func (m MatchResult) Accepted() bool {
	return m.Verdict == VerdictAutoApproved || m.Verdict == VerdictNeedsReview
}
