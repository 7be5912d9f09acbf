// Package decision maps confidence scores to verdicts through ordered
// thresholds. Pure, deterministic, no I/O.
package decision

import (
	"fmt"

	"github.com/plumsage/ledgerlink/internal/common"
	"github.com/plumsage/ledgerlink/internal/model"
)

// Policy holds the ordered decision thresholds. Both the fuzzy fast
// path and the model path apply the same policy.
type Policy struct {
	// AutoApprove is the minimum confidence for auto_approved.
	AutoApprove float64 `mapstructure:"auto_approve"`
	// Review is the minimum confidence for needs_review; anything lower
	// is rejected.
	Review float64 `mapstructure:"review"`
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{AutoApprove: 0.95, Review: 0.70}
}

// Validate checks the threshold ordering 0 <= review <= auto-approve <= 1.
func (p Policy) Validate() error {
	if p.AutoApprove < 0 || p.AutoApprove > 1 {
		return fmt.Errorf("%w: auto-approve threshold %v outside [0,1]", common.ErrInvalidConfig, p.AutoApprove)
	}
	if p.Review < 0 || p.Review > p.AutoApprove {
		return fmt.Errorf("%w: review threshold %v outside [0,%v]", common.ErrInvalidConfig, p.Review, p.AutoApprove)
	}
	return nil
}

// WithAutoApprove returns a copy with a per-job auto-approve threshold.
// The review threshold is clamped so ordering holds.
func (p Policy) WithAutoApprove(threshold float64) Policy {
	p.AutoApprove = threshold
	if p.Review > threshold {
		p.Review = threshold
	}
	return p
}

// Verdict maps a confidence score to a verdict. Given the same score it
// always returns the same verdict.
func (p Policy) Verdict(confidence float64) model.Verdict {
	switch {
	case confidence >= p.AutoApprove:
		return model.VerdictAutoApproved
	case confidence >= p.Review:
		return model.VerdictNeedsReview
	default:
		return model.VerdictRejected
	}
}
