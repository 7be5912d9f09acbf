// Package score computes multi-field similarity between ledger records.
package score

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/plumsage/ledgerlink/internal/common"
	"github.com/plumsage/ledgerlink/internal/model"
	"github.com/plumsage/ledgerlink/internal/normalize"
)

// Weights holds the per-field contribution to the overall confidence.
// They are configuration, not constants, and must sum to 1.0.
type Weights struct {
	Name    float64 `mapstructure:"name"`
	Phone   float64 `mapstructure:"phone"`
	Email   float64 `mapstructure:"email"`
	Amount  float64 `mapstructure:"amount"`
	Timing  float64 `mapstructure:"timing"`
	Service float64 `mapstructure:"service"`
}

// DefaultWeights returns the tuned production weights.
func DefaultWeights() Weights {
	return Weights{
		Phone:  0.40,
		Name:   0.30,
		Amount: 0.20,
		Timing: 0.10,
	}
}

// Sum returns the total of all field weights.
func (w Weights) Sum() float64 {
	return w.Name + w.Phone + w.Email + w.Amount + w.Timing + w.Service
}

// Validate ensures the weights are non-negative and sum to 1.0.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Name, w.Phone, w.Email, w.Amount, w.Timing, w.Service} {
		if v < 0 {
			return fmt.Errorf("%w: negative field weight %v", common.ErrInvalidConfig, v)
		}
	}
	if math.Abs(w.Sum()-1.0) > 1e-6 {
		return fmt.Errorf("%w: field weights sum to %v, want 1.0", common.ErrInvalidConfig, w.Sum())
	}
	return nil
}

// Config holds the similarity scorer's tunables.
type Config struct {
	Weights Weights
	// AmountTolerance is the relative difference under which two amounts
	// count as equal (same charge recorded twice).
	AmountTolerance float64
	// RewardRatioMin/Max bound the expected reward-to-full-price ratio.
	// A $50 redemption against a $500 treatment is normal, not an anomaly.
	RewardRatioMin float64
	RewardRatioMax float64
	// TimingWindow is the gap beyond which the timing score is 0.
	// 24h for strict mode, up to 7 days for delayed-posting tolerance.
	TimingWindow time.Duration
	// Embedder optionally blends semantic similarity into the name score.
	Embedder Embedder
}

// DefaultConfig returns the default scoring configuration.
func DefaultConfig() Config {
	return Config{
		Weights:         DefaultWeights(),
		AmountTolerance: 0.05,
		RewardRatioMin:  0.05,
		RewardRatioMax:  0.50,
		TimingWindow:    24 * time.Hour,
	}
}

// Bucket is the coarse confidence classification used by the fast path.
type Bucket string

// Confidence buckets.
const (
	BucketHigh   Bucket = "high"
	BucketMedium Bucket = "medium"
	BucketLow    Bucket = "low"
)

// BucketFor classifies an overall score.
func BucketFor(score float64) Bucket {
	switch {
	case score >= 0.95:
		return BucketHigh
	case score >= 0.85:
		return BucketMedium
	default:
		return BucketLow
	}
}

// SimilarityScorer computes weighted multi-field fuzzy similarity.
type SimilarityScorer struct {
	cfg Config
}

// NewSimilarityScorer validates the configuration and returns a scorer.
func NewSimilarityScorer(cfg Config) (*SimilarityScorer, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	if cfg.AmountTolerance <= 0 || cfg.AmountTolerance >= 1 {
		return nil, fmt.Errorf("%w: amount tolerance %v outside (0,1)", common.ErrInvalidConfig, cfg.AmountTolerance)
	}
	if cfg.RewardRatioMin <= 0 || cfg.RewardRatioMax <= cfg.RewardRatioMin || cfg.RewardRatioMax >= 1 {
		return nil, fmt.Errorf("%w: reward ratio band [%v,%v]", common.ErrInvalidConfig, cfg.RewardRatioMin, cfg.RewardRatioMax)
	}
	if cfg.TimingWindow <= 0 {
		return nil, fmt.Errorf("%w: non-positive timing window", common.ErrInvalidConfig)
	}
	return &SimilarityScorer{cfg: cfg}, nil
}

// Score evaluates one candidate pair. The reported confidence is always
// the weighted sum of the returned component scores under the effective
// weights for the pair.
func (s *SimilarityScorer) Score(_ context.Context, pair model.CandidatePair) (model.Evaluation, error) {
	rn, pn := pair.RewardNorm, pair.POSNorm

	scores := model.ComponentScores{
		Name:    s.nameScore(rn, pn),
		Phone:   PhoneScore(rn.PhoneDigits, pn.PhoneDigits),
		Email:   EmailScore(rn, pn),
		Amount:  s.amountScore(rn, pn),
		Timing:  s.timingScore(rn, pn),
		Service: ServiceSimilarity(rn.Service, pn.Service),
	}

	w := s.EffectiveWeights(rn, pn)
	confidence := scores.Name*w.Name +
		scores.Phone*w.Phone +
		scores.Email*w.Email +
		scores.Amount*w.Amount +
		scores.Timing*w.Timing +
		scores.Service*w.Service

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return model.Evaluation{
		Scores:     scores,
		Confidence: confidence,
		Provenance: model.SourceSimilarity,
	}, nil
}

// EffectiveWeights drops optional fields absent on either side and
// renormalizes the remainder to sum to 1.0. A record pair with no phone
// on the rewards side should not lose 40% of its ceiling to a field
// neither ledger recorded.
func (s *SimilarityScorer) EffectiveWeights(rn, pn model.NormalizedFields) Weights {
	w := s.cfg.Weights
	dropped := false
	if rn.PhoneDigits == "" || pn.PhoneDigits == "" {
		dropped = dropped || w.Phone != 0
		w.Phone = 0
	}
	if rn.Email == "" || pn.Email == "" {
		dropped = dropped || w.Email != 0
		w.Email = 0
	}
	if rn.Service == "" || pn.Service == "" {
		dropped = dropped || w.Service != 0
		w.Service = 0
	}
	if !dropped {
		return w
	}

	sum := w.Sum()
	if sum <= 0 {
		return Weights{Name: 1}
	}

	w.Name /= sum
	w.Phone /= sum
	w.Email /= sum
	w.Amount /= sum
	w.Timing /= sum
	w.Service /= sum
	return w
}

func (s *SimilarityScorer) nameScore(rn, pn model.NormalizedFields) float64 {
	if len(rn.NameTokens) == 0 || len(pn.NameTokens) == 0 {
		return 0
	}

	base := TokenSetRatio(rn.NameTokens, pn.NameTokens)
	if sorted := TokenSortRatio(rn.NameTokens, pn.NameTokens); sorted > base {
		base = sorted
	}

	if s.cfg.Embedder != nil {
		cos := Cosine(s.cfg.Embedder.Embed(rn.Name), s.cfg.Embedder.Embed(pn.Name))
		return 0.7*base + 0.3*cos
	}
	return base
}

// PhoneScore compares normalized phone digits: exact match, partial
// credit for matching trailing digits, else a fuzzy string ratio.
func PhoneScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if len(a) >= 10 && len(b) >= 10 && normalize.LastDigits(a, 10) == normalize.LastDigits(b, 10) {
		return 0.9
	}
	if len(a) >= 7 && len(b) >= 7 && normalize.LastDigits(a, 7) == normalize.LastDigits(b, 7) {
		return 0.7
	}
	return Ratio(a, b)
}

// EmailScore gives full credit for identical addresses and partial
// credit for a shared domain.
func EmailScore(rn, pn model.NormalizedFields) float64 {
	if rn.Email == "" || pn.Email == "" {
		return 0
	}
	if rn.Email == pn.Email {
		return 1.0
	}
	if rn.EmailDomain != "" && rn.EmailDomain == pn.EmailDomain {
		return 0.5
	}
	return 0
}

func (s *SimilarityScorer) amountScore(rn, pn model.NormalizedFields) float64 {
	if !rn.AmountValid || !pn.AmountValid {
		return 0
	}

	r := math.Abs(rn.Amount)
	p := math.Abs(pn.Amount)
	if r == 0 || p == 0 {
		return 0
	}

	hi := math.Max(r, p)
	lo := math.Min(r, p)
	rel := (hi - lo) / hi
	if rel <= s.cfg.AmountTolerance {
		return 1.0
	}

	ratio := lo / hi
	if ratio >= s.cfg.RewardRatioMin && ratio <= s.cfg.RewardRatioMax {
		return 1.0
	}

	// Outside both acceptance regions: decay with distance from the
	// reward band, but keep a sliver of credit near the equality edge.
	width := s.cfg.RewardRatioMax - s.cfg.RewardRatioMin
	gap := s.cfg.RewardRatioMin - ratio
	if ratio > s.cfg.RewardRatioMax {
		gap = ratio - s.cfg.RewardRatioMax
	}
	band := 1 - gap/width
	if band < 0 {
		band = 0
	}

	var eq float64
	if rel < 2*s.cfg.AmountTolerance {
		eq = 1 - (rel-s.cfg.AmountTolerance)/s.cfg.AmountTolerance
	}

	return math.Max(band, eq)
}

func (s *SimilarityScorer) timingScore(rn, pn model.NormalizedFields) float64 {
	if !rn.TimestampValid || !pn.TimestampValid {
		return 0
	}

	gap := rn.Timestamp.Sub(pn.Timestamp)
	if gap < 0 {
		gap = -gap
	}
	if gap >= s.cfg.TimingWindow {
		return 0
	}

	return math.Exp(-3 * float64(gap) / float64(s.cfg.TimingWindow))
}

// ServiceSimilarity combines token similarity with the treatment
// category lookup: same category scores 1.0 regardless of wording.
func ServiceSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	catA := TreatmentCategory(a)
	if catA != "" && catA == TreatmentCategory(b) {
		return 1.0
	}

	return TokenSetRatio(strings.Fields(a), strings.Fields(b))
}
