package score

import (
	"context"
	"testing"
	"time"

	"github.com/plumsage/ledgerlink/internal/model"
	"github.com/plumsage/ledgerlink/internal/normalize"
)

func testScorer(t *testing.T) *SimilarityScorer {
	t.Helper()
	s, err := NewSimilarityScorer(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create scorer: %v", err)
	}
	return s
}

func pairOf(reward, pos model.TransactionRecord) model.CandidatePair {
	return model.CandidatePair{
		Reward:     reward,
		POS:        pos,
		RewardNorm: normalize.Record(reward),
		POSNorm:    normalize.Record(pos),
	}
}

func TestNewSimilarityScorerValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name: "weights must sum to one",
			mutate: func(c *Config) {
				c.Weights.Phone = 0.5
			},
			wantErr: true,
		},
		{
			name: "negative weight rejected",
			mutate: func(c *Config) {
				c.Weights.Name = -0.1
				c.Weights.Phone = 0.8
			},
			wantErr: true,
		},
		{
			name: "zero timing window rejected",
			mutate: func(c *Config) {
				c.TimingWindow = 0
			},
			wantErr: true,
		},
		{
			name: "inverted ratio band rejected",
			mutate: func(c *Config) {
				c.RewardRatioMin = 0.6
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewSimilarityScorer(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSimilarityScorer() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAmountScore(t *testing.T) {
	s := testScorer(t)

	tests := []struct {
		name      string
		reward    string
		pos       string
		wantScore float64
		atMost    float64
		exact     bool
	}{
		{
			name:   "identical amounts",
			reward: "450.00", pos: "450.00",
			wantScore: 1.0, exact: true,
		},
		{
			name:   "within tolerance",
			reward: "450.00", pos: "445.00",
			wantScore: 1.0, exact: true,
		},
		{
			name:   "reward at 10 percent of full price",
			reward: "50.00", pos: "500.00",
			wantScore: 1.0, exact: true,
		},
		{
			name:   "reward at half price",
			reward: "250.00", pos: "500.00",
			wantScore: 1.0, exact: true,
		},
		{
			name:   "ninety percent is not a plausible redemption",
			reward: "450.00", pos: "500.00",
			atMost: 0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rn := normalize.Record(model.TransactionRecord{Amount: tt.reward})
			pn := normalize.Record(model.TransactionRecord{Amount: tt.pos})
			got := s.amountScore(rn, pn)

			if tt.exact && got != tt.wantScore {
				t.Errorf("amountScore(%s, %s) = %v, want %v", tt.reward, tt.pos, got, tt.wantScore)
			}
			if !tt.exact && got > tt.atMost {
				t.Errorf("amountScore(%s, %s) = %v, want at most %v", tt.reward, tt.pos, got, tt.atMost)
			}
		})
	}
}

func TestTimingScore(t *testing.T) {
	s := testScorer(t)
	base := "2025-03-15T12:00:00Z"

	score := func(posTime string) float64 {
		rn := normalize.Record(model.TransactionRecord{Timestamp: base})
		pn := normalize.Record(model.TransactionRecord{Timestamp: posTime})
		return s.timingScore(rn, pn)
	}

	if got := score(base); got != 1.0 {
		t.Errorf("zero gap = %v, want 1.0", got)
	}
	if got := score("2025-03-16T12:00:00Z"); got != 0 {
		t.Errorf("gap at window = %v, want 0", got)
	}
	if got := score("2025-03-20T12:00:00Z"); got != 0 {
		t.Errorf("gap beyond window = %v, want 0", got)
	}

	// Monotonically decreasing inside the window.
	h2 := score("2025-03-15T14:00:00Z")
	h6 := score("2025-03-15T18:00:00Z")
	h12 := score("2025-03-16T00:00:00Z")
	if !(1.0 > h2 && h2 > h6 && h6 > h12 && h12 > 0) {
		t.Errorf("timing decay not monotonic: 2h=%v 6h=%v 12h=%v", h2, h6, h12)
	}

	// Direction should not matter.
	rn := normalize.Record(model.TransactionRecord{Timestamp: "2025-03-15T18:00:00Z"})
	pn := normalize.Record(model.TransactionRecord{Timestamp: base})
	if got := s.timingScore(rn, pn); got != h6 {
		t.Errorf("timing not symmetric: %v vs %v", got, h6)
	}
}

func TestPhoneScore(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "exact", a: "5551234567", b: "5551234567", want: 1.0},
		{name: "country code difference", a: "15551234567", b: "5551234567", want: 0.9},
		{name: "area code difference", a: "2121234567", b: "9171234567", want: 0.7},
		{name: "either empty", a: "", b: "5551234567", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PhoneScore(tt.a, tt.b); got != tt.want {
				t.Errorf("PhoneScore(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestEmailScore(t *testing.T) {
	norm := func(email string) model.NormalizedFields {
		return normalize.Record(model.TransactionRecord{Email: email})
	}

	if got := EmailScore(norm("sarah@example.com"), norm("sarah@example.com")); got != 1.0 {
		t.Errorf("identical emails = %v", got)
	}
	if got := EmailScore(norm("sarah@example.com"), norm("s.johnson@example.com")); got != 0.5 {
		t.Errorf("shared domain = %v", got)
	}
	if got := EmailScore(norm("sarah@example.com"), norm("sarah@other.com")); got != 0 {
		t.Errorf("different domains = %v", got)
	}
	if got := EmailScore(norm(""), norm("sarah@example.com")); got != 0 {
		t.Errorf("missing email = %v", got)
	}
}

func TestServiceSimilarity(t *testing.T) {
	if got := ServiceSimilarity("botox 50u", "neurotoxin treatment - forehead"); got != 1.0 {
		t.Errorf("same treatment category = %v, want 1.0", got)
	}
	if got := ServiceSimilarity("hydrafacial-deluxe", "signature facial"); got != 1.0 {
		t.Errorf("embedded keyword category = %v, want 1.0", got)
	}
	if got := ServiceSimilarity("botox 50u", "deep tissue massage"); got >= 0.5 {
		t.Errorf("different categories = %v, want below 0.5", got)
	}
	if got := ServiceSimilarity("", "botox"); got != 0 {
		t.Errorf("missing service = %v, want 0", got)
	}
}

func TestEffectiveWeights(t *testing.T) {
	s := testScorer(t)

	full := normalize.Record(model.TransactionRecord{
		CustomerName: "Sarah Johnson",
		Phone:        "5551234567",
		Amount:       "450.00",
		Timestamp:    "2025-03-15T12:00:00Z",
	})
	noPhone := normalize.Record(model.TransactionRecord{
		CustomerName: "Sarah Johnson",
		Amount:       "450.00",
		Timestamp:    "2025-03-15T12:00:00Z",
	})

	w := s.EffectiveWeights(full, noPhone)
	if w.Phone != 0 {
		t.Errorf("phone weight = %v, want 0 when one side lacks a phone", w.Phone)
	}
	if !approx(w.Sum(), 1.0) {
		t.Errorf("effective weights sum = %v, want 1.0", w.Sum())
	}
	// Remaining fields keep their relative proportions: name was 0.30 of
	// a 0.60 remainder.
	if !approx(w.Name, 0.5) {
		t.Errorf("renormalized name weight = %v, want 0.5", w.Name)
	}

	both := s.EffectiveWeights(full, full)
	if both != s.cfg.Weights {
		t.Errorf("all fields present should keep configured weights, got %+v", both)
	}
}

func TestScoreConfidenceIsWeightedComponentSum(t *testing.T) {
	s := testScorer(t)

	pair := pairOf(
		model.TransactionRecord{
			CustomerName: "Sarah Johnson",
			Phone:        "(555) 123-4567",
			Amount:       "$50.00",
			Timestamp:    "2025-03-15T14:30:00Z",
		},
		model.TransactionRecord{
			CustomerName: "Johnson, Sarah",
			Phone:        "555-123-4567",
			Amount:       "500.00",
			Timestamp:    "2025-03-15 16:00:00",
		},
	)

	eval, err := s.Score(context.Background(), pair)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	w := s.EffectiveWeights(pair.RewardNorm, pair.POSNorm)
	want := eval.Scores.Name*w.Name +
		eval.Scores.Phone*w.Phone +
		eval.Scores.Email*w.Email +
		eval.Scores.Amount*w.Amount +
		eval.Scores.Timing*w.Timing +
		eval.Scores.Service*w.Service

	if !approx(eval.Confidence, want) {
		t.Errorf("confidence %v != weighted component sum %v", eval.Confidence, want)
	}
	if eval.Provenance != model.SourceSimilarity {
		t.Errorf("provenance = %v", eval.Provenance)
	}
}

func TestScoreRealisticPairs(t *testing.T) {
	s := testScorer(t)
	ctx := context.Background()

	t.Run("name only plus amount and timing clears review", func(t *testing.T) {
		// No phone or email on either side: identity rides on the name,
		// and the remaining weights renormalize rather than capping the
		// score at 0.60.
		pair := pairOf(
			model.TransactionRecord{
				CustomerName: "Sarah Rhea",
				Amount:       "450.00",
				Timestamp:    "2025-03-15T10:00:00Z",
			},
			model.TransactionRecord{
				CustomerName: "Rhea, Sarah",
				Amount:       "450.00",
				Timestamp:    "2025-03-15T16:00:00Z",
			},
		)
		eval, err := s.Score(ctx, pair)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if eval.Confidence < 0.85 {
			t.Errorf("confidence = %v, want at least 0.85", eval.Confidence)
		}
	})

	t.Run("unrelated records stay low", func(t *testing.T) {
		pair := pairOf(
			model.TransactionRecord{
				CustomerName: "Sarah Johnson",
				Phone:        "5551234567",
				Amount:       "450.00",
				Timestamp:    "2025-03-15T10:00:00Z",
			},
			model.TransactionRecord{
				CustomerName: "Michael Chen",
				Phone:        "2129876543",
				Amount:       "500.00",
				Timestamp:    "2025-03-22T10:00:00Z",
			},
		)
		eval, err := s.Score(ctx, pair)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if eval.Confidence >= 0.5 {
			t.Errorf("confidence = %v, want below 0.5", eval.Confidence)
		}
	})
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Bucket
	}{
		{1.0, BucketHigh},
		{0.95, BucketHigh},
		{0.949, BucketMedium},
		{0.85, BucketMedium},
		{0.849, BucketLow},
		{0, BucketLow},
	}

	for _, tt := range tests {
		if got := BucketFor(tt.score); got != tt.want {
			t.Errorf("BucketFor(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestCosineEmbedding(t *testing.T) {
	e := NewTrigramEmbedder()

	same := Cosine(e.Embed("sarah johnson"), e.Embed("sarah johnson"))
	if !approx(same, 1.0) {
		t.Errorf("identical text cosine = %v, want 1.0", same)
	}

	similar := Cosine(e.Embed("sarah johnson"), e.Embed("sara johnson"))
	different := Cosine(e.Embed("sarah johnson"), e.Embed("michael chen"))
	if similar <= different {
		t.Errorf("cosine ordering wrong: similar=%v different=%v", similar, different)
	}
}

func TestTimingWindowIsConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimingWindow = 7 * 24 * time.Hour
	s, err := NewSimilarityScorer(cfg)
	if err != nil {
		t.Fatalf("Failed to create scorer: %v", err)
	}

	rn := normalize.Record(model.TransactionRecord{Timestamp: "2025-03-15T12:00:00Z"})
	pn := normalize.Record(model.TransactionRecord{Timestamp: "2025-03-17T12:00:00Z"})
	if got := s.timingScore(rn, pn); got <= 0 {
		t.Errorf("two-day gap inside a week window = %v, want positive", got)
	}
}
