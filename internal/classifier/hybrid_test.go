package classifier

import (
	"context"
	"testing"

	"github.com/plumsage/ledgerlink/internal/model"
	"github.com/plumsage/ledgerlink/internal/score"
)

func similarityScorer(t *testing.T) *score.SimilarityScorer {
	t.Helper()
	s, err := score.NewSimilarityScorer(score.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create similarity scorer: %v", err)
	}
	return s
}

func TestHybridFallsBackWithoutModel(t *testing.T) {
	ctx := context.Background()
	h := NewHybridScorer(similarityScorer(t), NewConfidenceModel(testStorage(t)))

	pair := pairFor(matchExample("Sarah Johnson", "5551234567", "450.00", "2025-03-15T10:00:00Z"))
	eval, err := h.Score(ctx, pair)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if eval.Provenance != model.SourceSimilarity {
		t.Errorf("provenance = %v, want similarity fallback", eval.Provenance)
	}
	if eval.Confidence <= 0.9 {
		t.Errorf("identical records scored %v", eval.Confidence)
	}
}

func TestHybridUsesModelWhenLoaded(t *testing.T) {
	ctx := context.Background()
	cm := NewConfidenceModel(testStorage(t))
	if _, err := cm.Train(ctx, trainingSet()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	h := NewHybridScorer(similarityScorer(t), cm)
	pair := pairFor(mismatchExample())

	eval, err := h.Score(ctx, pair)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if eval.Provenance != model.SourceModel {
		t.Errorf("provenance = %v, want model", eval.Provenance)
	}

	// Component scores still come from the similarity pass for audit.
	zero := model.ComponentScores{}
	if eval.Scores == zero {
		t.Error("component scores missing from model-scored result")
	}

	want, err := cm.Predict(ctx, pair)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if eval.Confidence != want {
		t.Errorf("confidence = %v, want model probability %v", eval.Confidence, want)
	}
}

func TestHybridNilModel(t *testing.T) {
	h := NewHybridScorer(similarityScorer(t), nil)
	pair := pairFor(matchExample("Amanda Lee", "5559876543", "200.00", "2025-03-16T11:00:00Z"))

	eval, err := h.Score(context.Background(), pair)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if eval.Provenance != model.SourceSimilarity {
		t.Errorf("provenance = %v", eval.Provenance)
	}
}
