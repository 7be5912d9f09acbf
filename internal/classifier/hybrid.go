package classifier

import (
	"context"
	"log/slog"

	"github.com/plumsage/ledgerlink/internal/model"
	"github.com/plumsage/ledgerlink/internal/service"
)

// HybridScorer prefers the learned model's probability and falls back to
// similarity-only scoring when the model is unavailable. Component
// scores always come from the similarity pass so results stay auditable
// on either path; the Provenance field records which path set the
// confidence.
type HybridScorer struct {
	similarity service.Scorer
	confidence *ConfidenceModel
}

// NewHybridScorer composes the two scoring paths.
func NewHybridScorer(similarity service.Scorer, confidence *ConfidenceModel) *HybridScorer {
	return &HybridScorer{similarity: similarity, confidence: confidence}
}

// Score evaluates a pair, using the model probability when available.
func (h *HybridScorer) Score(ctx context.Context, pair model.CandidatePair) (model.Evaluation, error) {
	eval, err := h.similarity.Score(ctx, pair)
	if err != nil {
		return model.Evaluation{}, err
	}

	if h.confidence == nil || !h.confidence.Loaded() {
		return eval, nil
	}

	proba, err := h.confidence.Predict(ctx, pair)
	if err != nil {
		slog.Warn("Model inference failed, falling back to similarity scoring", "error", err)
		return eval, nil
	}

	eval.Confidence = proba
	eval.Provenance = model.SourceModel
	return eval, nil
}
