// Package retrain drains queued human corrections into the persistent
// training corpus and refits the confidence model.
package retrain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/plumsage/ledgerlink/internal/classifier"
	"github.com/plumsage/ledgerlink/internal/model"
	"github.com/plumsage/ledgerlink/internal/service"
)

// Result reports one retraining run.
type Result struct {
	// CorrectionsApplied is the number of queued corrections folded into
	// the corpus by this run. Zero means the model was refit on the
	// existing corpus alone.
	CorrectionsApplied int
	// SampleCount is the corpus size the model was fitted on.
	SampleCount int
	// Accuracy is the fitted-set accuracy of the new model.
	Accuracy float64
}

// Retrainer wires the correction queue, the training corpus, and the
// confidence model together.
type Retrainer struct {
	storage service.Storage
	model   *classifier.ConfidenceModel
}

// New creates a retrainer over the given storage and model.
func New(storage service.Storage, confidence *classifier.ConfidenceModel) *Retrainer {
	return &Retrainer{storage: storage, model: confidence}
}

// Run performs one retraining pass. Ordering is crash-safe: corrections
// are appended to the corpus and the new artifact is saved before the
// queue is cleared, so a crash at any point leaves at worst duplicate
// corpus rows on retry, never lost corrections.
func (r *Retrainer) Run(ctx context.Context) (Result, error) {
	corrections, err := r.storage.GetPendingCorrections(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read correction queue: %w", err)
	}

	var maxID int64
	if len(corrections) > 0 {
		examples := make([]model.TrainingExample, len(corrections))
		for i, c := range corrections {
			examples[i] = c.Example()
			if c.ID > maxID {
				maxID = c.ID
			}
		}
		if err := r.storage.AppendTrainingExamples(ctx, examples); err != nil {
			return Result{}, fmt.Errorf("failed to fold corrections into corpus: %w", err)
		}
	}

	corpus, err := r.storage.GetTrainingExamples(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load training corpus: %w", err)
	}

	train, err := r.model.Train(ctx, corpus)
	if err != nil {
		return Result{}, fmt.Errorf("failed to train confidence model: %w", err)
	}
	if err := r.model.Save(ctx); err != nil {
		return Result{}, fmt.Errorf("failed to save model artifact: %w", err)
	}

	if maxID > 0 {
		if err := r.storage.ClearCorrections(ctx, maxID); err != nil {
			// The new model is already live and saved. Leave the queue for
			// the next run rather than failing the whole retrain.
			slog.Warn("Failed to clear correction queue", "error", err)
		}
	}

	slog.Info("Confidence model retrained",
		"corrections", len(corrections),
		"samples", train.SampleCount,
		"accuracy", train.Accuracy)

	return Result{
		CorrectionsApplied: len(corrections),
		SampleCount:        train.SampleCount,
		Accuracy:           train.Accuracy,
	}, nil
}

// QueueCorrection records a human-labeled pair for the next run.
func (r *Retrainer) QueueCorrection(ctx context.Context, example model.TrainingExample) error {
	if err := r.storage.AppendCorrection(ctx, example); err != nil {
		return fmt.Errorf("failed to queue correction: %w", err)
	}
	return nil
}
