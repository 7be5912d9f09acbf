// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/plumsage/ledgerlink/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Performance statistics document
	GetPerformanceStats(ctx context.Context) (*model.PerformanceStats, error)
	SavePerformanceStats(ctx context.Context, stats *model.PerformanceStats) error

	// Trained-model artifact
	SaveModelArtifact(ctx context.Context, name string, artifact []byte) error
	GetModelArtifact(ctx context.Context, name string) ([]byte, error)

	// Human-correction queue
	AppendCorrection(ctx context.Context, example model.TrainingExample) error
	GetPendingCorrections(ctx context.Context) ([]model.Correction, error)
	ClearCorrections(ctx context.Context, upToID int64) error

	// Training corpus
	AppendTrainingExamples(ctx context.Context, examples []model.TrainingExample) error
	GetTrainingExamples(ctx context.Context) ([]model.TrainingExample, error)

	// Completed-job history
	SaveJobRecord(ctx context.Context, job *model.ReconciliationJob) error
	GetRecentJobs(ctx context.Context, limit int) ([]model.ReconciliationJob, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Scorer is the capability interface for evaluating one candidate pair.
// Implementations must be deterministic for identical inputs.
type Scorer interface {
	Score(ctx context.Context, pair model.CandidatePair) (model.Evaluation, error)
}

// TrainResult reports the outcome of fitting the confidence model.
type TrainResult struct {
	Accuracy    float64
	SampleCount int
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
