package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/plumsage/ledgerlink/internal/common"
	"github.com/plumsage/ledgerlink/internal/model"
	"github.com/plumsage/ledgerlink/internal/service"
)

// ArtifactName is the storage key for the persisted model.
const ArtifactName = "confidence-model"

// ConfidenceModel wraps the trained classifier behind a thread-safe
// predict/train surface. A model that fails to load reports not-loaded
// and callers fall back to similarity-only scoring.
type ConfidenceModel struct {
	storage service.Storage
	mu      sync.RWMutex
	clf     *logisticModel
}

// NewConfidenceModel creates an unloaded confidence model.
func NewConfidenceModel(storage service.Storage) *ConfidenceModel {
	return &ConfidenceModel{storage: storage}
}

// Load reads the persisted artifact. Failure leaves the model unloaded;
// it is not fatal to the service.
func (c *ConfidenceModel) Load(ctx context.Context) error {
	blob, err := c.storage.GetModelArtifact(ctx, ArtifactName)
	if err != nil {
		return fmt.Errorf("failed to read model artifact: %w", err)
	}

	var clf logisticModel
	if err := json.Unmarshal(blob, &clf); err != nil {
		return fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if !clf.valid() {
		return fmt.Errorf("%w: artifact shape does not match feature contract", common.ErrModelNotLoaded)
	}

	c.mu.Lock()
	c.clf = &clf
	c.mu.Unlock()

	return nil
}

// Loaded reports whether a trained classifier is available.
func (c *ConfidenceModel) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clf != nil
}

// Predict returns P(match) in [0,1] for a candidate pair.
func (c *ConfidenceModel) Predict(_ context.Context, pair model.CandidatePair) (float64, error) {
	c.mu.RLock()
	clf := c.clf
	c.mu.RUnlock()

	if clf == nil {
		return 0, common.ErrModelNotLoaded
	}

	return clf.proba(ExtractFeatures(pair)), nil
}

// Train fits a fresh classifier on the labeled examples and swaps it in.
// A single-class set gets one synthetic opposite-label sample so the
// classifier remains well-defined. The new model is held in memory only;
// call Save to persist it.
func (c *ConfidenceModel) Train(_ context.Context, examples []model.TrainingExample) (service.TrainResult, error) {
	if len(examples) == 0 {
		return service.TrainResult{}, fmt.Errorf("%w: no training examples", common.ErrInvalidConfig)
	}

	features := make([][]float64, 0, len(examples)+1)
	labels := make([]int, 0, len(examples)+1)
	for _, ex := range examples {
		features = append(features, FeaturesForExample(ex))
		label := 0
		if ex.IsMatch {
			label = 1
		}
		labels = append(labels, label)
	}

	if singleClass(labels) {
		synthetic := make([]float64, FeatureCount)
		synthetic[featAmountRelDiff] = 1
		synthetic[featTimestampGapSecs] = maxGapSeconds
		features = append(features, synthetic)
		labels = append(labels, 1-labels[0])
		slog.Info("Injected synthetic opposite-label sample for single-class training set")
	}

	clf, err := fitLogistic(features, labels)
	if err != nil {
		return service.TrainResult{}, fmt.Errorf("training failed: %w", err)
	}

	correct := 0
	for i, row := range features {
		predicted := 0
		if clf.proba(row) >= 0.5 {
			predicted = 1
		}
		if predicted == labels[i] {
			correct++
		}
	}

	c.mu.Lock()
	c.clf = clf
	c.mu.Unlock()

	return service.TrainResult{
		Accuracy:    float64(correct) / float64(len(features)),
		SampleCount: len(features),
	}, nil
}

// Save persists the current classifier as an opaque artifact blob.
func (c *ConfidenceModel) Save(ctx context.Context) error {
	c.mu.RLock()
	clf := c.clf
	c.mu.RUnlock()

	if clf == nil {
		return common.ErrModelNotTrained
	}

	blob, err := json.Marshal(clf)
	if err != nil {
		return fmt.Errorf("failed to encode model artifact: %w", err)
	}

	return c.storage.SaveModelArtifact(ctx, ArtifactName, blob)
}

func singleClass(labels []int) bool {
	for _, l := range labels[1:] {
		if l != labels[0] {
			return false
		}
	}
	return true
}
