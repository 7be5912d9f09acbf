package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/plumsage/ledgerlink/internal/classifier"
	"github.com/plumsage/ledgerlink/internal/common"
	"github.com/plumsage/ledgerlink/internal/decision"
	"github.com/plumsage/ledgerlink/internal/engine"
	"github.com/plumsage/ledgerlink/internal/score"
	"github.com/plumsage/ledgerlink/internal/storage"
)

// app bundles everything a command needs to run the pipeline.
type app struct {
	store        *storage.SQLiteStorage
	orchestrator *engine.Orchestrator
	model        *classifier.ConfidenceModel
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// newApp opens storage, applies migrations, assembles the hybrid scorer,
// and builds the orchestrator from configuration.
func newApp(ctx context.Context) (*app, error) {
	store, err := openStorage(ctx)
	if err != nil {
		return nil, err
	}

	similarity, err := score.NewSimilarityScorer(scoringConfig())
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	confidence := classifier.NewConfidenceModel(store)
	if err := confidence.Load(ctx); err != nil {
		// No trained model yet: the fuzzy fast path carries every pair.
		slog.Debug("No confidence model loaded", "reason", err)
	}

	orch, err := engine.New(classifier.NewHybridScorer(similarity, confidence), store, engineConfig())
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := orch.LoadStats(ctx); err != nil {
		slog.Warn("Starting with empty performance stats", "error", err)
	}

	return &app{store: store, orchestrator: orch, model: confidence}, nil
}

func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(databasePath())
	if err != nil {
		return nil, common.NewUserError("failed to open database", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, common.NewUserError("failed to migrate database", err)
	}
	return store, nil
}

func databasePath() string {
	if dbPath := viper.GetString("database.path"); dbPath != "" {
		return dbPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "ledgerlink.db"
	}
	return filepath.Join(home, ".local", "share", "ledgerlink", "ledgerlink.db")
}

func scoringConfig() score.Config {
	cfg := score.DefaultConfig()
	cfg.Embedder = score.NewTrigramEmbedder()

	if viper.IsSet("scoring.weights") {
		var w score.Weights
		if err := viper.UnmarshalKey("scoring.weights", &w); err == nil {
			cfg.Weights = w
		}
	}
	if v := viper.GetFloat64("scoring.amount_tolerance"); v > 0 {
		cfg.AmountTolerance = v
	}
	if v := viper.GetDuration("scoring.timing_window"); v > 0 {
		cfg.TimingWindow = v
	}
	return cfg
}

func engineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	if v := viper.GetInt("engine.workers"); v > 0 {
		cfg.Workers = v
	}
	if v := viper.GetInt("engine.chunk_size"); v > 0 {
		cfg.ChunkSize = v
	}
	if v := viper.GetInt("engine.history_limit"); v > 0 {
		cfg.HistoryLimit = v
	}
	pol := decision.DefaultPolicy()
	if v := viper.GetFloat64("engine.auto_approve"); v > 0 {
		pol.AutoApprove = v
	}
	if v := viper.GetFloat64("engine.review"); v > 0 {
		pol.Review = v
	}
	cfg.Policy = pol
	return cfg
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
