package model

import "time"

// TrainingExample is one labeled pair used to fit the confidence model.
// Examples come from human corrections, never from the pipeline itself.
type TrainingExample struct {
	Reward  TransactionRecord `json:"reward"`
	POS     TransactionRecord `json:"pos"`
	IsMatch bool              `json:"is_match"`
}

// Correction is a queued human correction awaiting the next retrain.
type Correction struct {
	ID        int64             `json:"id"`
	Reward    TransactionRecord `json:"reward"`
	POS       TransactionRecord `json:"pos"`
	IsMatch   bool              `json:"is_match"`
	CreatedAt time.Time         `json:"created_at"`
}

// Example converts a correction into a training example.
func (c Correction) Example() TrainingExample {
	return TrainingExample{Reward: c.Reward, POS: c.POS, IsMatch: c.IsMatch}
}

// PerformanceStats is the persisted counter document updated after each
// job completes. Running averages feed job duration estimates.
type PerformanceStats struct {
	TotalJobs           int64   `json:"total_jobs"`
	SuccessfulJobs      int64   `json:"successful_jobs"`
	FailedJobs          int64   `json:"failed_jobs"`
	TotalPairsProcessed int64   `json:"total_transactions_processed"`
	TotalMatchesFound   int64   `json:"total_matches_found"`
	TotalProcessingSecs float64 `json:"total_processing_time"`
	AvgProcessingSecs   float64 `json:"avg_processing_time"`
}

// EstimateSeconds predicts processing time for a pair count from the
// observed throughput, falling back to 1ms per pair with no history.
func (p PerformanceStats) EstimateSeconds(totalPairs int) float64 {
	if p.SuccessfulJobs == 0 || p.TotalProcessingSecs <= 0 {
		return float64(totalPairs) * 0.001
	}
	tps := float64(p.TotalPairsProcessed) / p.TotalProcessingSecs
	if tps <= 0 {
		return float64(totalPairs) * 0.001
	}
	return float64(totalPairs) / tps
}
