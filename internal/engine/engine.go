// Package engine coordinates reconciliation jobs: candidate generation,
// parallel pair scoring, one-to-one deduplication, and the persisted
// performance counters that feed duration estimates.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/plumsage/ledgerlink/internal/common"
	"github.com/plumsage/ledgerlink/internal/decision"
	"github.com/plumsage/ledgerlink/internal/match"
	"github.com/plumsage/ledgerlink/internal/model"
	"github.com/plumsage/ledgerlink/internal/service"
)

// Config controls orchestrator parallelism and retention.
type Config struct {
	// Workers is the number of goroutines scoring chunks concurrently.
	Workers int `mapstructure:"workers"`
	// ChunkSize is the number of pairs handed to a worker at a time.
	// Cancellation takes effect between chunks, never inside one.
	ChunkSize int `mapstructure:"chunk_size"`
	// HistoryLimit caps the finished jobs retained in memory.
	HistoryLimit int `mapstructure:"history_limit"`
	// Policy holds the default decision thresholds. Start and
	// PredictMatch may override the auto-approve threshold per call.
	Policy decision.Policy `mapstructure:"policy"`
}

// DefaultConfig returns the production orchestrator settings.
func DefaultConfig() Config {
	return Config{
		Workers:      4,
		ChunkSize:    100,
		HistoryLimit: 50,
		Policy:       decision.DefaultPolicy(),
	}
}

// Validate rejects configurations that could wedge or starve a job.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", common.ErrInvalidConfig, c.Workers)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", common.ErrInvalidConfig, c.ChunkSize)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("%w: history limit must be positive, got %d", common.ErrInvalidConfig, c.HistoryLimit)
	}
	return c.Policy.Validate()
}

// StartInfo is the immediate response to starting a job.
type StartInfo struct {
	JobID            string  `json:"job_id"`
	TotalPairs       int     `json:"total_pairs"`
	EstimatedSeconds float64 `json:"estimated_seconds"`
}

// Orchestrator runs reconciliation jobs against an injected scorer and
// storage backend. One orchestrator serves many concurrent jobs; each
// job's record is mutated only by its own coordinating goroutine.
type Orchestrator struct {
	scorer  service.Scorer
	storage service.Storage
	cfg     Config
	jobs    *JobStore

	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc

	statsMu sync.Mutex
	stats   model.PerformanceStats

	wg sync.WaitGroup
}

// New creates an orchestrator. The configuration is validated here so a
// bad worker count or threshold ordering fails fast instead of at job
// time.
func New(scorer service.Scorer, storage service.Storage, cfg Config) (*Orchestrator, error) {
	if scorer == nil {
		return nil, fmt.Errorf("%w: scorer", common.ErrMissingConfig)
	}
	if storage == nil {
		return nil, fmt.Errorf("%w: storage", common.ErrMissingConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Orchestrator{
		scorer:  scorer,
		storage: storage,
		cfg:     cfg,
		jobs:    NewJobStore(cfg.HistoryLimit),
		cancels: make(map[string]context.CancelFunc),
	}, nil
}

// LoadStats primes the in-memory performance counters from storage.
// Called once at startup; a failure leaves zeroed counters, which only
// degrades duration estimates.
func (o *Orchestrator) LoadStats(ctx context.Context) error {
	stats, err := o.storage.GetPerformanceStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load performance stats: %w", err)
	}

	o.statsMu.Lock()
	o.stats = *stats
	o.statsMu.Unlock()
	return nil
}

// Stats returns a snapshot of the performance counters.
func (o *Orchestrator) Stats() model.PerformanceStats {
	o.statsMu.Lock()
	defer o.statsMu.Unlock()
	return o.stats
}

// PredictMatch scores a single pair synchronously. The threshold
// overrides the auto-approve bound for this call only; review keeps its
// configured value (clamped to preserve ordering).
func (o *Orchestrator) PredictMatch(ctx context.Context, reward, pos model.TransactionRecord, threshold float64) (model.MatchResult, error) {
	if err := validateThreshold(threshold); err != nil {
		return model.MatchResult{}, err
	}
	pol := o.cfg.Policy.WithAutoApprove(threshold)

	candidates := match.Generate(
		[]model.TransactionRecord{reward},
		[]model.TransactionRecord{pos},
	)
	if len(candidates.Exact) == 1 {
		return candidates.Exact[0], nil
	}

	result := o.scorePair(ctx, candidates.Pairs[0], pol)
	if result.Err != "" {
		return result, fmt.Errorf("failed to score pair: %s", result.Err)
	}
	return result, nil
}

// Start validates inputs, registers the job, and launches its
// coordinating goroutine. The returned estimate comes from observed
// throughput in the performance counters.
func (o *Orchestrator) Start(ctx context.Context, rewards, pos []model.TransactionRecord, threshold float64, jobID string) (StartInfo, error) {
	if err := validateThreshold(threshold); err != nil {
		return StartInfo{}, err
	}
	if jobID == "" {
		jobID = uuid.NewString()
	}

	totalPairs := len(rewards) * len(pos)
	job := &model.ReconciliationJob{
		ID:         jobID,
		Status:     model.JobPending,
		CreatedAt:  time.Now().UTC(),
		TotalPairs: totalPairs,
		Errors:     []string{},
	}
	if err := o.jobs.Add(job); err != nil {
		return StartInfo{}, err
	}

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.cancelMu.Lock()
	o.cancels[jobID] = cancel
	o.cancelMu.Unlock()

	pol := o.cfg.Policy.WithAutoApprove(threshold)
	o.wg.Add(1)
	go o.runJob(jobCtx, jobID, rewards, pos, pol)

	return StartInfo{
		JobID:            jobID,
		TotalPairs:       totalPairs,
		EstimatedSeconds: o.Stats().EstimateSeconds(totalPairs),
	}, nil
}

// Status returns the job's current state without its result payload.
func (o *Orchestrator) Status(jobID string) (model.ReconciliationJob, error) {
	job, err := o.jobs.Get(jobID)
	if err != nil {
		return model.ReconciliationJob{}, err
	}
	job.Results = nil
	return job, nil
}

// Results returns the full job record including match results. Only
// terminal jobs have results; a cancelled job carries whatever was
// evaluated before the cancel took effect.
func (o *Orchestrator) Results(jobID string) (model.ReconciliationJob, error) {
	job, err := o.jobs.Get(jobID)
	if err != nil {
		return model.ReconciliationJob{}, err
	}
	if !job.Status.Terminal() {
		return model.ReconciliationJob{}, fmt.Errorf("%w: job %s is %s", common.ErrJobNotComplete, jobID, job.Status)
	}
	return job, nil
}

// Cancel requests cancellation of a processing job. It returns true
// only when the job was processing and the request was delivered;
// pending, finished, and unknown jobs return false. In-flight chunks
// finish; unsubmitted chunks are abandoned.
func (o *Orchestrator) Cancel(jobID string) bool {
	job, err := o.jobs.Get(jobID)
	if err != nil || job.Status != model.JobProcessing {
		return false
	}

	o.cancelMu.Lock()
	cancel, ok := o.cancels[jobID]
	o.cancelMu.Unlock()
	if !ok {
		return false
	}

	cancel()
	slog.Info("Cancellation requested", "job_id", jobID)
	return true
}

// History returns recent finished jobs retained in memory.
func (o *Orchestrator) History() []model.ReconciliationJob {
	return o.jobs.History()
}

// Wait blocks until every launched job goroutine has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

type chunkOutcome struct {
	results []model.MatchResult
	errs    []string
}

func (o *Orchestrator) runJob(ctx context.Context, jobID string, rewards, pos []model.TransactionRecord, pol decision.Policy) {
	started := time.Now()
	defer o.wg.Done()
	defer func() {
		o.cancelMu.Lock()
		if cancel, ok := o.cancels[jobID]; ok {
			cancel()
			delete(o.cancels, jobID)
		}
		o.cancelMu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Reconciliation job aborted", "job_id", jobID, "panic", r)
			o.failJob(context.WithoutCancel(ctx), jobID, fmt.Sprintf("job aborted: %v", r), started)
		}
	}()

	_ = o.jobs.Update(jobID, func(j *model.ReconciliationJob) {
		j.Status = model.JobProcessing
		j.StartedAt = started.UTC()
	})
	slog.Info("Starting reconciliation job",
		"job_id", jobID,
		"rewards", len(rewards),
		"pos", len(pos))

	candidates := match.Generate(rewards, pos)

	// The cross-product figure from Start was an estimate; exact matches
	// collapse whole rows and columns, so fix up the denominator before
	// anyone polls progress.
	_ = o.jobs.Update(jobID, func(j *model.ReconciliationJob) {
		j.TotalPairs = candidates.Total()
	})

	collected := make([]model.MatchResult, 0, candidates.Total())
	collected = append(collected, candidates.Exact...)
	_ = o.jobs.Update(jobID, func(j *model.ReconciliationJob) {
		j.ProcessedPairs += len(candidates.Exact)
		j.MatchesFound += len(candidates.Exact)
	})

	chunks := chunkPairs(candidates.Pairs, o.cfg.ChunkSize)
	outcomes := make(chan chunkOutcome, len(chunks))

	// Collector applies chunk outcomes as they complete so polled
	// progress tracks real work. It is part of this job's coordination:
	// nothing else touches collected until done closes.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for oc := range outcomes {
			collected = append(collected, oc.results...)
			_ = o.jobs.Update(jobID, func(j *model.ReconciliationJob) {
				j.ProcessedPairs += len(oc.results) + len(oc.errs)
				j.Errors = append(j.Errors, oc.errs...)
				for _, r := range oc.results {
					if r.Verdict == model.VerdictAutoApproved {
						j.MatchesFound++
					}
				}
			})
		}
	}()

	g := new(errgroup.Group)
	g.SetLimit(o.cfg.Workers)

	cancelled := false
	for _, chunk := range chunks {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		chunk := chunk
		g.Go(func() error {
			outcomes <- o.processChunk(ctx, chunk, pol)
			return nil
		})
	}
	_ = g.Wait()
	close(outcomes)
	<-done
	if ctx.Err() != nil {
		cancelled = true
	}

	// The job context may already be cancelled; persistence must still
	// run for cancelled jobs.
	o.finishJob(context.WithoutCancel(ctx), jobID, collected, rewards, pos, cancelled, started)
}

func (o *Orchestrator) finishJob(ctx context.Context, jobID string, collected []model.MatchResult, rewards, pos []model.TransactionRecord, cancelled bool, started time.Time) {
	var final []model.MatchResult
	status := model.JobCompleted
	if cancelled {
		// Partial run: resolve what was scored, but do not declare
		// unevaluated records unmatched.
		final = match.ResolveOneToOne(collected, len(rewards), len(pos))
		status = model.JobCancelled
	} else {
		final = match.Deduplicate(collected, rewards, pos)
	}

	summary := model.Summarize(final)
	elapsed := time.Since(started)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	var processed, matches int
	_ = o.jobs.Update(jobID, func(j *model.ReconciliationJob) {
		j.Status = status
		j.CompletedAt = time.Now().UTC()
		j.Results = final
		j.Summary = summary
		j.MatchesFound = summary.Matched
		j.Metrics = model.JobMetrics{
			Elapsed:         elapsed,
			PairsPerSecond:  rate(j.ProcessedPairs, elapsed),
			MatchRate:       ratio(summary.Matched, j.ProcessedPairs),
			PeakMemoryBytes: mem.HeapInuse,
		}
		processed = j.ProcessedPairs
		matches = summary.Matched
	})
	_ = o.jobs.Finish(jobID)

	o.recordJobStats(ctx, status, processed, matches, elapsed)
	o.persistJob(ctx, jobID)

	slog.Info("Reconciliation job finished",
		"job_id", jobID,
		"status", string(status),
		"processed_pairs", processed,
		"matches", matches,
		"elapsed", elapsed)
}

// failJob marks a job failed after its coordination aborted. Per-pair
// scoring errors never reach here; those are isolated in scorePair.
func (o *Orchestrator) failJob(ctx context.Context, jobID, msg string, started time.Time) {
	elapsed := time.Since(started)
	var processed int
	_ = o.jobs.Update(jobID, func(j *model.ReconciliationJob) {
		j.Status = model.JobFailed
		j.CompletedAt = time.Now().UTC()
		j.Errors = append(j.Errors, msg)
		j.Metrics.Elapsed = elapsed
		processed = j.ProcessedPairs
	})
	_ = o.jobs.Finish(jobID)

	o.recordJobStats(ctx, model.JobFailed, processed, 0, elapsed)
	o.persistJob(ctx, jobID)
}

// processChunk evaluates one chunk serially. Workers do not observe the
// job context: a chunk already handed to a worker always finishes.
func (o *Orchestrator) processChunk(ctx context.Context, pairs []model.CandidatePair, pol decision.Policy) chunkOutcome {
	ctx = context.WithoutCancel(ctx)

	var oc chunkOutcome
	for _, pair := range pairs {
		result := o.scorePair(ctx, pair, pol)
		if result.Err != "" {
			oc.errs = append(oc.errs, fmt.Sprintf(
				"pair reward[%d] pos[%d]: %s", pair.RewardIndex, pair.POSIndex, result.Err))
			continue
		}
		oc.results = append(oc.results, result)
	}
	return oc
}

// scorePair evaluates a single pair, converting panics and scorer
// errors into an error-carrying result so one bad record never takes
// down a job.
func (o *Orchestrator) scorePair(ctx context.Context, pair model.CandidatePair, pol decision.Policy) (result model.MatchResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic while scoring pair",
				"reward_index", pair.RewardIndex,
				"pos_index", pair.POSIndex,
				"panic", r)
			result = errorResult(pair, fmt.Sprintf("panic: %v", r))
		}
	}()

	start := time.Now()
	eval, err := o.scorer.Score(ctx, pair)
	if err != nil {
		return errorResult(pair, err.Error())
	}

	return model.MatchResult{
		Pair:           pair,
		Reward:         pair.Reward,
		POS:            pair.POS,
		Verdict:        pol.Verdict(eval.Confidence),
		Confidence:     eval.Confidence,
		Scores:         eval.Scores,
		Provenance:     eval.Provenance,
		ProcessingTime: time.Since(start),
	}
}

func (o *Orchestrator) recordJobStats(ctx context.Context, status model.JobStatus, processed, matches int, elapsed time.Duration) {
	o.statsMu.Lock()
	o.stats.TotalJobs++
	switch status {
	case model.JobCompleted:
		o.stats.SuccessfulJobs++
	case model.JobFailed:
		o.stats.FailedJobs++
	}
	o.stats.TotalPairsProcessed += int64(processed)
	o.stats.TotalMatchesFound += int64(matches)
	o.stats.TotalProcessingSecs += elapsed.Seconds()
	if o.stats.TotalJobs > 0 {
		o.stats.AvgProcessingSecs = o.stats.TotalProcessingSecs / float64(o.stats.TotalJobs)
	}
	snapshot := o.stats
	o.statsMu.Unlock()

	err := common.WithRetry(ctx, func() error {
		return o.storage.SavePerformanceStats(ctx, &snapshot)
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: 50 * time.Millisecond})
	if err != nil {
		slog.Warn("Failed to persist performance stats", "error", err)
	}
}

func (o *Orchestrator) persistJob(ctx context.Context, jobID string) {
	job, err := o.jobs.Get(jobID)
	if err != nil {
		slog.Warn("Finished job missing from store", "job_id", jobID, "error", err)
		return
	}

	err = common.WithRetry(ctx, func() error {
		return o.storage.SaveJobRecord(ctx, &job)
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: 50 * time.Millisecond})
	if err != nil {
		slog.Warn("Failed to persist job record", "job_id", jobID, "error", err)
	}
}

func chunkPairs(pairs []model.CandidatePair, size int) [][]model.CandidatePair {
	if len(pairs) == 0 {
		return nil
	}
	chunks := make([][]model.CandidatePair, 0, (len(pairs)+size-1)/size)
	for start := 0; start < len(pairs); start += size {
		end := start + size
		if end > len(pairs) {
			end = len(pairs)
		}
		chunks = append(chunks, pairs[start:end])
	}
	return chunks
}

func validateThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: threshold %v outside [0,1]", common.ErrInvalidConfig, threshold)
	}
	return nil
}

func errorResult(pair model.CandidatePair, msg string) model.MatchResult {
	return model.MatchResult{
		Pair:    pair,
		Reward:  pair.Reward,
		POS:     pair.POS,
		Verdict: model.VerdictError,
		Err:     msg,
	}
}

func rate(count int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(count) / elapsed.Seconds()
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
