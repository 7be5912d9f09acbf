package engine

import (
	"fmt"
	"sync"

	"github.com/plumsage/ledgerlink/internal/common"
	"github.com/plumsage/ledgerlink/internal/model"
)

// JobStore owns every in-memory job record. Active jobs are mutated only
// through Update, called by the coordinating goroutine of the job; all
// readers receive deep copies so callers can never observe a job
// mid-mutation.
type JobStore struct {
	mu           sync.RWMutex
	active       map[string]*model.ReconciliationJob
	history      []*model.ReconciliationJob
	historyLimit int
}

// NewJobStore creates a store keeping at most historyLimit finished jobs
// in memory. Older jobs remain queryable only through durable storage.
func NewJobStore(historyLimit int) *JobStore {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &JobStore{
		active:       make(map[string]*model.ReconciliationJob),
		historyLimit: historyLimit,
	}
}

// Add registers a new active job. The ID must be unused.
func (s *JobStore) Add(job *model.ReconciliationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.active[job.ID]; ok {
		return fmt.Errorf("%w: job %s", common.ErrDuplicateEntry, job.ID)
	}
	for _, h := range s.history {
		if h.ID == job.ID {
			return fmt.Errorf("%w: job %s", common.ErrDuplicateEntry, job.ID)
		}
	}
	s.active[job.ID] = job
	return nil
}

// Update applies fn to an active job under the write lock.
func (s *JobStore) Update(id string, fn func(*model.ReconciliationJob)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.active[id]
	if !ok {
		return fmt.Errorf("%w: job %s", common.ErrJobNotFound, id)
	}
	fn(job)
	return nil
}

// Get returns a copy of the job with the given ID, searching active jobs
// first and then the retained history.
func (s *JobStore) Get(id string) (model.ReconciliationJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if job, ok := s.active[id]; ok {
		return copyJob(job), nil
	}
	for _, job := range s.history {
		if job.ID == id {
			return copyJob(job), nil
		}
	}
	return model.ReconciliationJob{}, fmt.Errorf("%w: job %s", common.ErrJobNotFound, id)
}

// Finish moves a job from the active set into history, evicting the
// oldest entry when the retention limit is exceeded.
func (s *JobStore) Finish(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.active[id]
	if !ok {
		return fmt.Errorf("%w: job %s", common.ErrJobNotFound, id)
	}
	delete(s.active, id)

	s.history = append(s.history, job)
	if len(s.history) > s.historyLimit {
		s.history = s.history[len(s.history)-s.historyLimit:]
	}
	return nil
}

// Active returns copies of all in-flight jobs.
func (s *JobStore) Active() []model.ReconciliationJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ReconciliationJob, 0, len(s.active))
	for _, job := range s.active {
		out = append(out, copyJob(job))
	}
	return out
}

// History returns copies of retained finished jobs, newest last.
func (s *JobStore) History() []model.ReconciliationJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ReconciliationJob, 0, len(s.history))
	for _, job := range s.history {
		out = append(out, copyJob(job))
	}
	return out
}

func copyJob(job *model.ReconciliationJob) model.ReconciliationJob {
	out := *job
	if job.Errors != nil {
		out.Errors = append([]string(nil), job.Errors...)
	}
	if job.Results != nil {
		out.Results = append([]model.MatchResult(nil), job.Results...)
	}
	return out
}
