package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/plumsage/ledgerlink/internal/model"
)

// SaveJobRecord persists a finished job for durable history.
func (s *SQLiteStorage) SaveJobRecord(ctx context.Context, job *model.ReconciliationJob) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("%w: job", ErrNilParameter)
	}
	if err := validateString(job.ID, "job.ID"); err != nil {
		return err
	}

	record, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO job_history (id, status, created_at, total_pairs, matches_found, record)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			total_pairs = excluded.total_pairs,
			matches_found = excluded.matches_found,
			record = excluded.record`,
		job.ID, string(job.Status), job.CreatedAt.UTC(), job.TotalPairs, job.MatchesFound, string(record))
	if err != nil {
		return fmt.Errorf("failed to save job record: %w", err)
	}
	return nil
}

// GetRecentJobs returns up to limit finished jobs, newest first.
func (s *SQLiteStorage) GetRecentJobs(ctx context.Context, limit int) ([]model.ReconciliationJob, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT record FROM job_history ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query job history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []model.ReconciliationJob
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan job record: %w", err)
		}
		var job model.ReconciliationJob
		if err := json.Unmarshal([]byte(record), &job); err != nil {
			return nil, fmt.Errorf("failed to decode job record: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
