package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/plumsage/ledgerlink/internal/model"
)

// AppendCorrection queues a human correction for the next retrain.
func (s *SQLiteStorage) AppendCorrection(ctx context.Context, example model.TrainingExample) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExample(example); err != nil {
		return err
	}

	rewardJSON, posJSON, err := encodePair(example)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO corrections (reward_record, pos_record, is_match, created_at)
		VALUES (?, ?, ?, ?)`,
		rewardJSON, posJSON, example.IsMatch, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append correction: %w", err)
	}
	return nil
}

// GetPendingCorrections returns queued corrections in append order.
func (s *SQLiteStorage) GetPendingCorrections(ctx context.Context) ([]model.Correction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reward_record, pos_record, is_match, created_at
		FROM corrections ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var corrections []model.Correction
	for rows.Next() {
		var (
			c          model.Correction
			rewardJSON string
			posJSON    string
		)
		if err := rows.Scan(&c.ID, &rewardJSON, &posJSON, &c.IsMatch, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		if err := json.Unmarshal([]byte(rewardJSON), &c.Reward); err != nil {
			return nil, fmt.Errorf("failed to decode correction reward record: %w", err)
		}
		if err := json.Unmarshal([]byte(posJSON), &c.POS); err != nil {
			return nil, fmt.Errorf("failed to decode correction pos record: %w", err)
		}
		corrections = append(corrections, c)
	}
	return corrections, rows.Err()
}

// ClearCorrections deletes corrections with id <= upToID. Called only
// after a successful retrain and artifact save, so a crash mid-retrain
// leaves the queue intact for retry.
func (s *SQLiteStorage) ClearCorrections(ctx context.Context, upToID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM corrections WHERE id <= ?`, upToID)
	if err != nil {
		return fmt.Errorf("failed to clear corrections: %w", err)
	}
	return nil
}

// AppendTrainingExamples adds labeled pairs to the persistent corpus.
func (s *SQLiteStorage) AppendTrainingExamples(ctx context.Context, examples []model.TrainingExample) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(examples) == 0 {
		return fmt.Errorf("%w: examples", ErrEmptySlice)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO training_examples (reward_record, pos_record, is_match, created_at)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, ex := range examples {
		if err := validateExample(ex); err != nil {
			return err
		}
		rewardJSON, posJSON, err := encodePair(ex)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, rewardJSON, posJSON, ex.IsMatch, now); err != nil {
			return fmt.Errorf("failed to insert training example: %w", err)
		}
	}

	return tx.Commit()
}

// GetTrainingExamples returns the full training corpus in insert order.
func (s *SQLiteStorage) GetTrainingExamples(ctx context.Context) ([]model.TrainingExample, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT reward_record, pos_record, is_match FROM training_examples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query training examples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var examples []model.TrainingExample
	for rows.Next() {
		var (
			ex         model.TrainingExample
			rewardJSON string
			posJSON    string
		)
		if err := rows.Scan(&rewardJSON, &posJSON, &ex.IsMatch); err != nil {
			return nil, fmt.Errorf("failed to scan training example: %w", err)
		}
		if err := json.Unmarshal([]byte(rewardJSON), &ex.Reward); err != nil {
			return nil, fmt.Errorf("failed to decode training reward record: %w", err)
		}
		if err := json.Unmarshal([]byte(posJSON), &ex.POS); err != nil {
			return nil, fmt.Errorf("failed to decode training pos record: %w", err)
		}
		examples = append(examples, ex)
	}
	return examples, rows.Err()
}

func encodePair(ex model.TrainingExample) (rewardJSON, posJSON string, err error) {
	reward, err := json.Marshal(ex.Reward)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode reward record: %w", err)
	}
	pos, err := json.Marshal(ex.POS)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode pos record: %w", err)
	}
	return string(reward), string(pos), nil
}
