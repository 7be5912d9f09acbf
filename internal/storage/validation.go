package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/plumsage/ledgerlink/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrEmptySlice   = errors.New("slice cannot be empty")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateExample ensures a training example carries both records.
func validateExample(ex model.TrainingExample) error {
	if ex.Reward.CustomerName == "" && ex.Reward.Amount == "" && ex.Reward.ID == "" {
		return fmt.Errorf("%w: reward record", ErrNilParameter)
	}
	if ex.POS.CustomerName == "" && ex.POS.Amount == "" && ex.POS.ID == "" {
		return fmt.Errorf("%w: pos record", ErrNilParameter)
	}
	return nil
}
