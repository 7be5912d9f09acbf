package common

import (
	"errors"
	"testing"
)

func TestUserError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewUserError("failed to open database", cause)

	if got := err.Error(); got != "failed to open database: disk full" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}

	bare := NewUserError("something went wrong", nil)
	if got := bare.Error(); got != "something went wrong" {
		t.Errorf("Error() without cause = %q", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain error retries by default", errors.New("transient"), true},
		{"explicitly retryable", &RetryableError{Err: errors.New("busy"), Retryable: true}, true},
		{"explicitly non-retryable", &RetryableError{Err: errors.New("bad input"), Retryable: false}, false},
		{"wrapped non-retryable", NewUserError("save failed", &RetryableError{Err: errors.New("bad input")}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}
