// Package model defines the core domain types for ledger reconciliation.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// RecordSource identifies which ledger a transaction record came from.
type RecordSource string

// Known record sources.
const (
	SourceRewards RecordSource = "rewards"
	SourcePOS     RecordSource = "pos"
)

// TransactionRecord is an immutable snapshot of one ledger entry. Fields
// hold the raw values as recorded by the source system; the normalize
// package derives comparable projections without mutating the record.
type TransactionRecord struct {
	ID           string       `json:"id"`
	Source       RecordSource `json:"source,omitempty"`
	CustomerName string       `json:"customer_name"`
	Phone        string       `json:"phone,omitempty"`
	Email        string       `json:"email,omitempty"`
	Service      string       `json:"service,omitempty"`
	Amount       string       `json:"amount"`
	Timestamp    string       `json:"timestamp"`
	Provider     string       `json:"provider,omitempty"`
	Location     string       `json:"location,omitempty"`
}

// GenerateHash creates a stable hash for duplicate detection across imports.
func (r *TransactionRecord) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s",
		r.Source, r.CustomerName, r.Amount, r.Timestamp, r.Provider)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// NormalizedFields is the per-record cache of canonical field projections.
// Computed once per record per job and discarded with the job.
type NormalizedFields struct {
	Name           string
	NameTokens     []string
	PhoneDigits    string
	Email          string
	EmailDomain    string
	Service        string
	Amount         float64
	AmountValid    bool
	Timestamp      time.Time
	TimestampValid bool
}
