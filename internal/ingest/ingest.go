// Package ingest loads transaction records from CSV and JSON files.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/plumsage/ledgerlink/internal/model"
)

// Header aliases accepted for each record field, checked in order.
var columnAliases = map[string][]string{
	"id":            {"id", "transaction_id", "txn_id"},
	"customer_name": {"customer_name", "customer", "name", "client_name"},
	"phone":         {"phone", "phone_number", "customer_phone"},
	"email":         {"email", "email_address", "customer_email"},
	"service":       {"service", "service_name", "treatment", "description"},
	"amount":        {"amount", "total", "price", "transaction_amount"},
	"timestamp":     {"timestamp", "date", "transaction_date", "created_at"},
	"provider":      {"provider", "staff", "practitioner"},
	"location":      {"location", "store", "branch"},
}

// LoadFile reads records from a file, choosing the parser by extension.
// Records are tagged with the given source.
func LoadFile(path string, source model.RecordSource) ([]model.TransactionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f, source)
	case ".json":
		return ReadJSON(f, source)
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .csv or .json)", filepath.Ext(path))
	}
}

// ReadCSV parses a headered CSV stream. Column names are matched
// case-insensitively against known aliases; unknown columns are ignored.
func ReadCSV(r io.Reader, source model.RecordSource) ([]model.TransactionRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := mapColumns(header)
	if _, ok := index["customer_name"]; !ok {
		return nil, fmt.Errorf("csv header missing a customer name column (got %v)", header)
	}

	var records []model.TransactionRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		get := func(field string) string {
			col, ok := index[field]
			if !ok || col >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[col])
		}

		rec := model.TransactionRecord{
			ID:           get("id"),
			Source:       source,
			CustomerName: get("customer_name"),
			Phone:        get("phone"),
			Email:        get("email"),
			Service:      get("service"),
			Amount:       get("amount"),
			Timestamp:    get("timestamp"),
			Provider:     get("provider"),
			Location:     get("location"),
		}
		if rec.ID == "" {
			rec.ID = rec.GenerateHash()[:16]
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadJSON parses either a bare array of records or an object with a
// "transactions" array.
func ReadJSON(r io.Reader, source model.RecordSource) ([]model.TransactionRecord, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read json input: %w", err)
	}

	var records []model.TransactionRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		var wrapper struct {
			Transactions []model.TransactionRecord `json:"transactions"`
		}
		if werr := json.Unmarshal(raw, &wrapper); werr != nil {
			return nil, fmt.Errorf("failed to parse json records: %w", err)
		}
		records = wrapper.Transactions
	}

	for i := range records {
		records[i].Source = source
		if records[i].ID == "" {
			records[i].ID = records[i].GenerateHash()[:16]
		}
	}
	return records, nil
}

func mapColumns(header []string) map[string]int {
	index := make(map[string]int)
	for col, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		for field, aliases := range columnAliases {
			if _, done := index[field]; done {
				continue
			}
			for _, alias := range aliases {
				if key == alias {
					index[field] = col
					break
				}
			}
		}
	}
	return index
}
