package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumsage/ledgerlink/internal/model"
)

func TestReadCSV(t *testing.T) {
	input := `id,customer_name,phone,email,service,amount,date
t1,Sarah Johnson,(555) 123-4567,sarah@example.com,Botox 50u,$450.00,2025-03-15T14:30:00Z
t2,"Chen, Michael",212-555-0123,,HydraFacial,200.00,2025-03-16 10:00:00
`
	records, err := ReadCSV(strings.NewReader(input), model.SourceRewards)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "t1", records[0].ID)
	assert.Equal(t, model.SourceRewards, records[0].Source)
	assert.Equal(t, "Sarah Johnson", records[0].CustomerName)
	assert.Equal(t, "(555) 123-4567", records[0].Phone)
	assert.Equal(t, "$450.00", records[0].Amount)
	assert.Equal(t, "2025-03-15T14:30:00Z", records[0].Timestamp)

	assert.Equal(t, "Chen, Michael", records[1].CustomerName)
	assert.Empty(t, records[1].Email)
}

func TestReadCSVAliasedColumns(t *testing.T) {
	input := `transaction_id,client_name,total,transaction_date
x9,Amanda Lee,125.00,2025-03-17
`
	records, err := ReadCSV(strings.NewReader(input), model.SourcePOS)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "x9", records[0].ID)
	assert.Equal(t, "Amanda Lee", records[0].CustomerName)
	assert.Equal(t, "125.00", records[0].Amount)
	assert.Equal(t, "2025-03-17", records[0].Timestamp)
}

func TestReadCSVMissingNameColumn(t *testing.T) {
	input := `foo,bar
1,2
`
	_, err := ReadCSV(strings.NewReader(input), model.SourceRewards)
	assert.Error(t, err)
}

func TestReadCSVGeneratesMissingIDs(t *testing.T) {
	input := `customer_name,amount,date
Sarah Johnson,450.00,2025-03-15
`
	records, err := ReadCSV(strings.NewReader(input), model.SourceRewards)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
}

func TestReadCSVEmpty(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(""), model.SourceRewards)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadJSONArray(t *testing.T) {
	input := `[
		{"id": "t1", "customer_name": "Sarah Johnson", "amount": "450.00", "timestamp": "2025-03-15T14:30:00Z"},
		{"customer_name": "Michael Chen", "amount": "200.00", "timestamp": "2025-03-16T10:00:00Z"}
	]`
	records, err := ReadJSON(strings.NewReader(input), model.SourcePOS)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.SourcePOS, records[0].Source)
	assert.Equal(t, "t1", records[0].ID)
	assert.NotEmpty(t, records[1].ID, "missing IDs are generated")
}

func TestReadJSONWrapped(t *testing.T) {
	input := `{"transactions": [{"id": "t1", "customer_name": "Sarah Johnson", "amount": "450.00", "timestamp": "2025-03-15"}]}`
	records, err := ReadJSON(strings.NewReader(input), model.SourceRewards)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Sarah Johnson", records[0].CustomerName)
}

func TestReadJSONInvalid(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("not json"), model.SourceRewards)
	assert.Error(t, err)
}

func TestLoadFileByExtension(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "rewards.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("customer_name,amount,date\nSarah Johnson,450.00,2025-03-15\n"), 0600))

	records, err := LoadFile(csvPath, model.SourceRewards)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	jsonPath := filepath.Join(dir, "pos.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"customer_name": "Michael Chen", "amount": "200.00", "timestamp": "2025-03-16"}]`), 0600))

	records, err = LoadFile(jsonPath, model.SourcePOS)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = LoadFile(filepath.Join(dir, "nope.txt"), model.SourceRewards)
	assert.Error(t, err)
}
