package engine

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/plumsage/ledgerlink/internal/common"
	"github.com/plumsage/ledgerlink/internal/model"
	"github.com/plumsage/ledgerlink/internal/score"
)

// Export formats. JSON carries the full job record; CSV flattens one
// result per row for spreadsheet review.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

var csvHeader = []string{
	"result",
	"confidence",
	"confidence_level",
	"provenance",
	"processing_time_ms",
	"reward_id",
	"reward_customer",
	"reward_amount",
	"reward_date",
	"pos_id",
	"pos_customer",
	"pos_amount",
	"pos_date",
}

// Export renders a completed job's results in the requested format.
// Cancelled and failed jobs are not exportable; fetch their partial
// results through Results instead.
func (o *Orchestrator) Export(jobID, format string) ([]byte, error) {
	job, err := o.jobs.Get(jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobCompleted {
		return nil, fmt.Errorf("%w: job %s is %s", common.ErrJobNotComplete, jobID, job.Status)
	}

	switch format {
	case FormatJSON:
		return exportJSON(job)
	case FormatCSV:
		return exportCSV(job)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", common.ErrInvalidConfig, format)
	}
}

func exportJSON(job model.ReconciliationJob) ([]byte, error) {
	out, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}
	return out, nil
}

func exportCSV(job model.ReconciliationJob) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range job.Results {
		row := []string{
			string(r.Verdict),
			strconv.FormatFloat(r.Confidence, 'f', 4, 64),
			string(score.BucketFor(r.Confidence)),
			string(r.Provenance),
			strconv.FormatFloat(float64(r.ProcessingTime)/float64(time.Millisecond), 'f', 3, 64),
			r.Reward.ID,
			r.Reward.CustomerName,
			r.Reward.Amount,
			r.Reward.Timestamp,
			r.POS.ID,
			r.POS.CustomerName,
			r.POS.Amount,
			r.POS.Timestamp,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
