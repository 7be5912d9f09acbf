package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/plumsage/ledgerlink/internal/common"
	"github.com/plumsage/ledgerlink/internal/engine"
	"github.com/plumsage/ledgerlink/internal/ingest"
	"github.com/plumsage/ledgerlink/internal/model"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile --rewards FILE --pos FILE",
		Short: "Reconcile a rewards export against POS records",
		Long: `Run a full reconciliation job: every rewards transaction is compared
against every POS transaction, confident matches are auto-approved, and
ambiguous pairs are flagged for review.

Input files may be CSV (headered) or JSON.`,
		RunE: runReconcile,
	}

	cmd.Flags().String("rewards", "", "rewards transactions file (csv or json)")
	cmd.Flags().String("pos", "", "POS transactions file (csv or json)")
	cmd.Flags().Float64("threshold", 0.95, "auto-approve confidence threshold")
	cmd.Flags().String("export", "", "write full results to this file (format by extension)")
	cmd.Flags().Bool("show-unmatched", false, "include unmatched records in the result table")
	_ = cmd.MarkFlagRequired("rewards")
	_ = cmd.MarkFlagRequired("pos")

	return cmd
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	rewardsPath, _ := cmd.Flags().GetString("rewards")
	posPath, _ := cmd.Flags().GetString("pos")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	exportPath, _ := cmd.Flags().GetString("export")
	showUnmatched, _ := cmd.Flags().GetBool("show-unmatched")

	ctx := cmd.Context()

	rewards, err := ingest.LoadFile(rewardsPath, model.SourceRewards)
	if err != nil {
		return err
	}
	pos, err := ingest.LoadFile(posPath, model.SourcePOS)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d rewards and %d POS transactions\n", len(rewards), len(pos))

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	info, err := a.orchestrator.Start(ctx, rewards, pos, threshold, "")
	if err != nil {
		return err
	}
	fmt.Printf("Job %s started: %d pairs, estimated %.1fs\n",
		info.JobID, info.TotalPairs, info.EstimatedSeconds)

	job, err := watchJob(ctx, a.orchestrator, info.JobID)
	if err != nil {
		return err
	}

	printJobSummary(job)
	printResultTable(job.Results, showUnmatched)

	if exportPath != "" {
		if err := writeExport(a.orchestrator, job.ID, exportPath); err != nil {
			return err
		}
		fmt.Printf("Results written to %s\n", exportPath)
	}
	return nil
}

// watchJob polls job status until it reaches a terminal state, rendering
// progress and forwarding Ctrl-C as a cancellation request.
func watchJob(ctx context.Context, orch *engine.Orchestrator, jobID string) (model.ReconciliationJob, error) {
	status, err := orch.Status(jobID)
	if err != nil {
		return model.ReconciliationJob{}, err
	}

	bar := progressbar.NewOptions(status.TotalPairs,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Scoring candidate pairs..."),
	)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	interrupted := ctx.Done()
	for {
		select {
		case <-interrupted:
			// Only one cancellation request; keep polling until terminal.
			interrupted = nil
			orch.Cancel(jobID)
			fmt.Fprintln(os.Stderr, "\nCancelling job, in-flight work will finish...")
		case <-ticker.C:
		}

		status, err = orch.Status(jobID)
		if err != nil {
			return model.ReconciliationJob{}, err
		}
		bar.ChangeMax(status.TotalPairs)
		_ = bar.Set(status.ProcessedPairs)

		if status.Status.Terminal() {
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
			return orch.Results(jobID)
		}
	}
}

func printJobSummary(job model.ReconciliationJob) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Job %s (%s)", job.ID, job.Status))
	t.AppendRows([]table.Row{
		{"Matched", job.Summary.Matched},
		{"Needs review", job.Summary.NeedsReview},
		{"No match", job.Summary.NoMatch},
		{"Unmatched records", job.Summary.Unmatched},
		{"Errors", len(job.Errors)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Pairs processed", job.ProcessedPairs},
		{"Elapsed", formatDuration(job.Metrics.Elapsed)},
		{"Pairs/second", fmt.Sprintf("%.0f", job.Metrics.PairsPerSecond)},
		{"Match rate", fmt.Sprintf("%.1f%%", job.Metrics.MatchRate*100)},
	})
	t.Render()
}

func printResultTable(results []model.MatchResult, showUnmatched bool) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Result", "Confidence", "Via", "Rewards", "POS", "Amount"})

	shown := 0
	for _, r := range results {
		if r.Verdict == model.VerdictRejected {
			continue
		}
		if r.Verdict == model.VerdictUnmatched && !showUnmatched {
			continue
		}
		t.AppendRow(table.Row{
			string(r.Verdict),
			fmt.Sprintf("%.3f", r.Confidence),
			string(r.Provenance),
			resultSide(r.Reward),
			resultSide(r.POS),
			firstNonEmpty(r.Reward.Amount, r.POS.Amount),
		})
		shown++
	}
	if shown > 0 {
		t.Render()
	}
}

func resultSide(rec model.TransactionRecord) string {
	if rec.CustomerName == "" && rec.ID == "" {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", rec.CustomerName, rec.ID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func writeExport(orch *engine.Orchestrator, jobID, path string) error {
	format := engine.FormatJSON
	if len(path) > 4 && path[len(path)-4:] == ".csv" {
		format = engine.FormatCSV
	}

	out, err := orch.Export(jobID, format)
	if err != nil {
		if errors.Is(err, common.ErrJobNotComplete) {
			return fmt.Errorf("job did not complete, nothing to export: %w", err)
		}
		return err
	}
	return os.WriteFile(path, out, 0600)
}
