package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show lifetime reconciliation statistics and recent jobs",
		RunE:  runStats,
	}

	cmd.Flags().Int("jobs", 10, "number of recent jobs to show")

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("jobs")

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	stats := a.orchestrator.Stats()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Lifetime statistics")
	t.AppendRows([]table.Row{
		{"Total jobs", stats.TotalJobs},
		{"Successful", stats.SuccessfulJobs},
		{"Failed", stats.FailedJobs},
		{"Pairs processed", stats.TotalPairsProcessed},
		{"Matches found", stats.TotalMatchesFound},
		{"Total processing time", fmt.Sprintf("%.1fs", stats.TotalProcessingSecs)},
		{"Avg job time", fmt.Sprintf("%.2fs", stats.AvgProcessingSecs)},
	})
	t.Render()

	jobs, err := a.store.GetRecentJobs(ctx, limit)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	jt := table.NewWriter()
	jt.SetOutputMirror(os.Stdout)
	jt.SetStyle(table.StyleLight)
	jt.SetTitle("Recent jobs")
	jt.AppendHeader(table.Row{"Job", "Status", "Created", "Pairs", "Matches"})
	for _, job := range jobs {
		jt.AppendRow(table.Row{
			job.ID,
			string(job.Status),
			job.CreatedAt.Format("2006-01-02 15:04"),
			job.TotalPairs,
			job.MatchesFound,
		})
	}
	jt.Render()

	return nil
}
