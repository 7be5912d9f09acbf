package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/plumsage/ledgerlink/internal/model"
	"github.com/plumsage/ledgerlink/internal/score"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score a single rewards/POS pair",
		Long: `Evaluate one candidate pair and print the verdict, overall confidence,
and the per-field component scores that produced it.`,
		RunE: runPredict,
	}

	cmd.Flags().String("reward-name", "", "rewards-side customer name")
	cmd.Flags().String("reward-phone", "", "rewards-side phone")
	cmd.Flags().String("reward-email", "", "rewards-side email")
	cmd.Flags().String("reward-service", "", "rewards-side service")
	cmd.Flags().String("reward-amount", "", "rewards-side amount")
	cmd.Flags().String("reward-date", "", "rewards-side timestamp")
	cmd.Flags().String("pos-name", "", "POS-side customer name")
	cmd.Flags().String("pos-phone", "", "POS-side phone")
	cmd.Flags().String("pos-email", "", "POS-side email")
	cmd.Flags().String("pos-service", "", "POS-side service")
	cmd.Flags().String("pos-amount", "", "POS-side amount")
	cmd.Flags().String("pos-date", "", "POS-side timestamp")
	cmd.Flags().Float64("threshold", 0.95, "auto-approve confidence threshold")

	return cmd
}

func runPredict(cmd *cobra.Command, _ []string) error {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	reward := model.TransactionRecord{
		Source:       model.SourceRewards,
		CustomerName: get("reward-name"),
		Phone:        get("reward-phone"),
		Email:        get("reward-email"),
		Service:      get("reward-service"),
		Amount:       get("reward-amount"),
		Timestamp:    get("reward-date"),
	}
	pos := model.TransactionRecord{
		Source:       model.SourcePOS,
		CustomerName: get("pos-name"),
		Phone:        get("pos-phone"),
		Email:        get("pos-email"),
		Service:      get("pos-service"),
		Amount:       get("pos-amount"),
		Timestamp:    get("pos-date"),
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.orchestrator.PredictMatch(ctx, reward, pos, threshold)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Verdict", string(result.Verdict)},
		{"Confidence", fmt.Sprintf("%.4f (%s)", result.Confidence, score.BucketFor(result.Confidence))},
		{"Scored via", string(result.Provenance)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Name", fmt.Sprintf("%.3f", result.Scores.Name)},
		{"Phone", fmt.Sprintf("%.3f", result.Scores.Phone)},
		{"Email", fmt.Sprintf("%.3f", result.Scores.Email)},
		{"Amount", fmt.Sprintf("%.3f", result.Scores.Amount)},
		{"Timing", fmt.Sprintf("%.3f", result.Scores.Timing)},
		{"Service", fmt.Sprintf("%.3f", result.Scores.Service)},
	})
	t.Render()

	return nil
}
