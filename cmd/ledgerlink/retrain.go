package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plumsage/ledgerlink/internal/model"
	"github.com/plumsage/ledgerlink/internal/retrain"
)

func retrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retrain",
		Short: "Fold queued corrections into the corpus and refit the model",
		Long: `Drain the human-correction queue into the persistent training corpus
and fit a fresh confidence model on the full corpus. The previous model
stays live until the new one is trained and saved.`,
		RunE: runRetrain,
	}
}

func runRetrain(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := retrain.New(a.store, a.model).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Retrained on %d samples (%d new corrections), fitted accuracy %.1f%%\n",
		result.SampleCount, result.CorrectionsApplied, result.Accuracy*100)
	return nil
}

func correctCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Queue a human-labeled pair for the next retrain",
		RunE:  runCorrect,
	}

	cmd.Flags().String("reward-name", "", "rewards-side customer name")
	cmd.Flags().String("reward-phone", "", "rewards-side phone")
	cmd.Flags().String("reward-amount", "", "rewards-side amount")
	cmd.Flags().String("reward-date", "", "rewards-side timestamp")
	cmd.Flags().String("pos-name", "", "POS-side customer name")
	cmd.Flags().String("pos-phone", "", "POS-side phone")
	cmd.Flags().String("pos-amount", "", "POS-side amount")
	cmd.Flags().String("pos-date", "", "POS-side timestamp")
	cmd.Flags().Bool("match", false, "true when the pair is a real match")

	return cmd
}

func runCorrect(cmd *cobra.Command, _ []string) error {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	isMatch, _ := cmd.Flags().GetBool("match")

	example := model.TrainingExample{
		Reward: model.TransactionRecord{
			Source:       model.SourceRewards,
			CustomerName: get("reward-name"),
			Phone:        get("reward-phone"),
			Amount:       get("reward-amount"),
			Timestamp:    get("reward-date"),
		},
		POS: model.TransactionRecord{
			Source:       model.SourcePOS,
			CustomerName: get("pos-name"),
			Phone:        get("pos-phone"),
			Amount:       get("pos-amount"),
			Timestamp:    get("pos-date"),
		},
		IsMatch: isMatch,
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := retrain.New(a.store, a.model).QueueCorrection(ctx, example); err != nil {
		return err
	}
	fmt.Println("Correction queued; run `ledgerlink retrain` to apply it.")
	return nil
}
