package main

import (
	"fmt"
	"log/slog"

	"github.com/finemail/finemail/internal/cli"
	"github.com/finemail/finemail/internal/model"
	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show parsing statistics",
		Long: `Show document, transaction and parsing-attempt counts for the
current user.`,
		RunE: runStats,
	}
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	eng, modelExtractor, err := createEngine(store, slog.Default())
	if err != nil {
		return err
	}
	defer modelExtractor.Close()

	stats, err := eng.GetStatistics(ctx, currentUser())
	if err != nil {
		return fmt.Errorf("failed to gather statistics: %w", err)
	}

	fmt.Println(cli.TitleStyle.Render(cli.ChartIcon + " Parsing Statistics"))

	totalDocs := 0
	for _, n := range stats.DocumentStatusCounts {
		totalDocs += n
	}
	fmt.Printf("Documents: %d\n", totalDocs)
	for _, status := range []model.DocumentStatus{
		model.DocStatusPending,
		model.DocStatusParsed,
		model.DocStatusIgnored,
		model.DocStatusFailed,
	} {
		fmt.Printf("  %-8s %d\n", status, stats.DocumentStatusCounts[status])
	}

	fmt.Printf("Transactions: %d\n", stats.TransactionCount)

	totalAttempts := 0
	for _, n := range stats.AttemptStatusCounts {
		totalAttempts += n
	}
	fmt.Printf("Parsing attempts: %d\n", totalAttempts)
	for _, status := range []model.AttemptStatus{
		model.AttemptSuccess,
		model.AttemptPartial,
		model.AttemptFailed,
	} {
		fmt.Printf("  %-8s %d\n", status, stats.AttemptStatusCounts[status])
	}

	if totalAttempts > 0 {
		rate := float64(stats.AttemptStatusCounts[model.AttemptSuccess]) / float64(totalAttempts) * 100
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("Success rate: %.1f%%", rate)))
	}

	return nil
}
