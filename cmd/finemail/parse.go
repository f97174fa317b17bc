package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/finemail/finemail/internal/cli"
	"github.com/finemail/finemail/internal/engine"
	"github.com/finemail/finemail/internal/model"
	"github.com/finemail/finemail/internal/service"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [document-id]",
		Short: "Extract transactions from stored documents",
		Long: `Run transaction extraction on stored documents.

Each document is handed to both the model extractor and the rule-based
extractor; the more confident result wins. Successful extractions create
transactions, non-transaction mail is marked ignored, and every run is
recorded in the audit trail.

Examples:
  finemail parse 4f7c…            # Parse one document by ID
  finemail parse --all            # Parse every pending document
  finemail parse 4f7c… --force    # Re-run extraction on a parsed document`,
		Args: cobra.MaximumNArgs(1),
		RunE: runParse,
	}

	// Flags
	cmd.Flags().Bool("all", false, "Parse all pending documents")
	cmd.Flags().Bool("force", false, "Re-run extraction even for already-parsed documents")
	cmd.Flags().Int("limit", 0, "Maximum number of documents to parse with --all (0 = no limit)")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	all, _ := cmd.Flags().GetBool("all")
	force, _ := cmd.Flags().GetBool("force")
	limit, _ := cmd.Flags().GetInt("limit")

	if all == (len(args) == 1) {
		return fmt.Errorf("provide either a document ID or --all")
	}

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

	if all {
		return runParseBatch(cmd, eng, store, limit)
	}
	return runParseSingle(cmd, eng, store, args[0], force)
}

func runParseSingle(cmd *cobra.Command, eng *engine.Engine, store service.Storage, docID string, force bool) error {
	ctx := cmd.Context()

	doc, err := store.GetDocumentByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", docID, err)
	}

	result, err := eng.Parse(ctx, doc, engine.ParseOptions{Force: force})
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	printParseResult(doc, result)
	return nil
}

func runParseBatch(cmd *cobra.Command, eng *engine.Engine, store service.Storage, limit int) error {
	ctx := cmd.Context()

	pending := model.DocStatusPending
	docs, err := store.GetDocuments(ctx, currentUser(), service.DocumentFilter{
		Status: &pending,
		Limit:  limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list pending documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No pending documents. Run 'finemail ingest' first."))
		return nil
	}

	bar := progressbar.NewOptions(len(docs),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Parsing documents...[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)

	stats, err := eng.ParseBatch(ctx, docs, engine.BatchOptions{
		OnResult: func(_ model.Document, _ *engine.ParseResult, _ error) {
			if barErr := bar.Add(1); barErr != nil {
				slog.Debug("Failed to update progress bar", "error", barErr)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("batch parse failed: %w", err)
	}

	fmt.Println(cli.FormatTitle("Batch Parse Complete"))
	fmt.Printf("  Documents:    %d\n", stats.Total)
	fmt.Printf("  %s %d parsed, %d ignored, %d failed, %d skipped\n",
		cli.SuccessIcon, stats.Succeeded, stats.Ignored, stats.Failed, stats.Skipped)
	fmt.Printf("  Transactions: %d created\n", stats.TransactionsCreated)

	return nil
}

func printParseResult(doc *model.Document, result *engine.ParseResult) {
	fmt.Println(cli.FormatTitle("Parse Result"))
	fmt.Printf("  Document: %s\n", doc.ID)
	fmt.Printf("  Subject:  %s\n", truncate(doc.Subject, 60))
	fmt.Printf("  Status:   %s (attempt: %s)\n", result.DocumentStatus, result.AttemptStatus)

	if result.Reused {
		fmt.Println(cli.SubtleStyle.Render("  Already parsed; returning the existing transaction."))
	}

	switch {
	case result.Transaction != nil:
		txn := result.Transaction
		fmt.Println(cli.FormatSuccess("Transaction extracted"))
		fmt.Printf("  %s %s %s at %s (%s)\n",
			txn.Type, txn.Amount, txn.Currency, txn.Merchant, formatTime(txn.TransactionDate))
		fmt.Printf("  Source: %s", result.Candidate.Source)
		if result.Candidate.Provider != "" {
			fmt.Printf(" (%s/%s)", result.Candidate.Provider, result.Candidate.Model)
		}
		fmt.Printf(", confidence %.2f\n", result.Candidate.ConfidenceScore)
	case result.ErrorMessage != "":
		fmt.Println(cli.FormatError("Extraction failed: " + result.ErrorMessage))
	default:
		fmt.Println(cli.SubtleStyle.Render("  Not a financial transaction; document ignored."))
	}
}
