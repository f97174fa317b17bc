package main

import (
	"fmt"

	"github.com/finemail/finemail/internal/cli"
	"github.com/finemail/finemail/internal/model"
	"github.com/finemail/finemail/internal/service"
	"github.com/spf13/cobra"
)

func documentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "List stored documents",
		Long: `List ingested documents and their lifecycle state.

Examples:
  finemail documents                  # List recent documents
  finemail documents --status pending # Only documents awaiting extraction
  finemail documents --limit 100`,
		RunE: runDocuments,
	}

	// Flags
	cmd.Flags().StringP("status", "s", "", "Filter by status (pending, parsed, ignored, failed)")
	cmd.Flags().IntP("limit", "n", 50, "Maximum number of documents to list")
	cmd.Flags().Int("offset", 0, "Number of documents to skip")

	cmd.AddCommand(documentsResetCmd())

	return cmd
}

func documentsResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Move failed documents back to pending",
		Long: `Move failed documents back to the pending state so the next
'finemail parse --all' retries them. Parsed and ignored documents are left
alone.`,
		RunE: runDocumentsReset,
	}
}

func runDocumentsReset(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	failed := model.DocStatusFailed
	docs, err := store.GetDocuments(ctx, currentUser(), service.DocumentFilter{Status: &failed})
	if err != nil {
		return fmt.Errorf("failed to list failed documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No failed documents to reset."))
		return nil
	}

	reset := 0
	for _, doc := range docs {
		if err := store.UpdateDocumentStatus(ctx, doc.ID, model.DocStatusFailed, model.DocStatusPending); err != nil {
			return fmt.Errorf("failed to reset document %s: %w", doc.ID, err)
		}
		reset++
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Reset %d document(s) to pending", reset)))
	fmt.Println(cli.SubtleStyle.Render("Run 'finemail parse --all' to retry them."))
	return nil
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	statusFlag, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	filter := service.DocumentFilter{Limit: limit, Offset: offset}
	if statusFlag != "" {
		status := model.DocumentStatus(statusFlag)
		if !status.Valid() {
			return fmt.Errorf("invalid status %q (expected pending, parsed, ignored or failed)", statusFlag)
		}
		filter.Status = &status
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	docs, err := store.GetDocuments(ctx, currentUser(), filter)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No documents found."))
		return nil
	}

	fmt.Println(cli.FormatTitle("Documents"))
	header := fmt.Sprintf("%-36s  %-8s  %-16s  %-28s  %s",
		"ID", "STATUS", "RECEIVED", "SENDER", "SUBJECT")
	fmt.Println(cli.TableHeaderStyle.Render(header))

	for _, doc := range docs {
		line := fmt.Sprintf("%-36s  %-8s  %-16s  %-28s  %s",
			doc.ID,
			doc.Status,
			formatTime(doc.ReceivedAt),
			truncate(doc.Sender, 28),
			truncate(doc.Subject, 50))
		fmt.Println(cli.TableCellStyle.Render(line))
	}

	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%d document(s)", len(docs))))
	return nil
}
