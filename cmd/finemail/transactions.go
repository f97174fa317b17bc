package main

import (
	"fmt"
	"time"

	"github.com/finemail/finemail/internal/cli"
	"github.com/spf13/cobra"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txns"},
		Short:   "List extracted transactions",
		Long: `List transactions extracted from your mail.

Examples:
  finemail transactions                       # All transactions
  finemail transactions --from 2026-01-01     # Since a date
  finemail transactions --from 2026-01-01 --to 2026-01-31`,
		RunE: runTransactions,
	}

	// Flags
	cmd.Flags().String("from", "", "Only transactions on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Only transactions on or before this date (YYYY-MM-DD)")

	return cmd
}

func runTransactions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	from, err := parseDateFlag(cmd, "from")
	if err != nil {
		return err
	}
	to, err := parseDateFlag(cmd, "to")
	if err != nil {
		return err
	}
	if to != nil {
		// Make --to inclusive of the whole day.
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	txns, err := store.GetTransactions(ctx, currentUser(), from, to)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}

	if len(txns) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No transactions found."))
		return nil
	}

	fmt.Println(cli.FormatTitle("Transactions"))
	header := fmt.Sprintf("%-12s  %-6s  %12s  %-4s  %s",
		"DATE", "TYPE", "AMOUNT", "CUR", "MERCHANT")
	fmt.Println(cli.TableHeaderStyle.Render(header))

	for _, txn := range txns {
		line := fmt.Sprintf("%-12s  %-6s  %12s  %-4s  %s",
			txn.TransactionDate.Format("2006-01-02"),
			txn.Type,
			txn.Amount,
			txn.Currency,
			truncate(txn.Merchant, 40))
		fmt.Println(cli.TableCellStyle.Render(line))
	}

	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%d transaction(s)", len(txns))))
	return nil
}

func parseDateFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s date (use YYYY-MM-DD): %w", name, err)
	}
	return &t, nil
}
