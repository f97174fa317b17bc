package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/finemail/finemail/internal/config"
	"github.com/finemail/finemail/internal/ingest"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch mail and store it for parsing",
		Long: `Fetch messages from your mailbox and store them as pending documents.

Messages already ingested are skipped, so repeated runs are safe.

Examples:
  finemail ingest                                  # Fetch unread mail
  finemail ingest --query "from:chase.com"         # Fetch by Gmail query
  finemail ingest --max 500                        # Raise the listing cap`,
		RunE: runIngest,
	}

	// Flags
	cmd.Flags().StringP("query", "q", "", "Gmail search query (default: is:unread)")
	cmd.Flags().Int64P("max", "n", 0, "Maximum number of messages to list")
	cmd.Flags().StringSlice("label", nil, "Restrict to Gmail label IDs")

	return cmd
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	query, _ := cmd.Flags().GetString("query")
	maxResults, _ := cmd.Flags().GetInt64("max")
	labels, _ := cmd.Flags().GetStringSlice("label")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	// Load the saved OAuth token
	tokenFile := viper.GetString("gmail.token_file")
	if tokenFile == "" {
		tokenFile = config.DefaultTokenPath()
	}
	tokenFile = config.ExpandPath(tokenFile)

	token, err := ingest.LoadToken(tokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no saved mailbox token. Run 'finemail auth' first")
		}
		return fmt.Errorf("failed to load mailbox token: %w", err)
	}

	oauthCfg := ingest.OAuth2Config{
		ClientID:     viper.GetString("gmail.client_id"),
		ClientSecret: viper.GetString("gmail.client_secret"),
		TokenFile:    tokenFile,
	}

	fetcher, err := ingest.NewGmailFetcher(ctx, ingest.TokenSource(ctx, oauthCfg, token), store, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create mailbox client: %w", err)
	}

	slog.Info("Fetching messages", "query", query, "max", maxResults)

	stats, err := fetcher.Fetch(ctx, currentUser(), ingest.FetchOptions{
		Query:      query,
		MaxResults: maxResults,
		LabelIDs:   labels,
	})
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	slog.Info("✅ Ingest complete",
		"listed", stats.Listed,
		"stored", stats.Stored,
		"skipped", stats.Skipped,
		"failed", stats.Failed)

	if stats.Stored > 0 {
		slog.Info("Run 'finemail parse --all' to extract transactions")
	}

	return nil
}
