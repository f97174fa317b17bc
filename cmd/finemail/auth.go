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

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with your mailbox",
		Long: `Authenticate with Gmail using OAuth2.

This command will:
1. Start a local callback server
2. Open your browser to authenticate with Google
3. Save the token for future use

You'll need to run this once before 'finemail ingest' can fetch mail.`,
		RunE: runAuth,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")

	return cmd
}

func runAuth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// Get OAuth2 config
	clientID := viper.GetString("gmail.client_id")
	clientSecret := viper.GetString("gmail.client_secret")

	// Override with flags if provided
	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		clientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		clientSecret = flagSecret
	}

	// Check for environment variables as fallback
	if clientID == "" {
		clientID = os.Getenv("GMAIL_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GMAIL_CLIENT_SECRET")
	}

	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("OAuth2 credentials not found. Please set gmail.client_id and gmail.client_secret in config or use --client-id and --client-secret flags")
	}

	tokenFile := viper.GetString("gmail.token_file")
	if tokenFile == "" {
		tokenFile = config.DefaultTokenPath()
	}
	tokenFile = config.ExpandPath(tokenFile)

	slog.Info("Starting Gmail authentication", "token_file", tokenFile)

	oauthCfg := ingest.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    tokenFile,
	}

	if _, err := ingest.AuthenticateInteractive(ctx, oauthCfg); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	slog.Info("✅ Authentication successful!")
	slog.Info("✉️  Your mailbox is now connected.")
	slog.Info("Run 'finemail ingest' to fetch messages.")

	return nil
}
