package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finemail/finemail/internal/config"
	"github.com/finemail/finemail/internal/engine"
	"github.com/finemail/finemail/internal/llm"
	"github.com/finemail/finemail/internal/pattern"
	"github.com/finemail/finemail/internal/rule"
	"github.com/finemail/finemail/internal/service"
	"github.com/finemail/finemail/internal/storage"
	"github.com/spf13/viper"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// currentUser returns the user identifier all commands operate under.
func currentUser() string {
	userID := viper.GetString("user.id")
	if userID == "" {
		userID = "default"
	}
	return userID
}

// createModelExtractor builds the LLM extraction path from config.
func createModelExtractor(logger *slog.Logger) (*llm.Extractor, error) {
	cfg := llm.ExtractorConfig{
		Client: llm.Config{
			Provider:    viper.GetString("llm.provider"),
			APIKey:      viper.GetString("llm.api_key"),
			Model:       viper.GetString("llm.model"),
			MaxRetries:  viper.GetInt("llm.max_retries"),
			RateLimit:   viper.GetInt("llm.rate_limit"),
			Temperature: viper.GetFloat64("llm.temperature"),
			MaxTokens:   viper.GetInt("llm.max_tokens"),
		},
		FewShot: viper.GetBool("parsing.few_shot"),
	}

	extractor, err := llm.NewExtractor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model extractor: %w", err)
	}
	return extractor, nil
}

// createEngine wires storage, the model extractor and the rule extractor
// into a parsing engine configured from viper.
func createEngine(store service.Storage, logger *slog.Logger) (*engine.Engine, *llm.Extractor, error) {
	modelExtractor, err := createModelExtractor(logger)
	if err != nil {
		return nil, nil, err
	}

	ruleExtractor := rule.NewExtractor(pattern.NewLibrary())

	cfg := engine.DefaultConfig()
	if threshold := viper.GetFloat64("parsing.confidence_threshold"); threshold > 0 {
		cfg.ConfidenceThreshold = threshold
	}
	if workers := viper.GetInt("parsing.max_concurrent"); workers > 0 {
		cfg.MaxConcurrent = workers
	}
	if timeout := viper.GetDuration("parsing.model_timeout"); timeout > 0 {
		cfg.ModelTimeout = timeout
	}

	eng := engine.NewWithConfig(store, modelExtractor, ruleExtractor, logger, cfg)
	return eng, modelExtractor, nil
}

// formatTime renders a timestamp for table output.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// truncate shortens a string for single-line table display.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
