package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/nhle/mail-agent/internal/agent"
	"github.com/nhle/mail-agent/internal/ai"
	"github.com/nhle/mail-agent/internal/credential"
	"github.com/nhle/mail-agent/internal/mail"
	"github.com/nhle/mail-agent/internal/model"
	"github.com/nhle/mail-agent/internal/pipeline"
	"github.com/nhle/mail-agent/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(),
		"path to the YAML configuration file")
	limit := flag.Int("limit", 0,
		"how many recent emails to process (0 = config value)")
	dryRun := flag.Bool("dry-run", false,
		"generate drafts but do not write them to the mailbox")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	if err := run(*configPath, *limit, *dryRun); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, limit int, dryRun bool) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if limit < 1 {
		limit = cfg.Mail.FetchLimit
	}

	mailPassword, err := credential.GetOrEnv(
		credential.KeyMailPassword, "EMAIL_PASSWORD",
	)
	if err != nil {
		return err
	}

	apiKey, err := credential.GetOrEnv(
		credential.KeyAnthropicAPI, "ANTHROPIC_API_KEY",
	)
	if err != nil {
		return err
	}

	storePath := cfg.Store.Path
	if storePath == "" {
		storePath = model.DefaultStorePath()
	}
	ledger, err := store.NewSQLiteStore(storePath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	mailClient := mail.NewClient(cfg.Mail, mailPassword)
	chain := pipeline.NewEmailChain(ai.New(apiKey, cfg.AI))
	processor := agent.New(mailClient, chain, ledger, dryRun)

	sum, err := processor.Run(context.Background(), limit)
	if err != nil {
		return err
	}

	slog.Info("processing complete",
		"fetched", sum.Fetched,
		"created", sum.Created,
		"skipped", sum.Skipped,
		"failed", sum.Failed)

	return nil
}
