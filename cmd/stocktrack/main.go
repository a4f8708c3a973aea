// Package main is the entry point for the stocktrack console
// application. It wires configuration, logging, the SQLite store and
// the interactive menu together and runs until the user exits.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stocktrack/internal/config"
	"stocktrack/internal/console"
	"stocktrack/internal/database"
	"stocktrack/internal/modules/acquisition"
	"stocktrack/internal/modules/charts"
	"stocktrack/internal/modules/importer"
	"stocktrack/internal/modules/portfolio"
	"stocktrack/internal/modules/reports"
	"stocktrack/internal/modules/snapshot"
	"stocktrack/internal/modules/storage"
	"stocktrack/pkg/logger"
)

func main() {
	var (
		dbPath   string
		logLevel string
		pretty   bool
	)

	root := &cobra.Command{
		Use:   "stocktrack",
		Short: "Track a personal stock portfolio from the terminal",
		Long: "stocktrack manages a personal stock portfolio: holdings, daily " +
			"price history, reports and charts, with SQLite persistence and " +
			"optional retrieval from Yahoo! Finance.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(dbPath, logLevel, pretty)
		},
	}

	root.Flags().StringVar(&dbPath, "db", "", "path to the SQLite database (overrides STOCKTRACK_DB)")
	root.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	root.Flags().BoolVar(&pretty, "pretty", false, "pretty console log output")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(dbPath, logLevel string, pretty bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if pretty {
		cfg.Pretty = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.Pretty,
	})
	log.Info().Str("db", cfg.DatabasePath).Msg("Starting stocktrack")

	db, err := database.New(database.Config{
		Path: cfg.DatabasePath,
		Name: "portfolio",
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := storage.NewRepository(
		db.Conn(),
		cfg.DateLayout(),
		storage.PolicyFromString(cfg.SavePolicy),
		log,
	)
	if err := repo.Init(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	pf := portfolio.New(log)

	deps := console.Deps{
		Portfolio: pf,
		Store:     repo,
		Importer:  importer.New(log),
		Fetcher: acquisition.NewYahooFetcher(
			cfg.Headless,
			time.Duration(cfg.FetchTimeout)*time.Second,
			log,
		),
		Reports:  reports.NewService(log),
		Charts:   charts.NewService(log),
		Snapshot: snapshot.NewService(log),
	}

	// Ctrl+C cancels any in-flight web retrieval and ends the menu loop.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ui := console.New(deps, os.Stdin, os.Stdout, cfg.DateLayout(), log)
	if err := ui.Run(ctx); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	log.Info().Msg("Shutdown complete")
	return nil
}
