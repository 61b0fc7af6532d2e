package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/efda-insights/permit-analytics/internal/ingest"
	"github.com/efda-insights/permit-analytics/internal/normalize"
)

var importScraperDB string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import permits from a scraper database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if importScraperDB != "" {
			cfg.Ingest.ScraperDB = importScraperDB
		}
		if err := cfg.Validate("import"); err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		norm := normalize.New()
		if cfg.Normalize.AliasFile != "" {
			norm, err = normalize.NewWithAliasFile(cfg.Normalize.AliasFile)
			if err != nil {
				return eris.Wrap(err, "load alias file")
			}
		}

		src, err := ingest.OpenScraperDB(cfg.Ingest.ScraperDB)
		if err != nil {
			return err
		}
		defer src.Close()

		loader := ingest.NewLoader(st.Pool(), norm, cfg.Ingest.BatchSize)
		stats, err := loader.Run(ctx, src)
		if err != nil {
			return eris.Wrap(err, "import run")
		}

		zap.L().Info("import complete",
			zap.Int64("orders", stats.Orders),
			zap.Int64("line_items", stats.LineItems),
			zap.String("scraper_db", cfg.Ingest.ScraperDB),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importScraperDB, "scraper-db", "", "path to the scraper SQLite database (default from config)")
	rootCmd.AddCommand(importCmd)
}
