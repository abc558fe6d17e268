package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/bunpro-yomitan/internal/build"
	"github.com/JakeFAU/bunpro-yomitan/internal/storage/gcs"
	"github.com/JakeFAU/bunpro-yomitan/internal/storage/local"
	"github.com/JakeFAU/bunpro-yomitan/internal/termbank"
)

const (
	dictionaryAuthor      = "Bunpro"
	dictionaryURL         = "https://bunpro.jp"
	dictionaryDescription = "Grammar points scraped from bunpro.jp with meaning, explanation and example sentences."
)

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the Yomitan dictionary archive from stored pages",
		Long: `Extracts every stored page, skips entries without a subject or definition,
splits compound headwords, writes four term banks plus index and tag files, and
zips them. Optionally exports a CSV and uploads the archive to GCS.`,
		RunE: runBuildCommand,
	}
}

func runBuildCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.Config()
	logger := appInstance.GetLogger().Named("build")

	store, err := local.Open(local.Config{BaseDir: cfg.Storage.PagesDir})
	if err != nil {
		return fmt.Errorf("open page store: %w", err)
	}

	var publisher build.Publisher
	if cfg.Publish.GCSBucket != "" {
		p, closeClient, err := gcs.Dial(cmd.Context(), gcs.Config{
			Bucket: cfg.Publish.GCSBucket,
			Prefix: cfg.Publish.Prefix,
		}, logger)
		if err != nil {
			return fmt.Errorf("init publisher: %w", err)
		}
		defer func() {
			if cerr := closeClient(); cerr != nil {
				logger.Warn("Failed to close GCS client", zap.Error(cerr))
			}
		}()
		publisher = p
	}

	builder := build.New(store, build.Config{
		Writer: termbank.WriterConfig{
			Dir:    cfg.Build.OutputDir,
			Shards: cfg.Build.Shards,
			Index: termbank.Index{
				Title:       cfg.Build.Title,
				Revision:    cfg.Build.Revision,
				Author:      dictionaryAuthor,
				URL:         dictionaryURL,
				Description: dictionaryDescription,
			},
		},
		ArchivePath: cfg.Build.ArchivePath,
		CSVPath:     cfg.Build.CSVPath,
	}, publisher, appInstance.GetMetrics(), logger)

	report, err := builder.Run(cmd.Context())
	if err != nil {
		if build.IsTaxonomyError(err) {
			logger.Error("Page carries a value missing from the grammar taxonomy", zap.Error(err))
		}
		return err
	}
	logger.Info("Build finished",
		zap.Int("pages", report.Pages),
		zap.Int("extracted", report.Extracted),
		zap.Int("skipped", report.Skipped),
		zap.Int("records", report.Records),
		zap.String("archive", report.Archive),
	)
	return nil
}
