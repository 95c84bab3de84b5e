package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/intakehq/docintake/internal/config"
	"github.com/intakehq/docintake/internal/document"
	"github.com/intakehq/docintake/internal/mail"
	"github.com/intakehq/docintake/internal/pipeline"
	"github.com/intakehq/docintake/internal/service"
)

var processCmd = &cobra.Command{
	Use:   "process [bundle-dirs...]",
	Short: "Process downloaded bundles into structured records",
	Long: `Run the full pipeline over bundle directories: conversion,
classification, orientation correction, region extraction, recognition,
field extraction, structuring and consolidation.

Without arguments every bundle under the input directory is processed.

Examples:
  docintake process
  docintake process data/raw/downloads/Visa_Renewal_Amit
  docintake process --input /srv/intake/downloads`,
	SilenceUsage: true,
	RunE:         runProcessCommand,
}

func init() {
	processCmd.Flags().String("input", "", "input directory holding bundle directories")

	rootCmd.AddCommand(processCmd)
}

func runProcessCommand(cmd *cobra.Command, args []string) error {
	cfg := getConfig()
	if dir, _ := cmd.Flags().GetString("input"); dir != "" {
		cfg.Paths.InputDir = dir
	}

	bundles, err := collectBundles(cfg, args)
	if err != nil {
		return err
	}
	if len(bundles) == 0 {
		slog.Info("nothing to process", "input", cfg.Paths.InputDir)
		return nil
	}

	return processBundles(cmd.Context(), cfg, bundles)
}

// collectBundles loads the named bundle directories, or every directory under
// the input directory when none are named.
func collectBundles(cfg *config.Config, args []string) ([]*document.Bundle, error) {
	if len(args) == 0 {
		bundles, err := mail.LoadBundles(cfg.Paths.InputDir)
		if err != nil {
			return nil, fmt.Errorf("process: %w", err)
		}
		return bundles, nil
	}

	var bundles []*document.Bundle
	for _, dir := range args {
		b, err := mail.LoadBundle(dir)
		if err != nil {
			return nil, fmt.Errorf("process: %w", err)
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

// processBundles resolves each bundle's requested service and runs the
// pipeline over the set.
func processBundles(ctx context.Context, cfg *config.Config, bundles []*document.Bundle) error {
	if err := os.MkdirAll(cfg.Paths.TempDir, 0o750); err != nil {
		return fmt.Errorf("process: %w", err)
	}

	detector, err := buildServiceDetector(ctx, cfg)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}
	for _, b := range bundles {
		b.RequestedService = detector.Detect(ctx, b.EmailText)
	}

	p, err := pipeline.NewBuilder(*cfg).Build(ctx)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}

	done, err := p.Run(ctx, bundles)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}
	slog.Info("processing complete", "bundles", len(bundles), "succeeded", done)
	if done < len(bundles) {
		return fmt.Errorf("process: %d of %d bundles failed", len(bundles)-done, len(bundles))
	}
	return nil
}

// buildServiceDetector wires the catalog and, when Google Cloud is
// configured, the model-backed matcher with keyword fallback.
func buildServiceDetector(ctx context.Context, cfg *config.Config) (*service.Detector, error) {
	catalog, err := service.LoadCatalog(catalogPath(cfg))
	if err != nil {
		return nil, err
	}

	var primary service.Matcher
	if cfg.Google.ProjectID != "" {
		m, err := service.NewVertexMatcher(ctx, cfg.Google.ProjectID, cfg.Google.Region, cfg.Structurer.Model, catalog)
		if err != nil {
			return nil, err
		}
		primary = m
	}
	return service.NewDetector(primary, catalog), nil
}

// catalogPath resolves the configured service catalog, tolerating an absent
// default file by falling back to the bundled catalog.
func catalogPath(cfg *config.Config) string {
	path := cfg.Paths.ServiceCatalog
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		slog.Debug("service catalog not found, using bundled defaults", "path", path)
		return ""
	}
	return path
}
