package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/intakehq/docintake/internal/document"
	"github.com/intakehq/docintake/internal/mail"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch new submissions and process them in one pass",
	Long: `Fetch new messages from the mailbox, then run the full pipeline over
exactly the bundles that arrived. Previously downloaded bundles are left
alone; use "docintake process" to reprocess them.

Example:
  docintake run`,
	SilenceUsage: true,
	RunE:         runRunCommand,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRunCommand(cmd *cobra.Command, args []string) error {
	cfg := getConfig()
	if cfg.Mail.Server == "" || cfg.Mail.Address == "" {
		return fmt.Errorf("mail.server and mail.address must be configured")
	}

	source := mail.NewSource(mail.Config{
		Server:     cfg.Mail.Server,
		Address:    cfg.Mail.Address,
		Password:   cfg.Mail.Password,
		UnseenOnly: cfg.Mail.UnseenOnly,
	})
	dirs, err := source.Fetch(cmd.Context(), cfg.Paths.InputDir)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if len(dirs) == 0 {
		slog.Info("no new submissions")
		return nil
	}

	return processBundles(cmd.Context(), cfg, mustLoadBundles(dirs))
}

func mustLoadBundles(dirs []string) []*document.Bundle {
	var bundles []*document.Bundle
	for _, dir := range dirs {
		b, err := mail.LoadBundle(dir)
		if err != nil {
			slog.Warn("skipping unreadable bundle", "dir", dir, "error", err)
			continue
		}
		bundles = append(bundles, b)
	}
	return bundles
}
