package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/intakehq/docintake/internal/mail"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download new submissions from the configured mailbox",
	Long: `Connect to the IMAP mailbox, download each matching message into its
own bundle directory under the input directory, and mark the messages seen.

Examples:
  docintake fetch
  docintake fetch --all`,
	SilenceUsage: true,
	RunE:         runFetchCommand,
}

func init() {
	fetchCmd.Flags().Bool("all", false, "fetch all messages, not just unseen ones")

	rootCmd.AddCommand(fetchCmd)
}

func runFetchCommand(cmd *cobra.Command, args []string) error {
	cfg := getConfig()
	if cfg.Mail.Server == "" || cfg.Mail.Address == "" {
		return fmt.Errorf("mail.server and mail.address must be configured")
	}

	unseenOnly := cfg.Mail.UnseenOnly
	if all, _ := cmd.Flags().GetBool("all"); all {
		unseenOnly = false
	}

	source := mail.NewSource(mail.Config{
		Server:     cfg.Mail.Server,
		Address:    cfg.Mail.Address,
		Password:   cfg.Mail.Password,
		UnseenOnly: unseenOnly,
	})

	dirs, err := source.Fetch(cmd.Context(), cfg.Paths.InputDir)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	slog.Info("fetch complete", "bundles", len(dirs))

	if cfg.Mail.CleanupAfterDays > 0 {
		maxAge := time.Duration(cfg.Mail.CleanupAfterDays) * 24 * time.Hour
		if err := mail.CleanupStale(cfg.Paths.InputDir, maxAge); err != nil {
			slog.Warn("stale bundle cleanup failed", "error", err)
		}
	}
	return nil
}
