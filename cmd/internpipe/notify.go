package main

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/internpipe/internpipe/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Send a test notification and exit",
	Long:  "Send a dummy posting through the configured notifier to verify the integration works.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.API.Timeout}
	n := setupNotifier(cfg, httpClient, logger)

	if err := notifier.SendTestMessage(n); err != nil {
		logger.Error("test notification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test notification sent successfully")
	return nil
}
