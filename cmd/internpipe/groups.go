package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/internpipe/internpipe/internal/store"
)

var groupsCmd = &cobra.Command{
	Use:   "groups <raw-batch-id>",
	Short: "Print the duplicate groups found in a raw batch",
	Long:  "Cluster the postings of a stored raw batch into similarity groups and print them, one group per block.",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroups,
}

func init() {
	rootCmd.AddCommand(groupsCmd)
}

func runGroups(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	httpClient := &http.Client{Timeout: cfg.API.Timeout}
	p := buildPipeline(cfg, sqlStore, httpClient, logger)

	groups, err := p.DuplicateGroups(args[0])
	if err != nil {
		logger.Error("grouping failed", "error", err)
		os.Exit(1)
	}

	if len(groups) == 0 {
		fmt.Println("no duplicate groups found")
		return nil
	}

	for i, group := range groups {
		fmt.Printf("Group %d (%d postings)\n", i+1, len(group))
		for _, job := range group {
			fmt.Printf("  %s · %s", job.Company, job.Title)
			if job.Location != "" {
				fmt.Printf(" (%s)", job.Location)
			}
			fmt.Println()
		}
		fmt.Println()
	}
	return nil
}
