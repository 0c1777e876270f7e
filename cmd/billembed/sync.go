package main

import (
	"fmt"

	"github.com/nysgpt/billembed/internal/models"
	"github.com/nysgpt/billembed/internal/pipeline"
	"github.com/spf13/cobra"
)

var syncSession int

var syncCmd = &cobra.Command{
	Use:   "sync-bills",
	Short: "Copy a session's bill list into the local bill collection",
	Long: `Pages through the Open Legislation bill listing for the session and upserts every
bill into the bills table that batch mode pages over.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().IntVar(&syncSession, "session", models.DefaultSessionYear, "session year")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	components, err := initializeComponents(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()
	if components.Fetcher == nil {
		return cfg.RequireKeys(true, false)
	}

	res, err := pipeline.SyncBills(cmd.Context(), components.Fetcher, components.Storage, syncSession, cfg.Batch.SyncPageSize, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Synced %d of %d bills for session %d\n", res.Synced, res.Total, res.SessionYear)
	return nil
}
