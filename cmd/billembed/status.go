package main

import (
	"github.com/nysgpt/billembed/internal/cli"
	"github.com/nysgpt/billembed/internal/config"
	"github.com/nysgpt/billembed/internal/models"
	"github.com/nysgpt/billembed/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	statusSession int
	statusFormat  string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show embedding progress for a session",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusSession, "session", models.DefaultSessionYear, "session year")
	statusCmd.Flags().StringVar(&statusFormat, "format", "text", "output format: text or json")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	format, err := cli.ParseOutputFormat(statusFormat)
	if err != nil {
		return err
	}
	components, err := initializeComponents(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	res, err := components.Status.Report(cmd.Context(), statusSession)
	if err != nil {
		return err
	}
	dbBytes := int64(-1)
	if cfg.Storage.Driver == config.DriverSQLite {
		if n, err := storage.SQLiteFileSize(cfg.Storage.DatabasePath); err == nil {
			dbBytes = n
		} else {
			logger.Warn("database size unavailable", zap.Error(err))
		}
	}
	return cli.WriteStatus(cmd.OutOrStdout(), res, dbBytes, format)
}
