package main

import (
	"github.com/nysgpt/billembed/internal/cli"
	"github.com/nysgpt/billembed/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	batchSession int
	batchSize    int
	batchOffset  int
	batchAll     bool
	batchFormat  string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Embed one page of a session's bills",
	Long: `Embeds bills [offset, offset+batch-size) of the session's bill collection, ordered by
bill id, within the configured time budget. The output names the offset to resume from.
With --all, pages are run back to back until the session is done.

Run sync-bills first so the bill collection is populated.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchSession, "session", models.DefaultSessionYear, "session year")
	batchCmd.Flags().IntVar(&batchSize, "batch-size", models.DefaultBatchSize, "bills per page")
	batchCmd.Flags().IntVar(&batchOffset, "offset", 0, "offset of the first bill")
	batchCmd.Flags().BoolVar(&batchAll, "all", false, "keep running pages until no bills remain")
	batchCmd.Flags().StringVar(&batchFormat, "format", "text", "output format: text or json")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	format, err := cli.ParseOutputFormat(batchFormat)
	if err != nil {
		return err
	}
	req := models.EmbedBatchRequest{SessionYear: batchSession, BatchSize: batchSize, Offset: batchOffset}
	if err := req.Validate(); err != nil {
		return err
	}
	components, err := initializeComponents(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()
	if components.Batch == nil {
		return components.MissingKeys
	}

	for {
		res, err := components.Batch.Run(cmd.Context(), req)
		if err != nil {
			return err
		}
		if err := cli.WriteBatchResult(cmd.OutOrStdout(), res, format); err != nil {
			return err
		}
		if !batchAll || !res.HasMore || res.NextOffset == nil || *res.NextOffset == req.Offset {
			return nil
		}
		logger.Info("continuing batch", zap.Int("offset", *res.NextOffset))
		req.Offset = *res.NextOffset
	}
}
