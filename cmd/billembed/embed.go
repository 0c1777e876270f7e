package main

import (
	"strings"

	"github.com/nysgpt/billembed/internal/cli"
	"github.com/nysgpt/billembed/internal/models"
	"github.com/spf13/cobra"
)

var (
	embedSession int
	embedFormat  string
)

var embedCmd = &cobra.Command{
	Use:   "embed <bill-number>",
	Short: "Embed one bill",
	Long: `Fetches one bill, rebuilds its chunks and replaces whatever was stored for it.
Bill numbers are normalized (s00256 → S256) and even session years map to their session.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().IntVar(&embedSession, "session", models.DefaultSessionYear, "session year")
	embedCmd.Flags().StringVar(&embedFormat, "format", "text", "output format: text or json")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(embedFormat)
	if err != nil {
		return err
	}
	req := models.EmbedSingleRequest{BillNumber: strings.TrimSpace(args[0]), SessionYear: embedSession}
	if err := req.Validate(); err != nil {
		return err
	}
	components, err := initializeComponents(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()
	if components.Indexer == nil {
		return components.MissingKeys
	}

	res, err := components.Indexer.EmbedBill(cmd.Context(), req.BillNumber, req.SessionYear)
	if err != nil {
		return err
	}
	return cli.WriteEmbedResult(cmd.OutOrStdout(), res, format)
}
