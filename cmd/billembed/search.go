package main

import (
	"strings"

	"github.com/nysgpt/billembed/internal/cli"
	"github.com/nysgpt/billembed/internal/models"
	"github.com/spf13/cobra"
)

var (
	searchSession int
	searchLimit   int
	searchFormat  string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find the bill chunks most similar to a question",
	Long: `Embeds the query and returns the closest stored chunks of the session by cosine
similarity. Multi-word queries work with or without quotes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchSession, "session", models.DefaultSessionYear, "session year")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", models.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text", "output format: text or json")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(searchFormat)
	if err != nil {
		return err
	}
	req := &models.SearchRequest{
		Query:       strings.Join(args, " "),
		SessionYear: searchSession,
		Limit:       searchLimit,
	}
	components, err := initializeComponents(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()
	if components.Engine == nil {
		return cfg.RequireKeys(false, true)
	}

	resp, err := components.Engine.Search(cmd.Context(), req)
	if err != nil {
		return err
	}
	return cli.WriteSearchResults(cmd.OutOrStdout(), resp, format)
}
