package main

import (
	"fmt"
	"os"

	"github.com/nysgpt/billembed/internal/config"
	"github.com/spf13/cobra"
)

var (
	initConfigOutput string
	initConfigForce  bool
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a config file with every default filled in",
	Long: `Writes a YAML config with defaults. API keys are left empty; set them through
LEGISLATIVE_API_KEY and OPENAI_API_KEY (a .env file works too) rather than in the file.`,
	Args:              cobra.NoArgs,
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat(initConfigOutput); err == nil && !initConfigForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", initConfigOutput)
		}
		var c config.Config
		config.ApplyDefaults(&c)
		if err := config.Save(initConfigOutput, &c); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", initConfigOutput)
		return nil
	},
}

func init() {
	initConfigCmd.Flags().StringVarP(&initConfigOutput, "output", "o", "config.yaml", "file to write")
	initConfigCmd.Flags().BoolVar(&initConfigForce, "force", false, "overwrite an existing file")
	rootCmd.AddCommand(initConfigCmd)
}
