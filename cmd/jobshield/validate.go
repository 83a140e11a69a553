package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/internal/classifier"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config and classifier artifacts",
	Long: `Load the configuration and both classifier artifacts without contacting
Telegram. Useful as a pre-deployment check.

Exit codes:
  0 - everything loads
  2 - config or artifacts are invalid

Example:
  jobshield validate -c jobshield.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addConfigFlags(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := classifier.Load(cfg.ModelPath, cfg.VectorizerPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Poll timeout: %s\n", cfg.PollTimeout.Duration())
	fmt.Fprintf(out, "  Workers:      %d\n", cfg.Workers)
	fmt.Fprintf(out, "  Commands:     %v\n", cfg.Commands)
	fmt.Fprintf(out, "  Model:        %s\n", cfg.ModelPath)
	fmt.Fprintf(out, "  Vectorizer:   %s\n", cfg.VectorizerPath)
	return nil
}
