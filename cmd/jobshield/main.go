// Package main is the entry point for the jobshield CLI.
//
// Usage:
//
//	jobshield run -c jobshield.yaml      # Start the bot
//	jobshield validate -c jobshield.yaml # Check config and artifacts
//	jobshield classify "job text"        # One-off verdict, no Telegram
//	jobshield token set < token.txt      # Store the bot token in the keychain
//	jobshield version                    # Show version info
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/core"
)

// Set at build time via ldflags, e.g. -X main.version=1.0.0.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const exitConfig = 2

var rootCmd = &cobra.Command{
	Use:   "jobshield",
	Short: "Telegram bot that flags fake job postings",
	Long: `JobShield answers Telegram messages containing job descriptions with a
fake-job verdict and risk score.

Quick start:
  1. Put BOT_TOKEN=... in .env (or run: jobshield token set)
  2. Place jobshield_model.yaml and jobshield_vectorizer.yaml next to the binary
  3. Run: jobshield run`,
	SilenceUsage: true,
}

// Execute runs the root command. Configuration errors exit with status 2,
// everything else with status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var cErr *core.ConfigurationError
		if errors.As(err, &cErr) {
			os.Exit(exitConfig)
		}
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "jobshield %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
