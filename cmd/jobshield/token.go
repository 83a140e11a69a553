package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/internal/keychain"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the bot token in the system keychain",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Read the bot token from stdin and store it",
	Long: `Read the bot token from the first line of stdin and store it in the
system keychain, where "jobshield run" finds it when neither the config nor
BOT_TOKEN provide one.

Example:
  jobshield token set < token.txt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := bufio.NewScanner(cmd.InOrStdin())
		var token string
		if sc.Scan() {
			token = strings.TrimSpace(sc.Text())
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		if token == "" {
			return fmt.Errorf("no token on stdin")
		}
		if err := keychain.Set(keychain.TokenAccount, token); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "token stored in keychain")
		return nil
	},
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored bot token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := keychain.Delete(keychain.TokenAccount); err != nil {
			return fmt.Errorf("delete token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "token removed from keychain")
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenSetCmd, tokenDeleteCmd)
	rootCmd.AddCommand(tokenCmd)
}
