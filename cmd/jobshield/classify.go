package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/core"
	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/internal/classifier"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Classify one job description and print the report",
	Long: `Run the classifier once and print the same report the bot would send.
Without an argument the text is read from stdin.

Example:
  jobshield classify "Earn 5000 a week from home, no interview"
  jobshield classify < posting.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	addConfigFlags(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("no text to classify")
	}

	p, err := classifier.Load(cfg.ModelPath, cfg.VectorizerPath)
	if err != nil {
		return err
	}
	result, err := p.Classify(cmd.Context(), text)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), core.FormatReport(result))
	return nil
}
