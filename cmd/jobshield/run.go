package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/adapters/telegram"
	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/core"
	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/core/ops"
	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/core/policy"
	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/core/watch"
	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/internal/classifier"
	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/internal/config"
	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/internal/keychain"
)

// newLogger builds the process logger on w.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot",
	Long: `Start long-polling Telegram and answer every message.

The bot token is taken from the config file, then BOT_TOKEN, then the
system keychain. The bot runs until interrupted (Ctrl+C) or SIGTERM.

Example:
  jobshield run
  jobshield run -c /etc/jobshield/jobshield.yaml --env-file /etc/jobshield/.env`,
	RunE: runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addConfigFlags(runCmd)
}

// addConfigFlags registers the flags shared by commands that read the config.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file (defaults apply when empty)")
	cmd.Flags().String("env-file", ".env", "path to a .env file; missing is fine")
}

// loadConfig applies the .env file and then loads the YAML config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	if err := config.LoadEnv(envFile); err != nil {
		return nil, err
	}
	return config.Load(configFile)
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	if err := cfg.ResolveToken(keychain.Token); err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}

	holder, err := classifier.NewHolder(cfg.ModelPath, cfg.VectorizerPath, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if d := cfg.ReloadInterval.Duration(); d > 0 {
		w := watch.New(d, logger)
		w.Watch(holder.Reload, holder.Paths()...)
		go w.Run(ctx)
	}

	// loop is assigned before Run, so /status never sees it nil.
	var loop *core.Loop
	reg, err := ops.Build(cfg.Commands, func() ops.Stats { return loop.Stats() })
	if err != nil {
		return &core.ConfigurationError{Field: "commands", Err: err}
	}

	dispatcher := core.NewDispatcher(holder, reg, logger,
		core.WithPolicy(policy.New(cfg.AllowedChats)),
		core.WithFailureNotice(cfg.FailureNotice),
	)
	client := telegram.New(cfg.BotToken, logger).WithBaseURL(cfg.APIBaseURL)

	loop = core.NewLoop(client, dispatcher, &core.Cursor{}, core.LoopConfig{
		PollTimeout: cfg.PollTimeout.Duration(),
		Backoff:     cfg.Backoff.Duration(),
		SendTimeout: cfg.SendTimeout.Duration(),
		Workers:     cfg.Workers,
	}, logger)

	logger.Info("bot started",
		"version", version,
		"commands", cfg.Commands,
		"allowed_chats", len(cfg.AllowedChats),
		"reload_interval", cfg.ReloadInterval.Duration().String(),
	)
	if err := loop.Run(ctx); err != nil {
		return fmt.Errorf("poll loop: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
