package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Maksimnp/TelegramBotQwen/internal/bot"
	"github.com/Maksimnp/TelegramBotQwen/internal/config"
	"github.com/Maksimnp/TelegramBotQwen/internal/logger"
	"github.com/Maksimnp/TelegramBotQwen/internal/qwen"
	"github.com/Maksimnp/TelegramBotQwen/internal/store"
	"github.com/Maksimnp/TelegramBotQwen/internal/telegram"
)

const version = "1.0.0"

const rootLongDesc = `Telegram relay for a Qwen application.

The bot forwards each chat's message history to the DashScope application
API and relays the reply back, splitting long answers across messages.
Configuration comes from the environment (or a .env file); see README.`

func newRootCmd() *cobra.Command {
	var debug bool
	var envFile string

	cmd := &cobra.Command{
		Use:   "qwenbot",
		Short: "Telegram bot backed by the Qwen application API",
		Long:  rootLongDesc,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(envFile, debug)
		},
	}

	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to an optional .env file")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	return cmd
}

func run(envFile string, debug bool) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Debug || debug)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	transport := telegram.NewClient(
		cfg.TelegramAPIBase(),
		// The HTTP timeout must outlast the long-poll window.
		time.Duration(cfg.PollTimeout+20)*time.Second,
	)
	model := qwen.NewClient(cfg.QwenAPIKey, cfg.QwenAppID, cfg.QwenBaseURL, 120*time.Second)

	b := bot.New(log, st, model, transport, cfg.PollTimeout, cfg.SleepSeconds)

	log.Info("bot running",
		zap.String("store", cfg.StoreBackend),
		zap.String("qwen_app", cfg.QwenAppID),
		zap.Int("poll_timeout", cfg.PollTimeout),
	)

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutting down")
	return nil
}

func newStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		log.Info("using postgres context store",
			zap.String("host", cfg.PostgresHost), zap.String("db", cfg.PostgresDB))
		return store.NewPostgresStore(ctx, cfg.PostgresConnString(), log)
	case config.BackendSQLite:
		log.Info("using sqlite context store", zap.String("path", cfg.SQLitePath))
		return store.NewSQLiteStore(cfg.SQLitePath, log)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}
