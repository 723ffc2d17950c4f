// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"telegram-random-image/internal/application"
	"telegram-random-image/internal/config"
	"telegram-random-image/internal/host"
	tele "telegram-random-image/internal/infra/adapters/telegram"
	"telegram-random-image/internal/infra/db"
	"telegram-random-image/internal/infra/i18n"
	"telegram-random-image/internal/infra/logging"
	"telegram-random-image/internal/infra/media"
	"telegram-random-image/internal/infra/metrics"
	red "telegram-random-image/internal/infra/redis"
	"telegram-random-image/internal/infra/sched"
	"telegram-random-image/internal/infra/web"
	"telegram-random-image/internal/usecase"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

// Swapped in tests.
var (
	openStore = db.Open
	newBot    = tele.NewRealTelegramBotAdapter
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "", "optional path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		logging.New(config.LogConfig{}, false).Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("cannot start bot")
	}
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("shutting down after failure")
		stop()
		os.Exit(1)
	}
	logger.Info().Msg("shutdown complete")
}

// run wires the bot process and blocks until ctx is cancelled or a
// supervised task fails. Everything it opens is closed before it returns.
func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	// ---- Images directory ----
	if err := os.MkdirAll(cfg.Storage.ImagesDir, 0o755); err != nil {
		return fmt.Errorf("images directory %s: %w", cfg.Storage.ImagesDir, err)
	}

	// ---- Catalog store (+ optional Redis) ----
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("catalog store: %w", err)
	}
	defer store.Close()

	var limiter tele.RateLimiter
	if store.Redis != nil {
		limiter = red.NewRateLimiter(store.Redis)
	}

	// ---- Use cases / facade ----
	selection := usecase.NewSelectionUseCase(store.Images, logger)
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Lang)
	if err != nil {
		return fmt.Errorf("translations: %w", err)
	}
	facade := application.NewBotFacade(selection, media.NewLoader(cfg.Storage.ImagesDir, logger), translator, logger)

	// ---- Telegram ----
	bot, err := newBot(&cfg.Bot, facade, translator, limiter, logger)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	bot.RegisterCommands(ctx)

	// ---- Supervised tasks ----
	health := web.NewServer(selection, bot, logger)
	refresher := sched.NewMetricsRefresher(30*time.Second, selection, store.ReportPool, logger)

	err = host.Run(ctx, logger,
		host.Task{Name: "telegram", Run: bot.StartPolling},
		host.Task{Name: "http", Run: func(ctx context.Context) error { return health.Run(ctx, cfg.Addr()) }},
		host.Task{Name: "metrics", Run: refresher.Run},
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
