package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oi-monitor/config"
	"oi-monitor/internal/alert"
	"oi-monitor/internal/database"
	"oi-monitor/internal/exchange"
	"oi-monitor/internal/metrics"
	"oi-monitor/internal/monitor"
	"oi-monitor/internal/state"
	"oi-monitor/internal/telegram"
	"oi-monitor/lib/translation"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type stateStore interface {
	monitor.StateStore
	Close() error
}

func main() {
	config.LoadDotEnv()

	v := viper.New()
	config.BindEnv(v)
	cfg, err := config.Load(v)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()

	if err != nil {
		log.Errorf("❌ Run failed: %v", err)
		os.Exit(1)
	}
}

func setupLogging(cfg config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting open interest monitor...")
}

func run(ctx context.Context, cfg config.Config) error {
	started := time.Now()
	runMetrics := metrics.NewRunMetrics()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	tr := translation.New(cfg.LocalesDir, cfg.Lang)

	mon := monitor.New(monitor.Options{
		Exchange: exchange.NewClient(exchange.Config{
			BaseURL:      cfg.BinanceBaseURL,
			Period:       cfg.Period,
			RequestDelay: cfg.RequestDelay,
			HTTPTimeout:  cfg.HTTPTimeout,
		}),
		Evaluator: alert.NewEvaluator(alert.Thresholds{
			RatioLow:        cfg.RatioLow,
			RatioHigh:       cfg.RatioHigh,
			MarketCap:       cfg.MarketCap,
			MinOpenInterest: cfg.MinOpenInterest,
			Cooldown:        cfg.Cooldown,
		}, tr),
		Store: store,
		Notifier: telegram.NewNotifier(telegram.BotConfig{
			Token:       cfg.TelegramToken,
			ChatID:      cfg.TelegramChatID,
			APIEndpoint: cfg.TelegramEndpoint,
			Debug:       cfg.Debug,
		}),
		Translator: tr,
		Metrics:    runMetrics,
		MaxSymbols: cfg.MaxSymbols,
		DryRun:     cfg.DryRun,
	})

	_, err = mon.Run(ctx)
	runMetrics.Finish(started, err)
	runMetrics.Export(cfg.MetricsTextfile, cfg.PushgatewayURL)
	return err
}

func openStore(ctx context.Context, cfg config.Config) (stateStore, error) {
	switch cfg.StateBackend {
	case config.StateBackendSQLite:
		db, err := database.Open(ctx, cfg.StateDB)
		if err != nil {
			return nil, errors.Wrap(err, "open state database")
		}
		return db, nil
	default:
		return state.NewFileStore(cfg.StateFile), nil
	}
}
