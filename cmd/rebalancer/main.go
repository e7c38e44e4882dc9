// Command rebalancer rebalances a spot exchange portfolio to match the
// target allocation from the YAML configuration. It supports Binance and
// Bybit accounts plus a simulated venue with real market prices.
//
// Usage:
//
//	rebalancer --config config.yaml          one rebalance run
//	rebalancer --init                        interactive config wizard
//
// With 'schedule' set in the config the process stays up and runs on the
// given cron expression; overlapping triggers are skipped.
//
// Required environment variables (a .env file is honored):
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/vadiminshakov/rebalancer/config"
	"github.com/vadiminshakov/rebalancer/internal"
	"github.com/vadiminshakov/rebalancer/internal/clients"
	"github.com/vadiminshakov/rebalancer/internal/services/pricer"
	"github.com/vadiminshakov/rebalancer/internal/services/sheet"
	"github.com/vadiminshakov/rebalancer/internal/services/simulate"
	"github.com/vadiminshakov/rebalancer/internal/setup"
	"github.com/vadiminshakov/rebalancer/internal/storage/ledger"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to yaml config")
	runWizard := flag.Bool("init", false, "launch the interactive configuration wizard")
	flag.Parse()

	if *runWizard {
		if err := setup.RunWizard(*configPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	// secrets come from the environment; a local .env file is optional
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	client, err := buildClient(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create exchange client", zap.Error(err))
	}

	ledgerStore, err := ledger.NewWALStore(cfg.LedgerDir)
	if err != nil {
		logger.Fatal("failed to open trade ledger", zap.Error(err))
	}
	defer ledgerStore.Close()

	mirror := sheet.NewMirror(cfg.SheetWebhookURL, logger)

	rebalancer, err := internal.NewRebalancer(cfg, client, ledgerStore, mirror, logger)
	if err != nil {
		logger.Fatal("failed to create rebalancer", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule == "" {
		if err := rebalancer.Run(ctx); err != nil {
			logger.Fatal("rebalance run failed", zap.Error(err))
		}
		return
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Schedule, func() {
		if err := rebalancer.Run(ctx); err != nil {
			logger.Error("scheduled rebalance run failed", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("invalid cron schedule", zap.String("schedule", cfg.Schedule), zap.Error(err))
	}

	logger.Info("scheduler started", zap.String("schedule", cfg.Schedule))
	scheduler.Start()

	<-ctx.Done()
	<-scheduler.Stop().Done()
}

// buildClient constructs the venue client for the configured platform.
func buildClient(cfg *config.Config, logger *zap.Logger) (any, error) {
	switch cfg.Platform {
	case "binance":
		apiKey := os.Getenv("BINANCE_API_KEY")
		apiSecret := os.Getenv("BINANCE_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			return nil, errors.New("BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
		}
		return clients.NewBinanceClient(apiKey, apiSecret), nil
	case "bybit":
		apiKey := os.Getenv("BYBIT_API_KEY")
		apiSecret := os.Getenv("BYBIT_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			return nil, errors.New("BYBIT_API_KEY and BYBIT_API_SECRET environment variables must be set")
		}
		return clients.NewBybitClient(apiKey, apiSecret), nil
	case "simulate":
		// public market data needs no credentials
		public := clients.NewBinanceClient("", "")
		prices := pricer.NewBinancePricer(public, cfg.BaseCurrency, logger)
		return simulate.NewExchange(cfg.BaseCurrency, prices, cfg.FeeRate, logger)
	default:
		return nil, errors.Errorf("unsupported platform %s", cfg.Platform)
	}
}
