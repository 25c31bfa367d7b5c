// Package main is the entry point for the riskcore risk analytics service.
// It wires the price oracle, on-chain balance reader, risk pipeline and
// HTTP surface, starts the background cache warm job and serves until
// interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/aristath/riskcore/internal/agent"
	"github.com/aristath/riskcore/internal/chain"
	"github.com/aristath/riskcore/internal/clients/coingecko"
	"github.com/aristath/riskcore/internal/clients/cryptocom"
	"github.com/aristath/riskcore/internal/clients/dexrouter"
	"github.com/aristath/riskcore/internal/clients/predictions"
	"github.com/aristath/riskcore/internal/config"
	"github.com/aristath/riskcore/internal/database"
	"github.com/aristath/riskcore/internal/history"
	"github.com/aristath/riskcore/internal/jobs"
	"github.com/aristath/riskcore/internal/oracle"
	"github.com/aristath/riskcore/internal/portfolio"
	"github.com/aristath/riskcore/internal/proof"
	"github.com/aristath/riskcore/internal/risk"
	"github.com/aristath/riskcore/internal/scheduler"
	"github.com/aristath/riskcore/internal/server"
	"github.com/aristath/riskcore/pkg/logger"
)

// trackedSymbols is the allow-list warmed by the background price job.
var trackedSymbols = []string{"BTC", "ETH", "CRO", "WCRO", "USDC", "DEVUSDC", "VVS"}

// exchangeHealth adapts the primary oracle's probe to the server's health
// check interface.
type exchangeHealth struct {
	client *cryptocom.Client
}

func (h exchangeHealth) HealthCheck(ctx context.Context) error {
	if !h.client.HealthCheck(ctx) {
		return fmt.Errorf("exchange ticker probe failed")
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting riskcore")

	// Chain connectivity failures are reported per request, not at
	// startup: ethclient.Dial does not contact the endpoint.
	evmClient, err := ethclient.Dial(cfg.ChainRPCURL)
	if err != nil {
		log.Fatal().Err(err).Str("rpc", cfg.ChainRPCURL).Msg("Failed to create EVM client")
	}
	defer evmClient.Close()

	// Price oracle: primary exchange, secondary market API, DEX quote
	// last resort, over a shared TTL cache.
	primary := cryptocom.NewClient(cfg.ExchangeAPIURL, cfg.HTTPTimeout, cfg.ExchangeCacheTTL, log)
	secondary := coingecko.NewClient(cfg.MarketAPIURL, cfg.HTTPTimeout, log)
	pools, err := dexrouter.NewClient(evmClient, dexrouter.CronosRouter, dexrouter.CronosReference(), dexrouter.CronosPools(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create DEX router client")
	}

	priceOracle := oracle.New(oracle.NewCache(cfg.QuoteCacheTTL), primary, secondary, secondary, pools, log)

	reader, err := chain.NewReader(evmClient, "CRO", chain.CronosTestnetTokens(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create chain reader")
	}

	// Risk pipeline.
	policy := risk.DefaultPolicy()
	exposures := risk.NewExposureCalculator(policy, log)
	volatility := risk.NewVolatilityEstimator(priceOracle, policy, log)
	sentiment := risk.NewSentimentAggregator(predictions.NewClient(cfg.PredictionsAPIURL, cfg.HTTPTimeout, log), log)
	scorer := risk.NewScorer(exposures, volatility, sentiment, policy, log)
	snapshots := portfolio.NewBuilder(reader, priceOracle, log)
	prover := proof.NewClient(cfg.ProverAPIURL, cfg.HTTPTimeout, log)

	// Analysis history store.
	db, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "history.db"),
		Name: "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer db.Close()

	repo, err := history.NewRepository(db.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize history repository")
	}

	riskAgent := agent.New(snapshots, scorer, exposures, volatility, sentiment, prover, repo, log)

	// Background cache warm job.
	sched := scheduler.New(log)
	warmJob := jobs.NewPriceWarmJob(priceOracle, trackedSymbols, cfg.HTTPTimeout*time.Duration(len(trackedSymbols)), log)
	if err := sched.AddJob(cfg.PriceWarmSchedule, warmJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price warm job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:        log,
		Port:       cfg.Port,
		DevMode:    cfg.DevMode,
		Agent:      riskAgent,
		Volatility: volatility,
		Sentiment:  sentiment,
		Oracle:     priceOracle,
		History:    repo,
		Checks: map[string]server.HealthChecker{
			"exchange": exchangeHealth{client: primary},
			"database": db,
		},
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Stopped")
}
