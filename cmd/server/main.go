package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"pdvinova/internal/config"
	"pdvinova/internal/infra"
	"pdvinova/internal/middleware"
	"pdvinova/internal/router"
	"pdvinova/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// detachedTimeout bounds a fire-and-forget clock receipt.
const detachedTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if cfg.EvolutionAPIKey == "" {
		log.Warn().Msg("EVOLUTION_API_KEY is empty; relay calls will be unauthenticated")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.DBAutoMigrate)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Relay ────────────────────────────────────────────────────────────────
	evolution := infra.NewEvolutionClient(cfg.EvolutionURL, cfg.EvolutionAPIKey, cfg.EvolutionInstance, cfg.RelayTimeout)
	monitor := infra.NewRelayMonitor(evolution, cfg.RelayStatusMaxAge, nil)
	ticker := time.NewTicker(cfg.RelayStatusInterval)
	defer ticker.Stop()
	go monitor.Run(ctx, ticker.C)

	// ── Async ────────────────────────────────────────────────────────────────
	// E-mail copies go through the Redis pool; clock receipts run detached and
	// only leave a trace in Redis when they fail.
	mailer := infra.NewMailer(cfg)
	worker.StartWorkerPool(ctx, rdb, worker.Handlers{
		worker.JobEmail: worker.NewEmailWorker(mailer),
	}, cfg.WorkerPoolSize)

	runner := worker.NewDetachedRunner(detachedTimeout,
		worker.WithFailureLog(worker.NewRedisFailureLog(rdb)),
		worker.WithOnFailure(func(f worker.Failure) {
			log.Warn().Str("task", f.Task).Str("reason", f.Reason).Msg("clock receipt not delivered")
		}),
	)

	receipts, err := infra.NewReceiptNumbers(cfg.SnowflakeNode)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init receipt numbers")
	}

	var groq *infra.GroqClient
	if cfg.GroqAPIKey != "" {
		groq = infra.NewGroqClient(cfg.GroqAPIURL, cfg.GroqAPIKey, cfg.GroqModel, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	} else {
		log.Warn().Msg("GROQ_API_KEY is empty; assistant answers with fallbacks only")
	}

	limiter := middleware.NewRateLimiter(1000, time.Minute) // 1000 req/min per IP
	go limiter.RunPurge(ctx)

	r := router.New(cfg, router.Deps{
		DB:       db,
		Redis:    rdb,
		Relay:    evolution,
		Monitor:  monitor,
		LLM:      groq,
		Launcher: runner,
		Receipts: receipts,
		Limiter:  limiter,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("PDV InovaPro backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	cancel()
	runner.Wait()
	log.Info().Msg("server exited")
}
