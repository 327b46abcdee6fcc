package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/questledger/questledger/internal/api/http"
	"github.com/questledger/questledger/internal/application/audit"
	"github.com/questledger/questledger/internal/application/ballot"
	"github.com/questledger/questledger/internal/application/lifecycle"
	"github.com/questledger/questledger/internal/application/monitor"
	"github.com/questledger/questledger/internal/application/reconcile"
	"github.com/questledger/questledger/internal/config"
	"github.com/questledger/questledger/internal/infrastructure/keystore"
	"github.com/questledger/questledger/internal/infrastructure/ledgerrpc"
	"github.com/questledger/questledger/internal/infrastructure/metrics"
	"github.com/questledger/questledger/internal/infrastructure/postgres"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, "internal/migrations"); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	questRepo := postgres.NewQuestRepository(pool)
	voteRepo := postgres.NewVoteRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)

	// infrastructure
	keyStore, err := keystore.NewFromEnv()
	if err != nil {
		log.Fatalf("keystore error: %v", err)
	}
	gateway := ledgerrpc.NewGateway(cfg.LedgerRPCURL, cfg.LedgerProgramID, cfg.LedgerTimeout, logger)
	if pc, err := gateway.FetchConfig(ctx); err != nil {
		logger.Warn().Err(err).Msg("ledger program config unavailable at startup")
	} else if pc.Paused {
		logger.Warn().Msg("ledger program is paused; submissions will be rejected until it resumes")
	}
	m := metrics.New()

	// services
	auditSvc := audit.NewService(auditRepo, logger, cfg.AuditSigningKey)
	monitorSvc := monitor.NewService(outboxRepo, questRepo, gateway, auditSvc, m, cfg.MonitorPollInterval, cfg.MonitorMaxAttempts, logger)
	lifecycleSvc := lifecycle.NewService(questRepo, voteRepo, gateway, monitorSvc, auditSvc, m, lifecycle.DefaultRetryPolicy(), logger)
	ballotSvc := ballot.NewService(voteRepo, questRepo, gateway, auditSvc, logger)
	reconcileSvc := reconcile.NewService(questRepo, voteRepo, outboxRepo, gateway, auditSvc, m, logger)

	// crash recovery before accepting traffic
	if err := monitorSvc.RecoverPending(ctx); err != nil {
		logger.Error().Err(err).Msg("pending recovery sweep failed")
	}

	// API server
	windows := httpapi.WindowDefaults{
		Draft:    cfg.DraftWindow,
		Decision: cfg.DecisionWindow,
		Answer:   cfg.AnswerWindow,
	}
	apiServer := httpapi.NewServer(lifecycleSvc, ballotSvc, reconcileSvc, auditSvc, keyStore, windows, cfg.ExposeLedgerLogs)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background loops
	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	go monitorSvc.Run(monitorCtx)

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stopMonitor()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
