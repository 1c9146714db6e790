// Command authd starts the authentication HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shopworks/storeauth/internal/config"
	"github.com/shopworks/storeauth/internal/limiter"
	"github.com/shopworks/storeauth/internal/metrics"
	"github.com/shopworks/storeauth/internal/migrate"
	"github.com/shopworks/storeauth/internal/repository/postgres"
	"github.com/shopworks/storeauth/internal/revoke"
	httpserver "github.com/shopworks/storeauth/internal/server/http"
	"github.com/shopworks/storeauth/internal/service"
	"github.com/shopworks/storeauth/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves until a signal
// arrives.
func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.ListenAddr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres connect", zap.Error(err))
	}
	defer db.Close()

	accounts := postgres.NewAccountRepo(db)
	tokens := token.NewManager([]byte(cfg.JWTSecret), cfg.AccessTTL, cfg.RefreshTTL)
	revoked := revoke.NewStore()
	lim := limiter.NewMemory(cfg.MaxLoginAttempts, cfg.LockoutWindow, cfg.LockoutDuration)

	reg := prometheus.NewRegistry()
	mtr := metrics.New(reg)
	metrics.RegisterRevocationGauge(reg, func() float64 {
		return float64(revoked.Size())
	})

	auth := service.NewAuth(accounts, tokens, revoked, lim, mtr, logger).
		WithLockPolicy(cfg.MaxLoginAttempts, cfg.LockoutDuration)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpserver.NewServer(auth, logger).Router(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				revoked.Sweep()
				lim.Sweep()
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
