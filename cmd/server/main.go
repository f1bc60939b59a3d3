// @title        Sortify Conveyor Dashboard API
// @version      1.0
// @description  Session, approval and dashboard endpoints for the Sortify conveyor sorting system.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sortify/conveyor-dashboard/internal/api"
	"github.com/sortify/conveyor-dashboard/internal/api/handler"
	"github.com/sortify/conveyor-dashboard/internal/api/middleware"
	"github.com/sortify/conveyor-dashboard/internal/api/visitor"
	"github.com/sortify/conveyor-dashboard/internal/core/service"
	"github.com/sortify/conveyor-dashboard/internal/infrastructure/backend"
	mongodb "github.com/sortify/conveyor-dashboard/internal/infrastructure/db/mongo"
	redisdb "github.com/sortify/conveyor-dashboard/internal/infrastructure/db/redis"
	"github.com/sortify/conveyor-dashboard/internal/infrastructure/queue"
	"github.com/sortify/conveyor-dashboard/internal/pkg/config"
	"github.com/sortify/conveyor-dashboard/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// a missing .env is fine; the environment wins either way
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:    cfg.Log.Level,
		Pretty:   cfg.IsDevelopment(),
		File:     cfg.Log.File,
		MaxAge:   cfg.Log.MaxAge,
		Rotation: cfg.Log.Rotation,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped")
		_ = logger.Close()
		os.Exit(1)
	}
	_ = logger.Close()
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mclient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mclient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Storage ---
	accountRepo := mongodb.NewAccountRepository(db)
	identityRepo := mongodb.NewIdentityRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)
	if err := mongodb.EnsureIndexes(ctx, accountRepo, identityRepo, auditRepo); err != nil {
		return err
	}

	// --- Backend and services ---
	auth := backend.NewAuth(identityRepo, redisdb.NewSessionStore(rdb), cfg.JWTSecret, cfg.SessionTTL, log)
	directory := backend.NewDirectory(auth, accountRepo)
	accounts := service.NewAccountService(directory, auditRepo, log)
	dashboard := service.NewDashboardService(auditRepo, log)

	if err := service.EnsureAdmin(ctx, accounts, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, log); err != nil {
		return err
	}

	// --- Visitors ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.TaskWorkers, log)
	dispatcher.Start(workerCtx)

	visitors := visitor.NewRegistry(
		visitor.BackendFactory(directory, auth, redisdb.NewTokenStorage(rdb), dispatcher, log),
		cfg.VisitorIdleTTL,
		log,
	)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	sweepDone := make(chan struct{})
	go func() {
		visitors.Run(sweepCtx)
		close(sweepDone)
	}()

	e := api.NewRouter(api.Deps{
		Visitors:  visitors,
		Accounts:  accounts,
		Dashboard: dashboard,
		Probes: map[string]handler.Probe{
			"mongodb": handler.MongoProbe(db),
			"redis":   handler.RedisProbe(rdb),
		},
		Cookie: middleware.CookieConfig{Secure: cfg.CookieSecure},
		Log:    log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	// closing visitors unsubscribes their controllers before the workers stop
	stopSweep()
	<-sweepDone
	stopWorkers()
	dispatcher.Wait()

	return serveErr
}
