package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nekogravitycat/car-rental-backend/internal/app"
	"github.com/nekogravitycat/car-rental-backend/internal/config"
	"github.com/nekogravitycat/car-rental-backend/internal/db"
	"github.com/nekogravitycat/car-rental-backend/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	zap.ReplaceGlobals(zlog)

	os.Exit(exit(zlog, run(cfg, zlog)))
}

// exit logs how the server stopped, flushes zlog and returns the process
// exit code. os.Exit skips deferred calls, so the flush happens here.
func exit(zlog *zap.Logger, err error) int {
	code := 0
	if err != nil {
		zlog.Error("server exited with error", zap.Error(err))
		code = 1
	} else {
		zlog.Info("server exited gracefully")
	}
	_ = zlog.Sync()
	return code
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, pool, zlog); err != nil {
			return err
		}
	}

	container, err := app.NewContainer(app.Config{
		IsProduction:  cfg.IsProduction(),
		ProdOrigins:   cfg.ProdOrigins,
		DBPool:        pool,
		Logger:        zlog,
		JWTSecret:     cfg.JWTSecret,
		JWTTTL:        cfg.JWTAccessTokenTTL,
		BcryptCost:    cfg.BcryptCost,
		StoragePath:   cfg.StoragePath,
		SweepSchedule: cfg.SweepSchedule,
		SweepTimeout:  cfg.SweepTimeout,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zlog.Info("server running", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	container.Scheduler.Start()

	// Wait for a signal or a failed server, then shut both down.
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := container.Scheduler.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
