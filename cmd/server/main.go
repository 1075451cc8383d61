package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cashwallet/internal/platform/config"
	"cashwallet/internal/platform/logger"
)

const statsInterval = 15 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing cashwallet",
		"environment", cfg.Environment,
		"addr", cfg.Server.Addr,
		"postgres", cfg.Database.URL != "",
		"redis", cfg.Redis.URL != "",
		"kafka", cfg.Kafka.Brokers != "",
	)

	infra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close(log)

	app, err := buildApp(cfg, infra, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	app.outbox.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := app.cleanup.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("registration cleanup: %w", err)
		}
		return nil
	})
	if app.welcome != nil {
		g.Go(func() error {
			return app.welcome.Run(gctx)
		})
	}
	g.Go(func() error {
		infra.recordStats(gctx, app.platformMetrics, statsInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		app.health.Drain()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := app.outbox.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("outbox worker: %w", err))
		}
		if app.welcome != nil {
			if err := app.welcome.Stop(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("welcome consumer: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
