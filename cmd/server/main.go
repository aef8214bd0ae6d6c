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
	"golang.org/x/sync/errgroup"

	contacthandler "contactlink/internal/contact/handler"
	"contactlink/internal/contact/service"
	"contactlink/internal/contact/store"
	httpapi "contactlink/internal/http"
	"contactlink/internal/platform/config"
	"contactlink/internal/platform/httpserver"
	"contactlink/internal/platform/logger"
	"contactlink/internal/platform/metrics"
	"contactlink/internal/platform/postgres"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in internal/contact.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var contacts service.Store
	var svcOpts []service.Option
	var health httpapi.HealthCheck

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		contacts = store.NewPostgres(db)
		svcOpts = append(svcOpts, service.WithTx(store.NewSQLTx(db)))
		health = db.PingContext
		log.Info("using postgres contact store")
	} else {
		contacts = store.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory contact store; data will not survive restarts")
	}

	svcOpts = append(svcOpts, service.WithLogger(log), service.WithMetrics(m))
	svc := service.NewService(contacts, svcOpts...)

	h := contacthandler.New(svc, log, cfg.PhoneRegion)
	router := httpapi.NewRouter(h, log, m, cfg.RequestTimeout, health)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting contactlink", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
