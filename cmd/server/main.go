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

	"github.com/canteenconnect/api/internal/config"
	"github.com/canteenconnect/api/internal/database"
	"github.com/canteenconnect/api/internal/handler"
	"github.com/canteenconnect/api/internal/invoice"
	"github.com/canteenconnect/api/internal/logging"
	"github.com/canteenconnect/api/internal/router"
	"github.com/canteenconnect/api/internal/service"
	"github.com/canteenconnect/api/internal/store"
	"github.com/canteenconnect/api/internal/ticket"
	"github.com/canteenconnect/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// backend is what both store implementations provide.
type backend interface {
	service.OrderStore
	service.Catalog
	handler.MenuStore
	ticket.CodeIndex
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Production())
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	hub := ws.NewHub(logger)
	lifecycle := service.NewOrderLifecycle(service.Deps{
		Catalog:        db,
		Store:          db,
		Tickets:        ticket.NewIssuer(db),
		Invoices:       renderer,
		Notifier:       handler.NewHubNotifier(hub, logger),
		InvoiceTimeout: cfg.InvoiceTimeout,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(cfg, router.Deps{
			Lifecycle: lifecycle,
			Menu:      db,
			Hub:       hub,
			Logger:    logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Infow("starting server", "port", cfg.Port, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (backend, func(), error) {
	if cfg.Store == config.StoreMemory {
		mem := store.NewMemory()
		n, err := store.SeedMenu(ctx, mem, store.DefaultMenu())
		if err != nil {
			return nil, nil, err
		}
		logger.Warnw("using in-memory store, data is lost on restart", "menu_items", n)
		return mem, func() {}, nil
	}

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("connected to database")
	return store.NewPostgres(pool), pool.Close, nil
}

func newRenderer(cfg *config.Config) (service.InvoiceRenderer, error) {
	if cfg.InvoiceURL != "" {
		return invoice.NewHTTPRenderer(cfg.InvoiceURL), nil
	}
	return invoice.NewTemplateRenderer("")
}
