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

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/mindweave/mindweave/backend-go/internal/asset"
	"github.com/mindweave/mindweave/backend-go/internal/collab"
	"github.com/mindweave/mindweave/backend-go/internal/config"
	"github.com/mindweave/mindweave/backend-go/internal/export"
	"github.com/mindweave/mindweave/backend-go/internal/generate"
	"github.com/mindweave/mindweave/backend-go/internal/maps"
	mw "github.com/mindweave/mindweave/backend-go/internal/middleware"
	"github.com/mindweave/mindweave/backend-go/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := collab.NewHub(st, collab.HubOptions{SaveDelay: cfg.SaveDebounce, Logger: logger})

	assetHandler, err := asset.NewHandler(cfg.AssetDir, logger)
	if err != nil {
		return err
	}
	generator := generate.NewClient(cfg.GeneratorURL, cfg.GeneratorAPIKey, cfg.GeneratorTimeout)

	r := mux.NewRouter()
	r.Use(mw.Recovery(logger))
	r.Use(mw.Logger(logger))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	maps.NewHandler(maps.NewService(st)).Register(r)
	export.NewHandler(st).Register(r)
	assetHandler.Register(r)
	generate.NewHandler(generator, assetHandler, cfg.GeneratorTimeout).Register(r.PathPrefix("/api/generate").Subrouter())
	r.HandleFunc("/ws/map/{mapId}", hub.ServeWS(mw.OriginHosts(cfg.Origins())))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mw.CORS(cfg.Origins())(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore uses PostgreSQL when DATABASE_URL is set and an in-memory store
// otherwise.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, maps are kept in memory")
		return store.NewMemory(), func() {}, nil
	}
	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	pg := store.NewPostgres(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pg, pool.Close, nil
}
