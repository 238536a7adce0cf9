package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gyaneshwarpardhi/kycguard/internal/api"
	"github.com/gyaneshwarpardhi/kycguard/internal/config"
	"github.com/gyaneshwarpardhi/kycguard/internal/engine"
	"github.com/gyaneshwarpardhi/kycguard/internal/narrative"
	"github.com/gyaneshwarpardhi/kycguard/internal/pipeline"
	"github.com/gyaneshwarpardhi/kycguard/internal/store"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	cfgPath := flag.String("config", "configs/kyc.yaml", "Path to KYC YAML config")
	envFile := flag.String("env", ".env", "Optional dotenv file with secrets")
	debug := flag.Bool("debug", false, "Log passing rules at debug level")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		slog.Warn("dotenv not loaded", "path", *envFile, "err", err)
	}

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath, logger)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if *addr == "" {
		*addr = cfg.Server.Addr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Narrative extractor ──────────────────────────────────────────────────
	extractor, closeExtractor := narrative.FromConfig(ctx, cfg.Narrative, logger)
	defer closeExtractor()

	// ── Build initial pipeline ───────────────────────────────────────────────
	sink := pipeline.Sinks{pipeline.LogSink{Logger: logger}, pipeline.MetricsSink{}}
	build := func(c *config.Config) (*pipeline.Pipeline, error) {
		return pipeline.Compose(c, extractor, logger, pipeline.WithSink(sink))
	}
	p, err := build(cfg)
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		os.Exit(1)
	}
	slog.Info("pipeline built", "rules", p.Len(), "policies", len(cfg.Policies))

	// ── Decision store ───────────────────────────────────────────────────────
	st, closeStore, err := newStore(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to open decision store", "driver", cfg.Store.Driver, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	// ── Engine ───────────────────────────────────────────────────────────────
	eng := engine.New(ctx, p, cfg.Engine)

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		np, err := build(newCfg)
		if err != nil {
			slog.Warn("hot-reload skipped: pipeline build failed", "err", err)
			return
		}
		eng.SwapPipeline(np)
		slog.Info("pipeline hot-reloaded", "rules", np.Len())
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	handler := api.New(api.Deps{Engine: eng, Loader: loader, Store: st, Build: build, Logger: logger})
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: time.Duration(cfg.Engine.RecordTimeoutMs)*time.Millisecond + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	eng.Shutdown()
	cancel()
	slog.Info("goodbye")
}

func newStore(ctx context.Context, sc config.StoreConf) (store.Store, func(), error) {
	if sc.Driver != "postgres" {
		return store.NewMemoryStore(0), func() {}, nil
	}
	pool, err := store.NewPostgresPool(ctx, os.Getenv(sc.DSNEnv))
	if err != nil {
		return nil, nil, err
	}
	pg := store.NewPostgresStore(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pg, pool.Close, nil
}
