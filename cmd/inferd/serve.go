package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"inferd/internal/config"
	"inferd/internal/engine"
	"inferd/internal/httpapi"
	"inferd/internal/manager"
	"inferd/internal/registry"
)

func serveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Short:   "Scan the models directory and serve the HTTP API",
		Example: "  inferd serve --models-dir ~/models/llm --addr :8080",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*cfg)
		},
	}
}

func runServe(cfg config.Config) error {
	log := newLogger(cfg.LogLevel)

	reg, err := registry.LoadDir(cfg.ModelsDir)
	if err != nil {
		return err
	}
	mgr := manager.NewWithConfig(engine.NewLlamaBackend(), manager.Config{
		Registry:         reg,
		DefaultModel:     cfg.DefaultModel,
		CtxSize:          cfg.CtxSize,
		BatchSize:        cfg.BatchSize,
		Threads:          cfg.Threads,
		GPULayers:        cfg.GPULayers,
		UseMMap:          cfg.MMap(),
		UseMLock:         cfg.UseMLock,
		DefaultMaxTokens: cfg.DefaultMaxTokens,
		StreamBuffer:     cfg.StreamBuffer,
		Logger:           log,
	})
	defer mgr.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpapi.SetLogger(log)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, cfg.CORSMethods, cfg.CORSHeaders)
	httpapi.SetBaseContext(ctx)

	// Warm the default model so /readyz reflects a serving process. A failed
	// warmup is not fatal: the first request retries the load.
	if cfg.DefaultModel != "" {
		if err := mgr.EnsureModel(cfg.DefaultModel); err != nil {
			log.Warn().Err(err).Str("model", cfg.DefaultModel).Msg("default model warmup failed")
		}
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(mgr)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Str("models_dir", cfg.ModelsDir).Int("models", len(reg)).Msg("inferd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
