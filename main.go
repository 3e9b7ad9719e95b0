package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"bookingrisk/config"
	"bookingrisk/db"
	bhttp "bookingrisk/http"
	"bookingrisk/logger"
	"bookingrisk/ml"
	"bookingrisk/monitoring"
	"bookingrisk/predictor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.NewLogger(logger.Config{}).Fatal("failed to load config", "path", *configPath, "error", err)
	}

	log := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer log.Sync()

	// 2. Metrics and model store
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(reg, "bookingrisk")

	store, err := ml.NewStore(cfg.Model.CacheSize, ml.WithLoadObserver(func(path string, took time.Duration, err error) {
		metrics.ObserveModelLoad(path, took, err)
		if err != nil {
			log.Error("model load failed", "path", path, "error", err)
			return
		}
		log.Info("model loaded", "path", path, "took", took)
	}))
	if err != nil {
		log.Fatal("failed to create model store", "error", err)
	}
	source := store.Source(cfg.Model.Path)

	// Warm the cache; a missing artifact is reported per request, not fatal.
	if _, err := source.Model(context.Background()); err != nil {
		log.Warn("model not available at startup", "path", cfg.Model.Path, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Model.Watch {
		watcher, err := ml.NewWatcher(store, log, cfg.Model.Path)
		if err != nil {
			log.Warn("model watcher disabled", "error", err)
		} else {
			defer watcher.Close()
			go watcher.Run(ctx)
		}
	}

	opts := []predictor.Option{
		predictor.WithMetrics(metrics),
		predictor.WithLogger(log.With("component", "predictor")),
	}
	handlerOpts := []bhttp.HandlerOption{bhttp.WithGatherer(reg), bhttp.WithLogger(log)}

	// 3. Optional prediction history and live feed
	if cfg.History.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
			log.Fatal("failed to create history dir", "error", err)
		}
		history, err := db.Open(cfg.History.Path)
		if err != nil {
			log.Fatal("failed to open prediction history", "path", cfg.History.Path, "error", err)
		}
		defer history.Close()
		log.Info("prediction history enabled", "path", cfg.History.Path)
		opts = append(opts, predictor.WithRecorder(history))
		handlerOpts = append(handlerOpts, bhttp.WithHistory(history))
	}
	if cfg.Http.LiveFeed {
		hub := monitoring.NewHub(log.With("component", "feed"), cfg.Http.AllowedOrigins)
		go hub.Run(ctx)
		opts = append(opts, predictor.WithRecorder(predictor.RecorderFunc(func(_ context.Context, ev predictor.Event) error {
			return hub.Publish(monitoring.PredictionServed, ev)
		})))
		handlerOpts = append(handlerOpts, bhttp.WithFeed(hub))
	}
	adapter := predictor.New(source, opts...)

	// 4. Start HTTP server
	handler := bhttp.NewHandler(adapter, handlerOpts...)
	server := bhttp.NewServer(bhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
	}, handler, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 5. Handle graceful shutdown
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}

	if err := server.Stop(); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("exiting")
}
