package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/api"
	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/config"
	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/enrich"
	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/ingest"
	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/metrics"
	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/notify"
	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/scheduler"
	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	rules := enrich.DefaultRules()
	pipeline := enrich.NewPipeline(store, rules, log)
	alerter := enrich.NewAlerter(store, log)

	feeds := make([]ingest.Feed, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		feeds = append(feeds, ingest.Feed{Name: f.Name, URL: f.URL})
	}
	collector := ingest.New(http.DefaultClient, store, feeds, log)

	var notifier notify.Notifier
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, log)
		if err != nil {
			log.Error("create telegram notifier", "error", err)
			os.Exit(1)
		}
		notifier = tg
	}

	met := metrics.New(prometheus.DefaultRegisterer)

	sched := scheduler.New(collector, pipeline, alerter, notifier, met, log)
	sched.SetTickInterval(time.Duration(cfg.IntervalMinutes) * time.Minute)
	sched.SetBatchSize(cfg.BatchSize)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go sched.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.New(store, pipeline, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting server", "addr", cfg.HTTPAddr, "feeds", len(feeds))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
