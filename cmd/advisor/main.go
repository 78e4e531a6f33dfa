package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmorell/kalshibot/config"
	"github.com/dmorell/kalshibot/internal/adapters/cache"
	"github.com/dmorell/kalshibot/internal/adapters/kalshi"
	"github.com/dmorell/kalshibot/internal/adapters/notify"
	"github.com/dmorell/kalshibot/internal/adapters/social"
	"github.com/dmorell/kalshibot/internal/adapters/storage"
	"github.com/dmorell/kalshibot/internal/application/yolo"
	"github.com/dmorell/kalshibot/internal/performance"
	"github.com/dmorell/kalshibot/internal/ports"
	"github.com/dmorell/kalshibot/internal/recommend"
	"github.com/dmorell/kalshibot/internal/server"
	"github.com/dmorell/kalshibot/internal/strategy"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	serve := flag.Bool("serve", false, "start the HTTP API instead of a one-shot run")
	strategyName := flag.String("strategy", "", "strategy for one-shot mode (overrides config)")
	riskName := flag.String("risk", "", "risk level for one-shot mode (overrides config)")
	maxResults := flag.Int("max", 0, "max recommendations (overrides config)")
	force := flag.Bool("force-refresh", false, "skip the cache read in one-shot mode")
	demo := flag.Bool("demo", false, "use synthetic markets instead of the real API")
	simulate := flag.Int("simulate", 0, "seed the performance ledger with N records per strategy and exit")
	table := flag.Bool("table", false, "print the full table (default: compact lines)")
	quiet := flag.Bool("quiet", false, "suppress console output in one-shot mode")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if *strategyName != "" {
		cfg.Advisor.Strategy = *strategyName
	}
	if *riskName != "" {
		cfg.Advisor.RiskLevel = *riskName
	}
	if *maxResults > 0 {
		cfg.Advisor.MaxResults = *maxResults
	}

	slog.Info("kalshibot advisor starting",
		"strategy", cfg.Advisor.Strategy,
		"risk", cfg.Advisor.RiskLevel,
		"serve", *serve,
		"demo", *demo || cfg.API.Demo,
	)

	tracker, err := performance.NewTracker(cfg.Tracking.Path, slog.Default(), nil)
	if err != nil {
		slog.Error("failed to open performance ledger", "err", err, "path", cfg.Tracking.Path)
		os.Exit(1)
	}

	if *simulate > 0 {
		if err := tracker.Simulate(*simulate, time.Now().UnixNano()); err != nil {
			slog.Error("simulation failed", "err", err)
			os.Exit(1)
		}
		slog.Info("performance ledger seeded", "records_per_strategy", *simulate)
		return
	}

	var (
		provider ports.MarketProvider
		executor ports.OrderExecutor
	)
	if *demo || cfg.API.Demo {
		demoClient := kalshi.NewDemo(time.Now().UnixNano())
		provider = demoClient
		executor = kalshi.NewPaperExecutor()
	} else {
		client := kalshi.NewClient(cfg.API.BaseURL, cfg.API.Key)
		provider = client
		executor = client
	}

	feed := social.NewFeed(cfg.SentimentTTL(), time.Now().UnixNano(), slog.Default())
	fileCache := cache.NewFileCache(cfg.Advisor.CacheDir, cfg.CacheTTL(), slog.Default())
	phrases := strategy.NewPhrases(time.Now().UnixNano())

	svc := recommend.NewService(recommend.ServiceConfig{
		Markets:            provider,
		Sentiment:          feed,
		Models:             []ports.Model{recommend.NewRuleBased(phrases)},
		Cache:              fileCache,
		Recorder:           tracker,
		Phrases:            phrases,
		ArbitrageMargin:    cfg.Advisor.ArbitrageMargin,
		VolatilityBaseline: cfg.Advisor.VolBaseline,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !*serve {
		runOnce(ctx, svc, cfg, *force, *table, *quiet)
		return
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open trade storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	engine := yolo.NewEngine(svc, executor, store, slog.Default())
	defer engine.Stop(context.Background())

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(svc, tracker, feed, engine, slog.Default()).Router(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP API listening", "addr", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("HTTP server exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("kalshibot advisor stopped cleanly")
}

// runOnce ejecuta un único ciclo y lo imprime por consola.
func runOnce(ctx context.Context, svc *recommend.Service, cfg *config.Config, force, table, quiet bool) {
	set, err := svc.GetRecommendations(ctx, cfg.Advisor.Strategy, cfg.Advisor.MaxResults, cfg.Advisor.RiskLevel, force)
	if err != nil {
		slog.Error("recommendation cycle failed", "err", err)
		os.Exit(1)
	}

	var notifier ports.Notifier = notify.NewConsole(table)
	if quiet {
		notifier = notify.Silent{}
	}
	if err := notifier.Notify(ctx, set); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
