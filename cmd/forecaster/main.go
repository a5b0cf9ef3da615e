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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CoinCast/internal/accuracy"
	"CoinCast/internal/analyzer"
	"CoinCast/internal/collector"
	"CoinCast/internal/config"
	"CoinCast/internal/metrics"
	"CoinCast/internal/notifier"
	"CoinCast/internal/recorder"
	"CoinCast/internal/scheduler"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Strs("assets", cfg.Assets).Str("provider", cfg.DataSource.Provider).Msg("CoinCast starting")

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderMock:
		fetcher = &collector.MockFetcher{Price: cfg.DataSource.MockPrice}
	default:
		fetcher = collector.NewCoinGeckoFetcher(collector.CoinGeckoOptions{
			BaseURL:        cfg.DataSource.BaseURL,
			APIKey:         cfg.DataSource.APIKey,
			VsCurrency:     cfg.DataSource.VsCurrency,
			ProxyURL:       cfg.Proxy,
			RequestsPerMin: cfg.DataSource.RequestsPerMin,
		})
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	m := metrics.New()
	ev := accuracy.NewEvaluator(rec, m, time.Duration(cfg.Accuracy.WindowDays)*24*time.Hour)
	an := analyzer.New(fetcher, rec, ev, m, analyzer.Options{
		HistoryDays: cfg.Analysis.HistoryDays,
		MinBars:     cfg.Analysis.MinBars,
		Workers:     cfg.Analysis.Workers,
		Weights:     cfg.Weights,
	})

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var srv *http.Server
	if cfg.Metrics.ListenAddr != "" {
		srv = startMetricsServer(cfg.Metrics.ListenAddr, m.Handler())
	}

	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	} else {
		log.Warn().Msg("telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, an, ev, rec, sender, cfg.Assets)
	if err := sched.RegisterAll(cfg.Analysis.Cron, cfg.Accuracy.Cron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if cfg.Analysis.RunOnStart {
		log.Info().Msg("RUN_ON_START enabled, executing analysis now")
		go sched.RunAnalysisNow()
	}

	log.Info().Msg("CoinCast is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
	sched.Stop()
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("metrics server shutdown")
		}
		done()
	}
	log.Info().Msg("CoinCast stopped")
}

// setupLogging configures the global logger.
func setupLogging(level, format string) {
	if format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(lvl)
}

func startMetricsServer(addr string, handler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	return srv
}
