package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/yn6733212/Market-Snapshot/internal/audio"
	"github.com/yn6733212/Market-Snapshot/internal/cache"
	"github.com/yn6733212/Market-Snapshot/internal/collector"
	"github.com/yn6733212/Market-Snapshot/internal/config"
	"github.com/yn6733212/Market-Snapshot/internal/delivery"
	"github.com/yn6733212/Market-Snapshot/internal/logging"
	"github.com/yn6733212/Market-Snapshot/internal/metrics"
	"github.com/yn6733212/Market-Snapshot/internal/notifier"
	"github.com/yn6733212/Market-Snapshot/internal/pipeline"
	"github.com/yn6733212/Market-Snapshot/internal/recorder"
	"github.com/yn6733212/Market-Snapshot/internal/report"
	"github.com/yn6733212/Market-Snapshot/internal/scheduler"
	"github.com/yn6733212/Market-Snapshot/internal/server"
	"github.com/yn6733212/Market-Snapshot/internal/session"
	"github.com/yn6733212/Market-Snapshot/internal/speech"
	"github.com/yn6733212/Market-Snapshot/internal/trace"
)

const (
	serviceName = "market-snapshot"
	version     = "1.0.0"
)

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.WithError(err).Error("Load config failed")
		return 1
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("Config validation failed")
		return 1
	}
	log.WithFields(logrus.Fields{"version": version, "dry_run": cfg.DryRun, "run_once": cfg.RunOnce}).Info("Market snapshot starting")

	if err := trace.Init(cfg.Log.Tracing, serviceName, version); err != nil {
		log.WithError(err).Warn("Tracing disabled")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = trace.Shutdown(ctx)
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	fetcher, closeFetcher := newFetcher(ctx, cfg, log, m)
	defer closeFetcher()
	log.WithField("source", fetcher.Name()).Info("Market data source ready")

	col := collector.NewCollector(fetcher, log)
	col.Lookback = cfg.Fetch.LookbackDays
	col.Timeout = cfg.Fetch.Timeout
	col.Metrics = m

	classifier, err := newClassifier(cfg)
	if err != nil {
		log.WithError(err).Error("Invalid market hours")
		return 1
	}
	loc, err := cfg.Location()
	if err != nil {
		log.WithError(err).Error("Invalid report timezone")
		return 1
	}
	composer := report.NewComposer(col, classifier, loc, log)

	rec := newRecorder(cfg, log)
	defer rec.Close()

	p := &pipeline.Pipeline{
		Composer:   composer,
		Synth:      speech.NewAzureSynthesizer(cfg.Speech.Region, cfg.Speech.Key, cfg.Speech.Endpoint, cfg.Speech.OutputFormat, cfg.Proxy),
		Transcoder: audio.NewFFmpegTranscoder(cfg.Audio.FFmpegPath, cfg.Audio.SampleRate),
		Uploader:   delivery.NewYemotUploader(cfg.Yemot.UploadURL, cfg.YemotToken(), cfg.Yemot.FileName, cfg.Proxy, log),
		Recorder:   rec,
		Format:     notifier.FormatRunResult,
		Metrics:    m,
		Log:        log,
		Options: pipeline.Options{
			Voice:      cfg.Speech.Voice,
			TargetPath: cfg.Yemot.TargetPath,
			SampleRate: cfg.Audio.SampleRate,
			MaxRetries: cfg.Yemot.MaxRetries,
			DryRun:     cfg.DryRun,
		},
	}

	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		p.Alerter = tn
	}

	if cfg.RunOnce {
		res := p.Run(ctx, time.Now())
		return pipeline.ExitCode(res.Status)
	}

	sched := scheduler.NewScheduler(ctx, p, rec, loc, log)
	if err := sched.RegisterAll(cfg.Schedule.ReportCron); err != nil {
		log.WithError(err).Error("Register cron tasks failed")
		return 1
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("Telegram polling started")
	}

	if cfg.Server.Addr != "" {
		srv := server.New(cfg.Server.Addr, p, rec, reg, log)
		go func() {
			if err := srv.Start(ctx); err != nil {
				log.WithError(err).Error("HTTP server failed")
				cancel()
			}
		}()
	}

	log.WithField("cron", cfg.Schedule.ReportCron).Info("Market snapshot is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info("Shutdown signal received, stopping...")
	return 0
}

// newFetcher selects the data provider and wraps it in the Redis cache when
// one is configured. A cache that cannot be reached is skipped.
func newFetcher(ctx context.Context, cfg *config.Config, log *logrus.Logger, m *metrics.Metrics) (collector.Fetcher, func()) {
	var f collector.Fetcher
	switch cfg.DataSource.Provider {
	case "rest":
		f = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		f = &collector.MockFetcher{Price: cfg.DataSource.MockPrice}
	default:
		f = collector.NewYahooFetcher(cfg.Proxy)
	}

	if cfg.Redis.URL == "" {
		return f, func() {}
	}
	client, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, fetching without cache")
		return f, func() {}
	}
	c := cache.New(f, client, cfg.Redis.TTL, log)
	c.Metrics = m
	return c, func() { _ = client.Close() }
}

func newClassifier(cfg *config.Config) (*session.Classifier, error) {
	il, err := session.ParseWindow(cfg.Markets.Israel.Timezone, cfg.Markets.Israel.Open, cfg.Markets.Israel.Close)
	if err != nil {
		return nil, fmt.Errorf("israel: %w", err)
	}
	us, err := session.ParseWindow(cfg.Markets.US.Timezone, cfg.Markets.US.Open, cfg.Markets.US.Close)
	if err != nil {
		return nil, fmt.Errorf("us: %w", err)
	}
	weekend, err := session.ParseWeekdays(cfg.Markets.US.Weekend)
	if err != nil {
		return nil, fmt.Errorf("us weekend: %w", err)
	}
	return &session.Classifier{Israel: il, US: us, Weekend: weekend}, nil
}

func newRecorder(cfg *config.Config, log *logrus.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
		log.WithError(err).Warn("Create journal directory failed, using noop recorder")
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		log.WithError(err).Warn("Init SQLite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}
