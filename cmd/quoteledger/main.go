package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"QuoteLedger/internal/collector"
	"QuoteLedger/internal/config"
	"QuoteLedger/internal/credentials"
	"QuoteLedger/internal/job"
	"QuoteLedger/internal/notifier"
	"QuoteLedger/internal/recorder"
	"QuoteLedger/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] QuoteLedger starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := build(ctx, cfg, credentials.NewResolver(cfg.CredentialsConfig()))
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	a.sched.Start()

	if cfg.Schedule.RunOnStart {
		log.Println("[INFO] RUN_ON_START enabled, executing capture now")
		if err := a.sched.Trigger(); err != nil {
			log.Printf("[WARN] run on start: %v", err)
		}
	}

	log.Printf("[INFO] QuoteLedger is running, next firing at %s. Press Ctrl+C to stop.", a.sched.Next().Format(time.RFC3339))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	a.shutdown()
	log.Println("[INFO] QuoteLedger stopped")
}

// app is the wired process: a registered but not yet started scheduler and
// the store it writes to.
type app struct {
	sched *scheduler.Scheduler
	rec   recorder.Recorder
}

// build wires every dependency in order and registers the capture job. The
// API key is resolved first, so a missing key opens nothing and schedules
// nothing.
func build(ctx context.Context, cfg *config.Config, resolver *credentials.Resolver) (*app, error) {
	apiKey, origin, err := resolver.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve api key: %w", err)
	}
	log.Printf("[INFO] api key resolved: source=%s", origin)

	fetcher := collector.NewFinnhubFetcher(cfg.DataSource.BaseURL, apiKey, cfg.Proxy, cfg.DataSource.QuoteTimeout)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	openCtx, openCancel := context.WithTimeout(ctx, 30*time.Second)
	rec, err := recorder.Open(openCtx, cfg.Storage.Driver, cfg.Storage.DSN, cfg.Storage.Table)
	openCancel()
	if err != nil {
		return nil, fmt.Errorf("open %s recorder: %w", cfg.Storage.Driver, err)
	}

	opts := job.Options{
		Symbol:       cfg.DataSource.Symbol,
		PartitionKey: cfg.Storage.PartitionKey,
		QuoteTimeout: cfg.DataSource.QuoteTimeout,
		StoreTimeout: cfg.Storage.StoreTimeout,
	}
	if cfg.Telegram.BotToken != "" {
		opts.Alerter = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		log.Println("[INFO] telegram failure alerts enabled")
	}
	capture, err := job.New(fetcher, rec, opts)
	if err != nil {
		rec.Close()
		return nil, fmt.Errorf("init capture job: %w", err)
	}

	sched := scheduler.NewScheduler(ctx, capture)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		rec.Close()
		return nil, fmt.Errorf("register cron task: %w", err)
	}
	return &app{sched: sched, rec: rec}, nil
}

// shutdown waits for in-flight firings before closing the store.
func (a *app) shutdown() {
	a.sched.Stop()
	if err := a.rec.Close(); err != nil {
		log.Printf("[WARN] close recorder: %v", err)
	}
}
