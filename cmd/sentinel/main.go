package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"PipSentinel/internal/champion"
	"PipSentinel/internal/config"
	"PipSentinel/internal/notifier"
	"PipSentinel/internal/recorder"
	"PipSentinel/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] PipSentinel starting...")

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
	if err := cfg.ValidateTelegram(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init collector
	col, err := cfg.NewCollector()
	if err != nil {
		log.Fatalf("[FATAL] init collector: %v", err)
	}
	log.Printf("[INFO] data source: %s", col.Source.Name())

	// Init champion store
	store, err := champion.NewStore(cfg.StateFile)
	if err != nil {
		log.Fatalf("[FATAL] init champion store: %v", err)
	}

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init recorder
	rec := openRecorder(ctx, cfg)
	defer rec.Close()

	// Init scheduler
	opt := cfg.NewOptimizer()
	log.Printf("[INFO] grid: %d combinations", opt.Grid.Size())
	sched := scheduler.NewScheduler(ctx, col, opt, store, tn, rec)
	if err := sched.Register(cfg.Schedule.OptimizeCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	if cfg.Schedule.RunOnStart || os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] run on start enabled, optimising now")
		go sched.RunOptimizeNow()
	}

	log.Println("[INFO] PipSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] PipSentinel stopped")
}

// openRecorder prefers PostgreSQL, then SQLite, and falls back to a no-op
// recorder when neither opens.
func openRecorder(ctx context.Context, cfg *config.Config) recorder.Recorder {
	if cfg.Database.PostgresURL != "" {
		pr, err := recorder.NewPostgresRecorder(ctx, cfg.Database.PostgresURL)
		if err == nil {
			return pr
		}
		log.Printf("[WARN] init postgres recorder failed: %v", err)
	}
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err == nil {
			return sr
		}
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
	}
	return recorder.NewNoopRecorder()
}
