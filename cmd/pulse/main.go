package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"market-pulse/internal/logger"
	"market-pulse/internal/sched"
	"market-pulse/internal/store"
	"market-pulse/internal/trace"
)

func main() {
	if err := initializeSystem(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer func() { _ = trace.Shutdown(context.Background()) }()

	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		os.Exit(1)
	}

	eng := buildEngine(ctx, cfg)

	scheduler := sched.New()
	if err := registerTasks(ctx, scheduler, cfg, eng); err != nil {
		logger.ErrorWithErr(ctx, "Failed to register tasks", err)
		os.Exit(1)
	}

	// First cycle runs immediately so the dashboard has data right after
	// startup; subsequent runs follow the task table.
	eng.IngestNews(ctx)
	eng.ComputeSentiment(ctx)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		logger.Info(ctx, "Shutting down...")
		cancel()
	}()

	logger.Info(ctx, "Pipeline started", "data_dir", cfg.DataDir)
	scheduler.Run(ctx)
}
