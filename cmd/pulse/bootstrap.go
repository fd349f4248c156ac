package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"market-pulse/internal/classify"
	"market-pulse/internal/engine"
	"market-pulse/internal/logger"
	"market-pulse/internal/news"
	"market-pulse/internal/provider"
	"market-pulse/internal/report"
	"market-pulse/internal/sched"
	"market-pulse/internal/sentiment"
	"market-pulse/internal/snapshot"
	"market-pulse/internal/store"
	"market-pulse/internal/trace"
)

// initializeSystem initializes env, logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// newsSource picks the configured ingestion path: the feed API or the
// page scraper.
func newsSource(ctx context.Context, cfg *store.Config, client *provider.Client) provider.NewsSource {
	if cfg.News.Source == "scrape" {
		logger.Info(ctx, "Using scraped news source", "url", cfg.News.ScrapeURL)
		return provider.NewScraper(cfg.News.ScrapeURL, time.Duration(cfg.Provider.TimeoutSeconds)*time.Second)
	}
	return client
}

// buildEngine constructs every pipeline component from the config
func buildEngine(ctx context.Context, cfg *store.Config) *engine.Engine {
	providerClient := provider.NewClient(provider.Params{
		BaseURL: cfg.Provider.BaseURL,
		Token:   cfg.Provider.Token,
		Timeout: time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
	})

	classifier := classify.New(classify.Params{
		BaseURL: cfg.Classify.BaseURL,
		Model:   cfg.Classify.Model,
		Timeout: time.Duration(cfg.Classify.TimeoutSeconds) * time.Second,
	})

	pipeline := news.NewPipeline(classifier, cfg.News.SourceLabel, cfg.News.Limit)
	reducer := sentiment.NewReducer(cfg.Sentiment.LimitPct)

	synthesizer := report.New(report.Params{
		BaseURL: cfg.Report.BaseURL,
		APIKey:  cfg.Report.APIKey,
		Model:   cfg.Report.Model,
	})

	snaps := snapshot.NewStore(cfg.DataDir)

	if cfg.Report.APIKey == "" {
		logger.Warn(ctx, "DEEPSEEK_API_KEY not set - report generation disabled")
	}

	return engine.New(cfg, providerClient, newsSource(ctx, cfg, providerClient),
		pipeline, reducer, synthesizer, snaps)
}

// registerTasks fills the scheduler's task table from the config
func registerTasks(ctx context.Context, s *sched.Scheduler, cfg *store.Config, eng *engine.Engine) error {
	s.AddInterval("news", time.Duration(cfg.News.IntervalMinutes)*time.Minute, eng.IngestNews)
	s.AddInterval("sentiment", time.Duration(cfg.Sentiment.IntervalMinutes)*time.Minute, eng.ComputeSentiment)

	for period, at := range cfg.Report.Times {
		if err := s.AddDaily("report-"+period, at, func(ctx context.Context) {
			eng.GenerateReport(ctx, period)
		}); err != nil {
			return err
		}
		logger.Info(ctx, "Report task registered", "period", period, "at", at)
	}
	return nil
}
