// Package engine holds the task bodies the scheduler drives: news
// ingestion, sentiment computation and report generation. Each task either
// completes and writes one whole snapshot, or fails and leaves the prior
// snapshot in place.
package engine

import (
	"context"
	"errors"
	"os"
	"time"

	"market-pulse/internal/logger"
	"market-pulse/internal/news"
	"market-pulse/internal/provider"
	"market-pulse/internal/sentiment"
	"market-pulse/internal/snapshot"
	"market-pulse/internal/store"
	"market-pulse/internal/trace"
	"market-pulse/internal/types"
)

// Snapshot filenames read by the dashboard.
const (
	NewsFile      = "news_data.json"
	SentimentFile = "market_sentiment.json"
	ReportsFile   = "market_reports.json"
)

// MarketData is the slice of the provider the sentiment task needs.
type MarketData interface {
	Spot(ctx context.Context) ([]provider.InstrumentRow, error)
	Indices(ctx context.Context) ([]provider.IndexRow, error)
}

// Synthesizer generates one period's report entry.
type Synthesizer interface {
	Synthesize(ctx context.Context, period string, doc *types.ReportDocument) (*types.ReportDocument, error)
}

// Engine wires the pipeline components together.
type Engine struct {
	cfg      *store.Config
	market   MarketData
	source   provider.NewsSource
	pipeline *news.Pipeline
	reducer  *sentiment.Reducer
	reports  Synthesizer
	snaps    *snapshot.Store
	now      func() time.Time
}

// New creates the engine.
func New(cfg *store.Config, market MarketData, source provider.NewsSource,
	pipeline *news.Pipeline, reducer *sentiment.Reducer, reports Synthesizer,
	snaps *snapshot.Store) *Engine {
	return &Engine{
		cfg:      cfg,
		market:   market,
		source:   source,
		pipeline: pipeline,
		reducer:  reducer,
		reports:  reports,
		snaps:    snaps,
		now:      time.Now,
	}
}

// IngestNews fetches the raw feed, enriches it and replaces the news
// snapshot. A provider failure aborts the cycle with no write, so the
// dashboard keeps reading the stale-but-valid previous snapshot.
func (e *Engine) IngestNews(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "ingest-news")
	defer span.End()

	rows, err := e.source.News(ctx, e.cfg.News.Category)
	if err != nil {
		logger.ErrorWithErr(ctx, "News fetch failed, keeping previous snapshot", err)
		return
	}

	records := e.pipeline.Enrich(ctx, rows)
	if err := e.snaps.Save(NewsFile, records); err != nil {
		logger.ErrorWithErr(ctx, "News snapshot write failed", err)
		return
	}
	logger.SnapshotWritten(ctx, NewsFile, "records", len(records))
}

// ComputeSentiment reduces the current market table into breadth counts and
// the composite score, then replaces the sentiment snapshot. A provider
// failure degrades to zero counts and a neutral score; the snapshot is
// still written so its timestamp keeps moving.
func (e *Engine) ComputeSentiment(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "compute-sentiment")
	defer span.End()

	var overview types.MarketOverview
	score := sentiment.NeutralScore

	rows, err := e.market.Spot(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Spot fetch failed, using neutral defaults", err)
	} else {
		overview = e.reducer.Reduce(rows)
		score = sentiment.Score(overview)
	}

	snap := types.SentimentSnapshot{
		UpdatedAt: e.now().Format("15:04"),
		Score:     score,
		Level:     sentiment.Level(score),
		Stats: types.BreadthStats{
			Up:        overview.UpCount,
			Down:      overview.DownCount,
			LimitUp:   overview.LimitUp,
			LimitDown: overview.LimitDown,
		},
		Indices: e.namedIndices(ctx),
	}

	if err := e.snaps.Save(SentimentFile, snap); err != nil {
		logger.ErrorWithErr(ctx, "Sentiment snapshot write failed", err)
		return
	}
	logger.SnapshotWritten(ctx, SentimentFile, "score", score, "level", snap.Level)
}

// namedIndices resolves the configured index names against the provider's
// index table. Any lookup failure yields an empty list rather than a partial
// error: missing named indices on a non-trading day are omitted, matching
// the contract the dashboard already handles.
func (e *Engine) namedIndices(ctx context.Context) []types.IndexQuote {
	table, err := e.market.Indices(ctx)
	if err != nil {
		logger.Warn(ctx, "Index fetch failed, omitting indices", "error", err)
		return []types.IndexQuote{}
	}

	byName := make(map[string]provider.IndexRow, len(table))
	for _, row := range table {
		byName[row.Name] = row
	}

	quotes := make([]types.IndexQuote, 0, len(e.cfg.Sentiment.Indices))
	for _, name := range e.cfg.Sentiment.Indices {
		row, ok := byName[name]
		if !ok {
			continue
		}
		quotes = append(quotes, types.IndexQuote{
			Name:   name,
			Price:  row.Price,
			Change: row.ChangePct,
		})
	}
	return quotes
}

// GenerateReport synthesizes one period's narrative and merges it into the
// report document via load-or-initialize, mutate one key, write whole
// document. Synthesis failure leaves the document untouched; a missing API
// key skips the period with a warning.
func (e *Engine) GenerateReport(ctx context.Context, period string) {
	ctx, span := trace.StartSpan(ctx, "generate-report")
	defer span.End()

	if e.cfg.Report.APIKey == "" {
		logger.Warn(ctx, "Report API key not configured, skipping report", "period", period)
		return
	}

	var doc *types.ReportDocument
	var existing types.ReportDocument
	if err := e.snaps.Load(ReportsFile, &existing); err == nil {
		doc = &existing
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.Warn(ctx, "Existing report unreadable, starting fresh", "error", err)
	}

	doc, err := e.reports.Synthesize(ctx, period, doc)
	if err != nil {
		logger.ErrorWithErr(ctx, "Report generation failed, no document mutation", err, "period", period)
		return
	}

	if err := e.snaps.Save(ReportsFile, doc); err != nil {
		logger.ErrorWithErr(ctx, "Report snapshot write failed", err)
		return
	}
	logger.SnapshotWritten(ctx, ReportsFile, "period", period)
}
