// Package news converts raw feed rows into stable-identity, AI-enriched
// records ready for the news snapshot.
package news

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"time"

	"market-pulse/internal/classify"
	"market-pulse/internal/provider"
	"market-pulse/internal/types"
)

// timeLayout matches the provider's publish timestamp format; wall-clock
// fallbacks use the same layout so records stay uniform.
const timeLayout = "2006-01-02 15:04:05"

// titleFallbackRunes is how much of the body stands in for a missing title.
const titleFallbackRunes = 30

// Classifier is the enrichment dependency; satisfied by *classify.Classifier.
type Classifier interface {
	Classify(ctx context.Context, title, body string) classify.Result
}

// Pipeline enriches raw news rows into NewsRecords.
type Pipeline struct {
	classifier  Classifier
	sourceLabel string
	limit       int
	now         func() time.Time
}

// NewPipeline creates an enrichment pipeline. limit caps how many rows are
// classified per cycle to bound load on the completion service.
func NewPipeline(classifier Classifier, sourceLabel string, limit int) *Pipeline {
	return &Pipeline{
		classifier:  classifier,
		sourceLabel: sourceLabel,
		limit:       limit,
		now:         time.Now,
	}
}

// Fingerprint derives the stable identity of a news item from its title and
// publish time. Re-ingesting the same underlying event yields the same ID.
func Fingerprint(title, publishTime string) string {
	sum := md5.Sum([]byte(title + publishTime))
	return hex.EncodeToString(sum[:])
}

// Enrich converts up to limit raw rows into enriched records, preserving the
// input order (most recent first as delivered by the source). Rows with no
// title borrow a truncated body prefix; rows with no publish time get the
// current wall clock.
func (p *Pipeline) Enrich(ctx context.Context, rows []provider.NewsRow) []types.NewsRecord {
	if len(rows) > p.limit {
		rows = rows[:p.limit]
	}

	records := make([]types.NewsRecord, 0, len(rows))
	for _, row := range rows {
		title := row.Title
		if title == "" {
			title = truncateRunes(row.Content, titleFallbackRunes)
		}

		publishTime := row.PublishTime
		if publishTime == "" {
			publishTime = p.now().Format(timeLayout)
		}

		result := p.classifier.Classify(ctx, title, row.Content)

		records = append(records, types.NewsRecord{
			ID:          Fingerprint(title, publishTime),
			Title:       title,
			Content:     row.Content,
			Source:      p.sourceLabel,
			PublishTime: publishTime,
			Industry:    result.Industry,
			Score:       result.Score,
			AIReason:    result.Reason,
		})
	}
	return records
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
