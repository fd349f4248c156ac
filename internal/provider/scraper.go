package provider

import (
	"context"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"market-pulse/internal/logger"
)

// Selectors defines the CSS selectors used to pull news rows off a page.
type Selectors struct {
	Container   string
	Title       string
	Content     string
	PublishedAt string
}

// Scraper pulls raw news rows from a public news page. It is an alternate
// NewsSource for deployments without feed API access; the enrichment
// pipeline treats its rows exactly like the API client's.
type Scraper struct {
	url       string
	selectors Selectors
	timeout   time.Duration
}

// defaultSelectors matches the telegraph-style live news listing the
// default scrape URL serves.
func defaultSelectors() Selectors {
	return Selectors{
		Container:   "div.telegraph-item",
		Title:       "strong",
		Content:     "p",
		PublishedAt: "span.time",
	}
}

// NewScraper creates a news page scraper
func NewScraper(url string, timeout time.Duration) *Scraper {
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Scraper{
		url:       url,
		selectors: defaultSelectors(),
		timeout:   timeout,
	}
}

// News scrapes the configured page and returns rows in page order,
// most recent first.
func (s *Scraper) News(ctx context.Context, category string) ([]NewsRow, error) {
	collector := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (compatible; market-pulse/1.0)"),
	)
	collector.SetRequestTimeout(s.timeout)

	var rows []NewsRow
	collector.OnHTML(s.selectors.Container, func(e *colly.HTMLElement) {
		row := NewsRow{
			Title:       strings.TrimSpace(e.ChildText(s.selectors.Title)),
			Content:     strings.TrimSpace(e.ChildText(s.selectors.Content)),
			PublishTime: strings.TrimSpace(e.ChildText(s.selectors.PublishedAt)),
		}
		if row.Title == "" && row.Content == "" {
			return
		}
		rows = append(rows, row)
	})

	if err := collector.Visit(s.url); err != nil {
		return nil, err
	}
	collector.Wait()

	logger.Debug(ctx, "Scraped news rows", "url", s.url, "count", len(rows))
	return rows, nil
}
