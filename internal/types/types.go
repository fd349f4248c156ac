package types

import "encoding/json"

// NewsRecord is one enriched news item as persisted in news_data.json.
// ID is a content fingerprint over (title, publishTime) so re-ingesting the
// same event yields the same identity.
type NewsRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Source      string `json:"source"`
	PublishTime string `json:"publishTime"`
	Industry    string `json:"industry"`
	Score       int    `json:"score"` // importance, always in [0,100]
	AIReason    string `json:"aiReason"`
}

// MarketOverview aggregates breadth counts over one snapshot of the full
// instrument table. Recomputed from scratch every cycle, never persisted on
// its own.
type MarketOverview struct {
	UpCount     int
	DownCount   int
	FlatCount   int
	LimitUp     int
	LimitDown   int
	TotalAmount float64 // traded value, 100M units
	UpDownRatio float64 // UpCount / max(DownCount, 1)
}

// IndexQuote is a named index price used in the sentiment snapshot.
type IndexQuote struct {
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
}

// BreadthStats is the persisted subset of MarketOverview.
type BreadthStats struct {
	Up        int `json:"up"`
	Down      int `json:"down"`
	LimitUp   int `json:"limit_up"`
	LimitDown int `json:"limit_down"`
}

// SentimentSnapshot is the single document written to market_sentiment.json
// once per sentiment cycle.
type SentimentSnapshot struct {
	UpdatedAt string       `json:"updated_at"`
	Score     float64      `json:"score"`
	Level     string       `json:"level"`
	Stats     BreadthStats `json:"stats"`
	Indices   []IndexQuote `json:"indices"`
}

// ReportEntry is one period's narrative in the report document.
type ReportEntry struct {
	Title   string `json:"title"`
	Time    string `json:"time"`
	Content string `json:"content"`
}

// ReportDocument maps period labels ("midday", "close") to report entries.
// Date is set once when the document is created and is not touched by later
// merges the same day.
type ReportDocument struct {
	Date    string
	Entries map[string]ReportEntry
}

// MarshalJSON flattens entries so period labels sit next to "date" at the
// top level, matching the market_reports.json layout the dashboard reads.
func (d ReportDocument) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.Entries)+1)
	m["date"] = d.Date
	for period, entry := range d.Entries {
		m[period] = entry
	}
	return json.Marshal(m)
}

// UnmarshalJSON is the inverse of MarshalJSON: every top-level key other
// than "date" is treated as a period entry.
func (d *ReportDocument) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d.Entries = make(map[string]ReportEntry, len(raw))
	for key, val := range raw {
		if key == "date" {
			if err := json.Unmarshal(val, &d.Date); err != nil {
				return err
			}
			continue
		}
		var entry ReportEntry
		if err := json.Unmarshal(val, &entry); err != nil {
			return err
		}
		d.Entries[key] = entry
	}
	return nil
}

// SetEntry inserts or overwrites the entry for one period, leaving entries
// for other periods untouched.
func (d *ReportDocument) SetEntry(period string, entry ReportEntry) {
	if d.Entries == nil {
		d.Entries = make(map[string]ReportEntry, 1)
	}
	d.Entries[period] = entry
}
