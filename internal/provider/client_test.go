package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newDataServer(t *testing.T, wantPath string, rows any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			t.Errorf("path = %s, want %s", r.URL.Path, wantPath)
		}
		if got := r.URL.Query().Get("token"); got != "test-token" {
			t.Errorf("token = %q, want test-token", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": rows})
	}))
}

func newTestClient(url string) *Client {
	return NewClient(Params{BaseURL: url, Token: "test-token"})
}

func TestSpot(t *testing.T) {
	srv := newDataServer(t, "/spot", []map[string]any{
		{"code": "600519", "name": "贵州茅台", "price": 1500.0, "change_pct": 1.2, "amount": 5.2e9},
	})
	defer srv.Close()

	rows, err := newTestClient(srv.URL).Spot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Code != "600519" || rows[0].ChangePct != 1.2 {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestSpotMissingFieldsDecodeToZero(t *testing.T) {
	// The provider is schema-loose: rows missing fields must still decode,
	// with downstream fallbacks covering the gaps.
	srv := newDataServer(t, "/spot", []map[string]any{
		{"code": "600000"},
	})
	defer srv.Close()

	rows, err := newTestClient(srv.URL).Spot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].ChangePct != 0 || rows[0].Amount != 0 {
		t.Errorf("missing fields should decode to zero values: %+v", rows[0])
	}
}

func TestIndices(t *testing.T) {
	srv := newDataServer(t, "/indices", []map[string]any{
		{"name": "上证指数", "price": 3250.5, "change_pct": 0.8},
		{"name": "创业板指", "price": 2100.1, "change_pct": -0.3},
	})
	defer srv.Close()

	rows, err := newTestClient(srv.URL).Indices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Name != "上证指数" || rows[1].ChangePct != -0.3 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestNewsPassesCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("category"); got != "all" {
			t.Errorf("category = %q, want all", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{
			{"title": "t", "content": "c", "publishTime": "2026-08-31 09:00:00"},
		}})
	}))
	defer srv.Close()

	rows, err := newTestClient(srv.URL).News(context.Background(), "all")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Title != "t" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestProviderErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.Spot(context.Background()); err == nil {
		t.Error("Spot should surface provider failures")
	}
	if _, err := c.News(context.Background(), "all"); err == nil {
		t.Error("News should surface provider failures")
	}
}
