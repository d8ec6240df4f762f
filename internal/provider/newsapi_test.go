package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"crypto-lens/internal/domain"
)

func TestNewsAPISearchWithCategoryUsesTopHeadlines(t *testing.T) {
	p := NewNewsAPIProvider(testTracer, "key", "", 0)
	var req http.Request
	p.client = stubClient(http.StatusOK, `{"status":"ok","articles":[
		{"source":{"name":"Wire"},"title":"Bitcoin  rallies","description":"BTC up","url":"https://n.example/1","publishedAt":"2024-03-05T10:00:00Z"},
		{"source":{"name":"Wire"},"title":"[Removed]","description":"","url":"","publishedAt":""}
	]}`, &req)

	articles, err := p.Search(context.Background(), "bitcoin", "business", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Title != "Bitcoin rallies" || articles[0].Description != "BTC up" || articles[0].Source != "Wire" {
		t.Fatalf("unexpected article: %+v", articles[0])
	}
	if !strings.HasSuffix(req.URL.Path, "/top-headlines") || req.URL.Query().Get("category") != "business" {
		t.Fatalf("unexpected request: %s", req.URL.String())
	}
	if req.Header.Get("X-Api-Key") != "key" {
		t.Fatalf("expected api key header")
	}
}

func TestNewsAPISearchWithoutCategoryUsesEverything(t *testing.T) {
	p := NewNewsAPIProvider(testTracer, "key", "https://proxy.example/v2/", 0)
	var req http.Request
	p.client = stubClient(http.StatusOK, `{"status":"ok","articles":[]}`, &req)

	articles, err := p.Search(context.Background(), "eth", "", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if articles == nil || len(articles) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", articles)
	}
	if req.URL.Host != "proxy.example" || !strings.HasSuffix(req.URL.Path, "/everything") {
		t.Fatalf("unexpected request: %s", req.URL.String())
	}
}

func TestNewsAPINon200CarriesStatus(t *testing.T) {
	p := NewNewsAPIProvider(testTracer, "key", "", 0)
	p.client = stubClient(http.StatusUnauthorized, `{"status":"error","code":"apiKeyInvalid"}`, nil)

	_, err := p.Search(context.Background(), "btc", "", 5)
	var srcErr *domain.SourceError
	if !errors.As(err, &srcErr) || srcErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected source error with status 401, got %v", err)
	}
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestNewsAPIRequiresKey(t *testing.T) {
	p := NewNewsAPIProvider(testTracer, "", "", 0)
	if _, err := p.Search(context.Background(), "btc", "", 5); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}
