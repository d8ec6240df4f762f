package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"crypto-lens/internal/domain"
)

const feedXML = `<?xml version="1.0"?><rss version="2.0"><channel><title>Example Feed</title>` +
	`<item><title>ETH adoption rises</title><link>https://news.example/eth</link><description><![CDATA[<p>Ethereum growth continues</p>]]></description><pubDate>Fri, 13 Feb 2026 10:00:00 +0000</pubDate></item>` +
	`<item><title>Markets calm</title><link>https://news.example/calm</link><description>nothing new</description></item>` +
	`</channel></rss>`

func TestRSSFetchFeed(t *testing.T) {
	p := NewRSSProvider(testTracer, nil, 0)
	p.client = stubClient(http.StatusOK, feedXML, nil)

	items, err := p.FetchFeed(context.Background(), "https://news.example/rss", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	item := items[0]
	if item.Source != "Example Feed" || item.URL != "https://news.example/eth" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.Description != "Ethereum growth continues" {
		t.Fatalf("expected html stripped description, got %q", item.Description)
	}
	if item.PublishedAt.IsZero() {
		t.Fatal("expected parsed publish date")
	}
}

func TestRSSSearchFiltersByKeyword(t *testing.T) {
	p := NewRSSProvider(testTracer, []string{"https://a.example/rss"}, 0)
	p.client = stubClient(http.StatusOK, feedXML, nil)

	items, err := p.Search(context.Background(), "ethereum", "ignored", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Title != "ETH adoption rises" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestRSSSearchSkipsFailingFeeds(t *testing.T) {
	p := NewRSSProvider(testTracer, []string{"https://down.example/rss", "https://up.example/rss"}, 0)
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		status, body := http.StatusOK, feedXML
		if req.URL.Host == "down.example" {
			status, body = http.StatusBadGateway, "bad gateway"
		}
		return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(body)), Header: make(http.Header)}, nil
	})}

	items, err := p.Search(context.Background(), "", "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items from the healthy feed, got %d", len(items))
	}
}

func TestRSSSearchAllFeedsDown(t *testing.T) {
	p := NewRSSProvider(testTracer, []string{"https://down.example/rss"}, 0)
	p.client = stubClient(http.StatusServiceUnavailable, "down", nil)

	if _, err := p.Search(context.Background(), "btc", "", 10); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}

	empty := NewRSSProvider(testTracer, nil, 0)
	if _, err := empty.Search(context.Background(), "btc", "", 10); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable without feeds, got %v", err)
	}
}
