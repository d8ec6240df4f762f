package provider

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"crypto-lens/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RSSProvider searches a fixed list of RSS feeds by keyword. It backs the
// news stage when the primary search API is unavailable.
type RSSProvider struct {
	client *http.Client
	tracer trace.Tracer
	feeds  []string
}

func NewRSSProvider(tracer trace.Tracer, feeds []string, timeout time.Duration) *RSSProvider {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &RSSProvider{
		client: &http.Client{Timeout: timeout},
		tracer: tracer,
		feeds:  feeds,
	}
}

func (p *RSSProvider) Name() string { return "rss" }

// Search returns up to limit items across all feeds whose title or
// description contains query (case-insensitive). Category is not supported
// by RSS and is ignored. A feed that fails is skipped; the search fails only
// when every feed failed.
func (p *RSSProvider) Search(ctx context.Context, query, _ string, limit int) ([]domain.NewsArticle, error) {
	ctx, span := p.tracer.Start(ctx, "rss.search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query), attribute.Int("feeds", len(p.feeds)))

	if len(p.feeds) == 0 {
		return nil, domain.Unavailable(p.Name(), 0, fmt.Errorf("no feeds configured"))
	}
	if limit <= 0 {
		limit = 20
	}
	needle := strings.ToLower(strings.TrimSpace(query))

	var (
		out     []domain.NewsArticle
		lastErr error
		okFeeds int
	)
	for _, feedURL := range p.feeds {
		items, err := p.FetchFeed(ctx, feedURL, limit*2)
		if err != nil {
			lastErr = err
			continue
		}
		okFeeds++
		for _, item := range items {
			if needle != "" && !strings.Contains(strings.ToLower(item.Title+" "+item.Description), needle) {
				continue
			}
			out = append(out, item)
			if len(out) >= limit {
				return out, nil
			}
		}
	}
	if okFeeds == 0 {
		return nil, lastErr
	}
	if out == nil {
		out = []domain.NewsArticle{}
	}
	return out, nil
}

// FetchFeed reads up to maxItems items from one feed.
func (p *RSSProvider) FetchFeed(ctx context.Context, feedURL string, maxItems int) ([]domain.NewsArticle, error) {
	ctx, span := p.tracer.Start(ctx, "rss.fetch-feed")
	defer span.End()

	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil, domain.Unavailable(p.Name(), 0, fmt.Errorf("feed url is required"))
	}
	if maxItems <= 0 {
		maxItems = 40
	}

	body, err := get(ctx, p.client, nil, p.Name(), feedURL, http.Header{
		"Accept": {"application/rss+xml, application/xml, text/xml"},
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var rss struct {
		Channel struct {
			Title string `xml:"title"`
			Items []struct {
				Title       string `xml:"title"`
				Link        string `xml:"link"`
				Description string `xml:"description"`
				PubDate     string `xml:"pubDate"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	if err := xml.Unmarshal(body, &rss); err != nil {
		return nil, domain.Unavailable(p.Name(), http.StatusOK, fmt.Errorf("decode rss payload: %w", err))
	}

	source := sanitizeText(rss.Channel.Title, 120)
	items := make([]domain.NewsArticle, 0, min(maxItems, len(rss.Channel.Items)))
	for i, row := range rss.Channel.Items {
		if i >= maxItems {
			break
		}
		title := sanitizeText(row.Title, 300)
		if title == "" {
			continue
		}
		items = append(items, domain.NewsArticle{
			Title:       title,
			Description: sanitizeText(htmlStrip(row.Description), 600),
			URL:         sanitizeText(row.Link, 500),
			Source:      source,
			PublishedAt: parseRSSDate(row.PubDate),
		})
	}
	return items, nil
}

func parseRSSDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC3339}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func htmlStrip(in string) string {
	if strings.TrimSpace(in) == "" {
		return ""
	}
	var b strings.Builder
	inside := false
	for _, r := range in {
		switch r {
		case '<':
			inside = true
			continue
		case '>':
			inside = false
			continue
		}
		if !inside {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sanitizeText collapses whitespace and caps the result at maxLen runes.
func sanitizeText(in string, maxLen int) string {
	in = strings.Join(strings.Fields(in), " ")
	if maxLen > 0 {
		if r := []rune(in); len(r) > maxLen {
			in = string(r[:maxLen])
		}
	}
	return in
}
