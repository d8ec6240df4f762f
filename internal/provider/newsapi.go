package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crypto-lens/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const newsAPIBaseURL = "https://newsapi.org/v2"

// NewsAPIProvider searches headlines through newsapi.org.
type NewsAPIProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *RateLimiter
}

func NewNewsAPIProvider(tracer trace.Tracer, apiKey, baseURL string, timeout time.Duration) *NewsAPIProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = newsAPIBaseURL
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &NewsAPIProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		tracer:  tracer,
		limiter: NewRateLimiter(10, 6*time.Second),
	}
}

func (p *NewsAPIProvider) Name() string { return "newsapi" }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Search returns up to limit articles for query. A non-empty category routes
// to top-headlines, which is the only endpoint that filters by category.
func (p *NewsAPIProvider) Search(ctx context.Context, query, category string, limit int) ([]domain.NewsArticle, error) {
	ctx, span := p.tracer.Start(ctx, "newsapi.search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query), attribute.String("category", category))

	if p.apiKey == "" {
		return nil, domain.Unavailable(p.Name(), 0, fmt.Errorf("api key not configured"))
	}
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(min(limit, 100)))
	endpoint := "everything"
	if strings.TrimSpace(category) != "" {
		endpoint = "top-headlines"
		params.Set("category", strings.TrimSpace(category))
	} else {
		params.Set("sortBy", "publishedAt")
	}
	if strings.TrimSpace(query) != "" {
		params.Set("q", strings.TrimSpace(query))
	}

	u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, params.Encode())
	body, err := get(ctx, p.client, p.limiter, p.Name(), u, http.Header{
		"Accept":    {"application/json"},
		"X-Api-Key": {p.apiKey},
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var raw newsAPIResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, domain.Unavailable(p.Name(), http.StatusOK, fmt.Errorf("decode news payload: %w", err))
	}
	if raw.Status != "ok" {
		return nil, domain.Unavailable(p.Name(), http.StatusOK, fmt.Errorf("newsapi %s: %s", raw.Code, raw.Message))
	}

	articles := make([]domain.NewsArticle, 0, min(limit, len(raw.Articles)))
	for _, a := range raw.Articles {
		if len(articles) >= limit {
			break
		}
		title := sanitizeText(a.Title, 300)
		if title == "" || title == "[Removed]" {
			continue
		}
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		articles = append(articles, domain.NewsArticle{
			Title:       title,
			Description: sanitizeText(a.Description, 600),
			URL:         sanitizeText(a.URL, 500),
			Source:      sanitizeText(a.Source.Name, 120),
			PublishedAt: published.UTC(),
		})
	}
	return articles, nil
}
