package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crypto-lens/internal/domain"
	"crypto-lens/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("handler-test")

type stubPrices struct {
	result service.PriceResult
	err    error
	symbol string
	query  domain.PriceQuery
}

func (s *stubPrices) Series(ctx context.Context, symbol string, q domain.PriceQuery) (service.PriceResult, error) {
	s.symbol, s.query = symbol, q
	return s.result, s.err
}

type stubNews struct {
	result   service.NewsResult
	err      error
	query    string
	category string
}

func (s *stubNews) Headlines(ctx context.Context, query, category string) (service.NewsResult, error) {
	s.query, s.category = query, category
	return s.result, s.err
}

type stubSentiment struct {
	messages []domain.SentimentMessage
	dist     domain.SentimentDistribution
	channels []string
	label    domain.Label
	err      error
	criteria domain.FilterCriteria
	text     string
}

func (s *stubSentiment) Messages(ctx context.Context, c domain.FilterCriteria) ([]domain.SentimentMessage, error) {
	s.criteria = c
	return s.messages, s.err
}

func (s *stubSentiment) Distribution(ctx context.Context, c domain.FilterCriteria) (domain.SentimentDistribution, error) {
	s.criteria = c
	return s.dist, s.err
}

func (s *stubSentiment) Channels(ctx context.Context) ([]string, error) {
	return s.channels, s.err
}

func (s *stubSentiment) Classify(ctx context.Context, text string) (domain.Label, error) {
	s.text = text
	return s.label, s.err
}

type stubDashboard struct {
	snap service.Snapshot
	err  error
}

func (s *stubDashboard) Snapshot(ctx context.Context, symbol, newsQuery, category string) (service.Snapshot, error) {
	return s.snap, s.err
}

type fixture struct {
	prices    *stubPrices
	news      *stubNews
	sentiment *stubSentiment
	dashboard *stubDashboard
	router    *gin.Engine
}

func newFixture(apiKey string) *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		prices:    &stubPrices{},
		news:      &stubNews{},
		sentiment: &stubSentiment{},
		dashboard: &stubDashboard{},
		router:    gin.New(),
	}
	New(testTracer, f.prices, f.news, f.sentiment, f.dashboard).RegisterRoutes(f.router, apiKey)
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("parse error: %v (body %s)", err, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	f := newFixture("")
	w := f.do(http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if body != "{\"status\":\"healthy\"}\n" && body != "{\"status\":\"healthy\"}" {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestListAssets(t *testing.T) {
	f := newFixture("")
	w := f.do(http.MethodGet, "/api/assets", "")
	var body struct {
		Assets []map[string]string `json:"assets"`
	}
	decode(t, w, &body)
	if len(body.Assets) != len(domain.SupportedAssets) || body.Assets[0]["symbol"] != "BTC" {
		t.Fatalf("unexpected assets: %+v", body.Assets)
	}
	if _, leaked := body.Assets[0]["CoinGeckoID"]; leaked {
		t.Fatal("source identifiers should not be serialized")
	}
}

func TestGetPricesParsesQuery(t *testing.T) {
	f := newFixture("")
	f.prices.result = service.PriceResult{Symbol: "BTC", Points: domain.Series{
		{Timestamp: time.Date(2023, 2, 1, 10, 0, 0, 0, time.UTC), Price: decimal.RequireFromString("1234.56")},
	}}

	w := f.do(http.MethodGet, "/api/prices/btc?from=2023-02-01&to=2023-02-01&min_price=1000", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if f.prices.symbol != "BTC" {
		t.Fatalf("expected upper-cased symbol, got %s", f.prices.symbol)
	}
	q := f.prices.query
	if q.From == nil || q.To == nil || q.MinPrice == nil || q.MaxPrice != nil {
		t.Fatalf("unexpected query: %+v", q)
	}
	if !q.To.Equal(time.Date(2023, 2, 1, 23, 59, 59, 999999999, time.UTC)) {
		t.Fatalf("expected whole-day upper bound, got %s", q.To)
	}

	var body struct {
		Points []struct {
			Timestamp time.Time `json:"timestamp"`
			Price     string    `json:"price"`
		} `json:"points"`
	}
	decode(t, w, &body)
	if len(body.Points) != 1 || body.Points[0].Price != "1234.56" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestGetPricesRejectsBadQuery(t *testing.T) {
	f := newFixture("")
	for _, target := range []string{
		"/api/prices/BTC?from=yesterday",
		"/api/prices/BTC?min_price=abc",
		"/api/prices/BTC?min_price=-1",
		"/api/prices/BTC?from=2023-03-01&to=2023-02-01",
		"/api/prices/BTC?min_price=10&max_price=5",
	} {
		if w := f.do(http.MethodGet, target, ""); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, w.Code)
		}
	}
}

func TestGetPricesErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown asset", fmt.Errorf("%w: FAKE", service.ErrUnknownAsset), http.StatusBadRequest},
		{"source down", domain.Unavailable("historical", 404, errors.New("missing")), http.StatusBadGateway},
		{"source timeout", domain.Unavailable("coingecko", 0, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"schema", fmt.Errorf("historical: %w", domain.ErrSchemaMismatch), http.StatusUnprocessableEntity},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("")
			f.prices.err = tt.err
			w := f.do(http.MethodGet, "/api/prices/BTC", "")
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestGetPricesSourceNamedInError(t *testing.T) {
	f := newFixture("")
	f.prices.err = domain.Unavailable("historical", 404, errors.New("missing"))

	w := f.do(http.MethodGet, "/api/prices/BTC", "")
	var body map[string]any
	decode(t, w, &body)
	if body["source"] != "historical" {
		t.Fatalf("expected failing source in body, got %v", body)
	}
}

func TestGetNews(t *testing.T) {
	f := newFixture("")
	f.news.result = service.NewsResult{Source: "newsapi", Articles: []domain.NewsArticle{{Title: "BTC up"}}}

	w := f.do(http.MethodGet, "/api/news?q=bitcoin&category=business", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if f.news.query != "bitcoin" || f.news.category != "business" {
		t.Fatalf("unexpected forwarded params: %q %q", f.news.query, f.news.category)
	}

	if w := f.do(http.MethodGet, "/api/news?category=gossip", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", w.Code)
	}

	f.news.err = domain.Unavailable("newsapi", 401, errors.New("bad key"))
	if w := f.do(http.MethodGet, "/api/news", ""); w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestGetMessagesBindsCriteria(t *testing.T) {
	f := newFixture("")
	f.sentiment.messages = []domain.SentimentMessage{{Channel: "c1", Text: "btc up", Label: domain.LabelPositive}}

	w := f.do(http.MethodGet, "/api/sentiment/messages?channel=c1&channel=c2&label=positive&keyword=BTC", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	c := f.sentiment.criteria
	if len(c.Channels) != 2 || len(c.Labels) != 1 || c.Keyword != "BTC" {
		t.Fatalf("unexpected criteria: %+v", c)
	}
	if _, ok := c.Labels[domain.LabelPositive]; !ok {
		t.Fatalf("expected POSITIVE label facet, got %+v", c.Labels)
	}

	var body struct {
		Count    int `json:"count"`
		Messages []struct {
			Label string `json:"sentiment_label"`
		} `json:"messages"`
	}
	decode(t, w, &body)
	if body.Count != 1 || body.Messages[0].Label != "POSITIVE" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestGetMessagesRejectsUnknownLabel(t *testing.T) {
	f := newFixture("")
	if w := f.do(http.MethodGet, "/api/sentiment/messages?label=BULLISH", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetDistribution(t *testing.T) {
	f := newFixture("")
	f.sentiment.dist = domain.SentimentDistribution{Positive: 1, Negative: 1}

	w := f.do(http.MethodGet, "/api/sentiment/distribution?channel=c1", "")
	var body map[string]int
	decode(t, w, &body)
	if body["POSITIVE"] != 1 || body["NEUTRAL"] != 0 || body["NEGATIVE"] != 1 {
		t.Fatalf("unexpected distribution: %v", body)
	}

	f.sentiment.err = fmt.Errorf("corpus: %w", domain.ErrInvalidLabel)
	if w := f.do(http.MethodGet, "/api/sentiment/distribution", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for data-integrity failure, got %d", w.Code)
	}
}

func TestGetChannels(t *testing.T) {
	f := newFixture("")
	f.sentiment.channels = []string{"c1", "c2"}

	w := f.do(http.MethodGet, "/api/sentiment/channels", "")
	var body struct {
		Channels []string `json:"channels"`
	}
	decode(t, w, &body)
	if len(body.Channels) != 2 {
		t.Fatalf("unexpected channels: %v", body.Channels)
	}
}

func TestClassify(t *testing.T) {
	f := newFixture("")
	f.sentiment.label = domain.LabelNegative

	w := f.do(http.MethodPost, "/api/sentiment/classify", `{"text":"eth down"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	decode(t, w, &body)
	if body["label"] != "NEGATIVE" || f.sentiment.text != "eth down" {
		t.Fatalf("unexpected response %v for text %q", body, f.sentiment.text)
	}
}

func TestClassifyValidationAndFailures(t *testing.T) {
	f := newFixture("")
	if w := f.do(http.MethodPost, "/api/sentiment/classify", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing text, got %d", w.Code)
	}

	f.sentiment.err = fmt.Errorf("%w: backend down", domain.ErrClassificationUnavailable)
	if w := f.do(http.MethodPost, "/api/sentiment/classify", `{"text":"x"}`); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}

	f.sentiment.err = fmt.Errorf("%w: %w", domain.ErrClassificationUnavailable, context.DeadlineExceeded)
	if w := f.do(http.MethodPost, "/api/sentiment/classify", `{"text":"x"}`); w.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", w.Code)
	}
}

func TestGetDashboard(t *testing.T) {
	f := newFixture("")
	f.dashboard.snap = service.Snapshot{Symbol: "BTC", Errors: map[string]string{"news": "newsapi unavailable"}}

	w := f.do(http.MethodGet, "/api/dashboard/btc", "")
	if w.Code != http.StatusOK {
		t.Fatalf("partial snapshot should still be 200, got %d", w.Code)
	}
	var body service.Snapshot
	decode(t, w, &body)
	if body.Errors["news"] == "" {
		t.Fatalf("expected stage error in body: %s", w.Body.String())
	}

	f.dashboard.err = fmt.Errorf("%w: DOGE2", service.ErrUnknownAsset)
	w = f.do(http.MethodGet, "/api/dashboard/doge2", "")
	var errBody map[string]any
	decode(t, w, &errBody)
	if w.Code != http.StatusBadRequest || errBody["supported_symbols"] == nil {
		t.Fatalf("expected 400 with supported symbols, got %d %v", w.Code, errBody)
	}
}

func TestAPIKeyProtectsAPIGroup(t *testing.T) {
	f := newFixture("secret")

	if w := f.do(http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("health should stay public, got %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/api/assets", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/assets", nil)
	req.Header.Set("X-API-Key", "wrong")
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with wrong key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/assets", nil)
	req.Header.Set("X-API-Key", "secret")
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", w.Code)
	}
}
