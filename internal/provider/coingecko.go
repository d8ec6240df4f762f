package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"crypto-lens/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches daily closes from the CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a provider limited to 8 requests per minute
// (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer, timeout time.Duration) *CoinGeckoProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

func (p *CoinGeckoProvider) Name() string { return "coingecko" }

// FetchDaily returns one record per day for the last days days. Timestamps
// are Unix milliseconds as sent by the API.
func (p *CoinGeckoProvider) FetchDaily(ctx context.Context, asset domain.Asset, days int) ([]domain.FeedRecord, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-daily")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", asset.Symbol), attribute.Int("days", days))

	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily",
		p.baseURL, asset.CoinGeckoID, days)

	body, err := get(ctx, p.client, p.limiter, p.Name(), url, http.Header{"Accept": {"application/json"}})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetch market chart for %s: %w", asset.Symbol, err)
	}

	// Response shape: {"prices": [[1709596800000, 67000.12], ...], ...}
	var raw struct {
		Prices [][]float64 `json:"prices"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse market chart for %s: %w", asset.Symbol, domain.Unavailable(p.Name(), 0, err))
	}

	records := make([]domain.FeedRecord, 0, len(raw.Prices))
	for _, pt := range raw.Prices {
		if len(pt) < 2 {
			continue
		}
		records = append(records, domain.FeedRecord{
			Timestamp: strconv.FormatInt(int64(pt[0]), 10),
			Price:     pt[1],
		})
	}
	return records, nil
}
