package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"crypto-lens/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooProvider fetches daily bars from the Yahoo Finance chart API keyed by
// ticker.
type YahooProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

func NewYahooProvider(tracer trace.Tracer, timeout time.Duration) *YahooProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: yahooBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(30, 2*time.Second),
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily returns daily closes for the last days days. Bars with a null
// close are left out rather than zero-filled. Timestamps are Unix seconds.
func (p *YahooProvider) FetchDaily(ctx context.Context, asset domain.Asset, days int) ([]domain.FeedRecord, error) {
	ctx, span := p.tracer.Start(ctx, "yahoo.fetch-daily")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", asset.Symbol), attribute.String("ticker", asset.YahooTicker))

	u := fmt.Sprintf("%s/%s?interval=1d&range=%s", p.baseURL, url.PathEscape(asset.YahooTicker), yahooRange(days))
	body, err := get(ctx, p.client, p.limiter, p.Name(), u, http.Header{"User-Agent": {"Mozilla/5.0"}})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetch chart for %s: %w", asset.Symbol, err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode chart for %s: %w", asset.Symbol, domain.Unavailable(p.Name(), 0, err))
	}
	if chart.Chart.Error != nil {
		return nil, domain.Unavailable(p.Name(), 0, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, domain.Unavailable(p.Name(), 0, fmt.Errorf("no data returned for %s", asset.YahooTicker))
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	records := make([]domain.FeedRecord, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		records = append(records, domain.FeedRecord{
			Timestamp: strconv.FormatInt(ts, 10),
			Price:     *closes[i],
		})
	}
	if len(records) > days && days > 0 {
		records = records[len(records)-days:]
	}
	return records, nil
}

func yahooRange(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}
