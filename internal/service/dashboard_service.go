package service

import (
	"context"
	"strings"
	"sync"

	"crypto-lens/internal/domain"
	"crypto-lens/internal/series"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Snapshot is everything the dashboard shows for one asset. Each stage is
// filled independently; a failed stage is left nil and described in Errors.
type Snapshot struct {
	Symbol    string                        `json:"symbol"`
	Latest    *domain.PricePoint            `json:"latest,omitempty"`
	Prices    *PriceResult                  `json:"prices,omitempty"`
	News      *NewsResult                   `json:"news,omitempty"`
	Sentiment *domain.SentimentDistribution `json:"sentiment,omitempty"`
	Errors    map[string]string             `json:"errors,omitempty"`
}

type PriceReader interface {
	Series(ctx context.Context, symbol string, q domain.PriceQuery) (PriceResult, error)
}

type HeadlineReader interface {
	Headlines(ctx context.Context, query, category string) (NewsResult, error)
}

type DistributionReader interface {
	Distribution(ctx context.Context, criteria domain.FilterCriteria) (domain.SentimentDistribution, error)
}

type DashboardService struct {
	tracer    trace.Tracer
	prices    PriceReader
	news      HeadlineReader
	sentiment DistributionReader
}

func NewDashboardService(tracer trace.Tracer, prices PriceReader, news HeadlineReader, sentiment DistributionReader) *DashboardService {
	return &DashboardService{tracer: tracer, prices: prices, news: news, sentiment: sentiment}
}

// Snapshot runs the price, news and sentiment stages concurrently. Only an
// unknown symbol fails the whole call. newsQuery defaults to the asset name.
func (s *DashboardService) Snapshot(ctx context.Context, symbol, newsQuery, category string) (Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard-service.snapshot")
	defer span.End()

	asset, ok := domain.LookupAsset(symbol)
	if !ok {
		return Snapshot{}, unknownAsset(symbol)
	}
	span.SetAttributes(attribute.String("symbol", asset.Symbol))
	if strings.TrimSpace(newsQuery) == "" {
		newsQuery = asset.Name
	}

	var (
		wg        sync.WaitGroup
		priceErr  error
		newsErr   error
		sentErr   error
		prices    PriceResult
		news      NewsResult
		sentiment domain.SentimentDistribution
	)
	wg.Go(func() {
		prices, priceErr = s.prices.Series(ctx, asset.Symbol, domain.PriceQuery{})
	})
	if s.news != nil {
		wg.Go(func() {
			news, newsErr = s.news.Headlines(ctx, newsQuery, category)
		})
	}
	if s.sentiment != nil {
		wg.Go(func() {
			sentiment, sentErr = s.sentiment.Distribution(ctx, domain.FilterCriteria{})
		})
	}
	wg.Wait()

	snap := Snapshot{Symbol: asset.Symbol}
	fail := func(stage string, err error) {
		if snap.Errors == nil {
			snap.Errors = make(map[string]string)
		}
		snap.Errors[stage] = err.Error()
		span.RecordError(err)
	}

	if priceErr != nil {
		fail("prices", priceErr)
	} else {
		snap.Prices = &prices
		if latest, ok := series.Latest(prices.Points); ok {
			snap.Latest = &latest
		}
	}
	if newsErr != nil {
		fail("news", newsErr)
	} else if s.news != nil {
		snap.News = &news
	}
	if sentErr != nil {
		fail("sentiment", sentErr)
	} else if s.sentiment != nil {
		snap.Sentiment = &sentiment
	}
	return snap, nil
}
