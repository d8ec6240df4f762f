package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"crypto-lens/internal/cache"
	"crypto-lens/internal/domain"
	"crypto-lens/internal/normalize"
	"crypto-lens/internal/provider"
	"crypto-lens/internal/series"
	"crypto-lens/pkg/metrics"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const historicalSource = "historical"

// ErrUnknownAsset is returned for symbols outside domain.SupportedAssets.
var ErrUnknownAsset = errors.New("unsupported asset")

// FileOpener opens a delimited export by location.
type FileOpener interface {
	Open(ctx context.Context, source, location string) (io.ReadCloser, error)
}

// RecentFeed is a market-data feed returning daily bars for an asset.
type RecentFeed interface {
	Name() string
	FetchDaily(ctx context.Context, asset domain.Asset, days int) ([]domain.FeedRecord, error)
}

// PriceResult is the merged series for one asset after selection.
type PriceResult struct {
	Symbol            string        `json:"symbol"`
	Points            domain.Series `json:"points"`
	HistoricalSkipped int           `json:"historical_skipped"`
	RecentSkipped     int           `json:"recent_skipped"`
	Warnings          []string      `json:"warnings,omitempty"`
}

type PriceService struct {
	tracer     trace.Tracer
	files      FileOpener
	feed       RecentFeed
	cache      *cache.LoadOnce
	metrics    *metrics.Recorder
	dataBase   string
	recentDays int
}

func NewPriceService(
	tracer trace.Tracer,
	files FileOpener,
	feed RecentFeed,
	c *cache.LoadOnce,
	rec *metrics.Recorder,
	dataBase string,
	recentDays int,
) *PriceService {
	if recentDays <= 0 {
		recentDays = 30
	}
	return &PriceService{
		tracer:     tracer,
		files:      files,
		feed:       feed,
		cache:      c,
		metrics:    rec,
		dataBase:   dataBase,
		recentDays: recentDays,
	}
}

// Series returns the historical export merged with the recent feed for
// symbol, narrowed by q. When one source fails the other is served alone and
// the failure is reported in Warnings; the call fails only when no source
// loaded.
func (s *PriceService) Series(ctx context.Context, symbol string, q domain.PriceQuery) (PriceResult, error) {
	ctx, span := s.tracer.Start(ctx, "price-service.series")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordLatency("prices", time.Since(start).Seconds()) }()

	asset, ok := domain.LookupAsset(symbol)
	if !ok {
		return PriceResult{}, unknownAsset(symbol)
	}
	span.SetAttributes(attribute.String("symbol", asset.Symbol))

	result := PriceResult{Symbol: asset.Symbol}
	historical, histErr := s.historical(ctx, asset)
	if histErr != nil {
		span.RecordError(histErr)
		s.metrics.RecordSourceFailure(historicalSource)
	}
	result.HistoricalSkipped = historical.Skipped

	if s.feed == nil {
		if histErr != nil {
			return PriceResult{}, fmt.Errorf("historical prices for %s: %w", asset.Symbol, histErr)
		}
		result.Points = series.Select(series.Merge(historical.Points, nil), q)
		return result, nil
	}

	recent, recentErr := s.recent(ctx, asset)
	if recentErr != nil {
		span.RecordError(recentErr)
		s.metrics.RecordSourceFailure(s.feed.Name())
	}
	result.RecentSkipped = recent.Skipped

	switch {
	case histErr != nil && recentErr != nil:
		return PriceResult{}, fmt.Errorf("prices for %s: %w", asset.Symbol, errors.Join(histErr, recentErr))
	case histErr != nil:
		log.Warn().Err(histErr).Str("symbol", asset.Symbol).Str("source", historicalSource).Msg("historical prices failed, serving recent feed only")
		result.Warnings = append(result.Warnings, fmt.Sprintf("historical prices unavailable: %v", histErr))
	case recentErr != nil:
		log.Warn().Err(recentErr).Str("symbol", asset.Symbol).Str("source", s.feed.Name()).Msg("recent feed failed, serving history only")
		result.Warnings = append(result.Warnings, fmt.Sprintf("recent prices unavailable: %v", recentErr))
	}

	merged := series.Merge(historical.Points, recent.Points)
	result.Points = series.Select(merged, q)
	span.SetAttributes(attribute.Int("points", len(result.Points)))
	return result, nil
}

// Warm loads the unfiltered series for symbol into the cache.
func (s *PriceService) Warm(ctx context.Context, symbol string) error {
	_, err := s.Series(ctx, symbol, domain.PriceQuery{})
	return err
}

func (s *PriceService) historical(ctx context.Context, asset domain.Asset) (normalize.PriceLoad, error) {
	location := provider.Location(s.dataBase, asset.HistoricalFile)
	return cache.Get(ctx, s.cache, "historical:"+location, func(ctx context.Context) (normalize.PriceLoad, error) {
		rc, err := s.files.Open(ctx, historicalSource, location)
		if err != nil {
			return normalize.PriceLoad{}, err
		}
		defer rc.Close()

		load, err := normalize.PriceCSV(rc)
		if err != nil {
			return normalize.PriceLoad{}, err
		}
		s.recordSkipped(historicalSource, asset.Symbol, load.Skipped)
		return load, nil
	})
}

func (s *PriceService) recent(ctx context.Context, asset domain.Asset) (normalize.PriceLoad, error) {
	key := fmt.Sprintf("%s:%s:%d", s.feed.Name(), asset.Symbol, s.recentDays)
	return cache.Get(ctx, s.cache, key, func(ctx context.Context) (normalize.PriceLoad, error) {
		records, err := s.feed.FetchDaily(ctx, asset, s.recentDays)
		if err != nil {
			return normalize.PriceLoad{}, err
		}
		load := normalize.Feed(records)
		s.recordSkipped(s.feed.Name(), asset.Symbol, load.Skipped)
		return load, nil
	})
}

func unknownAsset(symbol string) error {
	return fmt.Errorf("%w: %q (supported: %s)", ErrUnknownAsset, symbol, strings.Join(domain.SupportedSymbols(), ", "))
}

func (s *PriceService) recordSkipped(source, symbol string, n int) {
	if n == 0 {
		return
	}
	s.metrics.RecordSkipped(source, n)
	log.Warn().Str("source", source).Str("symbol", symbol).Int("skipped", n).Msg("dropped unparseable price rows")
}
