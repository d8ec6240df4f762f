package job

import (
	"context"
	"time"

	"crypto-lens/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type PriceWarmer interface {
	Warm(ctx context.Context, symbol string) error
}

type CorpusWarmer interface {
	WarmCorpus(ctx context.Context) error
}

// CacheWarmer fills the load-once cache in the background so the first
// dashboard request does not pay for file reads and feed calls. After the
// initial pass it refreshes one asset per tick, round-robin, which keeps
// market-feed traffic under the provider rate limits. Refreshing only runs
// when cache entries expire (cacheTTL > 0).
type CacheWarmer struct {
	tracer   trace.Tracer
	prices   PriceWarmer
	corpus   CorpusWarmer
	symbols  []string
	interval time.Duration
	refresh  bool
}

func NewCacheWarmer(tracer trace.Tracer, prices PriceWarmer, corpus CorpusWarmer, intervalSecs int, cacheTTL time.Duration) *CacheWarmer {
	interval := time.Duration(intervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CacheWarmer{
		tracer:   tracer,
		prices:   prices,
		corpus:   corpus,
		symbols:  domain.SupportedSymbols(),
		interval: interval,
		refresh:  cacheTTL > 0,
	}
}

// Start runs the initial pass, then refreshes until ctx is cancelled. Without
// a cache TTL it returns after the initial pass.
func (w *CacheWarmer) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Bool("refresh", w.refresh).Msg("cache warmer starting")
	w.warmAll(ctx)
	if !w.refresh {
		log.Info().Msg("cache entries never expire, periodic re-warm inactive")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	next := 0
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("cache warmer stopped")
			return
		case <-ticker.C:
			w.warmSymbol(ctx, w.symbols[next%len(w.symbols)])
			next++
		}
	}
}

func (w *CacheWarmer) warmAll(ctx context.Context) {
	ctx, span := w.tracer.Start(ctx, "cache-warmer.warm-all")
	defer span.End()

	if w.corpus != nil {
		if err := w.corpus.WarmCorpus(ctx); err != nil {
			log.Warn().Err(err).Str("source", "corpus").Msg("corpus warm-up failed")
		}
	}
	for _, symbol := range w.symbols {
		if ctx.Err() != nil {
			return
		}
		w.warmSymbol(ctx, symbol)
	}
}

func (w *CacheWarmer) warmSymbol(ctx context.Context, symbol string) {
	if w.prices == nil {
		return
	}
	_, span := w.tracer.Start(ctx, "cache-warmer.warm-symbol")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	if err := w.prices.Warm(ctx, symbol); err != nil {
		span.RecordError(err)
		log.Warn().Err(err).Str("symbol", symbol).Msg("price warm-up failed")
	}
}
