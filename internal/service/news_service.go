package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crypto-lens/internal/domain"
	"crypto-lens/pkg/metrics"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultNewsQuery = "cryptocurrency"

// NewsSource searches headlines by free text and optional category.
type NewsSource interface {
	Name() string
	Search(ctx context.Context, query, category string, limit int) ([]domain.NewsArticle, error)
}

type NewsResult struct {
	Source   string               `json:"source"`
	Articles []domain.NewsArticle `json:"articles"`
	Warnings []string             `json:"warnings,omitempty"`
}

type NewsService struct {
	tracer   trace.Tracer
	primary  NewsSource
	fallback NewsSource
	limit    int
	metrics  *metrics.Recorder
}

// NewNewsService wires a primary search source and an optional fallback
// consulted only when the primary is unavailable.
func NewNewsService(tracer trace.Tracer, primary, fallback NewsSource, limit int, rec *metrics.Recorder) *NewsService {
	if limit <= 0 {
		limit = 20
	}
	return &NewsService{
		tracer:   tracer,
		primary:  primary,
		fallback: fallback,
		limit:    limit,
		metrics:  rec,
	}
}

// Headlines returns articles for query. An empty query searches crypto news
// in general.
func (s *NewsService) Headlines(ctx context.Context, query, category string) (NewsResult, error) {
	ctx, span := s.tracer.Start(ctx, "news-service.headlines")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		query = defaultNewsQuery
	}
	span.SetAttributes(attribute.String("query", query), attribute.String("category", category))

	sources := make([]NewsSource, 0, 2)
	for _, src := range []NewsSource{s.primary, s.fallback} {
		if src != nil {
			sources = append(sources, src)
		}
	}
	if len(sources) == 0 {
		return NewsResult{}, domain.Unavailable("news", 0, errors.New("no news source configured"))
	}

	var (
		warnings []string
		errs     []error
	)
	for i, src := range sources {
		articles, err := src.Search(ctx, query, category, s.limit)
		if err == nil {
			return NewsResult{Source: src.Name(), Articles: articles, Warnings: warnings}, nil
		}

		s.metrics.RecordSourceFailure(src.Name())
		span.RecordError(err)
		errs = append(errs, err)
		if !errors.Is(err, domain.ErrSourceUnavailable) || i == len(sources)-1 {
			break
		}
		log.Warn().Err(err).Str("source", src.Name()).Msg("news source unavailable, trying fallback")
		warnings = append(warnings, fmt.Sprintf("%s unavailable, served from fallback", src.Name()))
	}
	return NewsResult{}, fmt.Errorf("news for %q: %w", query, errors.Join(errs...))
}
