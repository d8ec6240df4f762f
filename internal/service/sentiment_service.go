package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"crypto-lens/internal/cache"
	"crypto-lens/internal/corpus"
	"crypto-lens/internal/domain"
	"crypto-lens/internal/normalize"
	"crypto-lens/pkg/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const corpusSource = "corpus"

// LabelClassifier assigns one of the three sentiment labels to free text.
type LabelClassifier interface {
	Classify(ctx context.Context, text string) (domain.Label, error)
}

type SentimentService struct {
	tracer     trace.Tracer
	files      FileOpener
	corpus     []string
	cache      *cache.LoadOnce
	classifier LabelClassifier
	metrics    *metrics.Recorder
}

// NewSentimentService serves the labeled corpus read from files, in that
// order, and classifies free text with classifier.
func NewSentimentService(
	tracer trace.Tracer,
	files FileOpener,
	corpusFiles []string,
	c *cache.LoadOnce,
	classifier LabelClassifier,
	rec *metrics.Recorder,
) *SentimentService {
	return &SentimentService{
		tracer:     tracer,
		files:      files,
		corpus:     corpusFiles,
		cache:      c,
		classifier: classifier,
		metrics:    rec,
	}
}

// Messages returns the corpus messages matching criteria in corpus order.
func (s *SentimentService) Messages(ctx context.Context, criteria domain.FilterCriteria) ([]domain.SentimentMessage, error) {
	ctx, span := s.tracer.Start(ctx, "sentiment-service.messages")
	defer span.End()

	all, err := s.load(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	out := corpus.Filter(all, criteria)
	span.SetAttributes(attribute.Int("matched", len(out)))
	return out, nil
}

// Distribution counts labels over the messages matching criteria.
func (s *SentimentService) Distribution(ctx context.Context, criteria domain.FilterCriteria) (domain.SentimentDistribution, error) {
	messages, err := s.Messages(ctx, criteria)
	if err != nil {
		return domain.SentimentDistribution{}, err
	}
	return corpus.Aggregate(messages)
}

// Channels lists the distinct channels present in the corpus.
func (s *SentimentService) Channels(ctx context.Context) ([]string, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return corpus.Channels(all), nil
}

// Classify labels free text. There is no fallback label.
func (s *SentimentService) Classify(ctx context.Context, text string) (domain.Label, error) {
	ctx, span := s.tracer.Start(ctx, "sentiment-service.classify")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordLatency("classify", time.Since(start).Seconds()) }()

	if s.classifier == nil {
		return "", fmt.Errorf("%w: no classifier configured", domain.ErrClassificationUnavailable)
	}
	return s.classifier.Classify(ctx, text)
}

// WarmCorpus loads the corpus into the cache.
func (s *SentimentService) WarmCorpus(ctx context.Context) error {
	_, err := s.load(ctx)
	return err
}

func (s *SentimentService) load(ctx context.Context) ([]domain.SentimentMessage, error) {
	key := corpusSource + ":" + strings.Join(s.corpus, ",")
	messages, err := cache.Get(ctx, s.cache, key, func(ctx context.Context) ([]domain.SentimentMessage, error) {
		return s.read(ctx)
	})
	if err != nil {
		s.metrics.RecordSourceFailure(corpusSource)
		return nil, err
	}
	return messages, nil
}

func (s *SentimentService) read(ctx context.Context) ([]domain.SentimentMessage, error) {
	files := make([]normalize.NamedReader, 0, len(s.corpus))
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	for _, location := range s.corpus {
		rc, err := s.files.Open(ctx, corpusSource, location)
		if err != nil {
			return nil, fmt.Errorf("corpus file %s: %w", location, err)
		}
		closers = append(closers, rc)
		files = append(files, normalize.NamedReader{Name: location, Reader: rc})
	}
	return normalize.SentimentCorpus(files...)
}
