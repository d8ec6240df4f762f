// Package classifier wraps a pretrained sentiment model behind the fixed
// three-label interface.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crypto-lens/internal/domain"
	"crypto-lens/pkg/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMaxTokens = 512
	defaultTimeout   = 10 * time.Second
)

// Backend is a text-classification capability returning the model's raw
// label for text.
type Backend interface {
	Classify(ctx context.Context, text string) (string, error)
}

// modelLabels maps the id labels emitted by cardiffnlp/twitter-roberta-base-sentiment.
var modelLabels = map[string]domain.Label{
	"LABEL_0": domain.LabelNegative,
	"LABEL_1": domain.LabelNeutral,
	"LABEL_2": domain.LabelPositive,
}

type Adapter struct {
	tracer    trace.Tracer
	backend   Backend
	maxTokens int
	timeout   time.Duration
	metrics   *metrics.Recorder
}

func NewAdapter(tracer trace.Tracer, backend Backend, maxTokens int, timeout time.Duration, rec *metrics.Recorder) *Adapter {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Adapter{
		tracer:    tracer,
		backend:   backend,
		maxTokens: maxTokens,
		timeout:   timeout,
		metrics:   rec,
	}
}

// Classify labels text. It never substitutes a default label: every failure,
// including a timeout or a label outside the fixed set, is returned as
// ErrClassificationUnavailable.
func (a *Adapter) Classify(ctx context.Context, text string) (domain.Label, error) {
	ctx, span := a.tracer.Start(ctx, "classifier.classify")
	defer span.End()

	label, err := a.classify(ctx, text)
	if err != nil {
		span.RecordError(err)
		a.metrics.RecordClassification("unavailable")
		return "", err
	}
	span.SetAttributes(attribute.String("sentiment.label", string(label)))
	a.metrics.RecordClassification(string(label))
	return label, nil
}

func (a *Adapter) classify(ctx context.Context, text string) (domain.Label, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty text", domain.ErrClassificationUnavailable)
	}
	if a.backend == nil {
		return "", fmt.Errorf("%w: no backend configured", domain.ErrClassificationUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.backend.Classify(ctx, Truncate(text, a.maxTokens))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %w: %v", domain.ErrClassificationUnavailable, context.DeadlineExceeded, err)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrClassificationUnavailable, err)
	}

	key := strings.ToUpper(strings.TrimSpace(raw))
	if l, ok := modelLabels[key]; ok {
		return l, nil
	}
	l, err := domain.ParseLabel(raw)
	if err != nil {
		return "", fmt.Errorf("%w: backend returned %w", domain.ErrClassificationUnavailable, err)
	}
	return l, nil
}

// runesPerToken bounds the characters kept per token so unspaced text
// (CJK, URLs, emoji runs) is cut as deterministically as spaced text.
const runesPerToken = 4

// Truncate keeps the leading maxTokens whitespace-separated tokens of text,
// then at most maxTokens*runesPerToken runes of the result.
// Text within both limits is returned unchanged.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	fields := strings.Fields(text)
	if len(fields) > maxTokens {
		text = strings.Join(fields[:maxTokens], " ")
	}
	limit := maxTokens * runesPerToken
	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}
