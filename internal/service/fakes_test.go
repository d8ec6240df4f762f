package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"crypto-lens/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubFiles struct {
	mu     sync.Mutex
	files  map[string]string
	errs   map[string]error
	opened map[string]int
}

func newStubFiles(files map[string]string) *stubFiles {
	return &stubFiles{files: files, errs: map[string]error{}, opened: map[string]int{}}
}

func (s *stubFiles) Open(ctx context.Context, source, location string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened[location]++
	if err := s.errs[location]; err != nil {
		return nil, err
	}
	content, ok := s.files[location]
	if !ok {
		return nil, domain.Unavailable(source, 0, errors.New("no such file"))
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

type stubFeed struct {
	records []domain.FeedRecord
	err     error
	calls   int
}

func (s *stubFeed) Name() string { return "stubfeed" }

func (s *stubFeed) FetchDaily(ctx context.Context, asset domain.Asset, days int) ([]domain.FeedRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type stubNews struct {
	name     string
	articles []domain.NewsArticle
	err      error
	calls    int
	query    string
	category string
}

func (s *stubNews) Name() string { return s.name }

func (s *stubNews) Search(ctx context.Context, query, category string, limit int) ([]domain.NewsArticle, error) {
	s.calls++
	s.query, s.category = query, category
	if s.err != nil {
		return nil, s.err
	}
	return s.articles, nil
}

type stubClassifier struct {
	label domain.Label
	err   error
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (domain.Label, error) {
	return s.label, s.err
}

type fakeRedis struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		b, _ := json.Marshal(v)
		f.data[key] = b
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}
