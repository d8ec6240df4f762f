package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"crypto-lens/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FileSource opens delimited exports (historical prices, sentiment corpus
// files) from the local filesystem or over HTTP(S).
type FileSource struct {
	client *http.Client
	tracer trace.Tracer
}

func NewFileSource(tracer trace.Tracer, timeout time.Duration) *FileSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FileSource{
		client: &http.Client{Timeout: timeout},
		tracer: tracer,
	}
}

// Open returns the raw export at location. Locations starting with http://
// or https:// are fetched, anything else is read from disk. Failures are
// reported as unavailability of source.
func (s *FileSource) Open(ctx context.Context, source, location string) (io.ReadCloser, error) {
	ctx, span := s.tracer.Start(ctx, "file-source.open")
	defer span.End()
	span.SetAttributes(attribute.String("source", source), attribute.String("location", location))

	if isRemote(location) {
		body, err := get(ctx, s.client, nil, source, location, http.Header{"Accept": {"text/csv, text/plain, */*"}})
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	f, err := os.Open(location)
	if err != nil {
		span.RecordError(err)
		return nil, domain.Unavailable(source, 0, err)
	}
	return f, nil
}

// Location joins base with a per-asset file name. base may be a directory or
// a URL prefix.
func Location(base, file string) string {
	if base == "" {
		return file
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(file, "/")
}

func isRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
