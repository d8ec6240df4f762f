package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"crypto-lens/internal/domain"
)

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

// get performs a GET and returns the body of a 200 response. Every failure is
// a domain.SourceError naming source, with the status code when one was
// received.
func get(ctx context.Context, client *http.Client, limiter *RateLimiter, source, url string, header http.Header) ([]byte, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, domain.Unavailable(source, 0, fmt.Errorf("rate limit wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.Unavailable(source, 0, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.Unavailable(source, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, domain.Unavailable(source, resp.StatusCode, fmt.Errorf("%s API error %d: %s", source, resp.StatusCode, string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Unavailable(source, resp.StatusCode, err)
	}
	return body, nil
}
