package tle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

// maxBodyBytes caps a single upstream response.
const maxBodyBytes = 50 << 20

const (
	// DefaultElementURL is the CelesTrak GP query for a single catalog number.
	DefaultElementURL = "https://celestrak.org/NORAD/elements/gp.php?CATNR=%d&FORMAT=TLE"

	defaultTimeout = 10 * time.Second
)

var tracer = otel.Tracer("github.com/kashacker/satellite-tracker-orbitx/internal/tle")

// Fetcher retrieves raw TLE text over HTTP with a bounded timeout.
type Fetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher whose every request is bounded by timeout.
// A non-positive timeout falls back to 10s.
func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		logger:     logger,
	}
}

// Fetch performs an HTTP GET against url and returns the body.
// Every failure, including a timeout, wraps ErrUpstreamUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "tle.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("http.url", url))

	body, err := f.fetch(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response_size", len(body)))
	return body, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrUpstreamUnavailable, err)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s timed out after %s", ErrUpstreamUnavailable, url, f.timeout)
		}
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrUpstreamUnavailable, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status code %d from %s", ErrUpstreamUnavailable, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrUpstreamUnavailable, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: response from %s exceeds %d byte limit", ErrUpstreamUnavailable, url, maxBodyBytes)
	}

	f.logger.Debug("fetched TLE data",
		"url", url,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return body, nil
}
