package tle

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// Client fetches single-satellite element sets from a GP-style endpoint.
type Client struct {
	fetcher     *Fetcher
	urlTemplate string
}

// NewClient creates a Client. urlTemplate must contain one %d verb for the
// catalog number; an empty template uses DefaultElementURL.
func NewClient(fetcher *Fetcher, urlTemplate string) *Client {
	if urlTemplate == "" {
		urlTemplate = DefaultElementURL
	}
	return &Client{
		fetcher:     fetcher,
		urlTemplate: urlTemplate,
	}
}

// URL returns the request URL for catalog number catnr.
func (c *Client) URL(catnr int) string {
	return fmt.Sprintf(c.urlTemplate, catnr)
}

// FetchElementSet downloads and decodes the element set for catnr.
// The result is not validated against catnr; callers decide how to treat a mismatch.
func (c *Client) FetchElementSet(ctx context.Context, catnr int) (ElementSet, error) {
	body, err := c.fetcher.Fetch(ctx, c.URL(catnr))
	if err != nil {
		return ElementSet{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ElementSet{}, fmt.Errorf("%w: empty response for catalog number %d", ErrUpstreamUnavailable, catnr)
	}

	set, err := ParseElementSet(body)
	if err != nil {
		// The GP endpoint answers 200 with a one-line notice for unknown objects.
		if first := firstLine(body); first != "" && !strings.HasPrefix(first, "1 ") {
			return ElementSet{}, fmt.Errorf("catalog number %d: %w (source said %q)", catnr, err, first)
		}
		return ElementSet{}, fmt.Errorf("catalog number %d: %w", catnr, err)
	}
	return set, nil
}

func firstLine(body []byte) string {
	s := strings.TrimSpace(string(body))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}
