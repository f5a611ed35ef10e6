package tle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(NewFetcher(5*time.Second, testLogger), server.URL+"/gp.php?CATNR=%d&FORMAT=TLE")
}

func TestClientFetchElementSet(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("CATNR")
		w.Write([]byte(issName + "\r\n" + issLine1 + "\r\n" + issLine2 + "\r\n"))
	})

	set, err := client.FetchElementSet(context.Background(), 25544)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "25544" {
		t.Errorf("CATNR query = %q, want 25544", gotQuery)
	}
	if set.CatalogNumber != 25544 || set.Line1 != issLine1 || set.Line2 != issLine2 {
		t.Errorf("unexpected set: %+v", set)
	}
}

func TestClientUnknownObject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("No GP data found\n"))
	})

	_, err := client.FetchElementSet(context.Background(), 99999)
	if !errors.Is(err, ErrMalformedElementData) {
		t.Fatalf("expected ErrMalformedElementData, got: %v", err)
	}
	if !strings.Contains(err.Error(), "No GP data found") {
		t.Errorf("expected source notice in error, got: %v", err)
	}
}

func TestClientEmptyBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("  \n"))
	})

	if _, err := client.FetchElementSet(context.Background(), 25544); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got: %v", err)
	}
}

// TestClientDoesNotValidate confirms a mismatched answer is returned as-is;
// rejecting it is the caller's decision.
func TestClientDoesNotValidate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(issName + "\n" + issLine1 + "\n" + issLine2 + "\n"))
	})

	set, err := client.FetchElementSet(context.Background(), 12345)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate(set, 12345); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got: %v", err)
	}
}

func TestClientURL(t *testing.T) {
	c := NewClient(NewFetcher(0, testLogger), "")
	want := "https://celestrak.org/NORAD/elements/gp.php?CATNR=25544&FORMAT=TLE"
	if got := c.URL(25544); got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
}
