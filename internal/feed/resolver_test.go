package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestResolver(ts *httptest.Server) *Resolver {
	return &Resolver{client: ts.Client()}
}

func TestResolveEmbeddedChannelID(t *testing.T) {
	page := `<html><head><script>var ytInitialData = {"header":{},"channelId":"UCabc123DEF-_456","title":"Some Channel"};</script></head></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer ts.Close()

	id, err := newTestResolver(ts).Resolve(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if id != "UCabc123DEF-_456" {
		t.Errorf("expected embedded channel id, got %q", id)
	}
}

func TestResolveCanonicalLink(t *testing.T) {
	page := `<html><head><link rel="canonical" href="https://www.youtube.com/channel/UCxyz789"></head><body></body></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer ts.Close()

	id, err := newTestResolver(ts).Resolve(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if id != "UCxyz789" {
		t.Errorf("expected canonical channel id, got %q", id)
	}
}

func TestResolveEmbeddedTakesPrecedence(t *testing.T) {
	page := `{"channelId":"UCfirst"} <link rel="canonical" href="https://www.youtube.com/channel/UCsecond">`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer ts.Close()

	id, err := newTestResolver(ts).Resolve(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if id != "UCfirst" {
		t.Errorf("expected embedded id to win, got %q", id)
	}
}

func TestResolveNoMatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>nothing useful here</body></html>`))
	}))
	defer ts.Close()

	_, err := newTestResolver(ts).Resolve(context.Background(), ts.URL)
	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
}

func TestResolveFetchFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := newTestResolver(ts).Resolve(context.Background(), ts.URL)
	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
}
