package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ResolutionError indicates a channel page could not be turned into a
// channel ID. Callers skip the channel; the run continues.
type ResolutionError struct {
	URL    string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("feed: failed to resolve %s: %s", e.URL, e.Reason)
}

// Resolver extracts the stable channel ID from a channel's public page. The
// page embeds the ID in two known places: a "channelId" field in the inline
// player JSON, and the canonical /channel/ link. Either one is accepted.
type Resolver struct {
	client *http.Client
}

func NewResolver() *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

// Resolve fetches pageURL and returns the channel ID found in its body.
// There is no retry; a resolution failure only costs one channel.
func (r *Resolver) Resolve(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &ResolutionError{URL: pageURL, Reason: err.Error()}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &ResolutionError{URL: pageURL, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ResolutionError{URL: pageURL, Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ResolutionError{URL: pageURL, Reason: err.Error()}
	}

	if id := extractEmbeddedChannelID(string(body)); id != "" {
		return id, nil
	}
	if id := extractCanonicalChannelID(string(body)); id != "" {
		return id, nil
	}

	return "", &ResolutionError{URL: pageURL, Reason: "no channel id found in page"}
}

// extractEmbeddedChannelID looks for the "channelId":"..." field embedded in
// the page's inline JSON.
func extractEmbeddedChannelID(body string) string {
	const marker = `"channelId":"`
	start := strings.Index(body, marker)
	if start < 0 {
		return ""
	}
	rest := body[start+len(marker):]
	end := strings.IndexByte(rest, '"')
	if end <= 0 {
		return ""
	}
	return rest[:end]
}

// extractCanonicalChannelID looks for a canonical /channel/<id> link.
func extractCanonicalChannelID(body string) string {
	const marker = `youtube.com/channel/`
	start := strings.Index(body, marker)
	if start < 0 {
		return ""
	}
	rest := body[start+len(marker):]
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !(r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})
	if end == 0 {
		return ""
	}
	if end < 0 {
		return rest
	}
	return rest[:end]
}
