package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hmorita/tubedigest/internal/retry"
)

// minTranscriptChars is the sufficiency floor: cleaned text shorter than
// this is not worth summarizing.
const minTranscriptChars = 200

const (
	maxSnippetChars = 120
	maxMessageChars = 200
)

// ErrMissingAPIKey is the one fatal fault in this package: without a
// credential no fetch can ever succeed, so construction fails instead of
// every call degrading to a Failure.
var ErrMissingAPIKey = errors.New("transcript: api key is required")

// providerResponse is the provider's wire shape. Elements of Transcripts are
// either segment objects or, as a provider idiom for "nothing available", a
// single free-text string.
type providerResponse struct {
	Transcripts []json.RawMessage `json:"transcripts"`
}

type segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Lang     string  `json:"lang"`
}

// Client fetches transcripts with bounded retry. Operational failures are
// returned as Failure values, never as errors.
type Client struct {
	provider string
	baseURL  string
	apiKey   string
	cfg      retry.Config
	limiter  *rate.Limiter
	client   *http.Client
}

// NewClient builds a transcript client. limiter may be nil to disable rate
// limiting (tests do this).
func NewClient(provider, baseURL, apiKey string, cfg retry.Config, limiter *rate.Limiter) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.MaxAttempts < 1 {
		cfg = retry.DefaultConfig()
	}
	return &Client{
		provider: provider,
		baseURL:  baseURL,
		apiKey:   apiKey,
		cfg:      cfg,
		limiter:  limiter,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Fetch acquires the transcript for videoID. Every outcome other than a
// usable transcript resolves to a Failure value; the retry budget covers
// transient HTTP statuses, network errors, and unparseable bodies.
func (c *Client) Fetch(ctx context.Context, videoID string) Result {
	var last Result
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return c.fetchFailure(err.Error())
			}
		}

		result, retryable := c.attempt(ctx, videoID)
		if result.OK() || !retryable {
			return result
		}
		last = result

		if attempt == c.cfg.MaxAttempts {
			break
		}
		if err := retry.Sleep(ctx, c.cfg.Delay(attempt)); err != nil {
			return last
		}
	}
	return last
}

// attempt performs one request and classifies the outcome. The second return
// value reports whether the remaining attempt budget should be spent on it.
func (c *Client) attempt(ctx context.Context, videoID string) (Result, bool) {
	query := url.Values{}
	query.Set("video_id", videoID)
	reqURL := fmt.Sprintf("%s?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return c.fetchFailure(err.Error()), false
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		// Network errors are treated as transient up to the attempt budget.
		return c.fetchFailure(err.Error()), true
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fetchFailure(err.Error()), true
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusFailure(resp.StatusCode, body), true
	}

	return c.classifyBody(body)
}

func (c *Client) classifyBody(body []byte) (Result, bool) {
	var pr providerResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return Result{Failure: &Failure{Kind: KindInvalidJSON, Provider: c.provider}}, true
	}

	if len(pr.Transcripts) == 0 {
		return Result{Failure: &Failure{Kind: KindNoTranscript, Provider: c.provider}}, false
	}

	// A lone string element is the provider's way of saying "no transcript".
	if len(pr.Transcripts) == 1 {
		var sentinel string
		if json.Unmarshal(pr.Transcripts[0], &sentinel) == nil {
			return Result{Failure: &Failure{Kind: KindNoTranscript, Provider: c.provider}}, false
		}
	}

	var texts []string
	var segments int
	var lang string
	for _, raw := range pr.Transcripts {
		var seg segment
		if err := json.Unmarshal(raw, &seg); err != nil {
			continue
		}
		segments++
		if seg.Text != "" {
			texts = append(texts, seg.Text)
		}
		if lang == "" && seg.Lang != "" {
			lang = seg.Lang
		}
	}

	text := cleanTranscript(strings.Join(texts, " "))
	if len(text) < minTranscriptChars {
		return Result{Failure: &Failure{Kind: KindTooShort, Provider: c.provider}}, false
	}

	return Result{Text: text, SegmentCount: segments, Language: lang}, false
}

func (c *Client) statusFailure(status int, body []byte) Result {
	snippet := ""
	// Raw HTML error pages are useless in a reason code, so those collapse
	// to just provider and status.
	if !looksLikeHTML(body) {
		snippet = truncate(strings.TrimSpace(string(body)), maxSnippetChars)
	}
	return Result{Failure: &Failure{
		Kind:     KindHTTPStatus,
		Provider: c.provider,
		Status:   status,
		Detail:   snippet,
	}}
}

func (c *Client) fetchFailure(message string) Result {
	return Result{Failure: &Failure{
		Kind:     KindFetchError,
		Provider: c.provider,
		Detail:   truncate(message, maxMessageChars),
	}}
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&#39;", "'",
	"&quot;", `"`,
	"&#34;", `"`,
	"&lt;", "<",
	"&gt;", ">",
	"&nbsp;", " ",
)

// cleanTranscript collapses all whitespace runs to single spaces and decodes
// the handful of HTML entities caption tracks actually contain.
func cleanTranscript(text string) string {
	text = entityReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

func looksLikeHTML(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	lower := strings.ToLower(trimmed)
	return strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
