package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func fakeOpenAIServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func summarizerFor(ts *httptest.Server) *OpenAISummarizer {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = ts.URL + "/v1"
	return NewOpenAISummarizerWithClient(openai.NewClientWithConfig(cfg), "test-model")
}

func TestNewOpenAISummarizerRequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAISummarizer("", "m"); err != ErrMissingAPIKey {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestSummarizeParsesModelOutput(t *testing.T) {
	ts := fakeOpenAIServer(t, `{"one_liner":"A calm overview.","key_points":["a","b"],"who_should_watch":"Beginners."}`)
	defer ts.Close()

	s, err := summarizerFor(ts).Summarize(context.Background(), Request{
		Title: "Video", Channel: "Chan", Transcript: "text", MaxBullets: 5,
	})
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if s.OneLiner != "A calm overview." {
		t.Errorf("unexpected one-liner %q", s.OneLiner)
	}
	if len(s.KeyPoints) != 2 {
		t.Errorf("unexpected key points %v", s.KeyPoints)
	}
}

func TestSummarizeStripsMarkdownFences(t *testing.T) {
	ts := fakeOpenAIServer(t, "```json\n{\"one_liner\":\"Fenced.\",\"key_points\":[],\"who_should_watch\":\"All.\"}\n```")
	defer ts.Close()

	s, err := summarizerFor(ts).Summarize(context.Background(), Request{MaxBullets: 5})
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if s.OneLiner != "Fenced." {
		t.Errorf("unexpected one-liner %q", s.OneLiner)
	}
}

func TestSummarizeMalformedOutputNormalizes(t *testing.T) {
	ts := fakeOpenAIServer(t, "Sorry, I cannot help with that.")
	defer ts.Close()

	s, err := summarizerFor(ts).Summarize(context.Background(), Request{MaxBullets: 5})
	if err != nil {
		t.Fatalf("malformed model output must not be an error, got %v", err)
	}
	if s.OneLiner != FallbackOneLiner {
		t.Errorf("expected fallback one-liner, got %q", s.OneLiner)
	}
	if s.WhoShouldWatch != FallbackAudience {
		t.Errorf("expected fallback audience, got %q", s.WhoShouldWatch)
	}
}

func TestSummarizeTransportFailureIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	if _, err := summarizerFor(ts).Summarize(context.Background(), Request{}); err == nil {
		t.Fatal("expected transport-level error")
	}
}

func TestBuildPromptClipsTranscript(t *testing.T) {
	req := Request{
		Title:      "T",
		Channel:    "C",
		Transcript: strings.Repeat("x", maxTranscriptChars+5000),
		MaxBullets: 4,
	}
	prompt := buildPrompt(req)
	if len(prompt) > maxTranscriptChars+500 {
		t.Errorf("prompt not clipped: %d chars", len(prompt))
	}
	if !strings.Contains(prompt, "at most 4 key points") {
		t.Errorf("prompt missing bullet bound: %q", prompt[:200])
	}
}
