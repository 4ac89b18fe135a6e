package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hmorita/tubedigest/internal/retry"
)

// maxTranscriptChars bounds how much transcript text is sent per request.
const maxTranscriptChars = 24000

// ErrMissingAPIKey is returned at construction when no credential is
// configured; the run cannot proceed without a summarizer.
var ErrMissingAPIKey = errors.New("summarize: api key is required")

const systemPrompt = `You are a neutral video digest writer. Given a video title, channel name, and transcript, produce a factual summary with no hype and no opinions about quality.

Respond in JSON with this exact structure:
{
  "one_liner": "one sentence stating what the video covers",
  "key_points": ["point 1", "point 2"],
  "who_should_watch": "one sentence describing the audience"
}

Respond ONLY with valid JSON, no markdown fences or additional text.`

// OpenAISummarizer calls the OpenAI chat completion API and normalizes
// whatever comes back into a well-formed Summary.
type OpenAISummarizer struct {
	client   *openai.Client
	model    string
	retryCfg retry.Config
	timeout  time.Duration
}

func NewOpenAISummarizer(apiKey, model string) (*OpenAISummarizer, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &OpenAISummarizer{
		client:   openai.NewClient(apiKey),
		model:    model,
		retryCfg: retry.Config{MaxAttempts: 2, BaseDelay: time.Second},
		timeout:  90 * time.Second,
	}, nil
}

// NewOpenAISummarizerWithClient is used by tests to point the summarizer at
// a fake endpoint.
func NewOpenAISummarizerWithClient(client *openai.Client, model string) *OpenAISummarizer {
	return &OpenAISummarizer{
		client:   client,
		model:    model,
		retryCfg: retry.Config{MaxAttempts: 2, BaseDelay: time.Millisecond},
		timeout:  90 * time.Second,
	}
}

// Summarize requests a structured summary for one video. Malformed model
// output is normalized, never an error; an error means the API itself was
// unreachable after retries.
func (s *OpenAISummarizer) Summarize(ctx context.Context, req Request) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var content string
	err := retry.WithBackoff(ctx, s.retryCfg, func(ctx context.Context) error {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
			},
		})
		if err != nil {
			return fmt.Errorf("summarize: chat completion failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return errors.New("summarize: empty completion response")
		}
		content = resp.Choices[len(resp.Choices)-1].Message.Content
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	return parseSummary(content, req.MaxBullets), nil
}

func buildPrompt(req Request) string {
	transcript := req.Transcript
	if len(transcript) > maxTranscriptChars {
		transcript = transcript[:maxTranscriptChars]
	}

	bullets := req.MaxBullets
	if bullets <= 0 {
		bullets = DefaultMaxBullets
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title: %s\n", req.Title))
	sb.WriteString(fmt.Sprintf("Channel: %s\n", req.Channel))
	sb.WriteString(fmt.Sprintf("Use at most %d key points.\n\n", bullets))
	sb.WriteString("Transcript:\n")
	sb.WriteString(transcript)
	return sb.String()
}

// parseSummary decodes the model's reply and pushes it through Normalize.
// Anything undecodable normalizes to the fallback summary.
func parseSummary(content string, maxBullets int) Summary {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var decoded any
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		return Normalize(nil, maxBullets)
	}
	return Normalize(decoded, maxBullets)
}
