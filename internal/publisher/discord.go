package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hmorita/tubedigest/internal/digest"
	"github.com/hmorita/tubedigest/internal/retry"
)

type discordEmbedFooter struct {
	Text string `json:"text"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	URL         string              `json:"url,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      *discordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// DiscordPublisher publishes reports to a Discord channel via webhook.
type DiscordPublisher struct {
	webhookURL  string
	client      *http.Client
	retryConfig retry.Config
}

func NewDiscordPublisher(webhookURL string) *DiscordPublisher {
	return &DiscordPublisher{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		retryConfig: retry.Config{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
		},
	}
}

// Publish sends the report to Discord as a series of rich embeds.
func (d *DiscordPublisher) Publish(ctx context.Context, report *digest.Report) error {
	embeds := buildEmbeds(report)
	batches := batchEmbeds(embeds)

	for i, batch := range batches {
		err := retry.WithBackoff(ctx, d.retryConfig, func(ctx context.Context) error {
			return d.sendWebhook(ctx, batch)
		})
		if err != nil {
			return fmt.Errorf("discord: failed to send batch %d: %w", i+1, err)
		}

		// Delay between batches to avoid rate limits.
		if i < len(batches)-1 {
			if err := retry.Sleep(ctx, 500*time.Millisecond); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildEmbeds creates one header embed per group plus one embed per item.
func buildEmbeds(report *digest.Report) []discordEmbed {
	var embeds []discordEmbed

	for _, group := range report.Groups {
		embeds = append(embeds, discordEmbed{
			Title: truncateEmbed(group.Label, 256),
			Description: fmt.Sprintf("%d new, %d summarized, %d skipped",
				group.TotalNew, group.SummarizedCount, group.SkippedCount),
			Color:     0x5865F2, // Discord blurple
			Footer:    &discordEmbedFooter{Text: report.Date.Format("2006-01-02")},
			Timestamp: report.Date.Format(time.RFC3339),
		})

		for _, item := range group.Items {
			e := discordEmbed{
				Title: truncateEmbed(item.Video.Title, 256),
				URL:   item.Video.URL,
				Color: 0x5865F2,
			}

			if item.Status == digest.StatusSkipped {
				e.Description = truncateEmbed("Skipped: "+item.Reason, 4096)
			} else {
				e.Description = truncateEmbed(item.Summary.OneLiner, 4096)
				if len(item.Summary.KeyPoints) > 0 {
					e.Fields = []discordEmbedField{{
						Name:  "Key Points",
						Value: truncateEmbed(formatKeyPoints(item.Summary.KeyPoints), 1024),
					}}
				}
			}

			e.Footer = &discordEmbedFooter{Text: truncateEmbed(item.Video.Channel, 2048)}
			embeds = append(embeds, e)
		}

		if group.NotShownCount > 0 {
			embeds = append(embeds, discordEmbed{
				Description: fmt.Sprintf("+%d more not shown", group.NotShownCount),
			})
		}
	}

	return embeds
}

// batchEmbeds splits embeds into batches respecting Discord limits:
// max 10 embeds per message, max 6000 total characters per message.
func batchEmbeds(embeds []discordEmbed) [][]discordEmbed {
	var batches [][]discordEmbed
	var current []discordEmbed
	currentChars := 0

	for _, e := range embeds {
		ec := embedCharCount(e)

		if len(current) > 0 && (len(current) >= 10 || currentChars+ec > 6000) {
			batches = append(batches, current)
			current = nil
			currentChars = 0
		}

		current = append(current, e)
		currentChars += ec
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}

func (d *DiscordPublisher) sendWebhook(ctx context.Context, embeds []discordEmbed) error {
	payload := discordWebhookPayload{Embeds: embeds}

	body, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if retry.TransientStatus(resp.StatusCode) {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return retry.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
}

// truncateEmbed shortens s to max characters, preferring a sentence boundary.
func truncateEmbed(s string, max int) string {
	if len(s) <= max {
		return s
	}

	cut := s[:max-1]
	if idx := strings.LastIndexAny(cut, ".!?"); idx > max/2 {
		return cut[:idx+1]
	}
	return cut + "…"
}

func formatKeyPoints(kps []string) string {
	var b strings.Builder
	for i, kp := range kps {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• ")
		b.WriteString(kp)
	}
	return b.String()
}

func embedCharCount(e discordEmbed) int {
	n := len(e.Title) + len(e.Description)
	for _, f := range e.Fields {
		n += len(f.Name) + len(f.Value)
	}
	if e.Footer != nil {
		n += len(e.Footer.Text)
	}
	return n
}
