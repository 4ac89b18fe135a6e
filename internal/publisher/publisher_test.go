package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hmorita/tubedigest/internal/digest"
	"github.com/hmorita/tubedigest/internal/feed"
	"github.com/hmorita/tubedigest/internal/summarize"
)

func sampleReport() *digest.Report {
	return &digest.Report{
		Date:      time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC),
		Frequency: "daily",
		Groups: []digest.GroupDigest{
			{
				Label:           "Dev Channels",
				TotalNew:        3,
				SummarizedCount: 1,
				SkippedCount:    2,
				NotShownCount:   1,
				Items: []digest.DisplayItem{
					{
						Video: feed.VideoRecord{
							VideoID:   "vid1",
							Title:     "Concurrency Patterns Explained",
							URL:       "https://www.youtube.com/watch?v=vid1",
							Published: "2026-08-30T07:00:00Z",
							Channel:   "Go Weekly",
						},
						Status: digest.StatusSummarized,
						Summary: summarize.Summary{
							OneLiner:       "A walkthrough of worker pool patterns.",
							KeyPoints:      []string{"Bounded pools", "Fan-in with channels"},
							WhoShouldWatch: "Engineers writing concurrent services.",
						},
					},
					{
						Video: feed.VideoRecord{
							VideoID:   "vid2",
							Title:     "Weekly News Roundup",
							URL:       "https://www.youtube.com/watch?v=vid2",
							Published: "2026-08-29T07:00:00Z",
							Channel:   "Tech Now",
						},
						Status: digest.StatusSkipped,
						Reason: "This video has no transcript/captions available on YouTube.",
					},
				},
			},
			{
				Label: "Quiet Group",
			},
		},
	}
}

func TestSubject(t *testing.T) {
	got := Subject(sampleReport())
	want := "Watch Digest — 2026-08-30 (3 new videos)"
	if got != want {
		t.Errorf("Subject = %q, want %q", got, want)
	}
}

func TestPlainTextContents(t *testing.T) {
	out := PlainText(sampleReport())

	for _, want := range []string{
		"Dev Channels — 3 new, 1 summarized, 2 skipped",
		"Concurrency Patterns Explained (Go Weekly)",
		"A walkthrough of worker pool patterns.",
		"- Bounded pools",
		"Who should watch: Engineers writing concurrent services.",
		"Skipped: This video has no transcript/captions available on YouTube.",
		"(+1 more not shown)",
		"No new videos in this period.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected plain text to contain %q", want)
		}
	}
}

func TestHTMLBodyContents(t *testing.T) {
	out := HTMLBody(sampleReport())

	for _, want := range []string{
		"<h2>Dev Channels</h2>",
		`<a href="https://www.youtube.com/watch?v=vid1">Concurrency Patterns Explained</a>`,
		"<li>Bounded pools</li>",
		"Skipped: This video has no transcript/captions available on YouTube.",
		"+1 more not shown",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected HTML to contain %q", want)
		}
	}
}

func TestHTMLEscapesContent(t *testing.T) {
	report := sampleReport()
	report.Groups[0].Items[0].Video.Title = `<script>alert("x")</script>`
	out := HTMLBody(report)
	if strings.Contains(out, `<script>alert`) {
		t.Error("HTML output must escape titles")
	}
}

func TestStdoutPublish(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := NewStdoutPublisher().Publish(context.Background(), sampleReport())

	w.Close()
	os.Stdout = oldStdout

	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	var buf bytes.Buffer
	io.Copy(&buf, r)
	out := buf.String()

	for _, want := range []string{
		"Watch Digest — 2026-08-30 (3 new videos)",
		"Concurrency Patterns Explained",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected stdout to contain %q", want)
		}
	}
}

func TestEmailMessageIsMultipart(t *testing.T) {
	msg := buildMessage("from@example.com", []string{"to@example.com"}, "Subject", "plain body", "<html>body</html>")

	for _, want := range []string{
		"From: from@example.com",
		"To: to@example.com",
		"Subject: Subject",
		"multipart/alternative",
		"text/plain",
		"text/html",
		"plain body",
		"<html>body</html>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q", want)
		}
	}
}

func TestDiscordPublishBatches(t *testing.T) {
	var payloads []discordWebhookPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p discordWebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		payloads = append(payloads, p)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	pub := NewDiscordPublisher(ts.URL)
	pub.retryConfig.BaseDelay = time.Millisecond
	if err := pub.Publish(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	if len(payloads) == 0 {
		t.Fatal("expected at least one webhook call")
	}
	total := 0
	for _, p := range payloads {
		if len(p.Embeds) > 10 {
			t.Errorf("batch exceeds 10 embeds: %d", len(p.Embeds))
		}
		total += len(p.Embeds)
	}
	// 2 group headers + 2 items + 1 not-shown note.
	if total != 5 {
		t.Errorf("expected 5 embeds, got %d", total)
	}
}

func TestDiscordPublishPermanentFailure(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	pub := NewDiscordPublisher(ts.URL)
	pub.retryConfig.BaseDelay = time.Millisecond
	if err := pub.Publish(context.Background(), sampleReport()); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("400 must not be retried, got %d calls", calls)
	}
}

func TestWebPublisherServesLatest(t *testing.T) {
	wp := NewWebPublisher("127.0.0.1:0")

	rec := httptest.NewRecorder()
	wp.handleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "No digest available yet") {
		t.Error("expected placeholder page before first publish")
	}

	if err := wp.Publish(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	rec = httptest.NewRecorder()
	wp.handleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "Concurrency Patterns Explained") {
		t.Error("expected latest digest to be served")
	}
}
