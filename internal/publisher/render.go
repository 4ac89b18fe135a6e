package publisher

import (
	"fmt"
	"strings"

	"github.com/hmorita/tubedigest/internal/digest"
)

// Subject builds the mail subject line for a report.
func Subject(report *digest.Report) string {
	return fmt.Sprintf("Watch Digest — %s (%d new videos)",
		report.Date.Format("2006-01-02"), report.TotalVideos())
}

// PlainText renders the report as plain text, one section per group.
func PlainText(report *digest.Report) string {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 72))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Watch Digest (%s)\n", report.Frequency))
	sb.WriteString(fmt.Sprintf("Date: %s\n", report.Date.Format("2006-01-02 15:04")))
	sb.WriteString(strings.Repeat("=", 72))
	sb.WriteString("\n\n")

	for _, group := range report.Groups {
		sb.WriteString(fmt.Sprintf("%s — %d new, %d summarized, %d skipped\n",
			group.Label, group.TotalNew, group.SummarizedCount, group.SkippedCount))
		sb.WriteString(strings.Repeat("-", 72))
		sb.WriteString("\n")

		if group.TotalNew == 0 {
			sb.WriteString("No new videos in this period.\n\n")
			continue
		}

		for i, item := range group.Items {
			sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, item.Video.Title, item.Video.Channel))
			sb.WriteString(fmt.Sprintf("   %s\n", item.Video.URL))

			if item.Status == digest.StatusSkipped {
				sb.WriteString(fmt.Sprintf("   Skipped: %s\n\n", item.Reason))
				continue
			}

			sb.WriteString(fmt.Sprintf("   %s\n", item.Summary.OneLiner))
			for _, kp := range item.Summary.KeyPoints {
				sb.WriteString(fmt.Sprintf("   - %s\n", kp))
			}
			sb.WriteString(fmt.Sprintf("   Who should watch: %s\n\n", item.Summary.WhoShouldWatch))
		}

		if group.NotShownCount > 0 {
			sb.WriteString(fmt.Sprintf("(+%d more not shown)\n", group.NotShownCount))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Repeat("=", 72))
	sb.WriteString("\n")
	return sb.String()
}

// HTMLBody renders the report as a self-contained HTML document.
func HTMLBody(report *digest.Report) string {
	var sb strings.Builder

	sb.WriteString(`<!DOCTYPE html><html><head><style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 700px; margin: 0 auto; padding: 20px; color: #333; }
h1 { color: #1a1a2e; border-bottom: 2px solid #e94560; padding-bottom: 10px; }
h2 { color: #16213e; }
.counts { color: #666; font-size: 0.9em; margin-bottom: 15px; }
.video { border: 1px solid #ddd; border-radius: 8px; padding: 15px; margin-bottom: 15px; }
.video h3 { margin-top: 0; color: #0f3460; }
.meta { color: #666; font-size: 0.9em; margin-bottom: 10px; }
.skipped { color: #8a6d3b; background: #fcf8e3; padding: 8px; border-radius: 6px; }
.key-points li { margin-bottom: 5px; }
.audience { font-style: italic; color: #555; }
.not-shown { color: #888; font-size: 0.9em; }
</style></head><body>`)

	sb.WriteString("<h1>Watch Digest</h1>")
	sb.WriteString(fmt.Sprintf("<p><em>%s</em></p>", report.Date.Format("January 2, 2006")))

	for _, group := range report.Groups {
		sb.WriteString(fmt.Sprintf("<h2>%s</h2>", htmlEscape(group.Label)))
		sb.WriteString(fmt.Sprintf(`<div class="counts">%d new · %d summarized · %d skipped</div>`,
			group.TotalNew, group.SummarizedCount, group.SkippedCount))

		if group.TotalNew == 0 {
			sb.WriteString("<p>No new videos in this period.</p>")
			continue
		}

		for _, item := range group.Items {
			sb.WriteString(`<div class="video">`)
			sb.WriteString(fmt.Sprintf(`<h3><a href="%s">%s</a></h3>`, item.Video.URL, htmlEscape(item.Video.Title)))
			sb.WriteString(fmt.Sprintf(`<div class="meta">%s | %s</div>`, htmlEscape(item.Video.Channel), item.Video.Published))

			if item.Status == digest.StatusSkipped {
				sb.WriteString(fmt.Sprintf(`<div class="skipped">Skipped: %s</div>`, htmlEscape(item.Reason)))
				sb.WriteString("</div>")
				continue
			}

			sb.WriteString(fmt.Sprintf("<p>%s</p>", htmlEscape(item.Summary.OneLiner)))
			if len(item.Summary.KeyPoints) > 0 {
				sb.WriteString(`<ul class="key-points">`)
				for _, kp := range item.Summary.KeyPoints {
					sb.WriteString(fmt.Sprintf("<li>%s</li>", htmlEscape(kp)))
				}
				sb.WriteString("</ul>")
			}
			sb.WriteString(fmt.Sprintf(`<p class="audience">Who should watch: %s</p>`, htmlEscape(item.Summary.WhoShouldWatch)))
			sb.WriteString("</div>")
		}

		if group.NotShownCount > 0 {
			sb.WriteString(fmt.Sprintf(`<p class="not-shown">+%d more not shown</p>`, group.NotShownCount))
		}
	}

	sb.WriteString("</body></html>")
	return sb.String()
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func htmlEscape(s string) string {
	return htmlEscaper.Replace(s)
}
