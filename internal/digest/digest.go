package digest

import (
	"time"

	"github.com/hmorita/tubedigest/internal/feed"
	"github.com/hmorita/tubedigest/internal/summarize"
)

// Status tells whether a display item carries a summary or a skip reason.
type Status string

const (
	StatusSummarized Status = "summarized"
	StatusSkipped    Status = "skipped"
)

// DisplayItem is one video in the rendered digest: the record plus either
// its summary or a short user-facing reason it was skipped.
type DisplayItem struct {
	Video   feed.VideoRecord
	Status  Status
	Summary summarize.Summary
	Reason  string
}

// GroupDigest is one group's section of the report. Items is bounded to the
// display cap; the counts always describe the full considered set.
type GroupDigest struct {
	Label           string
	TotalNew        int
	SummarizedCount int
	SkippedCount    int
	NotShownCount   int
	Items           []DisplayItem
}

// Report is the finished digest for one run, groups in configuration order.
type Report struct {
	Date      time.Time
	Frequency string
	Groups    []GroupDigest
}

// TotalVideos counts the considered videos across all groups.
func (r *Report) TotalVideos() int {
	total := 0
	for _, g := range r.Groups {
		total += g.TotalNew
	}
	return total
}
