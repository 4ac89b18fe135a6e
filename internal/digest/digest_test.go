package digest

import (
	"testing"
	"time"

	"github.com/hmorita/tubedigest/internal/feed"
)

func record(id, channel, published string) feed.VideoRecord {
	return feed.VideoRecord{
		VideoID:   id,
		Title:     "Video " + id,
		URL:       "https://www.youtube.com/watch?v=" + id,
		Published: published,
		Channel:   channel,
	}
}

func TestFilterRecentKeepsWithinCutoff(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	records := []feed.VideoRecord{
		record("fresh", "A", "2026-08-29T10:00:00Z"),
		record("edge", "A", "2026-08-28T13:00:00Z"),
		record("stale", "A", "2026-08-20T10:00:00Z"),
	}

	kept := FilterRecent(records, 2, now)
	if len(kept) != 2 {
		t.Fatalf("expected 2 records, got %d", len(kept))
	}
	if kept[0].VideoID != "fresh" || kept[1].VideoID != "edge" {
		t.Errorf("unexpected survivors: %+v", kept)
	}
}

func TestFilterRecentUnparsableIsStale(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	records := []feed.VideoRecord{
		record("bad", "A", "yesterday-ish"),
		record("empty", "A", ""),
	}

	for _, days := range []int{1, 1000} {
		if kept := FilterRecent(records, days, now); len(kept) != 0 {
			t.Errorf("maxAgeDays=%d: unparsable timestamps must be excluded, got %+v", days, kept)
		}
	}
}

func TestDedupeLastWriteWins(t *testing.T) {
	records := []feed.VideoRecord{
		record("abc123", "Channel A", "2026-08-29T10:00:00Z"),
		record("other1", "Channel A", "2026-08-28T10:00:00Z"),
		record("abc123", "Channel B", "2026-08-29T10:00:00Z"),
	}

	merged := Dedupe(records)
	if len(merged) != 2 {
		t.Fatalf("expected 2 records, got %d", len(merged))
	}

	var survivor *feed.VideoRecord
	for i := range merged {
		if merged[i].VideoID == "abc123" {
			survivor = &merged[i]
		}
	}
	if survivor == nil {
		t.Fatal("deduplicated record missing")
	}
	if survivor.Channel != "Channel B" {
		t.Errorf("expected later insert to win, survivor belongs to %q", survivor.Channel)
	}
}

func TestDedupeSortsMostRecentFirst(t *testing.T) {
	records := []feed.VideoRecord{
		record("old", "A", "2026-08-27T10:00:00Z"),
		record("new", "B", "2026-08-30T10:00:00Z"),
		record("mid", "C", "2026-08-29T10:00:00Z"),
	}

	merged := Dedupe(records)
	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if merged[i].VideoID != id {
			t.Errorf("position %d: expected %q, got %q", i, id, merged[i].VideoID)
		}
	}
}

func TestAssembleOrderingAndCounts(t *testing.T) {
	items := []DisplayItem{
		{Video: record("t2", "A", "2026-08-29T10:00:00Z"), Status: StatusSummarized},
		{Video: record("t1", "A", "2026-08-30T10:00:00Z"), Status: StatusSummarized},
		{Video: record("t3", "A", "2026-08-28T10:00:00Z"), Status: StatusSkipped, Reason: "no captions"},
	}

	gd := Assemble("Dev Channels", items, 10)

	want := []string{"t1", "t2", "t3"}
	for i, id := range want {
		if gd.Items[i].Video.VideoID != id {
			t.Errorf("position %d: expected %q, got %q", i, id, gd.Items[i].Video.VideoID)
		}
	}
	if gd.TotalNew != 3 || gd.SummarizedCount != 2 || gd.SkippedCount != 1 {
		t.Errorf("unexpected counts: %+v", gd)
	}
	if gd.SummarizedCount+gd.SkippedCount != gd.TotalNew {
		t.Errorf("count invariant violated: %+v", gd)
	}
	if gd.NotShownCount != 0 {
		t.Errorf("expected nothing hidden, got %d", gd.NotShownCount)
	}
}

func TestAssembleCapDropsOldest(t *testing.T) {
	items := []DisplayItem{
		{Video: record("t3", "A", "2026-08-28T10:00:00Z"), Status: StatusSummarized},
		{Video: record("t1", "A", "2026-08-30T10:00:00Z"), Status: StatusSummarized},
		{Video: record("t2", "A", "2026-08-29T10:00:00Z"), Status: StatusSkipped},
	}

	gd := Assemble("Group", items, 2)

	if len(gd.Items) != 2 {
		t.Fatalf("expected 2 visible items, got %d", len(gd.Items))
	}
	if gd.Items[0].Video.VideoID != "t1" || gd.Items[1].Video.VideoID != "t2" {
		t.Errorf("cap must keep the newest items: %+v", gd.Items)
	}
	if gd.NotShownCount != 1 {
		t.Errorf("expected notShownCount 1, got %d", gd.NotShownCount)
	}
	// Counts stay cap-independent.
	if gd.TotalNew != 3 || gd.SummarizedCount != 2 || gd.SkippedCount != 1 {
		t.Errorf("counts must describe the considered set: %+v", gd)
	}
}

func TestAssembleEmptyGroup(t *testing.T) {
	gd := Assemble("Quiet Group", nil, 5)
	if gd.TotalNew != 0 || gd.NotShownCount != 0 || len(gd.Items) != 0 {
		t.Errorf("unexpected digest for empty group: %+v", gd)
	}
}
