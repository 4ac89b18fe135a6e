package digest

import (
	"sort"
	"time"

	"github.com/hmorita/tubedigest/internal/feed"
)

// FilterRecent keeps records published within maxAgeDays of now. Records
// whose timestamp does not parse are treated as stale and excluded, so a
// malformed feed entry can never surface in a digest.
func FilterRecent(records []feed.VideoRecord, maxAgeDays int, now time.Time) []feed.VideoRecord {
	cutoff := now.AddDate(0, 0, -maxAgeDays)
	kept := make([]feed.VideoRecord, 0, len(records))
	for _, record := range records {
		published, err := time.Parse(time.RFC3339, record.Published)
		if err != nil {
			continue
		}
		if published.Before(cutoff) {
			continue
		}
		kept = append(kept, record)
	}
	return kept
}

// Dedupe merges records from all channels in a group by video ID. When the
// same video appears under more than one channel the later record wins, so
// channels later in the group's list take precedence. Output is sorted by
// publication timestamp, most recent first.
func Dedupe(records []feed.VideoRecord) []feed.VideoRecord {
	byID := make(map[string]int, len(records))
	merged := make([]feed.VideoRecord, 0, len(records))
	for _, record := range records {
		if i, seen := byID[record.VideoID]; seen {
			merged[i] = record
			continue
		}
		byID[record.VideoID] = len(merged)
		merged = append(merged, record)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Published > merged[j].Published
	})
	return merged
}
