package digest

import "sort"

// Assemble builds one group's digest from its resolved display items. Items
// are ordered most recent first, the counts describe the whole considered
// set, and the visible list is truncated to cap — dropping the oldest items,
// never the newest.
func Assemble(label string, items []DisplayItem, cap int) GroupDigest {
	sorted := make([]DisplayItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Video.Published > sorted[j].Video.Published
	})

	summarized := 0
	for _, item := range sorted {
		if item.Status == StatusSummarized {
			summarized++
		}
	}

	considered := len(sorted)
	visible := sorted
	if cap > 0 && len(visible) > cap {
		visible = visible[:cap]
	}

	return GroupDigest{
		Label:           label,
		TotalNew:        considered,
		SummarizedCount: summarized,
		SkippedCount:    considered - summarized,
		NotShownCount:   considered - len(visible),
		Items:           visible,
	}
}
