package summarize

import (
	"strconv"
	"strings"
)

const (
	// FallbackOneLiner replaces an empty or unusable one-liner.
	FallbackOneLiner = "Summary unavailable."
	// FallbackAudience replaces an empty or unusable audience line.
	FallbackAudience = "Anyone who wants a neutral overview."

	maxOneLinerChars = 220
	maxAudienceChars = 180

	// DefaultMaxBullets bounds key points when no limit is configured.
	DefaultMaxBullets = 5
)

// Normalize coerces arbitrary decoded JSON into a well-formed Summary. It is
// total: whatever the collaborator returned — nil, wrong types, missing or
// oversized fields — the result satisfies every Summary invariant.
func Normalize(v any, maxBullets int) Summary {
	if maxBullets <= 0 {
		maxBullets = DefaultMaxBullets
	}

	fields, _ := v.(map[string]any)

	oneLiner := strings.TrimSpace(coerceString(fields["one_liner"]))
	if oneLiner == "" {
		oneLiner = FallbackOneLiner
	}

	audience := strings.TrimSpace(coerceString(fields["who_should_watch"]))
	if audience == "" {
		audience = FallbackAudience
	}

	return Summary{
		OneLiner:       truncateRunes(oneLiner, maxOneLinerChars),
		KeyPoints:      normalizeKeyPoints(fields["key_points"], maxBullets),
		WhoShouldWatch: truncateRunes(audience, maxAudienceChars),
	}
}

func normalizeKeyPoints(v any, maxBullets int) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	points := make([]string, 0, len(items))
	for _, item := range items {
		point := strings.TrimSpace(coerceString(item))
		if point == "" {
			continue
		}
		points = append(points, point)
		if len(points) == maxBullets {
			break
		}
	}
	return points
}

// coerceString renders JSON scalars as text; arrays and objects are treated
// as absent.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
