package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// VideoRecord is one video as seen in a channel's upload feed. Published
// keeps the raw ISO-8601 string from the feed: it sorts lexicographically in
// chronological order, and the recency filter parses it when needed.
type VideoRecord struct {
	VideoID   string
	Title     string
	URL       string
	Published string
	Channel   string
}

// DroppedEntry records a feed entry that could not be turned into a
// VideoRecord, with the names of the fields that were missing.
type DroppedEntry struct {
	Title   string
	Missing []string
}

// ListResult is the partial-parse outcome of reading one feed: the records
// that parsed cleanly plus the entries that had to be dropped.
type ListResult struct {
	Records []VideoRecord
	Dropped []DroppedEntry
}

// FeedFetchError indicates the upload feed for a channel could not be
// fetched. The channel contributes nothing; the run continues.
type FeedFetchError struct {
	ChannelID string
	Status    int
}

func (e *FeedFetchError) Error() string {
	return fmt.Sprintf("feed: fetch for channel %s failed with status %d", e.ChannelID, e.Status)
}

// YouTube upload feed XML structures.

type uploadFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []feedEntry `xml:"entry"`
}

type feedEntry struct {
	Title     string      `xml:"title"`
	Links     []entryLink `xml:"link"`
	Published string      `xml:"published"`
}

type entryLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

// Lister fetches and parses a channel's upload feed.
type Lister struct {
	client  *http.Client
	baseURL string
}

func NewLister() *Lister {
	return NewListerWithBaseURL("https://www.youtube.com/feeds/videos.xml")
}

// NewListerWithBaseURL points the lister at a different feed endpoint.
func NewListerWithBaseURL(baseURL string) *Lister {
	return &Lister{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
	}
}

// List fetches the upload feed for channelID and parses its entries into
// VideoRecords owned by channelName, most recent first, truncated to
// maxVideos. Entries missing a required field are dropped and reported in
// the result rather than failing the whole feed.
func (l *Lister) List(ctx context.Context, channelID, channelName string, maxVideos int) (ListResult, error) {
	query := url.Values{}
	query.Set("channel_id", channelID)
	reqURL := fmt.Sprintf("%s?%s", l.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return ListResult{}, fmt.Errorf("feed: failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return ListResult{}, fmt.Errorf("feed: request for channel %s failed: %w", channelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ListResult{}, &FeedFetchError{ChannelID: channelID, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ListResult{}, fmt.Errorf("feed: failed to read response: %w", err)
	}

	var doc uploadFeed
	if err := xml.Unmarshal(body, &doc); err != nil {
		return ListResult{}, fmt.Errorf("feed: failed to parse XML for channel %s: %w", channelID, err)
	}

	result := ListResult{Records: make([]VideoRecord, 0, len(doc.Entries))}
	for _, entry := range doc.Entries {
		record, missing := parseEntry(entry, channelName)
		if len(missing) > 0 {
			result.Dropped = append(result.Dropped, DroppedEntry{
				Title:   strings.TrimSpace(entry.Title),
				Missing: missing,
			})
			continue
		}
		result.Records = append(result.Records, record)
	}

	// ISO-8601 strings order lexicographically, so no parsing is needed here.
	sort.SliceStable(result.Records, func(i, j int) bool {
		return result.Records[i].Published > result.Records[j].Published
	})

	if maxVideos > 0 && len(result.Records) > maxVideos {
		result.Records = result.Records[:maxVideos]
	}

	return result, nil
}

// parseEntry converts one feed entry, reporting every missing field instead
// of stopping at the first.
func parseEntry(entry feedEntry, channelName string) (VideoRecord, []string) {
	var missing []string

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		missing = append(missing, "title")
	}

	link := alternateLink(entry.Links)
	if link == "" {
		missing = append(missing, "link")
	}

	videoID := videoIDFromLink(link)
	if link != "" && videoID == "" {
		missing = append(missing, "video id")
	}

	published := strings.TrimSpace(entry.Published)
	if published == "" {
		missing = append(missing, "published")
	}

	if len(missing) > 0 {
		return VideoRecord{}, missing
	}

	return VideoRecord{
		VideoID:   videoID,
		Title:     title,
		URL:       link,
		Published: published,
		Channel:   channelName,
	}, nil
}

func alternateLink(links []entryLink) string {
	var fallback string
	for _, link := range links {
		if link.Rel == "alternate" {
			return link.Href
		}
		if fallback == "" {
			fallback = link.Href
		}
	}
	return fallback
}

// videoIDFromLink pulls the video identifier out of the watch URL's "v"
// query parameter.
func videoIDFromLink(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("v")
}
