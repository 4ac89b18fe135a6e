package runner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hmorita/tubedigest/internal/config"
	"github.com/hmorita/tubedigest/internal/digest"
	"github.com/hmorita/tubedigest/internal/feed"
	"github.com/hmorita/tubedigest/internal/publisher"
	"github.com/hmorita/tubedigest/internal/summarize"
	"github.com/hmorita/tubedigest/internal/transcript"
)

const (
	// perVideoTimeout bounds one transcript fetch + summarization unit.
	perVideoTimeout = 90 * time.Second
	// perRunTimeout bounds a whole digest run.
	perRunTimeout = 20 * time.Minute
)

// SourceResolver turns a channel page URL into a stable channel ID.
type SourceResolver interface {
	Resolve(ctx context.Context, pageURL string) (string, error)
}

// VideoLister fetches a channel's upload feed.
type VideoLister interface {
	List(ctx context.Context, channelID, channelName string, maxVideos int) (feed.ListResult, error)
}

// TranscriptFetcher acquires transcript text for a video. Failures come back
// as values inside the Result, never as errors.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) transcript.Result
}

// Runner orchestrates the list -> filter -> dedup -> transcribe -> summarize
// -> assemble -> publish pipeline.
type Runner struct {
	cfg         *config.Config
	resolver    SourceResolver
	lister      VideoLister
	transcripts TranscriptFetcher
	summarizer  summarize.Summarizer
	publishers  []publisher.Publisher
}

func New(cfg *config.Config, resolver SourceResolver, lister VideoLister, transcripts TranscriptFetcher, summarizer summarize.Summarizer, pubs []publisher.Publisher) *Runner {
	return &Runner{
		cfg:         cfg,
		resolver:    resolver,
		lister:      lister,
		transcripts: transcripts,
		summarizer:  summarizer,
		publishers:  pubs,
	}
}

// Run executes one full digest run: every configured group, in order, then
// publication. A channel or video failing never aborts its siblings; only a
// total publishing failure is an error.
func (r *Runner) Run(ctx context.Context) error {
	runID := uuid.New()
	log.Printf("Starting digest run %s (frequency=%s, groups=%d)", runID, r.cfg.Frequency, len(r.cfg.Groups))

	ctx, cancel := context.WithTimeout(ctx, perRunTimeout)
	defer cancel()

	report := &digest.Report{
		Date:      time.Now(),
		Frequency: r.cfg.Frequency,
		Groups:    make([]digest.GroupDigest, 0, len(r.cfg.Groups)),
	}

	for _, group := range r.cfg.Groups {
		gd := r.processGroup(ctx, group)
		log.Printf("Group %q: %d new, %d summarized, %d skipped, %d not shown",
			gd.Label, gd.TotalNew, gd.SummarizedCount, gd.SkippedCount, gd.NotShownCount)
		report.Groups = append(report.Groups, gd)
	}

	var publishErrors []error
	for _, pub := range r.publishers {
		if err := pub.Publish(ctx, report); err != nil {
			publishErrors = append(publishErrors, err)
			log.Printf("WARNING: publish via %T failed: %v", pub, err)
		} else {
			log.Printf("Published via %T", pub)
		}
	}
	if len(r.publishers) > 0 && len(publishErrors) == len(r.publishers) {
		return fmt.Errorf("runner: all publishers failed: %v", publishErrors)
	}

	log.Printf("Digest run %s complete: %d videos across %d groups", runID, report.TotalVideos(), len(report.Groups))
	return nil
}

// processGroup lists every channel in the group, filters and deduplicates
// the union, then resolves each survivor to a summarized or skipped item.
func (r *Runner) processGroup(ctx context.Context, group config.GroupConfig) digest.GroupDigest {
	var union []feed.VideoRecord
	for _, channel := range group.Channels {
		if channel.Placeholder() {
			continue
		}
		records, err := r.listChannel(ctx, channel)
		if err != nil {
			// The channel contributes nothing; its siblings still run.
			log.Printf("WARNING: channel %q skipped: %v", channel.Name, err)
			continue
		}
		union = append(union, records...)
	}

	considered := digest.Dedupe(digest.FilterRecent(union, r.cfg.MaxAgeDays(), time.Now()))
	items := r.resolveVideos(ctx, considered)
	return digest.Assemble(group.Label, items, r.cfg.DisplayCap())
}

func (r *Runner) listChannel(ctx context.Context, channel config.ChannelConfig) ([]feed.VideoRecord, error) {
	channelID, err := r.resolver.Resolve(ctx, channel.URL)
	if err != nil {
		return nil, err
	}

	result, err := r.lister.List(ctx, channelID, channel.Name, r.cfg.MaxVideosPerChannel)
	if err != nil {
		return nil, err
	}
	for _, dropped := range result.Dropped {
		log.Printf("Channel %q: dropped feed entry %q (missing %v)", channel.Name, dropped.Title, dropped.Missing)
	}
	return result.Records, nil
}

// resolveVideos fans the considered set out over a bounded worker pool. Each
// video is one atomic unit of work (transcript fetch + summarize); results
// land in an index-addressed slice so assembly is order-independent.
func (r *Runner) resolveVideos(ctx context.Context, records []feed.VideoRecord) []digest.DisplayItem {
	items := make([]digest.DisplayItem, len(records))

	concurrency := r.cfg.Transcript.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, record := range records {
		wg.Add(1)
		go func(i int, record feed.VideoRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			videoCtx, cancel := context.WithTimeout(ctx, perVideoTimeout)
			defer cancel()
			items[i] = r.resolveVideo(videoCtx, record)
		}(i, record)
	}
	wg.Wait()

	return items
}

func (r *Runner) resolveVideo(ctx context.Context, record feed.VideoRecord) digest.DisplayItem {
	result := r.transcripts.Fetch(ctx, record.VideoID)
	if !result.OK() {
		log.Printf("Video %s skipped: %s", record.VideoID, result.Failure.Code())
		return digest.DisplayItem{
			Video:  record,
			Status: digest.StatusSkipped,
			Reason: result.Failure.Message(),
		}
	}

	summary, err := r.summarizer.Summarize(ctx, summarize.Request{
		Title:      record.Title,
		Channel:    record.Channel,
		Transcript: result.Text,
		MaxBullets: r.cfg.MaxBullets,
	})
	if err != nil {
		// The transcript was fine but the collaborator was unreachable:
		// show the video with placeholder summary text rather than hide it.
		log.Printf("WARNING: summarization for video %s failed: %v", record.VideoID, err)
		summary = summarize.Normalize(nil, r.cfg.MaxBullets)
	}

	return digest.DisplayItem{
		Video:   record,
		Status:  digest.StatusSummarized,
		Summary: summary,
	}
}
