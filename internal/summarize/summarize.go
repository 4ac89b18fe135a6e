package summarize

import "context"

// Summary is the display-safe structured summary of one video. After
// Normalize every field is non-empty and within its length bound.
type Summary struct {
	OneLiner       string
	KeyPoints      []string
	WhoShouldWatch string
}

// Request is the input handed to the summarization collaborator.
type Request struct {
	Title      string
	Channel    string
	Transcript string
	MaxBullets int
}

// Summarizer turns a transcript into a structured summary. Implementations
// must tolerate malformed model output (the normalizer handles that); an
// error from Summarize means the collaborator itself was unreachable.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (Summary, error)
}
