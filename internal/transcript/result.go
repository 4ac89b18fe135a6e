package transcript

import "fmt"

// FailureKind enumerates the closed set of ways a transcript fetch can fail.
type FailureKind int

const (
	KindNoTranscript FailureKind = iota
	KindTooShort
	KindInvalidJSON
	KindHTTPStatus
	KindFetchError
	KindUnknown
)

// Failure describes why no transcript was produced for a video. It is a
// value, not an error: a failed fetch is an ordinary pipeline outcome.
type Failure struct {
	Kind     FailureKind
	Provider string
	Status   int
	// Detail carries the truncated response snippet for HTTP failures and
	// the truncated error message for fetch failures.
	Detail string
}

// Code returns the stable machine-readable reason code.
func (f Failure) Code() string {
	switch f.Kind {
	case KindNoTranscript:
		return "no_transcript"
	case KindTooShort:
		return "too_short"
	case KindInvalidJSON:
		return "invalid_json"
	case KindHTTPStatus:
		if f.Detail != "" {
			return fmt.Sprintf("%s_http_%d:%s", f.Provider, f.Status, f.Detail)
		}
		return fmt.Sprintf("%s_http_%d", f.Provider, f.Status)
	case KindFetchError:
		return fmt.Sprintf("%s_fetch_error:%s", f.Provider, f.Detail)
	default:
		return "unknown_error"
	}
}

// Message returns the short user-facing reason shown for a skipped item.
func (f Failure) Message() string {
	switch f.Kind {
	case KindNoTranscript:
		return "This video has no transcript/captions available on YouTube."
	case KindTooShort:
		return "The transcript was too short to summarize."
	case KindInvalidJSON:
		return "The transcript provider returned an unreadable response."
	case KindHTTPStatus:
		return fmt.Sprintf("The transcript provider returned an error (HTTP %d).", f.Status)
	case KindFetchError:
		return "The transcript provider could not be reached."
	default:
		return "The transcript could not be retrieved."
	}
}

// Result is the outcome of one transcript acquisition. Failure is nil on
// success.
type Result struct {
	Text         string
	SegmentCount int
	Language     string
	Failure      *Failure
}

// OK reports whether the fetch produced usable transcript text.
func (r Result) OK() bool {
	return r.Failure == nil
}
