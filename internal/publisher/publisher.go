package publisher

import (
	"context"

	"github.com/hmorita/tubedigest/internal/digest"
)

// Publisher delivers a finished report to some output destination.
type Publisher interface {
	Publish(ctx context.Context, report *digest.Report) error
}
