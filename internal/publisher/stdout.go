package publisher

import (
	"context"
	"fmt"

	"github.com/hmorita/tubedigest/internal/digest"
)

// StdoutPublisher prints the report to stdout.
type StdoutPublisher struct{}

func NewStdoutPublisher() *StdoutPublisher {
	return &StdoutPublisher{}
}

func (p *StdoutPublisher) Publish(_ context.Context, report *digest.Report) error {
	fmt.Println(Subject(report))
	fmt.Println()
	fmt.Print(PlainText(report))
	return nil
}
