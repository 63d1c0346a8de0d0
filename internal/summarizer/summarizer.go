package summarizer

import (
	"context"
	"fmt"
	"journalsummarizer/internal/prompt"
)

// NoSummary is returned when the completion carries no message content.
const NoSummary = "(No summary returned)"

// Summarizer turns a system/user message pair into summary text.
type Summarizer interface {
	Summarize(ctx context.Context, msgs prompt.Messages) (string, error)
}

// UpstreamError reports a failed call to the completion API. Body holds the
// raw upstream response so callers can surface it verbatim.
type UpstreamError struct {
	StatusCode  int
	Body        string
	Unparseable bool
	Err         error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Unparseable:
		return fmt.Sprintf("OpenAI returned non-JSON: %s", e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("OpenAI error %d: %s", e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("OpenAI request failed: %v", e.Err)
	default:
		return "OpenAI request failed"
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
