package journal

import (
	"journalsummarizer/internal/domain"
	"slices"
	"strings"
	"time"
)

// TimestampLayout mirrors the en-US locale date format.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

const titleTextSeparator = " — "

// Corpus renders the input as markdown bullet lines.
func (in Input) Corpus(loc *time.Location) string {
	if in.Kind == KindTopics {
		return RenderTopics(in.Topics)
	}

	return RenderEntries(in.Entries, loc)
}

// RenderEntries sorts entries by creation time (stable) and renders one
// bullet line per entry.
func RenderEntries(entries []domain.Entry, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b domain.Entry) int {
		return a.Created.Compare(b.Created)
	})

	lines := make([]string, 0, len(sorted))
	for _, entry := range sorted {
		lines = append(lines, RenderEntry(entry, loc))
	}

	return strings.Join(lines, "\n")
}

// RenderEntry renders "- [<time>] (<topics>) <title> — <text>", dropping the
// topics segment and the separator when their parts are empty.
func RenderEntry(entry domain.Entry, loc *time.Location) string {
	var b strings.Builder

	b.WriteString("- [")
	b.WriteString(entry.Created.In(loc).Format(TimestampLayout))
	b.WriteString("] ")

	if topics := strings.TrimSpace(entry.Topics); topics != "" {
		b.WriteString("(")
		b.WriteString(topics)
		b.WriteString(") ")
	}

	parts := make([]string, 0, 2)
	for _, part := range []string{entry.Title, entry.Text} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	b.WriteString(strings.Join(parts, titleTextSeparator))

	return strings.TrimRight(b.String(), " ")
}

func RenderTopics(topics []string) string {
	lines := make([]string, 0, len(topics))
	for _, topic := range topics {
		lines = append(lines, "- "+topic)
	}

	return strings.Join(lines, "\n")
}
