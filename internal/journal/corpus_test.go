package journal_test

import (
	"journalsummarizer/internal/domain"
	"journalsummarizer/internal/journal"
	"strings"
	"testing"
	"time"
)

func TestRenderEntry(t *testing.T) {
	created := time.Date(2025, 3, 4, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		entry domain.Entry
		want  string
	}{
		{
			"All fields",
			domain.Entry{Created: created, Title: "Run", Text: "5k", Topics: "health"},
			"- [3/4/2025, 3:04:05 PM] (health) Run — 5k",
		},
		{
			"No topics",
			domain.Entry{Created: created, Title: "Run", Text: "5k"},
			"- [3/4/2025, 3:04:05 PM] Run — 5k",
		},
		{
			"Title only",
			domain.Entry{Created: created, Title: "Run", Topics: "health"},
			"- [3/4/2025, 3:04:05 PM] (health) Run",
		},
		{
			"Text only",
			domain.Entry{Created: created, Text: "5k"},
			"- [3/4/2025, 3:04:05 PM] 5k",
		},
		{
			"Nothing but a timestamp",
			domain.Entry{Created: created},
			"- [3/4/2025, 3:04:05 PM]",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := journal.RenderEntry(test.entry, time.UTC); got != test.want {
				t.Errorf("got %q, want %q", got, test.want)
			}
		})
	}
}

func TestRenderEntryUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	entry := domain.Entry{Created: time.Date(2025, 1, 1, 22, 0, 0, 0, time.UTC), Text: "late"}

	want := "- [1/2/2025, 1:00:00 AM] late"
	if got := journal.RenderEntry(entry, loc); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderEntriesOrdersByCreated(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []domain.Entry{
		{Created: base.Add(48 * time.Hour), Text: "third"},
		{Created: base, Text: "first"},
		{Created: base.Add(24 * time.Hour), Text: "second-a"},
		{Created: base.Add(24 * time.Hour), Text: "second-b"},
	}

	corpus := journal.RenderEntries(entries, time.UTC)
	lines := strings.Split(corpus, "\n")

	order := []string{"first", "second-a", "second-b", "third"}
	if len(lines) != len(order) {
		t.Fatalf("unexpected line count %d: %q", len(lines), corpus)
	}

	for i, word := range order {
		if !strings.HasSuffix(lines[i], word) {
			t.Fatalf("line %d: expected %q, got %q", i, word, lines[i])
		}
	}

	if entries[0].Text != "third" {
		t.Fatalf("expected input slice to be left untouched")
	}
}

func TestRenderEntriesSeparators(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []domain.Entry{
		{Created: base},
		{Created: base.Add(time.Hour), Title: "only title"},
		{Created: base.Add(2 * time.Hour), Text: "only text"},
	}

	for _, line := range strings.Split(journal.RenderEntries(entries, time.UTC), "\n") {
		if strings.Contains(line, "—") {
			t.Errorf("unexpected separator in %q", line)
		}

		if strings.Contains(line, "(") {
			t.Errorf("unexpected topics segment in %q", line)
		}
	}
}
