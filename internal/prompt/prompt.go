package prompt

import (
	"strings"

	"mvdan.cc/xurls/v2"
)

const (
	noTopicFocus = "(none)"

	systemPrompt = `You are an editorial assistant. Summarize journal entries into a newsletter-ready brief:
- Start with a friendly 1–2 sentence intro.
- Then 3–6 bullet highlights (actionable, concrete; one line each).
- Add a short "Themes & Patterns" paragraph.
- End with a "Next steps" checklist (2–5 items) with [ ] checkboxes.
Use plain markdown. If TOPICS are provided, prioritize those.`
)

type Source int

const (
	SourceEntries Source = iota
	SourceTopics
)

// Messages is the system/user pair sent to the completion API.
type Messages struct {
	System string
	User   string
}

// Build combines the corpus and topic focus with the fixed instructions.
// The result only depends on its arguments.
func Build(corpus string, topicFocus string, source Source) Messages {
	focus := strings.TrimSpace(topicFocus)
	if focus == "" {
		focus = noTopicFocus
	}

	header := "ENTRIES (last 7 days):"
	if source == SourceTopics {
		header = "TOPICS:"
	}

	var b strings.Builder
	b.WriteString("TOPICS FOCUS: ")
	b.WriteString(focus)
	b.WriteString("\n\n")
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(corpus))

	if links := Links(corpus); len(links) > 0 {
		b.WriteString("\n\nLINKS:")
		for _, link := range links {
			b.WriteString("\n- ")
			b.WriteString(link)
		}
	}

	return Messages{
		System: systemPrompt,
		User:   b.String(),
	}
}

// Links returns the distinct http(s) links found in text, in order of first
// appearance.
func Links(text string) []string {
	found := xurls.Strict().FindAllString(text, -1)
	if len(found) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(found))
	links := make([]string, 0, len(found))

	for _, link := range found {
		if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
			continue
		}

		if _, ok := seen[link]; ok {
			continue
		}

		seen[link] = struct{}{}
		links = append(links, link)
	}

	return links
}
