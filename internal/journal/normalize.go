package journal

import (
	"encoding/json"
	"errors"
	"journalsummarizer/internal/domain"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNoEntries is returned when the entries list is empty and the caller
// asked for the lenient policy.
var ErrNoEntries = errors.New("no entries to summarize")

// ValidationError describes a malformed or missing required input field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func missingEntries() *ValidationError {
	return &ValidationError{Message: "Missing entries."}
}

func missingTopics() *ValidationError {
	return &ValidationError{Message: "Missing topics."}
}

type Kind int

const (
	KindEntries Kind = iota
	KindTopics
)

// Input is the canonical form of a summarize request body.
type Input struct {
	Kind       Kind
	Entries    []domain.Entry
	Topics     []string
	TopicFocus string
}

// Size reports how many items the corpus is built from.
func (in Input) Size() int {
	if in.Kind == KindTopics {
		return len(in.Topics)
	}

	return len(in.Entries)
}

type Options struct {
	// RejectEmpty turns an empty entries list into a ValidationError
	// instead of ErrNoEntries.
	RejectEmpty bool
}

// Normalize coerces a raw JSON request body into an Input.
//
// Bodies that are missing, malformed or not JSON objects are treated as {}.
// Entries without a usable created timestamp are stamped with now.
func Normalize(body []byte, now time.Time, opts Options) (Input, error) {
	fields := decodeObject(body)

	rawEntries := fields["entries"]
	rawTopics := fields["topics"]

	if isNull(rawEntries) && isJSONArray(rawTopics) {
		topics, ok := decodeTopicList(rawTopics)
		if !ok {
			return Input{}, missingTopics()
		}

		return Input{
			Kind:       KindTopics,
			Topics:     topics,
			TopicFocus: strings.Join(topics, ", "),
		}, nil
	}

	entries := decodeEntries(rawEntries, now)
	if len(entries) == 0 {
		if opts.RejectEmpty {
			return Input{}, missingEntries()
		}

		return Input{}, ErrNoEntries
	}

	return Input{
		Kind:       KindEntries,
		Entries:    entries,
		TopicFocus: decodeTopicFocus(rawTopics),
	}, nil
}

func decodeObject(body []byte) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return map[string]json.RawMessage{}
	}

	return fields
}

func isNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))

	return trimmed == "" || trimmed == "null"
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))

	return strings.HasPrefix(trimmed, "[")
}

func decodeTopicList(raw json.RawMessage) ([]string, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	topics := make([]string, 0, len(items))
	for _, item := range items {
		var topic string
		if err := json.Unmarshal(item, &topic); err != nil {
			return nil, false
		}

		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		topics = append(topics, topic)
	}

	if len(topics) == 0 {
		return nil, false
	}

	return topics, true
}

// decodeTopicFocus accepts a string, a scalar or an array of scalars. Array
// items are joined with ", "; null items and objects are skipped.
func decodeTopicFocus(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}

	items, ok := v.([]any)
	if !ok {
		return scalarText(v)
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		if part := scalarText(item); part != "" {
			parts = append(parts, part)
		}
	}

	return strings.Join(parts, ", ")
}

func scalarText(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return ""
	}
}

func decodeEntries(raw json.RawMessage, now time.Time) []domain.Entry {
	if len(raw) == 0 {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	entries := make([]domain.Entry, 0, len(items))
	for _, item := range items {
		entry, ok := decodeEntry(item, now)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	return entries
}

func decodeEntry(raw json.RawMessage, now time.Time) (domain.Entry, bool) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return domain.Entry{}, false
	}

	created, ok := decodeCreated(fields["created"])
	if !ok {
		created = now
	}

	return domain.Entry{
		Created: created,
		Title:   plainText(stringField(fields, "title")),
		Text:    plainText(stringField(fields, "text")),
		Topics:  strings.TrimSpace(stringField(fields, "topics")),
	}, true
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)

	return s
}

// maxCreatedMillis bounds created timestamps to what a JavaScript Date can
// hold (±100,000,000 days around the epoch).
const maxCreatedMillis = 8.64e15

// decodeCreated accepts milliseconds since the epoch, an RFC 3339 string or a
// date-only string (midnight UTC).
func decodeCreated(v any) (time.Time, bool) {
	switch created := v.(type) {
	case float64:
		if created == 0 || math.IsNaN(created) || math.Abs(created) > maxCreatedMillis {
			return time.Time{}, false
		}

		return time.UnixMilli(int64(created)), true
	case string:
		created = strings.TrimSpace(created)
		for _, layout := range []string{time.RFC3339, time.DateOnly} {
			if t, err := time.Parse(layout, created); err == nil {
				return t, true
			}
		}

		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
