package summary

import (
	"context"
	"errors"
	"fmt"
	"journalsummarizer/internal/cache"
	"journalsummarizer/internal/domain"
	"journalsummarizer/internal/journal"
	"journalsummarizer/internal/metrics"
	"journalsummarizer/internal/prompt"
	"journalsummarizer/internal/summarizer"
	"log/slog"
	"strings"
	"time"
)

// ErrMissingAPIKey means the service was started without OpenAI credentials.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

// PlaceholderSummary is returned instead of calling the model when there is
// nothing to summarize.
const PlaceholderSummary = `No entries found for the last 7 days.

### Next steps
- [ ] Add a couple of diary notes
- [ ] Tag them with topics you care about
- [ ] Hit Summarize again`

// HistoryStore records generated summaries.
type HistoryStore interface {
	SaveSummary(ctx context.Context, record domain.SummaryRecord) (domain.SummaryRecord, error)
}

type Options struct {
	Model       string
	Location    *time.Location
	RejectEmpty bool
	Cache       cache.Cache
	CacheTTL    time.Duration
	History     HistoryStore
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

type Result struct {
	Summary     string
	Placeholder bool
	Cached      bool
	EntryCount  int
}

type Service struct {
	summarizer  summarizer.Summarizer
	model       string
	loc         *time.Location
	rejectEmpty bool
	cache       cache.Cache
	cacheTTL    time.Duration
	history     HistoryStore
	metrics     *metrics.Metrics
	now         func() time.Time
	log         *slog.Logger
}

// New builds the service. A nil summarizer makes every non-trivial request
// fail with ErrMissingAPIKey.
func New(s summarizer.Summarizer, opts Options, log *slog.Logger) *Service {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = summarizer.DefaultModel
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		summarizer:  s,
		model:       model,
		loc:         loc,
		rejectEmpty: opts.RejectEmpty,
		cache:       opts.Cache,
		cacheTTL:    opts.CacheTTL,
		history:     opts.History,
		metrics:     opts.Metrics,
		now:         now,
		log:         log,
	}
}

// Summarize runs normalize, build and call for a raw request body.
func (s *Service) Summarize(ctx context.Context, body []byte) (Result, error) {
	if s.summarizer == nil {
		return Result{}, ErrMissingAPIKey
	}

	in, err := journal.Normalize(body, s.now(), journal.Options{RejectEmpty: s.rejectEmpty})
	if errors.Is(err, journal.ErrNoEntries) {
		s.log.DebugContext(ctx, "No entries so placeholder summary is returned")

		return Result{Summary: PlaceholderSummary, Placeholder: true}, nil
	}
	if err != nil {
		return Result{}, err
	}

	source := prompt.SourceEntries
	if in.Kind == journal.KindTopics {
		source = prompt.SourceTopics
	}

	msgs := prompt.Build(in.Corpus(s.loc), in.TopicFocus, source)
	cacheKey := cache.Key(s.model, msgs)

	if summary, ok := s.cached(ctx, cacheKey); ok {
		return Result{Summary: summary, Cached: true, EntryCount: in.Size()}, nil
	}

	start := time.Now()
	summary, err := s.summarizer.Summarize(ctx, msgs)
	elapsed := time.Since(start)
	s.metrics.ObserveUpstream(elapsed, err)

	if err != nil {
		s.log.ErrorContext(ctx, "Failed to summarize entries",
			"error", err,
			"model", s.model,
			"entryCount", in.Size(),
			"elapsedSeconds", elapsed.Seconds())

		return Result{}, fmt.Errorf("summarize entries: %w", err)
	}

	s.log.InfoContext(ctx, "Entries are summarized",
		"model", s.model,
		"entryCount", in.Size(),
		"summaryChars", len(summary),
		"elapsedSeconds", elapsed.Seconds())

	if summary != summarizer.NoSummary {
		s.store(ctx, cacheKey, summary)
		s.record(ctx, in, summary)
	}

	return Result{Summary: summary, EntryCount: in.Size()}, nil
}

func (s *Service) cached(ctx context.Context, key string) (string, bool) {
	if s.cache == nil || key == "" {
		return "", false
	}

	summary, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to read cached summary",
			"error", err)

		return "", false
	}

	s.metrics.ObserveCacheLookup(ok)

	return summary, ok
}

func (s *Service) store(ctx context.Context, key string, summary string) {
	if s.cache == nil || key == "" || s.cacheTTL <= 0 {
		return
	}

	if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
		s.log.WarnContext(ctx, "Failed to cache summary",
			"error", err)
	}
}

func (s *Service) record(ctx context.Context, in journal.Input, summary string) {
	if s.history == nil {
		return
	}

	record, err := s.history.SaveSummary(ctx, domain.SummaryRecord{
		Model:      s.model,
		EntryCount: in.Size(),
		TopicFocus: in.TopicFocus,
		Summary:    summary,
		CreatedAt:  s.now(),
	})
	if err != nil {
		s.log.WarnContext(ctx, "Failed to save summary history",
			"error", err,
			"entryCount", in.Size())

		return
	}

	s.log.DebugContext(ctx, "Summary history is saved",
		"id", record.ID)
}
