package database

import (
	"context"
	"errors"
	"fmt"
	"journalsummarizer/internal/domain"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxRecentSummaries = 100

func (d *Database) SaveSummary(ctx context.Context, record domain.SummaryRecord) (domain.SummaryRecord, error) {
	record.Summary = strings.TrimSpace(record.Summary)
	if record.Summary == "" {
		return domain.SummaryRecord{}, errors.New("summary is empty")
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	query := `insert into summaries (id, model, entry_count, topic_focus, summary, created_at)
	values (?, ?, ?, ?, ?, ?)`

	if _, err := d.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.Model,
		record.EntryCount,
		record.TopicFocus,
		record.Summary,
		record.CreatedAt.UnixMilli(),
	); err != nil {
		return domain.SummaryRecord{}, fmt.Errorf("failed to execute query: %w", err)
	}

	return record, nil
}

// RecentSummaries returns up to limit records, newest first.
func (d *Database) RecentSummaries(ctx context.Context, limit int) ([]domain.SummaryRecord, error) {
	if limit <= 0 || limit > MaxRecentSummaries {
		limit = MaxRecentSummaries
	}

	query := `select id, model, entry_count, topic_focus, summary, created_at
	from summaries
	order by created_at desc, id
	limit ?`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", closeErr,
				"limit", limit)
		}
	}()

	records := make([]domain.SummaryRecord, 0, limit)
	for rows.Next() {
		var (
			r         domain.SummaryRecord
			createdAt int64
		)
		if err = rows.Scan(&r.ID, &r.Model, &r.EntryCount, &r.TopicFocus, &r.Summary, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return records, nil
}

// DeleteSummariesBefore removes records created before t and reports how many
// were removed.
func (d *Database) DeleteSummariesBefore(ctx context.Context, t time.Time) (int64, error) {
	query := "delete from summaries where created_at < ?"

	res, err := d.db.ExecContext(ctx, query, t.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return deleted, nil
}
