package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// eventRepo implements EventRepo over SQL and the global sequence counter.
type eventRepo struct {
	db  *sqlx.DB
	seq *sequenceCounter
}

type renderEventRow struct {
	ID         string    `db:"id"`
	Sequence   int64     `db:"sequence"`
	TemplateID string    `db:"template_id"`
	Seed       int64     `db:"seed"`
	Success    bool      `db:"success"`
	Attempts   int       `db:"attempts"`
	DurationMs int64     `db:"duration_ms"`
	ErrorKinds string    `db:"error_kinds"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *eventRepo) AppendRender(ctx context.Context, data RenderEventData) (string, error) {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return "", fmt.Errorf("next sequence: %w", err)
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
INSERT INTO render_events (id, sequence, template_id, seed, success, attempts, duration_ms, error_kinds, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, seqNum, data.TemplateID, data.Seed, data.Success, data.Attempts, data.DurationMs,
		strings.Join(data.ErrorKinds, ","), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("save render event: %w", err)
	}
	return id, nil
}

func (r *eventRepo) RecentRenders(ctx context.Context, opts QueryOpts) ([]RenderEvent, error) {
	var (
		where []string
		args  []any
	)
	if opts.After > 0 {
		where = append(where, "sequence > ?")
		args = append(args, opts.After)
	}
	if opts.Before > 0 {
		where = append(where, "sequence < ?")
		args = append(args, opts.Before)
	}
	if !opts.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, opts.From.UTC())
	}
	if !opts.To.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, opts.To.UTC())
	}
	if opts.TemplateID != "" {
		where = append(where, "template_id = ?")
		args = append(args, opts.TemplateID)
	}

	q := `SELECT id, sequence, template_id, seed, success, attempts, duration_ms, error_kinds, created_at FROM render_events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY sequence DESC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	var rows []renderEventRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("query render events: %w", err)
	}

	out := make([]RenderEvent, 0, len(rows))
	for _, row := range rows {
		var kinds []string
		if row.ErrorKinds != "" {
			kinds = strings.Split(row.ErrorKinds, ",")
		}
		out = append(out, RenderEvent{
			ID:        row.ID,
			Sequence:  row.Sequence,
			Timestamp: row.CreatedAt,
			RenderEventData: RenderEventData{
				TemplateID: row.TemplateID,
				Seed:       row.Seed,
				Success:    row.Success,
				Attempts:   row.Attempts,
				DurationMs: row.DurationMs,
				ErrorKinds: kinds,
			},
		})
	}
	return out, nil
}
