package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type llmRequestRow struct {
	ID           string    `db:"id"`
	Sequence     int64     `db:"sequence"`
	Provider     string    `db:"provider"`
	Model        string    `db:"model"`
	Purpose      string    `db:"purpose"`
	InputTokens  int       `db:"input_tokens"`
	OutputTokens int       `db:"output_tokens"`
	LatencyMs    int64     `db:"latency_ms"`
	Success      bool      `db:"success"`
	ErrorMessage string    `db:"error_message"`
	RequestBody  string    `db:"request_body"`
	ResponseBody string    `db:"response_body"`
	CreatedAt    time.Time `db:"created_at"`
}

func (row llmRequestRow) event() LLMRequestEvent {
	return LLMRequestEvent{
		ID:        row.ID,
		Sequence:  row.Sequence,
		Timestamp: row.CreatedAt,
		LLMRequestEventData: LLMRequestEventData{
			Provider:     row.Provider,
			Model:        row.Model,
			Purpose:      row.Purpose,
			InputTokens:  row.InputTokens,
			OutputTokens: row.OutputTokens,
			LatencyMs:    row.LatencyMs,
			Success:      row.Success,
			ErrorMessage: row.ErrorMessage,
			RequestBody:  row.RequestBody,
			ResponseBody: row.ResponseBody,
		},
	}
}

const llmRequestColumns = `id, sequence, provider, model, purpose, input_tokens, output_tokens,
	latency_ms, success, error_message, request_body, response_body, created_at`

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
INSERT INTO llm_request_events (`+llmRequestColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		uuid.NewString(), seqNum, data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
		data.ErrorMessage, data.RequestBody, data.ResponseBody, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}

	return nil
}

func (r *eventRepo) RecentLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	q := `SELECT ` + llmRequestColumns + ` FROM llm_request_events`
	var args []any
	if opts.After > 0 {
		q += " WHERE sequence > ?"
		args = append(args, opts.After)
	}
	q += " ORDER BY sequence DESC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	var rows []llmRequestRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("query LLM request events: %w", err)
	}
	out := make([]LLMRequestEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.event())
	}
	return out, nil
}

func (r *eventRepo) LLMRequest(ctx context.Context, id string) (*LLMRequestEvent, error) {
	var row llmRequestRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(
		`SELECT `+llmRequestColumns+` FROM llm_request_events WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: llm request %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM request event: %w", err)
	}
	e := row.event()
	return &e, nil
}

func (r *eventRepo) LLMUsage(ctx context.Context) ([]LLMUsage, error) {
	var out []LLMUsage
	err := r.db.SelectContext(ctx, &out, `
SELECT purpose, model, COUNT(*) AS calls,
	COALESCE(SUM(input_tokens), 0) AS input_tokens,
	COALESCE(SUM(output_tokens), 0) AS output_tokens,
	CAST(COALESCE(AVG(latency_ms), 0) AS BIGINT) AS avg_latency_ms
FROM llm_request_events
GROUP BY purpose, model
ORDER BY purpose, model`)
	if err != nil {
		return nil, fmt.Errorf("aggregate LLM usage: %w", err)
	}
	return out, nil
}
