package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
)

// sequenceSchema holds the single-row counter behind event sequences.
// Render and LLM events share it so their relative order survives being
// stored in separate tables.
var sequenceSchema = []string{
	`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val BIGINT NOT NULL DEFAULT 1
	)`,
	`INSERT INTO global_sequence (id, next_val) VALUES (1, 1) ON CONFLICT (id) DO NOTHING`,
}

// sequenceCounter hands out event sequence numbers. The UPDATE ...
// RETURNING is atomic in both SQLite and PostgreSQL; the mutex only keeps
// one process from queueing on SQLite's write lock.
type sequenceCounter struct {
	mu sync.Mutex
	db *sqlx.DB
}

// Next returns the next sequence number, starting at 1.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	if err := sc.db.GetContext(ctx, &seq,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
