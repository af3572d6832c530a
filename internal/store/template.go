package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// templateRepo implements TemplateRepo over SQL.
type templateRepo struct {
	db *sqlx.DB
}

func (r *templateRepo) Get(ctx context.Context, id string) (string, error) {
	t, err := r.Template(ctx, id)
	if err != nil {
		return "", err
	}
	return t.Content, nil
}

func (r *templateRepo) Template(ctx context.Context, id string) (*Template, error) {
	var t Template
	err := r.db.GetContext(ctx, &t, r.db.Rebind(
		`SELECT id, title, content, version, updated_at FROM templates WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return &t, nil
}

func (r *templateRepo) Put(ctx context.Context, t Template) (*Template, error) {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		return nil, errors.New("template id is required")
	}
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
INSERT INTO templates (id, title, content, version, updated_at)
VALUES (?, ?, ?, 1, ?)
ON CONFLICT (id)
DO UPDATE SET title = excluded.title, content = excluded.content,
	version = templates.version + 1, updated_at = excluded.updated_at`),
		t.ID, t.Title, t.Content, now)
	if err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}

	var saved Template
	err = tx.GetContext(ctx, &saved, tx.Rebind(
		`SELECT id, title, content, version, updated_at FROM templates WHERE id = ?`), t.ID)
	if err != nil {
		return nil, fmt.Errorf("reload template: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO template_revisions (template_id, version, content, created_at) VALUES (?, ?, ?, ?)`),
		saved.ID, saved.Version, saved.Content, now)
	if err != nil {
		return nil, fmt.Errorf("save revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &saved, nil
}

func (r *templateRepo) List(ctx context.Context) ([]Template, error) {
	var out []Template
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, title, content, version, updated_at FROM templates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}

func (r *templateRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM templates WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM template_revisions WHERE template_id = ?`), id); err != nil {
		return fmt.Errorf("delete revisions: %w", err)
	}
	return tx.Commit()
}

func (r *templateRepo) Revisions(ctx context.Context, id string) ([]Revision, error) {
	var out []Revision
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
SELECT template_id, version, content, created_at FROM template_revisions
WHERE template_id = ? ORDER BY version DESC`), id)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	return out, nil
}

func (r *templateRepo) PruneRevisions(ctx context.Context, id string, keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
DELETE FROM template_revisions WHERE template_id = ? AND version NOT IN (
	SELECT version FROM template_revisions WHERE template_id = ? ORDER BY version DESC LIMIT ?
)`), id, id, keep)
	if err != nil {
		return fmt.Errorf("prune revisions: %w", err)
	}
	return nil
}
