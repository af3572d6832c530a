package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/qforge/qforge/internal/store"
	"github.com/qforge/qforge/internal/validation"
)

// InvalidTemplateError is returned by SaveTemplate when the content fails
// static validation.
type InvalidTemplateError struct {
	Result validation.Result
}

func (e *InvalidTemplateError) Error() string {
	kinds := make([]string, 0, len(e.Result.Errors))
	for _, is := range e.Result.Errors {
		kinds = append(kinds, is.Kind)
	}
	return "invalid template: " + strings.Join(kinds, ", ")
}

// SaveOptions controls SaveTemplate.
type SaveOptions struct {
	// KeepRevisions prunes older revisions after the save; 0 keeps all.
	KeepRevisions int

	// AllowInvalid stores content even when validation reports errors.
	AllowInvalid bool
}

// SaveTemplate validates and stores t.
func (s *Service) SaveTemplate(ctx context.Context, t store.Template, opts SaveOptions) (*store.Template, error) {
	if s.Templates == nil {
		return nil, ErrNoStore
	}
	if res := s.Engine.Validate(t.Content); !res.Valid && !opts.AllowInvalid {
		return nil, &InvalidTemplateError{Result: res}
	}

	saved, err := s.Templates.Put(ctx, t)
	if err != nil {
		return nil, err
	}
	if opts.KeepRevisions > 0 {
		if err := s.Templates.PruneRevisions(ctx, saved.ID, opts.KeepRevisions); err != nil {
			s.logger().Warn("prune revisions", "template", saved.ID, "err", err)
		}
	}
	s.logger().Debug("template saved", "template", saved.ID, "version", saved.Version)
	return saved, nil
}

// Template returns a stored template.
func (s *Service) Template(ctx context.Context, id string) (*store.Template, error) {
	if s.Templates == nil {
		return nil, ErrNoStore
	}
	return s.Templates.Template(ctx, id)
}

// ListTemplates lists stored templates.
func (s *Service) ListTemplates(ctx context.Context) ([]store.Template, error) {
	if s.Templates == nil {
		return nil, ErrNoStore
	}
	return s.Templates.List(ctx)
}

// DeleteTemplate removes a template and its revisions.
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	if s.Templates == nil {
		return ErrNoStore
	}
	if err := s.Templates.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	return nil
}

// Revisions returns a template's earlier versions, newest first.
func (s *Service) Revisions(ctx context.Context, id string) ([]store.Revision, error) {
	if s.Templates == nil {
		return nil, ErrNoStore
	}
	return s.Templates.Revisions(ctx, id)
}
