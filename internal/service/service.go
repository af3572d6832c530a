// Package service runs renders on behalf of the CLI and HTTP adapters
// and keeps the render log and artifact archive up to date.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/qforge/qforge/internal/artifact"
	"github.com/qforge/qforge/internal/engine"
	"github.com/qforge/qforge/internal/store"
)

// ErrNoStore is returned for template operations when no store is set.
var ErrNoStore = errors.New("no template store configured")

// Service wires the engine to optional persistence. Any of Templates,
// Events and Artifacts may be nil.
type Service struct {
	Engine    *engine.Engine
	Templates store.TemplateRepo
	Events    store.EventRepo
	Artifacts artifact.Store
	Log       *slog.Logger
}

// Rendered is a result plus the id it was recorded under. RenderID is
// empty when no event repo is configured.
type Rendered struct {
	*engine.Result
	RenderID string `json:"render_id,omitempty"`
}

// Render renders src. templateID is recorded with the event and may be
// empty for ad hoc sources.
func (s *Service) Render(ctx context.Context, src string, seed *int64, templateID string) *Rendered {
	res := s.Engine.Render(engine.Request{Source: src, Seed: seed})
	return &Rendered{Result: res, RenderID: s.record(ctx, templateID, res)}
}

// RenderTemplate renders the stored template id. Unknown ids return an
// error wrapping store.ErrNotFound.
func (s *Service) RenderTemplate(ctx context.Context, id string, seed *int64) (*Rendered, error) {
	if s.Templates == nil {
		return nil, ErrNoStore
	}
	res, err := s.Engine.RenderTemplate(ctx, s.Templates, id, seed)
	if err != nil {
		return nil, err
	}
	return &Rendered{Result: res, RenderID: s.record(ctx, id, res)}, nil
}

// record appends the render event and archives artifacts. Failures are
// logged; the render itself already succeeded or failed on its own.
func (s *Service) record(ctx context.Context, templateID string, res *engine.Result) string {
	if s.Events == nil {
		return ""
	}
	id, err := s.Events.AppendRender(ctx, store.RenderEventData{
		TemplateID: templateID,
		Seed:       res.Seed,
		Success:    res.Success,
		Attempts:   res.Attempts,
		DurationMs: res.Metrics.GenerationTimeMs,
		ErrorKinds: res.ErrorKinds(),
	})
	if err != nil {
		s.logger().Warn("record render event", "template", templateID, "err", err)
		return ""
	}
	if s.Artifacts != nil {
		if err := artifact.Archive(ctx, s.Artifacts, id, res); err != nil {
			s.logger().Warn("archive render", "render_id", id, "err", err)
		}
	}
	return id
}

// History returns recent render events.
func (s *Service) History(ctx context.Context, opts store.QueryOpts) ([]store.RenderEvent, error) {
	if s.Events == nil {
		return nil, fmt.Errorf("render history: %w", ErrNoStore)
	}
	return s.Events.RecentRenders(ctx, opts)
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}
