package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a template or event id is unknown.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit      int       // max results (0 = unlimited)
	After      int64     // sequence > After
	Before     int64     // sequence < Before
	From       time.Time // timestamp >= From
	To         time.Time // timestamp <= To
	TemplateID string    // exact match when set
}

// Template is a stored template document.
type Template struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Version   int64     `db:"version" json:"version"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Revision is an earlier version of a template's content.
type Revision struct {
	TemplateID string    `db:"template_id" json:"template_id"`
	Version    int64     `db:"version" json:"version"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// TemplateRepo stores template documents by id.
type TemplateRepo interface {
	// Get returns the template text. It is all the render path needs.
	Get(ctx context.Context, id string) (string, error)

	// Template returns the stored template with its metadata.
	Template(ctx context.Context, id string) (*Template, error)

	// Put creates or replaces a template, bumping its version and
	// recording a revision.
	Put(ctx context.Context, t Template) (*Template, error)

	// List returns every template ordered by id.
	List(ctx context.Context) ([]Template, error)

	// Delete removes a template and its revisions.
	Delete(ctx context.Context, id string) error

	// Revisions returns a template's recorded revisions, newest first.
	Revisions(ctx context.Context, id string) ([]Revision, error)

	// PruneRevisions deletes all but the keep most recent revisions.
	PruneRevisions(ctx context.Context, id string, keep int) error
}

// RenderEventData captures the outcome of one render.
type RenderEventData struct {
	TemplateID string   `json:"template_id,omitempty"`
	Seed       int64    `json:"seed"`
	Success    bool     `json:"success"`
	Attempts   int      `json:"attempts"`
	DurationMs int64    `json:"duration_ms"`
	ErrorKinds []string `json:"error_kinds,omitempty"`
}

// RenderEvent is a recorded render.
type RenderEvent struct {
	ID        string    `json:"id"`
	Sequence  int64     `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	RenderEventData
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a recorded LLM request.
type LLMRequestEvent struct {
	ID        string
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage is the token usage of one purpose and model pair.
type LLMUsage struct {
	Purpose      string `db:"purpose"`
	Model        string `db:"model"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	AvgLatencyMs int64  `db:"avg_latency_ms"`
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendRender records a render and returns the event id.
	AppendRender(ctx context.Context, data RenderEventData) (string, error)

	// RecentRenders returns render events, newest first.
	RecentRenders(ctx context.Context, opts QueryOpts) ([]RenderEvent, error)

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// RecentLLMRequests returns LLM request events, newest first.
	RecentLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// LLMRequest returns one LLM request event by id.
	LLMRequest(ctx context.Context, id string) (*LLMRequestEvent, error)

	// LLMUsage aggregates recorded LLM calls per purpose and model.
	LLMUsage(ctx context.Context) ([]LLMUsage, error)
}
