package authoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/qforge/qforge/internal/document"
	"github.com/qforge/qforge/internal/llm"
	"github.com/qforge/qforge/internal/validation"
)

var validate = validator.New()

// Drafter turns a skill description into candidate templates.
type Drafter struct {
	provider llm.Provider
	config   Config
	log      *slog.Logger
}

// New creates a Drafter. log may be nil.
func New(provider llm.Provider, cfg Config, log *slog.Logger) *Drafter {
	if log == nil {
		log = slog.Default()
	}
	return &Drafter{provider: provider, config: cfg, log: log}
}

// Draft asks the model for in.Count templates. Drafts that fail static
// validation are sent back for repair up to Config.RepairAttempts times;
// whatever still fails is returned with its validation result so the
// caller can decide.
func (d *Drafter) Draft(ctx context.Context, in DraftInput) (*Batch, error) {
	if in.Count == 0 {
		in.Count = 1
	}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid draft input: %w", err)
	}

	msgs := []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(in, d.config)}}
	resp, out, err := d.generate(llm.WithPurpose(ctx, llm.PurposeDraft), msgs)
	if err != nil {
		return nil, err
	}
	batch := &Batch{Usage: resp.Usage, Model: resp.Model}
	drafts, err := d.convert(out)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < d.config.RepairAttempts && invalid(drafts) > 0; attempt++ {
		titles := make([]string, len(drafts))
		results := make([]validation.Result, len(drafts))
		for i, dr := range drafts {
			titles[i], results[i] = dr.Title, dr.Validation
		}
		msgs = append(msgs,
			llm.Message{Role: llm.RoleAssistant, Content: string(resp.Content)},
			llm.Message{Role: llm.RoleUser, Content: buildRepairMessage(titles, results)},
		)

		fixedResp, fixedOut, err := d.generate(llm.WithPurpose(ctx, llm.PurposeRepair), msgs)
		if err != nil {
			d.log.Warn("draft repair failed", "attempt", attempt+1, "err", err)
			break
		}
		batch.Usage = batch.Usage.Add(fixedResp.Usage)
		fixed, err := d.convert(fixedOut)
		if err != nil {
			d.log.Warn("draft repair unusable", "attempt", attempt+1, "err", err)
			break
		}
		if invalid(fixed) < invalid(drafts) {
			drafts, resp = fixed, fixedResp
			batch.Repaired = true
		}
	}

	batch.Drafts, batch.Duplicates = dedup(drafts, in.Avoid)
	d.log.Debug("drafted templates",
		"skill", in.Skill,
		"drafts", len(batch.Drafts),
		"invalid", invalid(batch.Drafts),
		"duplicates", batch.Duplicates,
		"repaired", batch.Repaired)
	return batch, nil
}

func (d *Drafter) generate(ctx context.Context, msgs []llm.Message) (*llm.Response, draftsOutput, error) {
	resp, err := d.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    msgs,
		Schema:      DraftSchema,
		MaxTokens:   d.config.MaxTokens,
		Temperature: d.config.Temperature,
	})
	if err != nil {
		return nil, draftsOutput{}, fmt.Errorf("LLM generation failed: %w", err)
	}
	var out draftsOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, draftsOutput{}, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	return resp, out, nil
}

func (d *Drafter) convert(out draftsOutput) ([]Draft, error) {
	if len(out.Drafts) == 0 {
		return nil, fmt.Errorf("model returned no drafts")
	}
	drafts := make([]Draft, 0, len(out.Drafts))
	for _, o := range out.Drafts {
		content, err := toYAML(o)
		if err != nil {
			return nil, fmt.Errorf("encode draft %q: %w", o.Title, err)
		}
		drafts = append(drafts, Draft{
			ID:         uuid.NewString(),
			Title:      strings.TrimSpace(o.Title),
			Difficulty: o.Difficulty,
			Content:    content,
			Validation: validation.Validate(content),
		})
	}
	return drafts, nil
}

func invalid(drafts []Draft) int {
	n := 0
	for _, d := range drafts {
		if !d.Valid() {
			n++
		}
	}
	return n
}

// dedup drops drafts whose question repeats an earlier draft or one of
// the avoided questions.
func dedup(drafts []Draft, avoid []string) ([]Draft, int) {
	seen := make(map[string]bool, len(avoid)+len(drafts))
	for _, q := range avoid {
		seen[normalize(q)] = true
	}
	out := drafts[:0]
	for _, d := range drafts {
		key := normalize(questionText(d.Content))
		if key != "" && seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out, len(drafts) - len(out)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func questionText(content string) string {
	doc, err := document.Parse(content)
	if err != nil {
		return ""
	}
	q, _ := doc.Text("question")
	return q
}
