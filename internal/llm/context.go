package llm

import "context"

// Purposes label each llm_request event so usage can be split by the
// authoring step that spent it.
const (
	PurposeDraft      = "template-draft"
	PurposeRepair     = "template-repair"
	PurposeUnlabelled = "unlabelled"
)

type purposeKey struct{}

func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or PurposeUnlabelled.
func PurposeFrom(ctx context.Context) string {
	if p, _ := ctx.Value(purposeKey{}).(string); p != "" {
		return p
	}
	return PurposeUnlabelled
}
