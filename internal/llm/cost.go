package llm

// ModelCost is USD per million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost of u at these rates.
func (c ModelCost) Cost(u Usage) float64 {
	return float64(u.InputTokens)*c.InputPerMTok/1_000_000 +
		float64(u.OutputTokens)*c.OutputPerMTok/1_000_000
}

// EstimateCost prices u for modelID. The second result is false when
// the model is not in the table.
func EstimateCost(modelID string, u Usage) (float64, bool) {
	c, ok := modelCosts[modelID]
	if !ok {
		return 0, false
	}
	return c.Cost(u), true
}

// Published list prices as of 2026-02.
var modelCosts = map[string]ModelCost{
	"claude-haiku-4-5":           {1, 5},
	"claude-haiku-4-5-20251001":  {1, 5},
	"claude-sonnet-4-0":          {3, 15},
	"claude-sonnet-4-20250514":   {3, 15},
	"claude-sonnet-4-5":          {3, 15},
	"claude-sonnet-4-5-20250929": {3, 15},
	"claude-opus-4-5":            {5, 25},
	"claude-opus-4-5-20251101":   {5, 25},

	"gpt-4o":       {2.5, 10},
	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4.1":      {2, 8},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-4.1-nano": {0.1, 0.4},
	"gpt-5":        {1.25, 10},
	"gpt-5-mini":   {0.25, 2},
	"gpt-5-nano":   {0.05, 0.4},

	"gemini-2.0-flash":      {0.1, 0.4},
	"gemini-2.5-flash":      {0.3, 2.5},
	"gemini-2.5-flash-lite": {0.1, 0.4},
	"gemini-2.5-pro":        {1.25, 10},

	"google/gemini-2.5-flash": {0.3, 2.5},
}
