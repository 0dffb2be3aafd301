package drover

// ModelPrice holds the four per-token USD prices for one model.
type ModelPrice struct {
	InputTokenPrice      float64
	OutputTokenPrice     float64
	CacheWriteTokenPrice float64
	CacheHitTokenPrice   float64
}

// PriceTable maps model IDs to per-token prices. An absent model yields
// all-zero prices: cost is silently reported as 0, never an error.
type PriceTable map[string]ModelPrice

// Cost computes the monetary cost of the given usage under the table's
// prices for model. It is a pure function of its inputs.
func (t PriceTable) Cost(model string, u Usage) float64 {
	p := t[model]
	return float64(u.InputTokens)*p.InputTokenPrice +
		float64(u.OutputTokens)*p.OutputTokenPrice +
		float64(u.CacheWriteTokens)*p.CacheWriteTokenPrice +
		float64(u.CacheReadTokens)*p.CacheHitTokenPrice
}

// DefaultPrices carries per-token prices for current Claude models.
// Callers with newer models or negotiated rates supply their own table.
var DefaultPrices = PriceTable{
	"claude-sonnet-4-20250514": {
		InputTokenPrice:      3e-6,
		OutputTokenPrice:     15e-6,
		CacheWriteTokenPrice: 3.75e-6,
		CacheHitTokenPrice:   0.3e-6,
	},
	"claude-opus-4-20250514": {
		InputTokenPrice:      15e-6,
		OutputTokenPrice:     75e-6,
		CacheWriteTokenPrice: 18.75e-6,
		CacheHitTokenPrice:   1.5e-6,
	},
	"claude-3-5-haiku-20241022": {
		InputTokenPrice:      0.8e-6,
		OutputTokenPrice:     4e-6,
		CacheWriteTokenPrice: 1e-6,
		CacheHitTokenPrice:   0.08e-6,
	},
}
