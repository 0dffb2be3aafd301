package drover

// Usage tracks token consumption for one inference call.
//
// Invariant:
//
//	InputTokens      = non-cached prompt tokens
//	CacheReadTokens  = prompt tokens served from cache (cache hit)
//	CacheWriteTokens = prompt tokens written to cache (cache creation)
//
// Each category has a different price. The transport normalizes its
// API-specific usage fields to this invariant.
type Usage struct {
	InputTokens      int
	OutputTokens     int
	CacheReadTokens  int
	CacheWriteTokens int
}

// Total returns the combined token count across all categories.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens + u.CacheReadTokens + u.CacheWriteTokens
}
