// Package filter implements the request filtering engine: section extraction,
// system prompt rewriting, the model allow-list policy, and the per-request
// orchestrator that ties them together.
//
// DESIGN: Every function here is a pure, in-memory transformation. The engine
// holds no cross-request state beyond the read-only allow-list, so it is safe
// to share across goroutines without locking.
package filter

// TokenEstimateRatio is the approximate number of characters per token.
// Character-based estimation is cheap and tokenizer-independent; the counts
// are used for observability only, never for correctness decisions.
const TokenEstimateRatio = 4

// EstimateTokens returns an approximate token count for text: len/4, rounded
// down. Zero for empty input.
func EstimateTokens(text string) int {
	return len(text) / TokenEstimateRatio
}
