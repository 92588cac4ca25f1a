package filter

import (
	"errors"
	"fmt"
	"time"

	"github.com/ctxfilter/ollama-context-filter/internal/chat"
)

// ErrInvalidRequest signals a request that violates the well-formedness
// precondition (missing model id, unrecognized message role). The transport
// handles it by forwarding the original request unchanged: failure to filter
// must never prevent the underlying request from completing.
var ErrInvalidRequest = errors.New("invalid chat request")

// MessageOutcome records what happened to one message.
// Non-system messages (and all messages of a passthrough request) carry only
// the lightweight size note; Outcome is set only when the message was filtered.
type MessageOutcome struct {
	Index          int
	Role           chat.Role
	Filtered       bool
	OriginalChars  int
	OriginalTokens int
	Outcome        *FilterOutcome
}

// RequestStats aggregates filtering over a whole request. Created fresh per
// request, handed to the event reporter, then discarded — nothing persists
// across requests.
type RequestStats struct {
	Model    string
	Filtered bool
	Messages []MessageOutcome

	// Totals over filtered messages only. Messages that were never candidates
	// for reduction are excluded from the ratio arithmetic.
	TotalOriginalChars  int
	TotalFilteredChars  int
	TotalOriginalTokens int
	TotalFilteredTokens int

	// ReductionPct is 100 * (1 - filtered/original) over the totals above.
	// Zero when nothing was filtered or the original size was zero. May be
	// negative when the stub outweighs what was removed; that is a valid
	// result, not an error.
	ReductionPct float64

	Elapsed time.Duration
}

// Engine orchestrates per-request filtering: policy decision, system message
// rewriting, stats aggregation.
type Engine struct {
	policy *Policy
}

// NewEngine creates an engine bound to the given allow-list policy.
func NewEngine(policy *Policy) *Engine {
	return &Engine{policy: policy}
}

// ProcessRequest applies the filter pipeline to a request.
//
// Guarantees: message count, order, and roles are always preserved; only
// system message content may change, and only when the model is allow-listed.
// The passthrough path returns the input messages untouched without ever
// invoking the section extractor.
func (e *Engine) ProcessRequest(req chat.Request) (chat.Request, *RequestStats, error) {
	if req.Model == "" {
		return req, nil, fmt.Errorf("%w: missing model id", ErrInvalidRequest)
	}
	for i, msg := range req.Messages {
		if !msg.Role.Valid() {
			return req, nil, fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidRequest, i, msg.Role)
		}
	}

	stats := &RequestStats{Model: req.Model}

	if !e.policy.ShouldFilter(req.Model) {
		return req, stats, nil
	}
	stats.Filtered = true

	start := time.Now()
	out := chat.Request{Model: req.Model, Messages: make([]chat.Message, len(req.Messages))}
	for i, msg := range req.Messages {
		mo := MessageOutcome{
			Index:          i,
			Role:           msg.Role,
			OriginalChars:  len(msg.Content),
			OriginalTokens: EstimateTokens(msg.Content),
		}

		if msg.Role == chat.RoleSystem {
			outcome := FilterPrompt(msg.Content)
			mo.Filtered = true
			mo.Outcome = &outcome
			out.Messages[i] = chat.Message{Role: msg.Role, Content: outcome.Filtered}

			stats.TotalOriginalChars += outcome.OriginalChars
			stats.TotalFilteredChars += outcome.FilteredChars
			stats.TotalOriginalTokens += outcome.OriginalTokens
			stats.TotalFilteredTokens += outcome.FilteredTokens
		} else {
			out.Messages[i] = msg
		}

		stats.Messages = append(stats.Messages, mo)
	}
	stats.Elapsed = time.Since(start)
	stats.ReductionPct = ReductionPercent(stats.TotalOriginalChars, stats.TotalFilteredChars)

	return out, stats, nil
}

// ReductionPercent computes 100 * (1 - filtered/original), guarded against a
// zero original size (reported as 0%, never a division error).
func ReductionPercent(original, filtered int) float64 {
	if original == 0 {
		return 0
	}
	return 100 * (1 - float64(filtered)/float64(original))
}
