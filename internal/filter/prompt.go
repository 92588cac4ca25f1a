package filter

import (
	"strings"
	"time"
)

// EnvStub is the fixed minimal environment block injected into every filtered
// system message. The placeholders are literal text by design: resolving live
// values is the caller's concern, not the filter's.
const EnvStub = `<env>
  Working directory: (current directory)
  Platform: linux
  Today's date: (current date)
</env>`

// FilterOutcome is the result of filtering one system message.
//
// Invariant: len(Filtered) == len(Original) - sum of removed span lengths
// + len(EnvStub). Deleting the removed spans from Original and inserting the
// stub at StubOffset deterministically reproduces Filtered.
type FilterOutcome struct {
	Original string
	Filtered string

	// Removed sections in source order (by start offset).
	Removed []SectionMatch

	// StubOffset is where EnvStub sits in Filtered: the position of the first
	// removed environment block, or the end of the text when none was removed.
	StubOffset int

	OriginalChars  int
	FilteredChars  int
	OriginalTokens int
	FilteredTokens int

	Elapsed time.Duration
}

// FilterPrompt removes every recognized section from text and injects the
// minimal environment stub. The stub replaces the first removed environment
// block in place; when no environment block was removed it is appended, so
// every filtered system message carries consistent minimal context — even one
// that contained no sections at all. Empty input yields exactly the stub.
func FilterPrompt(text string) FilterOutcome {
	start := time.Now()

	matches := FindSections(text)

	var b strings.Builder
	b.Grow(len(text))
	stubOffset := -1
	prev := 0
	for _, m := range matches {
		if m.Kind == SectionEnvBlock && stubOffset < 0 {
			stubOffset = b.Len() + (m.Start - prev)
		}
		b.WriteString(text[prev:m.Start])
		prev = m.End
	}
	b.WriteString(text[prev:])
	gaps := b.String()

	if stubOffset < 0 {
		stubOffset = len(gaps)
	}
	filtered := gaps[:stubOffset] + EnvStub + gaps[stubOffset:]

	return FilterOutcome{
		Original:       text,
		Filtered:       filtered,
		Removed:        matches,
		StubOffset:     stubOffset,
		OriginalChars:  len(text),
		FilteredChars:  len(filtered),
		OriginalTokens: EstimateTokens(text),
		FilteredTokens: EstimateTokens(filtered),
		Elapsed:        time.Since(start),
	}
}
