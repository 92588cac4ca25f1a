package filter

import (
	"sort"
	"strings"
)

// SectionKind identifies a removable region of a system prompt.
type SectionKind string

const (
	// SectionProjectTree is the repository file-tree dump: <project>...</project>.
	SectionProjectTree SectionKind = "project_tree"
	// SectionEnvBlock is the verbose environment block: <env>...</env>.
	SectionEnvBlock SectionKind = "environment_block"
	// SectionInstructions is an instruction-file block: starts at the
	// "Instructions from:" label and runs to the next blank line or end of text.
	SectionInstructions SectionKind = "instructions_block"
)

// Markers for the delimited section kinds and the label for instruction blocks.
const (
	projectStartMarker = "<project>"
	projectEndMarker   = "</project>"
	envStartMarker     = "<env>"
	envEndMarker       = "</env>"
	instructionsLabel  = "Instructions from:"
)

// SectionMatch is a located section: its kind, the raw matched text, and the
// character span [Start, End) in the source.
type SectionMatch struct {
	Kind  SectionKind `json:"kind"`
	Raw   string      `json:"-"`
	Start int         `json:"start"`
	End   int         `json:"end"`
}

// FindSections locates all removable sections in text, ordered by start
// offset. Each kind is searched independently; all non-overlapping occurrences
// are returned. If matches of different kinds would overlap, the
// earliest-starting match wins and the later one is dropped.
//
// The canonical environment stub injected by FilterPrompt is exempt from
// environment-block matching, so filtering an already-filtered prompt removes
// nothing (repeated filtering is stable).
func FindSections(text string) []SectionMatch {
	var matches []SectionMatch
	matches = append(matches, findDelimited(text, SectionProjectTree, projectStartMarker, projectEndMarker)...)
	matches = append(matches, findDelimited(text, SectionEnvBlock, envStartMarker, envEndMarker)...)
	matches = append(matches, findInstructions(text)...)

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Start < matches[j].Start
	})

	// Drop overlaps: earliest start wins. Should not happen given marker
	// distinctness, but the contract requires it.
	out := matches[:0]
	lastEnd := -1
	for _, m := range matches {
		if m.Start < lastEnd {
			continue
		}
		out = append(out, m)
		lastEnd = m.End
	}
	return out
}

// findDelimited returns every shortest span between a start marker and the
// next matching end marker. Absence of either marker yields no match.
func findDelimited(text string, kind SectionKind, start, end string) []SectionMatch {
	var matches []SectionMatch
	pos := 0
	for {
		s := strings.Index(text[pos:], start)
		if s < 0 {
			return matches
		}
		s += pos
		e := strings.Index(text[s+len(start):], end)
		if e < 0 {
			return matches
		}
		e += s + len(start) + len(end)

		raw := text[s:e]
		// The minimal stub injected by FilterPrompt must never be re-matched
		// as removable, or repeated filtering would churn forever.
		if kind != SectionEnvBlock || raw != EnvStub {
			matches = append(matches, SectionMatch{Kind: kind, Raw: raw, Start: s, End: e})
		}
		pos = e
	}
}

// findInstructions returns every label-anchored instructions block. A block
// runs from the label to the next blank line (exclusive) or end of text.
// A blank line inside a multi-paragraph instruction file terminates the block
// early; this matches the legacy boundary rule and is a known limitation.
func findInstructions(text string) []SectionMatch {
	var matches []SectionMatch
	pos := 0
	for {
		s := strings.Index(text[pos:], instructionsLabel)
		if s < 0 {
			return matches
		}
		s += pos
		e := strings.Index(text[s:], "\n\n")
		if e < 0 {
			e = len(text)
		} else {
			e += s
		}
		matches = append(matches, SectionMatch{Kind: SectionInstructions, Raw: text[s:e], Start: s, End: e})
		pos = e
		if pos >= len(text) {
			return matches
		}
	}
}
