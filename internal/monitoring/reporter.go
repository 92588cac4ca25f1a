// Package monitoring - reporter.go renders filter outcomes as log records.
//
// DESIGN: The Reporter is a pure formatting step. It turns a RequestStats
// into an ordered record sequence (start, per-section, filtered content,
// summary — or a single passthrough record) and never performs I/O itself;
// the Tracker and the websocket hub decide where records go.
package monitoring

import (
	"fmt"
	"time"

	"github.com/ctxfilter/ollama-context-filter/internal/filter"
)

// ReporterConfig controls record verbosity. It is an explicit immutable
// structure passed at construction, not ambient global state, so the reporter
// is trivially testable with different configurations.
type ReporterConfig struct {
	// Detailed enables the original-prompt, per-section, and filtered-prompt
	// records. Start, summary, and passthrough records are always emitted.
	Detailed bool `yaml:"detailed"`

	// ShowFullContent emits the complete filtered text in the
	// filtered-prompt record instead of a bounded preview.
	ShowFullContent bool `yaml:"show_full_content"`

	// MaxPreviewLen caps preview length in characters. Longer content is
	// truncated with an explicit omission indicator.
	MaxPreviewLen int `yaml:"max_preview_len"`
}

// RecordKind identifies a rendered record.
type RecordKind string

const (
	RecordStart          RecordKind = "filter_start"
	RecordOriginalPrompt RecordKind = "original_prompt"
	RecordSectionRemoved RecordKind = "section_removed"
	RecordFilteredPrompt RecordKind = "filtered_prompt"
	RecordSummary        RecordKind = "filter_summary"
	RecordPassthrough    RecordKind = "passthrough"
)

// SectionSize pairs a removed section kind with its span size, for summaries.
type SectionSize struct {
	Kind  filter.SectionKind `json:"kind"`
	Chars int                `json:"chars"`
}

// Record is one rendered log record. Line is the human-readable form; the
// structured fields feed the JSONL sink and the live event feed.
type Record struct {
	Kind         RecordKind         `json:"kind"`
	Model        string             `json:"model,omitempty"`
	Section      filter.SectionKind `json:"section,omitempty"`
	Chars        int                `json:"chars,omitempty"`
	Tokens       int                `json:"tokens,omitempty"`
	Preview      string             `json:"preview,omitempty"`
	Content      string             `json:"content,omitempty"`
	Sections     []SectionSize      `json:"sections,omitempty"`
	ReductionPct float64            `json:"reduction_pct,omitempty"`
	ElapsedMs    float64            `json:"elapsed_ms,omitempty"`
	Reason       string             `json:"reason,omitempty"`
	Line         string             `json:"line"`
}

// Reporter renders RequestStats into record sequences.
type Reporter struct {
	cfg ReporterConfig
	now func() time.Time
}

// NewReporter creates a reporter with the given configuration.
func NewReporter(cfg ReporterConfig) *Reporter {
	if cfg.MaxPreviewLen <= 0 {
		cfg.MaxPreviewLen = DefaultMaxPreviewLen
	}
	return &Reporter{cfg: cfg, now: time.Now}
}

// RenderEvents converts a request's filter outcome into an ordered record
// sequence. Passthrough requests yield exactly one record.
func (r *Reporter) RenderEvents(stats *filter.RequestStats) []Record {
	if stats == nil {
		return nil
	}

	if !stats.Filtered {
		return []Record{{
			Kind:   RecordPassthrough,
			Model:  stats.Model,
			Reason: "not in allow-list",
			Line:   fmt.Sprintf("[PASS] model=%s: not in allow-list", stats.Model),
		}}
	}

	records := []Record{{
		Kind:  RecordStart,
		Model: stats.Model,
		Line:  fmt.Sprintf("[FILTER] start model=%s time=%s", stats.Model, r.now().Format(time.RFC3339)),
	}}

	if r.cfg.Detailed {
		for _, mo := range stats.Messages {
			if mo.Outcome == nil {
				continue
			}
			records = append(records, r.renderMessage(mo.Outcome)...)
		}
	}

	records = append(records, r.renderSummary(stats))
	return records
}

// renderMessage emits original-prompt, per-section, and filtered-prompt
// records for one filtered system message.
func (r *Reporter) renderMessage(o *filter.FilterOutcome) []Record {
	records := []Record{{
		Kind:    RecordOriginalPrompt,
		Chars:   o.OriginalChars,
		Tokens:  o.OriginalTokens,
		Preview: r.preview(o.Original),
		Line: fmt.Sprintf("[FILTER] original prompt: %d chars (~%d tokens): %q",
			o.OriginalChars, o.OriginalTokens, r.preview(o.Original)),
	}}

	for _, m := range o.Removed {
		records = append(records, Record{
			Kind:    RecordSectionRemoved,
			Section: m.Kind,
			Chars:   len(m.Raw),
			Tokens:  filter.EstimateTokens(m.Raw),
			Preview: r.preview(m.Raw),
			Line: fmt.Sprintf("[FILTER] removed %s: %d chars (~%d tokens): %q",
				m.Kind, len(m.Raw), filter.EstimateTokens(m.Raw), r.preview(m.Raw)),
		})
	}

	fp := Record{
		Kind:   RecordFilteredPrompt,
		Chars:  o.FilteredChars,
		Tokens: o.FilteredTokens,
	}
	if r.cfg.ShowFullContent {
		fp.Content = o.Filtered
		fp.Line = fmt.Sprintf("[FILTER] filtered prompt: %d chars (~%d tokens):\n%s",
			o.FilteredChars, o.FilteredTokens, o.Filtered)
	} else {
		fp.Preview = r.preview(o.Filtered)
		fp.Line = fmt.Sprintf("[FILTER] filtered prompt: %d chars (~%d tokens): %q",
			o.FilteredChars, o.FilteredTokens, fp.Preview)
	}
	return append(records, fp)
}

func (r *Reporter) renderSummary(stats *filter.RequestStats) Record {
	var sections []SectionSize
	var elapsed time.Duration
	for _, mo := range stats.Messages {
		if mo.Outcome == nil {
			continue
		}
		elapsed += mo.Outcome.Elapsed
		for _, m := range mo.Outcome.Removed {
			sections = append(sections, SectionSize{Kind: m.Kind, Chars: len(m.Raw)})
		}
	}

	elapsedMs := float64(elapsed.Microseconds()) / 1000.0
	line := fmt.Sprintf("[FILTER] summary model=%s %d -> %d chars (~%d -> ~%d tokens, %.1f%% reduction)",
		stats.Model, stats.TotalOriginalChars, stats.TotalFilteredChars,
		stats.TotalOriginalTokens, stats.TotalFilteredTokens, stats.ReductionPct)
	for _, s := range sections {
		line += fmt.Sprintf(" removed=%s:%d", s.Kind, s.Chars)
	}
	line += fmt.Sprintf(" elapsed=%.3fms", elapsedMs)

	return Record{
		Kind:         RecordSummary,
		Model:        stats.Model,
		Chars:        stats.TotalFilteredChars,
		Tokens:       stats.TotalFilteredTokens,
		Sections:     sections,
		ReductionPct: stats.ReductionPct,
		ElapsedMs:    elapsedMs,
		Line:         line,
	}
}

// preview bounds content to MaxPreviewLen characters, marking how much was
// left out.
func (r *Reporter) preview(content string) string {
	if len(content) <= r.cfg.MaxPreviewLen {
		return content
	}
	omitted := len(content) - r.cfg.MaxPreviewLen
	return fmt.Sprintf("%s... (%d more chars omitted)", content[:r.cfg.MaxPreviewLen], omitted)
}
