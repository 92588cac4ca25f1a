package monitoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxfilter/ollama-context-filter/internal/chat"
	"github.com/ctxfilter/ollama-context-filter/internal/filter"
)

// filteredStats runs the real engine so record rendering is exercised against
// genuine outcomes rather than hand-built ones.
func filteredStats(t *testing.T, model, system string) *filter.RequestStats {
	t.Helper()
	engine := filter.NewEngine(filter.NewPolicy([]string{"llama3.2:1b"}))
	_, stats, err := engine.ProcessRequest(chat.Request{
		Model:    model,
		Messages: []chat.Message{{Role: chat.RoleSystem, Content: system}},
	})
	require.NoError(t, err)
	return stats
}

func TestRenderEvents_Passthrough(t *testing.T) {
	r := NewReporter(ReporterConfig{Detailed: true, MaxPreviewLen: 100})
	stats := filteredStats(t, "gpt-oss:120b", "anything")

	records := r.RenderEvents(stats)

	require.Len(t, records, 1)
	assert.Equal(t, RecordPassthrough, records[0].Kind)
	assert.Equal(t, "gpt-oss:120b", records[0].Model)
	assert.Equal(t, "not in allow-list", records[0].Reason)
	assert.Contains(t, records[0].Line, "not in allow-list")
}

func TestRenderEvents_FilteredSequence(t *testing.T) {
	r := NewReporter(ReporterConfig{Detailed: true, MaxPreviewLen: 100})
	system := "pre <project>tree dump</project> mid <env>env dump</env> post"
	stats := filteredStats(t, "llama3.2:1b", system)

	records := r.RenderEvents(stats)

	kinds := make([]RecordKind, 0, len(records))
	for _, rec := range records {
		kinds = append(kinds, rec.Kind)
	}
	assert.Equal(t, []RecordKind{
		RecordStart,
		RecordOriginalPrompt,
		RecordSectionRemoved,
		RecordSectionRemoved,
		RecordFilteredPrompt,
		RecordSummary,
	}, kinds)

	assert.Equal(t, filter.SectionProjectTree, records[2].Section)
	assert.Equal(t, filter.SectionEnvBlock, records[3].Section)
	assert.Equal(t, len("<project>tree dump</project>"), records[2].Chars)

	summary := records[len(records)-1]
	assert.Equal(t, "llama3.2:1b", summary.Model)
	require.Len(t, summary.Sections, 2)
	assert.InDelta(t, stats.ReductionPct, summary.ReductionPct, 0.001)
	assert.GreaterOrEqual(t, summary.ElapsedMs, 0.0)
}

func TestRenderEvents_NotDetailed(t *testing.T) {
	r := NewReporter(ReporterConfig{Detailed: false, MaxPreviewLen: 100})
	stats := filteredStats(t, "llama3.2:1b", "pre <env>dump</env> post")

	records := r.RenderEvents(stats)

	require.Len(t, records, 2)
	assert.Equal(t, RecordStart, records[0].Kind)
	assert.Equal(t, RecordSummary, records[1].Kind)
}

func TestRenderEvents_PreviewTruncation(t *testing.T) {
	r := NewReporter(ReporterConfig{Detailed: true, MaxPreviewLen: 10})
	system := "<project>" + strings.Repeat("x", 200) + "</project>"
	stats := filteredStats(t, "llama3.2:1b", system)

	records := r.RenderEvents(stats)

	var removed *Record
	for i := range records {
		if records[i].Kind == RecordSectionRemoved {
			removed = &records[i]
			break
		}
	}
	require.NotNil(t, removed)
	assert.Equal(t, "<project>x... (209 more chars omitted)", removed.Preview)
}

func TestRenderEvents_ShowFullContent(t *testing.T) {
	r := NewReporter(ReporterConfig{Detailed: true, ShowFullContent: true, MaxPreviewLen: 10})
	stats := filteredStats(t, "llama3.2:1b", "tiny")

	records := r.RenderEvents(stats)

	var fp *Record
	for i := range records {
		if records[i].Kind == RecordFilteredPrompt {
			fp = &records[i]
			break
		}
	}
	require.NotNil(t, fp)
	assert.Equal(t, "tiny"+filter.EnvStub, fp.Content)
	assert.Empty(t, fp.Preview)
}

func TestRenderEvents_NilStats(t *testing.T) {
	r := NewReporter(ReporterConfig{})
	assert.Nil(t, r.RenderEvents(nil))
}

func TestNewReporter_DefaultsPreviewLen(t *testing.T) {
	r := NewReporter(ReporterConfig{})
	long := strings.Repeat("a", DefaultMaxPreviewLen+50)
	assert.Contains(t, r.preview(long), "50 more chars omitted")
}
