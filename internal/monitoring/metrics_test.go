package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCollector_Counters(t *testing.T) {
	mc := NewMetricsCollector()

	mc.RecordRequest(true)
	mc.RecordRequest(true)
	mc.RecordRequest(false)
	mc.RecordFiltered(700, 200, 175, 50, 2)
	mc.RecordFiltered(300, 100, 75, 25, 1)
	mc.RecordPassthrough()

	stats := mc.Stats()
	assert.Equal(t, int64(3), stats["requests"])
	assert.Equal(t, int64(2), stats["successes"])
	assert.Equal(t, int64(2), stats["filtered"])
	assert.Equal(t, int64(1), stats["passthrough"])

	full := mc.FullStats()
	assert.Equal(t, int64(3), full.Requests.Total)
	assert.Equal(t, int64(1), full.Requests.Failed)
	assert.Equal(t, int64(1000), full.Savings.OriginalChars)
	assert.Equal(t, int64(300), full.Savings.FilteredChars)
	assert.Equal(t, int64(175), full.Savings.TokensSaved)
	assert.Equal(t, int64(3), full.Savings.SectionsRemoved)
	assert.InDelta(t, 70.0, full.Savings.SavedPct, 0.001)
}

func TestMetricsCollector_SavedPctZeroGuard(t *testing.T) {
	mc := NewMetricsCollector()
	assert.Zero(t, mc.FullStats().Savings.SavedPct)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{90 * time.Second, "1m"},
		{45 * time.Minute, "45m"},
		{3 * time.Hour, "3h 0m"},
		{26*time.Hour + 5*time.Minute, "1d 2h 5m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatDuration(tt.d))
	}
}
