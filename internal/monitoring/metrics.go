// Package monitoring - metrics.go provides simple counters.
//
// DESIGN: Lightweight in-memory counters for operational metrics:
//   - requests/successes:   total and successful request counts
//   - filtered/passthrough: filter decision outcomes
//   - chars/tokens:         original, filtered, and saved estimates
//
// For production, export these to Prometheus or similar.
package monitoring

import (
	"fmt"
	"sync/atomic"
	"time"
)

// MetricsCollector collects operational metrics.
type MetricsCollector struct {
	startedAt time.Time

	// Request counters
	requests    atomic.Int64
	successes   atomic.Int64
	filtered    atomic.Int64
	passthrough atomic.Int64

	// Savings counters (estimates over filtered system messages)
	totalOriginalChars   atomic.Int64
	totalFilteredChars   atomic.Int64
	totalOriginalTokens  atomic.Int64
	totalFilteredTokens  atomic.Int64
	totalSectionsRemoved atomic.Int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{startedAt: time.Now()}
}

// RecordRequest records a request outcome.
func (mc *MetricsCollector) RecordRequest(success bool) {
	mc.requests.Add(1)
	if success {
		mc.successes.Add(1)
	}
}

// RecordFiltered records a filtered request and its savings estimates.
func (mc *MetricsCollector) RecordFiltered(originalChars, filteredChars, originalTokens, filteredTokens, sectionsRemoved int) {
	mc.filtered.Add(1)
	mc.totalOriginalChars.Add(int64(originalChars))
	mc.totalFilteredChars.Add(int64(filteredChars))
	mc.totalOriginalTokens.Add(int64(originalTokens))
	mc.totalFilteredTokens.Add(int64(filteredTokens))
	mc.totalSectionsRemoved.Add(int64(sectionsRemoved))
}

// RecordPassthrough records a passthrough request.
func (mc *MetricsCollector) RecordPassthrough() { mc.passthrough.Add(1) }

// StartedAt returns when the metrics collector was created.
func (mc *MetricsCollector) StartedAt() time.Time { return mc.startedAt }

// Stats returns current counters as a flat map.
func (mc *MetricsCollector) Stats() map[string]int64 {
	return map[string]int64{
		"requests":    mc.requests.Load(),
		"successes":   mc.successes.Load(),
		"filtered":    mc.filtered.Load(),
		"passthrough": mc.passthrough.Load(),
	}
}

// FullStats returns all metrics in a structured format for the /stats endpoint.
func (mc *MetricsCollector) FullStats() StatsResponse {
	uptime := time.Since(mc.startedAt)
	requests := mc.requests.Load()
	successes := mc.successes.Load()

	original := mc.totalOriginalTokens.Load()
	filteredTokens := mc.totalFilteredTokens.Load()
	var savedPct float64
	if original > 0 {
		savedPct = float64(original-filteredTokens) / float64(original) * 100
	}

	return StatsResponse{
		Uptime:        formatDuration(uptime),
		UptimeSeconds: int64(uptime.Seconds()),
		StartedAt:     mc.startedAt.Format(time.RFC3339),
		Requests: RequestCounts{
			Total:       requests,
			Successful:  successes,
			Failed:      requests - successes,
			Filtered:    mc.filtered.Load(),
			Passthrough: mc.passthrough.Load(),
		},
		Savings: SavingsStats{
			OriginalChars:   mc.totalOriginalChars.Load(),
			FilteredChars:   mc.totalFilteredChars.Load(),
			OriginalTokens:  original,
			FilteredTokens:  filteredTokens,
			TokensSaved:     original - filteredTokens,
			SavedPct:        savedPct,
			SectionsRemoved: mc.totalSectionsRemoved.Load(),
		},
	}
}

// StatsResponse is the structured response for the /stats endpoint.
type StatsResponse struct {
	Uptime        string        `json:"uptime"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartedAt     string        `json:"started_at"`
	Requests      RequestCounts `json:"requests"`
	Savings       SavingsStats  `json:"savings"`
}

// RequestCounts holds request count metrics.
type RequestCounts struct {
	Total       int64 `json:"total"`
	Successful  int64 `json:"successful"`
	Failed      int64 `json:"failed"`
	Filtered    int64 `json:"filtered"`
	Passthrough int64 `json:"passthrough"`
}

// SavingsStats holds context savings estimates.
type SavingsStats struct {
	OriginalChars   int64   `json:"original_chars"`
	FilteredChars   int64   `json:"filtered_chars"`
	OriginalTokens  int64   `json:"original_tokens"`
	FilteredTokens  int64   `json:"filtered_tokens"`
	TokensSaved     int64   `json:"tokens_saved"`
	SavedPct        float64 `json:"saved_pct"`
	SectionsRemoved int64   `json:"sections_removed"`
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
