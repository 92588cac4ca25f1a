// Package gateway - stats.go exposes aggregated metrics as JSON.
//
// GET /stats returns combined savings and operational metrics.
package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ctxfilter/ollama-context-filter/internal/monitoring"
)

// statsResponse is the JSON response for GET /stats.
type statsResponse struct {
	monitoring.StatsResponse
	Lifetime *monitoring.HistoryTotals `json:"lifetime,omitempty"`
}

// handleStats returns aggregated metrics as JSON.
// Restricted to localhost to prevent external access to operational metrics.
func (g *Gateway) handleStats(w http.ResponseWriter, r *http.Request) {
	if !isLoopback(r.RemoteAddr) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	resp := statsResponse{StatsResponse: g.metrics.FullStats()}
	if g.history != nil {
		totals, err := g.history.Totals()
		if err != nil {
			log.Error().Err(err).Msg("failed to read history totals")
		} else {
			resp.Lifetime = &totals
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleHealth returns proxy health status.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "ok",
		"time":     time.Now().Format(time.RFC3339),
		"upstream": g.upstream,
	})
}
