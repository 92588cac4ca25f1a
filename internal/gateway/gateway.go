// Package gateway is the HTTP transport around the filtering engine.
//
// DESIGN: Main request flow:
//   - handleProxy():   entry point for all upstream-bound requests
//   - filterBody():    parse, orchestrate, patch the chat completion body
//   - forward():       send to the Ollama upstream
//   - relayResponse(): stream status/headers/body back, flushing chunks
//
// Also includes health check, loopback-only stats, and a websocket live tail
// of rendered filter records.
package gateway

import (
	"net"
	"net/http"

	"github.com/ctxfilter/ollama-context-filter/internal/config"
	"github.com/ctxfilter/ollama-context-filter/internal/filter"
	"github.com/ctxfilter/ollama-context-filter/internal/monitoring"
)

// HeaderRequestID carries a caller-supplied request id, if any.
const HeaderRequestID = "X-Request-ID"

// Gateway wires the filtering engine to HTTP.
type Gateway struct {
	cfg      *config.Config
	engine   *filter.Engine
	reporter *monitoring.Reporter
	tracker  *monitoring.Tracker
	metrics  *monitoring.MetricsCollector
	history  *monitoring.History // optional, may be nil
	hub      *EventHub

	upstream string
	client   *http.Client
}

// New creates a gateway. history may be nil when no history DB is configured.
func New(cfg *config.Config, engine *filter.Engine, reporter *monitoring.Reporter,
	tracker *monitoring.Tracker, metrics *monitoring.MetricsCollector,
	history *monitoring.History) *Gateway {

	return &Gateway{
		cfg:      cfg,
		engine:   engine,
		reporter: reporter,
		tracker:  tracker,
		metrics:  metrics,
		history:  history,
		hub:      NewEventHub(),
		upstream: cfg.Upstream.URL(),
		client: &http.Client{
			Timeout: cfg.Upstream.Timeout,
		},
	}
}

// Handler returns the gateway's HTTP handler.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/stats", g.handleStats)
	mux.HandleFunc("/events", g.handleEvents)
	mux.HandleFunc("/", g.handleProxy)
	return mux
}

// isLoopback reports whether the remote address is a loopback address.
func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
