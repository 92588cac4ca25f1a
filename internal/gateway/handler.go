package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ctxfilter/ollama-context-filter/internal/chat"
	"github.com/ctxfilter/ollama-context-filter/internal/config"
	"github.com/ctxfilter/ollama-context-filter/internal/filter"
	"github.com/ctxfilter/ollama-context-filter/internal/monitoring"
)

// chatCompletionsPath is the only path whose body is inspected and rewritten.
// Everything else forwards verbatim.
const chatCompletionsPath = "/v1/chat/completions"

// filterResult carries the outcome of filterBody for telemetry.
type filterResult struct {
	stats         *filter.RequestStats
	filterLatency time.Duration
}

// writeError writes a JSON error response.
func (g *Gateway) writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{"message": msg, "type": "proxy_error"},
	})
}

// handleProxy forwards every request to the upstream, rewriting chat
// completion bodies for allow-listed models on the way through.
func (g *Gateway) handleProxy(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := g.getRequestID(r)

	// CORS preflight is answered locally, never forwarded.
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		g.writeError(w, "failed to read request", http.StatusBadRequest)
		return
	}

	forwardBody := body
	var res filterResult
	if r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, chatCompletionsPath) && g.cfg.Filter.Enabled {
		forwardBody, res = g.filterBody(body, requestID)
	}

	forwardStart := time.Now()
	resp, err := g.forward(r.Context(), r, forwardBody)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("upstream request failed")
		g.recordTelemetry(r, requestID, startTime, res, len(body), 0,
			http.StatusBadGateway, forwardStart, err.Error())
		g.writeError(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	written := g.relayResponse(w, resp)
	g.recordTelemetry(r, requestID, startTime, res, len(body), written,
		resp.StatusCode, forwardStart, "")
}

// filterBody parses a chat completion body, runs the orchestrator, and
// patches rewritten system message contents back into the original JSON.
// Any failure — unparseable body, invalid request, patch error — forwards the
// original bytes unchanged: filtering is an optimization, never a gate.
func (g *Gateway) filterBody(body []byte, requestID string) ([]byte, filterResult) {
	req, ok := chat.ParseRequest(body)
	if !ok {
		log.Debug().Str("request_id", requestID).Msg("body is not a chat completion request, passing through")
		return body, filterResult{}
	}

	filterStart := time.Now()
	rewritten, stats, err := g.engine.ProcessRequest(req)
	if err != nil {
		if errors.Is(err, filter.ErrInvalidRequest) {
			log.Warn().Err(err).Str("request_id", requestID).Msg("invalid chat request, forwarding unmodified")
		} else {
			log.Error().Err(err).Str("request_id", requestID).Msg("filter engine failed, forwarding unmodified")
		}
		return body, filterResult{}
	}
	res := filterResult{stats: stats, filterLatency: time.Since(filterStart)}

	records := g.reporter.RenderEvents(stats)
	g.tracker.RecordFilterRecords(records)
	g.hub.Publish(records)

	if !stats.Filtered {
		g.metrics.RecordPassthrough()
		return body, res
	}

	sections := 0
	for _, mo := range stats.Messages {
		if mo.Outcome != nil {
			sections += len(mo.Outcome.Removed)
		}
	}
	g.metrics.RecordFiltered(stats.TotalOriginalChars, stats.TotalFilteredChars,
		stats.TotalOriginalTokens, stats.TotalFilteredTokens, sections)

	patched, err := chat.PatchMessages(body, req.Messages, rewritten.Messages)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("failed to patch request body, forwarding unmodified")
		return body, res
	}
	return patched, res
}

// forward sends the (possibly rewritten) body to the upstream Ollama server,
// preserving path, query, and relevant headers.
func (g *Gateway) forward(ctx context.Context, r *http.Request, body []byte) (*http.Response, error) {
	targetURL := g.upstream + r.URL.Path
	if r.URL.RawQuery != "" {
		targetURL += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, targetURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}

	for k, vals := range r.Header {
		switch strings.ToLower(k) {
		case "host", "content-length", "accept-encoding":
			continue
		}
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.ContentLength = int64(len(body))

	return g.client.Do(req)
}

// relayResponse copies status, headers, and body to the client, flushing each
// chunk so streamed (SSE/NDJSON) completions arrive incrementally. Returns
// the number of body bytes written.
func (g *Gateway) relayResponse(w http.ResponseWriter, resp *http.Response) int {
	for k, vals := range resp.Header {
		if strings.EqualFold(k, "Transfer-Encoding") {
			continue
		}
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	flusher, canFlush := w.(http.Flusher)
	written := 0
	buf := make([]byte, config.DefaultBufferSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				log.Debug().Err(writeErr).Msg("client disconnected")
				break
			}
			written += n
			if canFlush {
				flusher.Flush()
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Debug().Err(err).Msg("error reading upstream response")
			}
			break
		}
	}
	return written
}

// recordTelemetry emits the per-request event to the tracker, metrics, and
// the optional history store.
func (g *Gateway) recordTelemetry(r *http.Request, requestID string, startTime time.Time,
	res filterResult, requestSize, responseSize, statusCode int, forwardStart time.Time, errMsg string) {

	success := errMsg == "" && statusCode < 400
	g.metrics.RecordRequest(success)

	ev := &monitoring.RequestEvent{
		RequestID:        requestID,
		Timestamp:        startTime,
		Method:           r.Method,
		Path:             r.URL.Path,
		ClientIP:         r.RemoteAddr,
		RequestBodySize:  requestSize,
		ResponseBodySize: responseSize,
		StatusCode:       statusCode,
		Success:          success,
		Error:            errMsg,
		ForwardLatencyMs: time.Since(forwardStart).Milliseconds(),
		TotalLatencyMs:   time.Since(startTime).Milliseconds(),
	}

	if res.stats != nil {
		ev.Model = res.stats.Model
		ev.Filtered = res.stats.Filtered
		ev.OriginalChars = res.stats.TotalOriginalChars
		ev.FilteredChars = res.stats.TotalFilteredChars
		ev.OriginalTokens = res.stats.TotalOriginalTokens
		ev.FilteredTokens = res.stats.TotalFilteredTokens
		ev.ReductionPct = res.stats.ReductionPct
		ev.FilterLatencyMs = float64(res.filterLatency.Microseconds()) / 1000.0
		for _, mo := range res.stats.Messages {
			if mo.Outcome != nil {
				ev.SectionsRemoved += len(mo.Outcome.Removed)
			}
		}
	}

	g.tracker.RecordRequest(ev)
	if g.history != nil {
		if err := g.history.RecordRequest(ev); err != nil {
			log.Error().Err(err).Msg("failed to record request history")
		}
	}
}

// getRequestID gets or generates a request ID.
func (g *Gateway) getRequestID(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); id != "" {
		return id
	}
	return uuid.New().String()
}
