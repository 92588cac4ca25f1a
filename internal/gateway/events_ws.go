// Package gateway - events_ws.go streams rendered filter records over a
// websocket so a dashboard or `websocat` session can tail filtering live.
package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ctxfilter/ollama-context-filter/internal/monitoring"
	"github.com/ctxfilter/ollama-context-filter/internal/utils"
)

// subscriberBuffer is the per-client record backlog. Clients that fall this
// far behind are disconnected rather than blocking the request path.
const subscriberBuffer = 64

// eventWriteTimeout bounds a single websocket write.
const eventWriteTimeout = 5 * time.Second

// EventHub fans rendered filter records out to websocket subscribers.
// Publishing never blocks: slow subscribers are dropped.
type EventHub struct {
	mu          sync.Mutex
	subscribers map[chan []byte]struct{}
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{subscribers: make(map[chan []byte]struct{})}
}

// Publish sends each record, JSON-encoded, to every subscriber.
func (h *EventHub) Publish(records []monitoring.Record) {
	if len(records) == 0 {
		return
	}

	payloads := make([][]byte, 0, len(records))
	for _, rec := range records {
		data, err := utils.MarshalNoEscape(rec)
		if err != nil {
			continue
		}
		payloads = append(payloads, data)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		for _, p := range payloads {
			select {
			case ch <- p:
				continue
			default:
			}
			// Subscriber too slow; close it out.
			delete(h.subscribers, ch)
			close(ch)
			break
		}
	}
}

func (h *EventHub) subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// handleEvents upgrades to a websocket and streams filter records until the
// client goes away.
func (g *Gateway) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		log.Debug().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch := g.hub.subscribe()
	defer g.hub.unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-ch:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				log.Debug().Err(err).Msg("websocket write failed, dropping subscriber")
				return
			}
		}
	}
}
