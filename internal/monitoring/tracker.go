// Package monitoring - tracker.go records events to JSONL files.
//
// DESIGN: Tracker writes structured events as JSONL (one JSON object per line):
//   - RequestEvent:  every request through the proxy
//   - Record:        rendered filter records (detailed filter log)
//
// Events are appended immediately after each event for real-time tailing.
package monitoring

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ctxfilter/ollama-context-filter/internal/utils"
)

// Tracker handles telemetry event recording to file and stdout.
type Tracker struct {
	config       TelemetryConfig
	requestCount int
	recordCount  int
	initLogPath  string
	mu           sync.Mutex
}

// NewTracker creates a telemetry tracker, ensuring sink directories exist.
func NewTracker(cfg TelemetryConfig) (*Tracker, error) {
	t := &Tracker{config: cfg}
	if !cfg.Enabled {
		return t, nil
	}

	for _, path := range []string{cfg.LogPath, cfg.FilterLogPath} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if f, err := os.Create(path); err == nil {
				_ = f.Close()
			}
		}
	}
	if cfg.LogPath != "" {
		t.initLogPath = filepath.Join(filepath.Dir(cfg.LogPath), "init.jsonl")
	}
	return t, nil
}

// appendJSONL appends a single JSON object as a line to the file. Prompt text
// in records is kept readable: no HTML escaping of section markers.
func appendJSONL(path string, event any) error {
	data, err := utils.MarshalNoEscape(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = f.Write(data)
	return err
}

// RecordRequest records a request event.
func (t *Tracker) RecordRequest(event *RequestEvent) {
	if !t.config.Enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.config.LogToStdout {
		reqID := event.RequestID
		if len(reqID) > 8 {
			reqID = reqID[:8]
		}
		log.Info().
			Str("request_id", reqID).
			Str("model", event.Model).
			Bool("filtered", event.Filtered).
			Int("sections_removed", event.SectionsRemoved).
			Float64("reduction_pct", event.ReductionPct).
			Bool("success", event.Success).
			Msg("telemetry")
	}

	if t.config.LogPath != "" {
		if err := appendJSONL(t.config.LogPath, event); err != nil {
			log.Error().Err(err).Str("path", t.config.LogPath).Msg("telemetry: failed to write request event")
		} else {
			t.requestCount++
		}
	}
}

// RecordInit records a startup event to a dedicated init JSONL.
func (t *Tracker) RecordInit(event *InitEvent) {
	if !t.config.Enabled || t.initLogPath == "" || event == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := appendJSONL(t.initLogPath, event); err != nil {
		log.Error().Err(err).Str("path", t.initLogPath).Msg("telemetry: failed to write init event")
	}
}

// RecordFilterRecords appends rendered filter records to the filter log and,
// when stdout logging is on, echoes each rendered line through zerolog.
func (t *Tracker) RecordFilterRecords(records []Record) {
	if !t.config.Enabled || len(records) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, rec := range records {
		if t.config.LogToStdout {
			log.Info().Str("kind", string(rec.Kind)).Msg(rec.Line)
		}
		if t.config.FilterLogPath != "" {
			if err := appendJSONL(t.config.FilterLogPath, rec); err != nil {
				log.Error().Err(err).Str("path", t.config.FilterLogPath).Msg("telemetry: failed to write filter record")
				return
			}
			t.recordCount++
		}
	}
}

// FilterLogEnabled returns true if the detailed filter log sink is enabled.
func (t *Tracker) FilterLogEnabled() bool {
	return t.config.Enabled && t.config.FilterLogPath != ""
}

// Close logs session totals.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.config.LogPath != "" && t.requestCount > 0 {
		log.Info().
			Str("path", t.config.LogPath).
			Int("events", t.requestCount).
			Msg("telemetry: session complete")
	}
	return nil
}
