// Package monitoring - history.go persists request events to SQLite.
//
// DESIGN: Optional sink. When a history DB path is configured, every request
// event is appended to a table so /stats savings survive restarts. The proxy
// core never reads this; it only feeds it.
package monitoring

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS requests (
	request_id       TEXT NOT NULL,
	ts               TEXT NOT NULL,
	model            TEXT NOT NULL,
	filtered         INTEGER NOT NULL,
	sections_removed INTEGER NOT NULL,
	original_tokens  INTEGER NOT NULL,
	filtered_tokens  INTEGER NOT NULL,
	reduction_pct    REAL NOT NULL,
	status_code      INTEGER NOT NULL,
	total_latency_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_ts ON requests(ts);
`

// History is a SQLite-backed request history store.
type History struct {
	db *sql.DB
}

// OpenHistory opens (creating if needed) the history database at path.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init history schema: %w", err)
	}
	return &History{db: db}, nil
}

// RecordRequest appends one request event.
func (h *History) RecordRequest(ev *RequestEvent) error {
	_, err := h.db.Exec(
		`INSERT INTO requests
		 (request_id, ts, model, filtered, sections_removed, original_tokens,
		  filtered_tokens, reduction_pct, status_code, total_latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RequestID, ev.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
		ev.Model, ev.Filtered, ev.SectionsRemoved, ev.OriginalTokens,
		ev.FilteredTokens, ev.ReductionPct, ev.StatusCode, ev.TotalLatencyMs,
	)
	return err
}

// HistoryTotals aggregates the persisted request history.
type HistoryTotals struct {
	Requests        int64 `json:"requests"`
	Filtered        int64 `json:"filtered"`
	SectionsRemoved int64 `json:"sections_removed"`
	TokensSaved     int64 `json:"tokens_saved"`
}

// Totals returns lifetime aggregates across all recorded requests.
func (h *History) Totals() (HistoryTotals, error) {
	var t HistoryTotals
	row := h.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(filtered), 0),
		        COALESCE(SUM(sections_removed), 0),
		        COALESCE(SUM(original_tokens - filtered_tokens), 0)
		 FROM requests`)
	if err := row.Scan(&t.Requests, &t.Filtered, &t.SectionsRemoved, &t.TokensSaved); err != nil {
		return HistoryTotals{}, err
	}
	return t, nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}
