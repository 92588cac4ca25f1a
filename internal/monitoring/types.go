// Package monitoring - types.go defines shared telemetry types.
//
// DESIGN: These types are used by both gateway/ and monitoring/ packages.
// Defined here once to avoid duplication and circular imports.
package monitoring

import "time"

// DefaultMaxPreviewLen is the default preview cap for rendered records.
const DefaultMaxPreviewLen = 200

// RequestEvent captures a request through the proxy.
type RequestEvent struct {
	RequestID        string    `json:"request_id"`
	Timestamp        time.Time `json:"timestamp"`
	Method           string    `json:"method"`
	Path             string    `json:"path"`
	ClientIP         string    `json:"client_ip"`
	Model            string    `json:"model,omitempty"`
	Filtered         bool      `json:"filtered"`
	SectionsRemoved  int       `json:"sections_removed"`
	OriginalChars    int       `json:"original_chars"`
	FilteredChars    int       `json:"filtered_chars"`
	OriginalTokens   int       `json:"original_tokens"`
	FilteredTokens   int       `json:"filtered_tokens"`
	ReductionPct     float64   `json:"reduction_pct"`
	RequestBodySize  int       `json:"request_body_size"`
	ResponseBodySize int       `json:"response_body_size"`
	StatusCode       int       `json:"status_code"`
	Success          bool      `json:"success"`
	Error            string    `json:"error,omitempty"`
	FilterLatencyMs  float64   `json:"filter_latency_ms"`
	ForwardLatencyMs int64     `json:"forward_latency_ms"`
	TotalLatencyMs   int64     `json:"total_latency_ms"`
}

// InitEvent captures proxy startup configuration.
type InitEvent struct {
	Timestamp       time.Time `json:"timestamp"`
	Event           string    `json:"event"`
	ServerPort      int       `json:"server_port"`
	UpstreamURL     string    `json:"upstream_url"`
	AllowedModels   []string  `json:"allowed_models"`
	DetailedLogging bool      `json:"detailed_logging"`
	ShowFullContent bool      `json:"show_full_content"`
	MaxPreviewLen   int       `json:"max_preview_len"`
	TelemetryPath   string    `json:"telemetry_path,omitempty"`
	FilterLogPath   string    `json:"filter_log_path,omitempty"`
	HistoryDBPath   string    `json:"history_db_path,omitempty"`
}

// TelemetryConfig controls the tracker sinks.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	LogToStdout   bool   `yaml:"log_to_stdout"`
	LogPath       string `yaml:"log_path"`
	FilterLogPath string `yaml:"filter_log_path"`
}
