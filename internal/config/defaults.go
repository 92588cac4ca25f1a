// Package config - defaults.go centralizes magic numbers and default values.
//
// DESIGN: All default values that appear in multiple places should be defined
// here. This makes configuration more maintainable and auditable.
package config

import "time"

// =============================================================================
// PORTS
// =============================================================================

// DefaultProxyPort is the port the filtering proxy listens on.
const DefaultProxyPort = 11435

// DefaultUpstreamHost is the upstream Ollama host.
const DefaultUpstreamHost = "localhost"

// DefaultUpstreamPort is the upstream Ollama port.
const DefaultUpstreamPort = 11434

// =============================================================================
// HTTP AND NETWORKING
// =============================================================================

// DefaultBufferSize is the standard I/O buffer size for response relaying.
const DefaultBufferSize = 8192

// MaxRequestBodySize is the maximum allowed request body (50MB).
const MaxRequestBodySize = 50 * 1024 * 1024

// DefaultReadTimeout for the HTTP server.
const DefaultReadTimeout = 5 * time.Minute

// DefaultServerWriteTimeout for the HTTP server (safe for streaming).
const DefaultServerWriteTimeout = 10 * time.Minute

// DefaultUpstreamTimeout for requests to the inference backend. Zero would
// hang forever on a wedged model; generation can legitimately take minutes.
const DefaultUpstreamTimeout = 15 * time.Minute

// =============================================================================
// FILTERING
// =============================================================================

// DefaultAllowedModels is the default filter allow-list. Matching is exact and
// case-sensitive, so both the colon and hyphen spellings are registered.
var DefaultAllowedModels = []string{
	"llama3.2:1b",
	"llama3.2-1b",
	"qwen2.5:1.5b",
	"qwen2.5-1.5b",
}
