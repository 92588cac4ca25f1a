package monitoring

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestTracker_RecordRequestAppendsJSONL(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "telemetry", "requests.jsonl")

	tr, err := NewTracker(TelemetryConfig{Enabled: true, LogPath: logPath})
	require.NoError(t, err)

	tr.RecordRequest(&RequestEvent{
		RequestID: "req-1", Timestamp: time.Now(), Method: "POST",
		Path: "/v1/chat/completions", Model: "llama3.2:1b", Filtered: true,
		StatusCode: 200, Success: true,
	})
	tr.RecordRequest(&RequestEvent{
		RequestID: "req-2", Timestamp: time.Now(), Method: "GET",
		Path: "/api/tags", StatusCode: 200, Success: true,
	})
	require.NoError(t, tr.Close())

	lines := readLines(t, logPath)
	require.Len(t, lines, 2)
	assert.Equal(t, "req-1", gjson.Get(lines[0], "request_id").String())
	assert.Equal(t, "/api/tags", gjson.Get(lines[1], "path").String())
}

func TestTracker_FilterRecordsKeepMarkersUnescaped(t *testing.T) {
	dir := t.TempDir()
	filterPath := filepath.Join(dir, "telemetry", "filter.jsonl")

	tr, err := NewTracker(TelemetryConfig{Enabled: true, FilterLogPath: filterPath})
	require.NoError(t, err)
	assert.True(t, tr.FilterLogEnabled())

	tr.RecordFilterRecords([]Record{{
		Kind:    RecordSectionRemoved,
		Section: "environment_block",
		Preview: "<env>host dump</env>",
		Line:    "[FILTER] removed environment_block",
	}})

	lines := readLines(t, filterPath)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "<env>host dump</env>")
	assert.NotContains(t, lines[0], `\u003c`)
	assert.Equal(t, "section_removed", gjson.Get(lines[0], "kind").String())
}

func TestTracker_DisabledWritesNothing(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "requests.jsonl")

	tr, err := NewTracker(TelemetryConfig{Enabled: false, LogPath: logPath})
	require.NoError(t, err)

	tr.RecordRequest(&RequestEvent{RequestID: "req-1"})
	tr.RecordFilterRecords([]Record{{Kind: RecordStart}})
	assert.False(t, tr.FilterLogEnabled())

	_, statErr := os.Stat(logPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTracker_InitEvent(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "telemetry", "requests.jsonl")

	tr, err := NewTracker(TelemetryConfig{Enabled: true, LogPath: logPath})
	require.NoError(t, err)

	tr.RecordInit(&InitEvent{
		Timestamp:     time.Now(),
		Event:         "startup",
		ServerPort:    11435,
		UpstreamURL:   "http://localhost:11434",
		AllowedModels: []string{"llama3.2:1b"},
	})

	initPath := filepath.Join(dir, "telemetry", "init.jsonl")
	lines := readLines(t, initPath)
	require.Len(t, lines, 1)
	assert.Equal(t, "startup", gjson.Get(lines[0], "event").String())
	assert.True(t, strings.Contains(lines[0], "11435"))
}
