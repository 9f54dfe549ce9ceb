package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json")
	log.Info().Str("component", "practice_service").Msg("run started")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %q", buf.String())
	}
	if entry["message"] != "run started" || entry["component"] != "practice_service" {
		t.Fatalf("entry %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatal("entry has no timestamp")
	}
}

func TestNewPretty(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "pretty")
	log.Warn().Msg("cache prewarm failed")
	if !strings.Contains(buf.String(), "cache prewarm failed") || strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("unexpected pretty output %q", buf.String())
	}
}
