package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWithWriterJSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)
	log.Info("hello", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}

	if entry["message"] != "hello" {
		t.Errorf("message = %v, want hello", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("timestamp field missing")
	}
}

func TestWarnLevelRendersAsWarning(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)
	log.Warn("careful")

	if !strings.Contains(buf.String(), `"level":"warning"`) {
		t.Errorf("warn entry = %s, want level warning", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("error", &buf)

	log.Debug("hidden")
	log.Info("hidden too")
	if buf.Len() != 0 {
		t.Errorf("below-level entries were written: %s", buf.String())
	}

	log.Error("visible")
	if buf.Len() == 0 {
		t.Error("error entry was filtered out")
	}
}

func TestWithHelpers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.WithModule("dispatcher").
		WithRequestID("req-1").
		WithField("chat_id", "C1").
		Info("wired")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["module"] != "dispatcher" {
		t.Errorf("module = %v", entry["module"])
	}
	if entry["request_id"] != "req-1" {
		t.Errorf("request_id = %v", entry["request_id"])
	}
	if entry["chat_id"] != "C1" {
		t.Errorf("chat_id = %v", entry["chat_id"])
	}
}

func TestWithFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithFields(map[string]any{"a": "1", "b": "2"}).Info("multi")

	out := buf.String()
	if !strings.Contains(out, `"a":"1"`) || !strings.Contains(out, `"b":"2"`) {
		t.Errorf("fields missing from output: %s", out)
	}
}
