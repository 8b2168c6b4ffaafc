package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestMultiHandlerFanOut(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	)
	slog.New(h).Info("fan out", "key", "value")

	for name, buf := range map[string]*bytes.Buffer{"first": &a, "second": &b} {
		if !strings.Contains(buf.String(), `"msg":"fan out"`) {
			t.Errorf("%s sink missed the record: %s", name, buf.String())
		}
	}
}

func TestMultiHandlerRespectsPerTargetLevels(t *testing.T) {
	t.Parallel()

	var verbose, quiet bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&verbose, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled = false while one target accepts debug")
	}

	slog.New(h).Debug("details")
	if verbose.Len() == 0 {
		t.Error("debug-level sink dropped the record")
	}
	if quiet.Len() != 0 {
		t.Errorf("error-level sink received a debug record: %s", quiet.String())
	}
}

func TestNewMultiHandlerSkipsNilTargets(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewMultiHandler(nil, slog.NewJSONHandler(&buf, nil), nil)
	slog.New(h).Info("still delivered")

	if !strings.Contains(buf.String(), "still delivered") {
		t.Errorf("record lost: %s", buf.String())
	}
}

func TestMultiHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewMultiHandler(slog.NewJSONHandler(&buf, nil)).
		WithAttrs([]slog.Attr{slog.String("module", "logger")})
	slog.New(h).Info("tagged")

	if !strings.Contains(buf.String(), `"module":"logger"`) {
		t.Errorf("attribute missing: %s", buf.String())
	}
}
