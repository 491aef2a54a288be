package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"garbage", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComponentTagging(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)

	logger := New(handler, ComponentHTTP)
	logger.Info("hello", FieldRequestID, "req_1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if record[FieldComponent] != ComponentHTTP {
		t.Errorf("component = %v", record[FieldComponent])
	}
	if record[FieldRequestID] != "req_1" {
		t.Errorf("request_id = %v", record[FieldRequestID])
	}

	buf.Reset()
	sibling := logger.WithComponent(ComponentWorker)
	sibling.Info("hello again")
	record = map[string]any{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal sibling log line: %v", err)
	}
	if record[FieldComponent] != ComponentWorker {
		t.Errorf("sibling component = %v", record[FieldComponent])
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := New(slog.NewTextHandler(&bytes.Buffer{}, nil), ComponentLedger)

	ctx := IntoContext(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Errorf("FromContext = %p, want the stored logger %p", got, logger)
	}

	// Missing logger falls back to a usable default.
	if got := FromContext(context.Background()); got == nil || got.Logger == nil {
		t.Error("FromContext without logger should fall back")
	}
}
