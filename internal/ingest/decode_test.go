package ingest

import (
	"testing"
	"time"
)

func TestParseSignal(t *testing.T) {
	data := []byte(`{"code":"DB_ERROR","message":"Query failed","status_code":500,"context":{"host":"db01"}}`)
	sig, err := ParseSignal(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sig.Code != "DB_ERROR" || sig.StatusCode != 500 {
		t.Fatalf("unexpected signal: %+v", sig)
	}
	if sig.Context["host"] != "db01" {
		t.Fatalf("context lost: %+v", sig.Context)
	}
	if sig.Timestamp.IsZero() {
		t.Fatalf("missing timestamp should be stamped")
	}
}

func TestParseSignalKeepsTimestamp(t *testing.T) {
	data := []byte(`{"code":"DB_ERROR","message":"x","timestamp":"2026-08-25T10:00:00Z"}`)
	sig, err := ParseSignal(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	if !sig.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %s, want %s", sig.Timestamp, want)
	}
}

func TestParseSignalRejectsEmpty(t *testing.T) {
	if _, err := ParseSignal([]byte(`{"status_code":500}`)); err == nil {
		t.Fatalf("expected error for signal without code or message")
	}
	if _, err := ParseSignal([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}

func TestParseSignalMap(t *testing.T) {
	sig, err := ParseSignalMap(map[string]any{
		"code":        "NET_ERROR",
		"message":     "connection reset",
		"status_code": float64(502),
	})
	if err != nil {
		t.Fatalf("parse map: %v", err)
	}
	if sig.Code != "NET_ERROR" || sig.StatusCode != 502 {
		t.Fatalf("unexpected signal: %+v", sig)
	}
}
