package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"insight-dashboard/internal/config"
)

func TestNewLoggerTo_Formats(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "info", Format: "json"})
	logger.Info("hello", "rows", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("json handler output not JSON: %v", err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}

	buf.Reset()
	logger = NewLoggerTo(&buf, config.LoggerConfig{Level: "info", Format: "text"})
	logger.Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text handler output = %q", buf.String())
	}
}

func TestNewLoggerTo_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "warn", Format: "text"})
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
}

func TestSpan_ParentChild(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "upload")
	_, child := StartSpan(ctx, "classify")

	if child.TraceID != parent.TraceID {
		t.Errorf("child trace id = %s, want %s", child.TraceID, parent.TraceID)
	}
	if child.ParentID != parent.SpanID {
		t.Errorf("child parent id = %s, want %s", child.ParentID, parent.SpanID)
	}
	if len(parent.SpanID) != 16 {
		t.Errorf("span id length = %d, want 16", len(parent.SpanID))
	}
}

func TestSpan_End(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "debug", Format: "text"})

	_, span := StartSpan(context.Background(), "decode")
	span.SetTag("file", "sales.csv")
	span.End(logger, errors.New("boom"))

	if span.Status != SpanStatusError || span.Error != "boom" {
		t.Errorf("span status = %s error = %q", span.Status, span.Error)
	}
	out := buf.String()
	for _, want := range []string{"span failed", "operation=decode", "file=sales.csv"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestLoggerFrom(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerTo(&buf, config.LoggerConfig{Level: "info", Format: "text"})

	ctx := WithRequestID(context.Background(), "req-1")
	ctx, span := StartSpan(ctx, "analyze")
	LoggerFrom(ctx, base).Info("working")

	out := buf.String()
	if !strings.Contains(out, "request_id=req-1") || !strings.Contains(out, "trace_id="+span.TraceID) {
		t.Errorf("LoggerFrom() output = %q", out)
	}
}
