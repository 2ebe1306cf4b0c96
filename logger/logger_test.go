package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l := New(&Config{Level: "invalid-level", Format: "json", Output: "stdout"}, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewWriter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "whisperx-api").WithComponent("pipeline")
	l.Warn("alignment failed", Fields("stage", "align", "segments", 3))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "pipeline" {
		t.Errorf("expected component=pipeline, got %v", entry["component"])
	}
	if entry["stage"] != "align" {
		t.Errorf("expected stage=align, got %v", entry["stage"])
	}
	if entry["message"] != "alignment failed" {
		t.Errorf("unexpected message %v", entry["message"])
	}
}

func TestWithContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "svc")
	ctx := ContextWithRequestID(context.Background(), "req-42")
	l.WithContext(ctx).Info("hello")

	if !strings.Contains(buf.String(), `"request_id":"req-42"`) {
		t.Errorf("expected request_id in output, got %q", buf.String())
	}
	if got := RequestIDFromContext(ctx); got != "req-42" {
		t.Errorf("expected req-42, got %q", got)
	}
}

func TestWithContext_NoRequestID(t *testing.T) {
	l := NewDefault("svc")
	if l.WithContext(context.Background()) != l {
		t.Error("expected the same logger when the context carries no request id")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "svc").WithError(errors.New("boom")).Error("failed")
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("expected error field, got %q", buf.String())
	}
}

func TestInitSetsGlobal(t *testing.T) {
	prev := globalLogger
	defer func() { globalLogger = prev }()

	Init(Config{Level: "debug", Format: "json", ServiceName: "whisperx-api"})
	if GetGlobalLogger().service != "whisperx-api" {
		t.Errorf("expected global service whisperx-api, got %q", GetGlobalLogger().service)
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid json", Config{Level: "info", Format: "json"}, false},
		{"valid pretty", Config{Level: "debug", Format: "pretty"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestRegisterAndGet(t *testing.T) {
	l := NewDefault("svc").WithComponent("gate")
	Register("gate-test", l)
	if Get("gate-test") != l {
		t.Error("expected registered logger")
	}
	if Get("unregistered-name") == nil {
		t.Error("expected fallback logger for unregistered name")
	}
}

func TestFields(t *testing.T) {
	f := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if f["a"] != 1 || f["b"] != "two" {
		t.Errorf("unexpected fields %v", f)
	}
	if len(f) != 2 {
		t.Errorf("expected 2 fields, got %d", len(f))
	}
}

func TestStageFields(t *testing.T) {
	f := StageFields("diarize", "failed", 1500*time.Millisecond)
	if f[FieldStage] != "diarize" || f[FieldOutcome] != "failed" {
		t.Errorf("unexpected fields %v", f)
	}
	if f[FieldDuration] != int64(1500) {
		t.Errorf("expected duration 1500, got %v", f[FieldDuration])
	}
}

func TestErrorFields(t *testing.T) {
	f := ErrorFields("load", errors.New("missing"))
	if f[FieldOperation] != "load" || f[FieldError] != "missing" {
		t.Errorf("unexpected fields %v", f)
	}
}
