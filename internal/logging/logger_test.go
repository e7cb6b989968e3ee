package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		level  slog.Level
		format string
	}{
		{
			name:   "json format with info level",
			level:  slog.LevelInfo,
			format: "json",
		},
		{
			name:   "text format with debug level",
			level:  slog.LevelDebug,
			format: "text",
		},
		{
			name:   "default format (json) with error level",
			level:  slog.LevelError,
			format: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level, tt.format)
			if logger == nil {
				t.Fatal("expected non-nil logger")
			}
			if logger.Logger == nil {
				t.Fatal("expected non-nil underlying logger")
			}
		})
	}
}

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "text")

	logger.Info("hello", IP("10.0.0.1"))

	out := buf.String()
	if !strings.Contains(out, "msg=hello") {
		t.Errorf("expected text output, got %q", out)
	}
	if !strings.Contains(out, "ip=10.0.0.1") {
		t.Errorf("expected ip attribute, got %q", out)
	}
}

func TestWithContext(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		wantRunID string
	}{
		{
			name:      "context with run ID",
			ctx:       WithRunID(context.Background(), "run-123"),
			wantRunID: "run-123",
		},
		{
			name:      "context without run ID",
			ctx:       context.Background(),
			wantRunID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, slog.LevelInfo, "json")

			logger.InfoContext(tt.ctx, "test message")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("failed to parse log output: %v", err)
			}

			got, _ := entry[FieldRunID].(string)
			if got != tt.wantRunID {
				t.Errorf("expected run_id %q, got %q", tt.wantRunID, got)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelWarn, "json")
	ctx := context.Background()

	logger.DebugContext(ctx, "debug")
	logger.InfoContext(ctx, "info")
	if buf.Len() != 0 {
		t.Errorf("expected debug and info to be filtered, got %q", buf.String())
	}

	logger.WarnContext(ctx, "warn")
	if !strings.Contains(buf.String(), "warn") {
		t.Errorf("expected warn message, got %q", buf.String())
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json").With(LogFile("access.log"))

	logger.ErrorContext(context.Background(), "boom", Error(errors.New("bad")))

	out := buf.String()
	if !strings.Contains(out, `"log_file":"access.log"`) {
		t.Errorf("expected log_file attribute, got %q", out)
	}
	if !strings.Contains(out, `"error":"bad"`) {
		t.Errorf("expected error attribute, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFieldHelpers(t *testing.T) {
	start := time.Date(2017, 1, 1, 13, 0, 0, 0, time.UTC)

	tests := []struct {
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{RunID("r1"), FieldRunID, "r1"},
		{LogFile("access.log"), FieldLogFile, "access.log"},
		{LogFileID(4), FieldLogFileID, "4"},
		{IP("192.168.1.1"), FieldIP, "192.168.1.1"},
		{Threshold(100), FieldThreshold, "100"},
		{Count(101), FieldCount, "101"},
		{WindowStart(start), FieldWindowStart, "2017-01-01 13:00:00"},
		{Duration("HOURLY"), FieldDuration, "HOURLY"},
		{Elapsed(1500 * time.Millisecond), FieldElapsed, "1500"},
		{Records(42), FieldRecords, "42"},
		{Phase("ingest"), FieldPhase, "ingest"},
		{Sink("nats"), FieldSink, "nats"},
	}

	for _, tt := range tests {
		if tt.attr.Key != tt.wantKey {
			t.Errorf("expected key %q, got %q", tt.wantKey, tt.attr.Key)
		}
		if tt.attr.Value.String() != tt.wantVal {
			t.Errorf("%s: expected value %q, got %q", tt.wantKey, tt.wantVal, tt.attr.Value.String())
		}
	}
}
