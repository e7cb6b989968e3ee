package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRecord_Time(t *testing.T) {
	tests := []struct {
		name      string
		timestamp string
		want      time.Time
		wantOK    bool
	}{
		{
			name:      "millisecond precision",
			timestamp: "2017-01-01 13:00:01.250",
			want:      time.Date(2017, 1, 1, 13, 0, 1, 250_000_000, time.UTC),
			wantOK:    true,
		},
		{
			name:      "no fractional seconds",
			timestamp: "2017-01-01 13:00:01",
			want:      time.Date(2017, 1, 1, 13, 0, 1, 0, time.UTC),
			wantOK:    true,
		},
		{
			name:      "garbage",
			timestamp: "yesterday",
			wantOK:    false,
		},
		{
			name:      "empty",
			timestamp: "",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RequestRecord{Timestamp: tt.timestamp}.Time()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNewIngestedRequest(t *testing.T) {
	req := NewIngestedRequest(7, RequestRecord{Timestamp: "2017-01-01 13:00:01.000", IP: "10.0.0.1"})
	assert.Equal(t, int64(7), req.LogFileID)
	require.NotNil(t, req.RequestedAt)
	assert.Equal(t, 13, req.RequestedAt.Hour())

	bad := NewIngestedRequest(7, RequestRecord{Timestamp: "not-a-date"})
	assert.Nil(t, bad.RequestedAt)
	assert.Equal(t, "not-a-date", bad.Record.Timestamp)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    Duration
		wantErr bool
	}{
		{input: "hourly", want: Hourly},
		{input: "HOURLY", want: Hourly},
		{input: " Daily ", want: Daily},
		{input: "weekly", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDuration_Hours(t *testing.T) {
	assert.Equal(t, 1, Hourly.Hours())
	assert.Equal(t, 24, Daily.Hours())
	assert.Equal(t, time.Hour, Hourly.Length())
	assert.Equal(t, 24*time.Hour, Daily.Length())
}

func TestWindow_HalfOpen(t *testing.T) {
	start := time.Date(2017, 1, 1, 13, 0, 0, 0, time.UTC)
	w := Window{Start: start, Duration: Hourly}

	assert.Equal(t, start.Add(time.Hour), w.End())
	assert.True(t, w.Contains(start), "start instant is inside the window")
	assert.True(t, w.Contains(start.Add(59*time.Minute+59*time.Second+999*time.Millisecond)))
	assert.False(t, w.Contains(start.Add(time.Hour)), "end instant is outside the window")
	assert.False(t, w.Contains(start.Add(-time.Millisecond)))
}

func TestNewBlockDecision(t *testing.T) {
	start := time.Date(2017, 1, 1, 13, 0, 0, 0, time.UTC)
	w := Window{Start: start, Duration: Hourly}

	d := NewBlockDecision(3, IPCount{IP: "192.168.1.1", Count: 101}, w, 100)

	assert.Equal(t, int64(3), d.LogFileID)
	assert.Equal(t, "192.168.1.1", d.IP)
	assert.Equal(t, 100, d.Threshold)
	assert.Equal(t, 101, d.RequestCount)
	assert.Equal(t, Hourly, d.Duration)
	assert.Equal(t,
		"192.168.1.1 was blocked because it exceeded the HOURLY threshold of 100 at 2017-01-01 13:00:00 with number of requests = 101",
		d.Message)

	assert.Equal(t, DecisionKey{LogFileID: 3, IP: "192.168.1.1", Threshold: 100, WindowStart: start, Duration: Hourly}, d.Key())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"validation", &ValidationError{Field: "threshold", Value: "x", Reason: "not an integer"}, ExitValidation},
		{"wrapped source", fmt.Errorf("run: %w", &SourceUnavailableError{Path: "a.log", Err: errors.New("missing")}), ExitSource},
		{"persistence", &PersistenceError{Op: "detect", Err: errors.New("conn refused")}, ExitPersistence},
		{"other", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	inner := errors.New("connection refused")

	pErr := &PersistenceError{Op: "ingest", Err: inner}
	assert.Contains(t, pErr.Error(), "ingest")
	assert.ErrorIs(t, pErr, inner)

	sErr := &SourceUnavailableError{Path: "data/access.log", Err: inner}
	assert.Contains(t, sErr.Error(), "data/access.log")
	assert.ErrorIs(t, sErr, inner)

	vErr := &ValidationError{Field: "duration", Value: "weekly", Reason: "options are hourly or daily"}
	assert.Equal(t, `invalid value "weekly" for duration: options are hourly or daily`, vErr.Error())

	missing := &ValidationError{Field: "accesslog", Reason: "required"}
	assert.Equal(t, "invalid accesslog: required", missing.Error())
}
