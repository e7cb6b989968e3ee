// Package models holds the domain types shared by the ingestion and
// detection pipeline.
package models

import (
	"time"
)

const (
	// TimestampLayout is the on-disk timestamp format of an access log line.
	TimestampLayout = "2006-01-02 15:04:05.000"

	// parseLayout accepts TimestampLayout as well as timestamps with any (or no)
	// fractional seconds.
	parseLayout = "2006-01-02 15:04:05"
)

// RequestRecord is one parsed access log line. Fields are kept exactly as
// they appear in the file.
type RequestRecord struct {
	Timestamp   string `json:"timestamp" yaml:"timestamp"`
	IP          string `json:"ip" yaml:"ip"`
	RequestLine string `json:"request_line" yaml:"request_line"`
	StatusCode  string `json:"status_code" yaml:"status_code"`
	UserAgent   string `json:"user_agent" yaml:"user_agent"`
}

// Time parses the record timestamp as UTC wall-clock time. The second return
// value is false when the timestamp is malformed; such records never fall
// inside a detection window.
func (r RequestRecord) Time() (time.Time, bool) {
	t, err := time.ParseInLocation(parseLayout, r.Timestamp, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LogFile is the ingestion unit. Name is the base file name and the
// idempotency key.
type LogFile struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// IngestedRequest is a RequestRecord persisted under a LogFile.
type IngestedRequest struct {
	LogFileID   int64
	Record      RequestRecord
	RequestedAt *time.Time // nil when Record.Timestamp does not parse
}

// NewIngestedRequest associates a record with its log file.
func NewIngestedRequest(logFileID int64, rec RequestRecord) IngestedRequest {
	req := IngestedRequest{LogFileID: logFileID, Record: rec}
	if t, ok := rec.Time(); ok {
		req.RequestedAt = &t
	}
	return req
}
