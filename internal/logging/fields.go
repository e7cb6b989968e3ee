package logging

import (
	"log/slog"
	"time"
)

// Common field names for consistent logging.
const (
	FieldRunID       = "run_id"
	FieldLogFile     = "log_file"
	FieldLogFileID   = "log_file_id"
	FieldIP          = "ip"
	FieldThreshold   = "threshold"
	FieldCount       = "request_count"
	FieldWindowStart = "window_start"
	FieldDuration    = "duration"
	FieldElapsed     = "elapsed_ms"
	FieldRecords     = "records"
	FieldDecisions   = "decisions"
	FieldPhase       = "phase"
	FieldSink        = "sink"
	FieldError       = "error"
)

// RunID returns a slog attribute for the run ID.
func RunID(id string) slog.Attr {
	return slog.String(FieldRunID, id)
}

// LogFile returns a slog attribute for the access log name.
func LogFile(name string) slog.Attr {
	return slog.String(FieldLogFile, name)
}

// LogFileID returns a slog attribute for the catalog ID of an access log.
func LogFileID(id int64) slog.Attr {
	return slog.Int64(FieldLogFileID, id)
}

// IP returns a slog attribute for the IP address.
func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

// Threshold returns a slog attribute for the request threshold.
func Threshold(n int) slog.Attr {
	return slog.Int(FieldThreshold, n)
}

// Count returns a slog attribute for a request count.
func Count(n int) slog.Attr {
	return slog.Int(FieldCount, n)
}

// WindowStart returns a slog attribute for the window start.
func WindowStart(t time.Time) slog.Attr {
	return slog.String(FieldWindowStart, t.Format("2006-01-02 15:04:05"))
}

// Duration returns a slog attribute for the window duration class.
func Duration(d string) slog.Attr {
	return slog.String(FieldDuration, d)
}

// Elapsed returns a slog attribute for elapsed time in milliseconds.
func Elapsed(d time.Duration) slog.Attr {
	return slog.Int64(FieldElapsed, d.Milliseconds())
}

// Records returns a slog attribute for a number of stored records.
func Records(n int64) slog.Attr {
	return slog.Int64(FieldRecords, n)
}

// Decisions returns a slog attribute for a number of block decisions.
func Decisions(n int) slog.Attr {
	return slog.Int(FieldDecisions, n)
}

// Phase returns a slog attribute for the run phase.
func Phase(name string) slog.Attr {
	return slog.String(FieldPhase, name)
}

// Sink returns a slog attribute for a decision sink name.
func Sink(name string) slog.Attr {
	return slog.String(FieldSink, name)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
