package models

import (
	"fmt"
	"time"
)

// IPCount is the number of requests one IP made inside a window.
type IPCount struct {
	IP    string `json:"ip" yaml:"ip"`
	Count int    `json:"count" yaml:"count"`
}

// BlockDecision records that an IP reached the threshold for one
// (log file, window start, duration, threshold) combination. At most one
// decision exists per DecisionKey.
type BlockDecision struct {
	LogFileID    int64     `json:"log_file_id" yaml:"log_file_id"`
	IP           string    `json:"ip" yaml:"ip"`
	Threshold    int       `json:"threshold" yaml:"threshold"`
	RequestCount int       `json:"request_count" yaml:"request_count"`
	WindowStart  time.Time `json:"window_start" yaml:"window_start"`
	Duration     Duration  `json:"duration" yaml:"duration"`
	Message      string    `json:"message" yaml:"message"`
}

// DecisionKey is the replace-on-conflict key of a BlockDecision.
type DecisionKey struct {
	LogFileID   int64
	IP          string
	Threshold   int
	WindowStart time.Time
	Duration    Duration
}

// Key returns the uniqueness key of d.
func (d BlockDecision) Key() DecisionKey {
	return DecisionKey{
		LogFileID:   d.LogFileID,
		IP:          d.IP,
		Threshold:   d.Threshold,
		WindowStart: d.WindowStart.UTC(),
		Duration:    d.Duration,
	}
}

// NewBlockDecision builds the decision for an IP that met the threshold.
func NewBlockDecision(logFileID int64, c IPCount, w Window, threshold int) BlockDecision {
	return BlockDecision{
		LogFileID:    logFileID,
		IP:           c.IP,
		Threshold:    threshold,
		RequestCount: c.Count,
		WindowStart:  w.Start,
		Duration:     w.Duration,
		Message:      BlockMessage(c.IP, w.Duration, threshold, w.Start, c.Count),
	}
}

// BlockMessage is the human-readable justification stored with a decision.
func BlockMessage(ip string, d Duration, threshold int, start time.Time, count int) string {
	return fmt.Sprintf("%s was blocked because it exceeded the %s threshold of %d at %s with number of requests = %d",
		ip, d, threshold, start.Format(WindowLayout), count)
}
