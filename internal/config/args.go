package config

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/telhawk-systems/logblock/internal/models"
)

// StartDateLayout is the --startDate format. The dot between date and time
// is normalized to a space before the value is used as a window boundary.
const StartDateLayout = "2006-01-02.15:04:05"

// RunArgs are the raw command-line values of one invocation.
type RunArgs struct {
	AccessLog  string
	StartDate  string
	Duration   string
	Threshold  string
	ConfigPath string
}

// RunConfig is the validated, immutable configuration of one run.
type RunConfig struct {
	AccessLog  string
	Window     models.Window
	Threshold  int
	ConfigPath string
}

// FileName returns the base name of the access log, the idempotency key.
func (c RunConfig) FileName() string {
	return filepath.Base(c.AccessLog)
}

// ParseRunArgs validates the command-line values.
func ParseRunArgs(a RunArgs) (RunConfig, error) {
	accessLog := strings.TrimSpace(a.AccessLog)
	if accessLog == "" {
		return RunConfig{}, &models.ValidationError{Field: "accesslog", Reason: "a path to the access log is required"}
	}

	start, err := ParseStartDate(a.StartDate)
	if err != nil {
		return RunConfig{}, err
	}

	if strings.TrimSpace(a.Duration) == "" {
		return RunConfig{}, &models.ValidationError{Field: "duration", Reason: "required (hourly or daily)"}
	}
	duration, err := models.ParseDuration(a.Duration)
	if err != nil {
		return RunConfig{}, &models.ValidationError{Field: "duration", Value: a.Duration, Reason: "options are hourly or daily"}
	}

	threshold, err := ParseThreshold(a.Threshold)
	if err != nil {
		return RunConfig{}, err
	}

	configPath := a.ConfigPath
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	return RunConfig{
		AccessLog:  accessLog,
		Window:     models.Window{Start: start, Duration: duration},
		Threshold:  threshold,
		ConfigPath: configPath,
	}, nil
}

// ParseStartDate parses a yyyy-MM-dd.HH:mm:ss value as UTC wall-clock time,
// matching how log timestamps are interpreted.
func ParseStartDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &models.ValidationError{Field: "startDate", Reason: "required (format yyyy-MM-dd.HH:mm:ss)"}
	}
	t, err := time.ParseInLocation(StartDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, &models.ValidationError{Field: "startDate", Value: s, Reason: "format is yyyy-MM-dd.HH:mm:ss"}
	}
	return t, nil
}

// ParseThreshold parses a positive integer threshold.
func ParseThreshold(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &models.ValidationError{Field: "threshold", Reason: "required"}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &models.ValidationError{Field: "threshold", Value: s, Reason: "only integers are allowed"}
	}
	if n < 1 {
		return 0, &models.ValidationError{Field: "threshold", Value: s, Reason: "must be at least 1"}
	}
	return n, nil
}
