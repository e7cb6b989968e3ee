package models

import (
	"fmt"
	"strings"
	"time"
)

// WindowLayout is how a window start is rendered in block messages.
const WindowLayout = "2006-01-02 15:04:05"

// Duration is the class of a detection window.
type Duration string

const (
	Hourly Duration = "HOURLY"
	Daily  Duration = "DAILY"
)

// ParseDuration accepts "hourly" or "daily" in any case.
func ParseDuration(s string) (Duration, error) {
	switch Duration(strings.ToUpper(strings.TrimSpace(s))) {
	case Hourly:
		return Hourly, nil
	case Daily:
		return Daily, nil
	default:
		return "", fmt.Errorf("unknown duration %q (options: hourly, daily)", s)
	}
}

// Hours returns the window length in hours.
func (d Duration) Hours() int {
	if d == Daily {
		return 24
	}
	return 1
}

// Length returns the window length.
func (d Duration) Length() time.Duration {
	return time.Duration(d.Hours()) * time.Hour
}

func (d Duration) String() string {
	return string(d)
}

// Window is the half-open interval [Start, Start+Duration).
type Window struct {
	Start    time.Time `json:"start" yaml:"start"`
	Duration Duration  `json:"duration" yaml:"duration"`
}

// End returns the exclusive upper bound of the window.
func (w Window) End() time.Time {
	return w.Start.Add(w.Duration.Length())
}

// Contains reports whether t lies in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End())
}

func (w Window) String() string {
	return fmt.Sprintf("%s [%s, %s)", w.Duration, w.Start.Format(WindowLayout), w.End().Format(WindowLayout))
}
