// Package parser turns pipe-delimited access log lines into request records.
package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/telhawk-systems/logblock/internal/models"
)

const (
	// Delimiter separates the fields of a log line.
	Delimiter = "|"

	// FieldCount is the number of fields in a well-formed line:
	// timestamp|ip|requestLine|statusCode|userAgent
	FieldCount = 5

	maxLineLength = 1024 * 1024
)

// ParseLine parses one log line. It returns false when the line does not
// split into exactly FieldCount fields. Field contents are not validated.
func ParseLine(line string) (models.RequestRecord, bool) {
	fields := strings.Split(line, Delimiter)
	if len(fields) != FieldCount {
		return models.RequestRecord{}, false
	}

	return models.RequestRecord{
		Timestamp:   fields[0],
		IP:          fields[1],
		RequestLine: fields[2],
		StatusCode:  fields[3],
		UserAgent:   fields[4],
	}, true
}

// Scanner streams well-formed records from a reader, silently skipping
// malformed lines.
type Scanner struct {
	sc  *bufio.Scanner
	rec models.RequestRecord
}

// NewScanner returns a Scanner reading lines from r.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &Scanner{sc: sc}
}

// Next advances to the next well-formed record.
func (s *Scanner) Next() bool {
	for s.sc.Scan() {
		if rec, ok := ParseLine(s.sc.Text()); ok {
			s.rec = rec
			return true
		}
	}
	return false
}

// Record returns the record produced by the last call to Next.
func (s *Scanner) Record() models.RequestRecord {
	return s.rec
}

// Err returns the first read error, if any.
func (s *Scanner) Err() error {
	return s.sc.Err()
}
