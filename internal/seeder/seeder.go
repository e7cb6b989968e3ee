// Package seeder writes synthetic access logs for local testing.
package seeder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/telhawk-systems/logblock/internal/models"
	"github.com/telhawk-systems/logblock/internal/parser"
)

// Options controls log generation.
type Options struct {
	// Lines is the number of background requests from random clients.
	Lines int

	// Start and Span bound the timestamps: [Start, Start+Span).
	Start time.Time
	Span  time.Duration

	// HotIP, when set, receives HotCount extra requests inside the first hour
	// of the span (or the whole span if it is shorter).
	HotIP    string
	HotCount int

	// Seed makes output reproducible; 0 picks a random seed.
	Seed int64

	// Clients is the size of the random client pool (default 50).
	Clients int
}

type entry struct {
	at   time.Time
	line string
}

// Generate writes Lines+HotCount well-formed log lines to w, ordered by
// timestamp, and returns the number of lines written.
func Generate(w io.Writer, opts Options) (int, error) {
	if opts.Lines < 0 || opts.HotCount < 0 {
		return 0, errors.New("line counts must not be negative")
	}
	if opts.Span <= 0 {
		return 0, errors.New("span must be positive")
	}
	if opts.HotCount > 0 && opts.HotIP == "" {
		return 0, errors.New("hot count requires a hot IP")
	}
	if opts.Clients <= 0 {
		opts.Clients = 50
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(seed)

	clients := make([]string, opts.Clients)
	for i := range clients {
		if i%5 == 4 {
			clients[i] = faker.IPv6Address()
		} else {
			clients[i] = faker.IPv4Address()
		}
	}

	start := opts.Start.UTC()
	entries := make([]entry, 0, opts.Lines+opts.HotCount)

	for i := 0; i < opts.Lines; i++ {
		at := start.Add(offset(faker, opts.Span))
		ip := clients[faker.Number(0, len(clients)-1)]
		entries = append(entries, entry{at: at, line: line(faker, at, ip)})
	}

	hotSpan := opts.Span
	if hotSpan > time.Hour {
		hotSpan = time.Hour
	}
	for i := 0; i < opts.HotCount; i++ {
		at := start.Add(offset(faker, hotSpan))
		entries = append(entries, entry{at: at, line: line(faker, at, opts.HotIP)})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].at.Before(entries[j].at)
	})

	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := bw.WriteString(e.line + "\n"); err != nil {
			return 0, fmt.Errorf("failed to write log line: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write log line: %w", err)
	}

	return len(entries), nil
}

// offset returns a random millisecond offset in [0, span).
func offset(faker *gofakeit.Faker, span time.Duration) time.Duration {
	ms := int(span / time.Millisecond)
	if ms <= 1 {
		return 0
	}
	return time.Duration(faker.Number(0, ms-1)) * time.Millisecond
}

func line(faker *gofakeit.Faker, at time.Time, ip string) string {
	request := fmt.Sprintf(`"%s /%s HTTP/1.1"`, faker.HTTPMethod(), strings.ToLower(faker.Word()))
	userAgent := fmt.Sprintf(`"%s"`, sanitize(faker.UserAgent()))

	return strings.Join([]string{
		at.Format(models.TimestampLayout),
		ip,
		request,
		fmt.Sprintf("%d", faker.HTTPStatusCodeSimple()),
		userAgent,
	}, parser.Delimiter)
}

func sanitize(s string) string {
	return strings.ReplaceAll(s, parser.Delimiter, " ")
}
