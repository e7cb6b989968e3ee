// Package messaging publishes block decisions to NATS.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/telhawk-systems/logblock/internal/logging"
	"github.com/telhawk-systems/logblock/internal/models"
)

const (
	// DefaultSubject is used when no subject is configured.
	DefaultSubject = "logblock.blocked"

	// HeaderRunID carries the run ID of the publishing invocation.
	HeaderRunID = "Logblock-Run-Id"
)

// Config holds NATS publisher configuration.
type Config struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Subject receives one message per decision.
	Subject string

	// Name is the client name for connection identification.
	Name string

	// Timeout bounds both the connect and the final flush.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:     nats.DefaultURL,
		Subject: DefaultSubject,
		Name:    "logblock",
		Timeout: 5 * time.Second,
	}
}

// BlockedEvent is the JSON payload of a published decision.
type BlockedEvent struct {
	LogFileID    int64     `json:"log_file_id"`
	IP           string    `json:"ip"`
	Threshold    int       `json:"threshold"`
	RequestCount int       `json:"request_count"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
	Duration     string    `json:"duration"`
	Message      string    `json:"message"`
}

// NewBlockedEvent builds the event for d observed in window w.
func NewBlockedEvent(w models.Window, d models.BlockDecision) BlockedEvent {
	return BlockedEvent{
		LogFileID:    d.LogFileID,
		IP:           d.IP,
		Threshold:    d.Threshold,
		RequestCount: d.RequestCount,
		WindowStart:  d.WindowStart.UTC(),
		WindowEnd:    w.End().UTC(),
		Duration:     d.Duration.String(),
		Message:      d.Message,
	}
}

// conn is the subset of *nats.Conn used by Publisher.
type conn interface {
	PublishMsg(msg *nats.Msg) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// Publisher sends decisions to a NATS subject. It satisfies
// service.DecisionSink.
type Publisher struct {
	conn    conn
	subject string
	timeout time.Duration
}

// Connect dials NATS and returns a Publisher. Reconnects are disabled: a run
// either reaches the server or fails.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(cfg.Timeout),
		nats.NoReconnect(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return newPublisher(nc, cfg.Subject, cfg.Timeout), nil
}

func newPublisher(c conn, subject string, timeout time.Duration) *Publisher {
	return &Publisher{conn: c, subject: subject, timeout: timeout}
}

func (p *Publisher) Name() string {
	return "nats"
}

// Publish sends one message per decision and flushes before returning.
func (p *Publisher) Publish(ctx context.Context, w models.Window, decisions []models.BlockDecision) error {
	runID := logging.RunIDFromContext(ctx)

	for _, d := range decisions {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := json.Marshal(NewBlockedEvent(w, d))
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}

		msg := &nats.Msg{Subject: p.subject, Data: data}
		if runID != "" {
			msg.Header = make(nats.Header)
			msg.Header.Set(HeaderRunID, runID)
		}

		if err := p.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("publish %s: %w", d.IP, err)
		}
	}

	if err := p.conn.FlushTimeout(p.timeout); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.conn.Close()
}
