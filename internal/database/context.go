package database

import (
	"context"
	"time"
)

// Standard timeout durations for database operations
const (
	// DefaultQueryTimeout is the timeout for read queries, including the
	// per-IP aggregation over a whole log file.
	DefaultQueryTimeout = 60 * time.Second

	// DefaultWriteTimeout is the timeout for small write operations such as
	// the block decision upsert
	DefaultWriteTimeout = 15 * time.Second

	// DefaultBulkTimeout is the timeout for streaming an access log into
	// request_log.
	DefaultBulkTimeout = 15 * time.Minute
)

// QueryContext creates a context with DefaultQueryTimeout.
// Use this for SELECT queries and read operations.
func QueryContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultQueryTimeout)
}

// WriteContext creates a context with DefaultWriteTimeout.
// Use this for INSERT, UPDATE, DELETE operations.
func WriteContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultWriteTimeout)
}

// BulkContext creates a context with DefaultBulkTimeout.
// Use this for bulk operations and migrations.
func BulkContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultBulkTimeout)
}
