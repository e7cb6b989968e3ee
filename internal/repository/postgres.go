package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/telhawk-systems/logblock/internal/database"
	"github.com/telhawk-systems/logblock/internal/models"
)

var requestLogColumns = []string{
	"log_file_id",
	"raw_timestamp",
	"requested_at",
	"ip",
	"request_line",
	"status_code",
	"user_agent",
}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Runs are sequential; a small pool is enough
	config.MaxConns = 4
	config.MinConns = 0
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// CountLogFiles returns the number of catalog rows for a file name
func (r *PostgresRepository) CountLogFiles(ctx context.Context, name string) (int, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM log_files WHERE name = $1`, name).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count log files: %w", err)
	}

	return count, nil
}

// GetLogFileByName retrieves a catalog row by file name
func (r *PostgresRepository) GetLogFileByName(ctx context.Context, name string) (*models.LogFile, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	var lf models.LogFile
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM log_files WHERE name = $1`,
		name,
	).Scan(&lf.ID, &lf.Name, &lf.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLogFileNotFound
		}
		return nil, fmt.Errorf("failed to get log file: %w", err)
	}

	return &lf, nil
}

// IngestLogFile inserts the catalog row and streams the records with COPY,
// committing both together
func (r *PostgresRepository) IngestLogFile(ctx context.Context, name string, src RecordSource) (*models.LogFile, int64, error) {
	ctx, cancel := database.BulkContext(ctx)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin ingest transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lf models.LogFile
	err = tx.QueryRow(ctx,
		`INSERT INTO log_files (name) VALUES ($1) RETURNING id, name, created_at`,
		name,
	).Scan(&lf.ID, &lf.Name, &lf.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, 0, ErrLogFileExists
		}
		return nil, 0, fmt.Errorf("failed to create log file: %w", err)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"request_log"},
		requestLogColumns,
		&copySource{src: src, logFileID: lf.ID},
	)
	if srcErr := src.Err(); srcErr != nil {
		return nil, 0, srcErr
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to copy request log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("failed to commit ingest transaction: %w", err)
	}

	return &lf, copied, nil
}

// CountRequests returns the number of stored requests for a log file
func (r *PostgresRepository) CountRequests(ctx context.Context, logFileID int64) (int64, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM request_log WHERE log_file_id = $1`, logFileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}

	return count, nil
}

// CountRequestsByIP aggregates requests per IP over [start, end)
func (r *PostgresRepository) CountRequestsByIP(ctx context.Context, logFileID int64, start, end time.Time, threshold int) ([]models.IPCount, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `
		SELECT ip, COUNT(*) AS request_count
		FROM request_log
		WHERE log_file_id = $1
		  AND requested_at >= $2
		  AND requested_at < $3
		GROUP BY ip
		HAVING COUNT(*) >= $4
		ORDER BY request_count DESC, ip
	`

	rows, err := r.pool.Query(ctx, query, logFileID, start.UTC(), end.UTC(), threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate requests: %w", err)
	}
	defer rows.Close()

	counts := []models.IPCount{}
	for rows.Next() {
		var c models.IPCount
		var n int64
		if err := rows.Scan(&c.IP, &n); err != nil {
			return nil, fmt.Errorf("failed to scan request count: %w", err)
		}
		c.Count = int(n)
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate request counts: %w", err)
	}

	return counts, nil
}

// UpsertBlockDecisions writes all decisions in one transaction, replacing
// rows that share a key
func (r *PostgresRepository) UpsertBlockDecisions(ctx context.Context, decisions []models.BlockDecision) error {
	if len(decisions) == 0 {
		return nil
	}

	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		INSERT INTO blocked_ips
		(log_file_id, ip, threshold, request_count, window_start, duration, message, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (log_file_id, ip, threshold, window_start, duration)
		DO UPDATE SET
			request_count = EXCLUDED.request_count,
			message = EXCLUDED.message,
			updated_at = NOW()
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, d := range decisions {
		batch.Queue(query,
			d.LogFileID,
			d.IP,
			d.Threshold,
			d.RequestCount,
			d.WindowStart.UTC(),
			string(d.Duration),
			d.Message,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range decisions {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to upsert block decision: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close upsert batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit upsert transaction: %w", err)
	}

	return nil
}

// ListBlockDecisions returns every stored decision for a log file
func (r *PostgresRepository) ListBlockDecisions(ctx context.Context, logFileID int64) ([]models.BlockDecision, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `
		SELECT log_file_id, ip, threshold, request_count, window_start, duration, message
		FROM blocked_ips
		WHERE log_file_id = $1
		ORDER BY window_start, duration, threshold, request_count DESC, ip
	`

	rows, err := r.pool.Query(ctx, query, logFileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list block decisions: %w", err)
	}
	defer rows.Close()

	decisions := []models.BlockDecision{}
	for rows.Next() {
		var d models.BlockDecision
		var duration string
		if err := rows.Scan(
			&d.LogFileID,
			&d.IP,
			&d.Threshold,
			&d.RequestCount,
			&d.WindowStart,
			&duration,
			&d.Message,
		); err != nil {
			return nil, fmt.Errorf("failed to scan block decision: %w", err)
		}
		d.Duration = models.Duration(duration)
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate block decisions: %w", err)
	}

	return decisions, nil
}

// copySource adapts a RecordSource to pgx.CopyFromSource
type copySource struct {
	src       RecordSource
	logFileID int64
}

func (s *copySource) Next() bool {
	return s.src.Next()
}

func (s *copySource) Values() ([]any, error) {
	req := models.NewIngestedRequest(s.logFileID, s.src.Record())

	var requestedAt any
	if req.RequestedAt != nil {
		requestedAt = *req.RequestedAt
	}

	return []any{
		req.LogFileID,
		req.Record.Timestamp,
		requestedAt,
		req.Record.IP,
		req.Record.RequestLine,
		req.Record.StatusCode,
		req.Record.UserAgent,
	}, nil
}

func (s *copySource) Err() error {
	return s.src.Err()
}
