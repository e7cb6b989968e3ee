package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telhawk-systems/logblock/internal/models"
)

// sliceSource is a RecordSource over a fixed slice, optionally failing at the end
type sliceSource struct {
	records []models.RequestRecord
	pos     int
	err     error
}

func (s *sliceSource) Next() bool {
	if s.pos >= len(s.records) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceSource) Record() models.RequestRecord {
	return s.records[s.pos-1]
}

func (s *sliceSource) Err() error {
	return s.err
}

func rec(ts, ip string) models.RequestRecord {
	return models.RequestRecord{
		Timestamp:   ts,
		IP:          ip,
		RequestLine: `"GET / HTTP/1.1"`,
		StatusCode:  "200",
		UserAgent:   `"curl/7.50"`,
	}
}

func TestInMemoryRepository_IngestLogFile(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	count, err := repo.CountLogFiles(ctx, "access.log")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	lf, n, err := repo.IngestLogFile(ctx, "access.log", &sliceSource{records: []models.RequestRecord{
		rec("2017-01-01 13:00:01.000", "192.168.1.1"),
		rec("2017-01-01 13:00:02.000", "192.168.1.2"),
		rec("garbage", "192.168.1.3"),
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, "access.log", lf.Name)
	assert.NotZero(t, lf.ID)

	count, err = repo.CountLogFiles(ctx, "access.log")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := repo.CountRequests(ctx, lf.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored)

	got, err := repo.GetLogFileByName(ctx, "access.log")
	require.NoError(t, err)
	assert.Equal(t, lf.ID, got.ID)

	_, _, err = repo.IngestLogFile(ctx, "access.log", &sliceSource{})
	assert.ErrorIs(t, err, ErrLogFileExists)

	_, err = repo.GetLogFileByName(ctx, "other.log")
	assert.ErrorIs(t, err, ErrLogFileNotFound)
}

func TestInMemoryRepository_IngestSourceFailure(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	readErr := errors.New("read failed")

	_, _, err := repo.IngestLogFile(ctx, "access.log", &sliceSource{
		records: []models.RequestRecord{rec("2017-01-01 13:00:01.000", "192.168.1.1")},
		err:     readErr,
	})
	assert.ErrorIs(t, err, readErr)

	count, err := repo.CountLogFiles(ctx, "access.log")
	require.NoError(t, err)
	assert.Equal(t, 0, count, "failed ingestion leaves no catalog row")
}

func TestInMemoryRepository_CountRequestsByIP(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	var records []models.RequestRecord
	for i := 0; i < 5; i++ {
		records = append(records, rec("2017-01-01 13:10:00.000", "10.0.0.1"))
	}
	for i := 0; i < 3; i++ {
		records = append(records, rec("2017-01-01 13:20:00.000", "10.0.0.2"))
	}
	for i := 0; i < 3; i++ {
		records = append(records, rec("2017-01-01 13:30:00.000", "10.0.0.0"))
	}
	records = append(records,
		rec("2017-01-01 13:00:00.000", "10.0.0.9"), // window start is included
		rec("2017-01-01 14:00:00.000", "10.0.0.9"), // window end is excluded
		rec("2017-01-01 12:59:59.999", "10.0.0.9"),
		rec("not-a-date", "10.0.0.9"),
	)

	lf, _, err := repo.IngestLogFile(ctx, "access.log", &sliceSource{records: records})
	require.NoError(t, err)

	start := time.Date(2017, 1, 1, 13, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	counts, err := repo.CountRequestsByIP(ctx, lf.ID, start, end, 3)
	require.NoError(t, err)
	assert.Equal(t, []models.IPCount{
		{IP: "10.0.0.1", Count: 5},
		{IP: "10.0.0.0", Count: 3},
		{IP: "10.0.0.2", Count: 3},
	}, counts)

	counts, err = repo.CountRequestsByIP(ctx, lf.ID, start, end, 1)
	require.NoError(t, err)
	require.Len(t, counts, 4)
	assert.Equal(t, models.IPCount{IP: "10.0.0.9", Count: 1}, counts[3])

	counts, err = repo.CountRequestsByIP(ctx, lf.ID, start, end, 6)
	require.NoError(t, err)
	assert.Empty(t, counts)

	counts, err = repo.CountRequestsByIP(ctx, lf.ID+1, start, end, 1)
	require.NoError(t, err)
	assert.Empty(t, counts, "other log files are not counted")
}

func TestInMemoryRepository_UpsertBlockDecisions(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	w := models.Window{Start: time.Date(2017, 1, 1, 13, 0, 0, 0, time.UTC), Duration: models.Hourly}
	first := models.NewBlockDecision(1, models.IPCount{IP: "10.0.0.1", Count: 120}, w, 100)
	other := models.NewBlockDecision(1, models.IPCount{IP: "10.0.0.2", Count: 101}, w, 100)

	require.NoError(t, repo.UpsertBlockDecisions(ctx, []models.BlockDecision{first, other}))

	replaced := models.NewBlockDecision(1, models.IPCount{IP: "10.0.0.1", Count: 130}, w, 100)
	require.NoError(t, repo.UpsertBlockDecisions(ctx, []models.BlockDecision{replaced}))

	decisions, err := repo.ListBlockDecisions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.Equal(t, 130, decisions[0].RequestCount)
	assert.Equal(t, replaced.Message, decisions[0].Message)
	assert.Equal(t, "10.0.0.2", decisions[1].IP)

	daily := models.NewBlockDecision(1, models.IPCount{IP: "10.0.0.1", Count: 300}, models.Window{Start: w.Start, Duration: models.Daily}, 100)
	require.NoError(t, repo.UpsertBlockDecisions(ctx, []models.BlockDecision{daily}))

	decisions, err = repo.ListBlockDecisions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, decisions, 3, "a different duration is a different key")

	decisions, err = repo.ListBlockDecisions(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, decisions)
}
