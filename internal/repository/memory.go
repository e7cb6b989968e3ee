package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/telhawk-systems/logblock/internal/models"
)

type InMemoryRepository struct {
	logFiles       map[string]*models.LogFile
	requests       map[int64][]models.IngestedRequest
	decisions      map[models.DecisionKey]models.BlockDecision
	decisionsOrder []models.DecisionKey
	nextID         int64
	mu             sync.RWMutex
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		logFiles:  make(map[string]*models.LogFile),
		requests:  make(map[int64][]models.IngestedRequest),
		decisions: make(map[models.DecisionKey]models.BlockDecision),
	}
}

func (r *InMemoryRepository) CountLogFiles(ctx context.Context, name string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.logFiles[name]; exists {
		return 1, nil
	}
	return 0, nil
}

func (r *InMemoryRepository) GetLogFileByName(ctx context.Context, name string) (*models.LogFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lf, exists := r.logFiles[name]
	if !exists {
		return nil, ErrLogFileNotFound
	}
	copied := *lf
	return &copied, nil
}

// IngestLogFile drains src before taking the lock so a failing source
// leaves the repository untouched
func (r *InMemoryRepository) IngestLogFile(ctx context.Context, name string, src RecordSource) (*models.LogFile, int64, error) {
	var records []models.RequestRecord
	for src.Next() {
		records = append(records, src.Record())
	}
	if err := src.Err(); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.logFiles[name]; exists {
		return nil, 0, ErrLogFileExists
	}

	r.nextID++
	lf := &models.LogFile{
		ID:        r.nextID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	stored := make([]models.IngestedRequest, 0, len(records))
	for _, rec := range records {
		stored = append(stored, models.NewIngestedRequest(lf.ID, rec))
	}

	r.logFiles[name] = lf
	r.requests[lf.ID] = stored

	copied := *lf
	return &copied, int64(len(stored)), nil
}

func (r *InMemoryRepository) CountRequests(ctx context.Context, logFileID int64) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.requests[logFileID])), nil
}

func (r *InMemoryRepository) CountRequestsByIP(ctx context.Context, logFileID int64, start, end time.Time, threshold int) ([]models.IPCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byIP := make(map[string]int)
	for _, req := range r.requests[logFileID] {
		if req.RequestedAt == nil {
			continue
		}
		t := *req.RequestedAt
		if t.Before(start) || !t.Before(end) {
			continue
		}
		byIP[req.Record.IP]++
	}

	counts := []models.IPCount{}
	for ip, n := range byIP {
		if n >= threshold {
			counts = append(counts, models.IPCount{IP: ip, Count: n})
		}
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].IP < counts[j].IP
	})

	return counts, nil
}

func (r *InMemoryRepository) UpsertBlockDecisions(ctx context.Context, decisions []models.BlockDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range decisions {
		d.WindowStart = d.WindowStart.UTC()
		key := d.Key()
		if _, exists := r.decisions[key]; !exists {
			r.decisionsOrder = append(r.decisionsOrder, key)
		}
		r.decisions[key] = d
	}
	return nil
}

func (r *InMemoryRepository) ListBlockDecisions(ctx context.Context, logFileID int64) ([]models.BlockDecision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []models.BlockDecision{}
	for _, key := range r.decisionsOrder {
		if key.LogFileID != logFileID {
			continue
		}
		result = append(result, r.decisions[key])
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.WindowStart.Equal(b.WindowStart) {
			return a.WindowStart.Before(b.WindowStart)
		}
		if a.Duration != b.Duration {
			return a.Duration < b.Duration
		}
		if a.Threshold != b.Threshold {
			return a.Threshold < b.Threshold
		}
		if a.RequestCount != b.RequestCount {
			return a.RequestCount > b.RequestCount
		}
		return a.IP < b.IP
	})

	return result, nil
}

func (r *InMemoryRepository) Close() {}
