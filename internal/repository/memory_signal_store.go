package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
)

// MemorySignalStore implements SignalStore on a map. Duplicate identities
// overwrite in place, matching the ReplacingMergeTree semantics of the
// ClickHouse backend. Suitable for tests and single-node deployments.
type MemorySignalStore struct {
	mu       sync.RWMutex
	byMetric map[string]map[time.Time]*models.Signal
}

func NewMemorySignalStore() *MemorySignalStore {
	return &MemorySignalStore{byMetric: make(map[string]map[time.Time]*models.Signal)}
}

var _ domrepo.SignalStore = (*MemorySignalStore)(nil)

func (m *MemorySignalStore) Init(ctx context.Context) error { return nil }

func (m *MemorySignalStore) Put(ctx context.Context, s *models.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(s)
	return nil
}

func (m *MemorySignalStore) PutBatch(ctx context.Context, signals []*models.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range signals {
		if s == nil {
			continue
		}
		m.put(s)
	}
	return nil
}

func (m *MemorySignalStore) put(s *models.Signal) {
	day := domrepo.DayOf(s.Timestamp)
	days, ok := m.byMetric[s.Metric]
	if !ok {
		days = make(map[time.Time]*models.Signal)
		m.byMetric[s.Metric] = days
	}
	cp := *s
	cp.Timestamp = day
	days[day] = &cp
}

func (m *MemorySignalStore) Range(ctx context.Context, metric string, from, to time.Time) ([]*models.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	days := m.byMetric[metric]
	fromDay := domrepo.DayOf(from)
	toDay := domrepo.DayOf(to)
	var out []*models.Signal
	for day, s := range days {
		if day.Before(fromDay) || day.After(toDay) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *MemorySignalStore) Latest(ctx context.Context, metric string) (*models.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.Signal
	for _, s := range m.byMetric[metric] {
		if latest == nil || s.Timestamp.After(latest.Timestamp) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *MemorySignalStore) Health(ctx context.Context) error { return nil }

func (m *MemorySignalStore) Close() error { return nil }
