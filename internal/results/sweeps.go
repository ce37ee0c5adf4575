package results

import (
	"sync"
	"time"

	"vitalsched/internal/model"
)

// SweepStore retains recent threshold sweeps keyed by sweep id, evicting
// the oldest once past its limit.
type SweepStore struct {
	mu        sync.RWMutex
	byID      map[string][]model.ThresholdResult
	updatedAt map[string]time.Time
	latest    string
	limit     int
}

func NewSweepStore(limit int) *SweepStore {
	if limit <= 0 {
		limit = 100
	}
	return &SweepStore{
		byID:      make(map[string][]model.ThresholdResult),
		updatedAt: make(map[string]time.Time),
		limit:     limit,
	}
}

func (s *SweepStore) Put(sweepID string, rows []model.ThresholdResult) {
	if sweepID == "" || len(rows) == 0 {
		return
	}
	stored := make([]model.ThresholdResult, len(rows))
	copy(stored, rows)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[sweepID] = stored
	s.updatedAt[sweepID] = time.Now().UTC()
	s.latest = sweepID
	if len(s.byID) > s.limit {
		s.evictOldest()
	}
}

func (s *SweepStore) Get(sweepID string) ([]model.ThresholdResult, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.byID[sweepID]
	if !ok {
		return nil, time.Time{}, false
	}
	out := make([]model.ThresholdResult, len(rows))
	copy(out, rows)
	return out, s.updatedAt[sweepID], true
}

// Latest returns the most recently stored sweep.
func (s *SweepStore) Latest() (string, []model.ThresholdResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.byID[s.latest]
	if !ok {
		return "", nil, false
	}
	out := make([]model.ThresholdResult, len(rows))
	copy(out, rows)
	return s.latest, out, true
}

func (s *SweepStore) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, ts := range s.updatedAt {
		if oldestID == "" || ts.Before(oldest) {
			oldestID = id
			oldest = ts
		}
	}
	if oldestID != "" {
		delete(s.byID, oldestID)
		delete(s.updatedAt, oldestID)
		if s.latest == oldestID {
			s.latest = ""
		}
	}
}

func (s *SweepStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string][]model.ThresholdResult)
	s.updatedAt = make(map[string]time.Time)
	s.latest = ""
}
