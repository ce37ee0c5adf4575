package results

import (
	"sync"
	"time"

	"vitalsched/internal/model"
)

// DecisionStore keeps the most recent intervention decisions in a bounded
// ring for the API and reporting layers.
type DecisionStore struct {
	mu    sync.RWMutex
	buf   []model.InterventionDecision
	limit int
}

func NewDecisionStore(limit int) *DecisionStore {
	if limit <= 0 {
		limit = 5000
	}
	return &DecisionStore{limit: limit}
}

func (s *DecisionStore) Add(decision model.InterventionDecision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) < s.limit {
		s.buf = append(s.buf, decision)
		return
	}
	copy(s.buf, s.buf[1:])
	s.buf[len(s.buf)-1] = decision
}

// List returns up to limit most recent decisions, oldest first. A
// non-positive limit returns everything retained.
func (s *DecisionStore) List(limit int) []model.InterventionDecision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.buf) {
		limit = len(s.buf)
	}
	out := make([]model.InterventionDecision, 0, limit)
	start := len(s.buf) - limit
	for i := start; i < len(s.buf); i++ {
		out = append(out, s.buf[i])
	}
	return out
}

func (s *DecisionStore) Since(ts time.Time) []model.InterventionDecision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.InterventionDecision, 0)
	for _, d := range s.buf {
		if !d.Timestamp.Before(ts) {
			out = append(out, d)
		}
	}
	return out
}

func (s *DecisionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf)
}

func (s *DecisionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
}
