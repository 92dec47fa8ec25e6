package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. It backs tests and
// single-node deployments that do not need durability.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Create(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec.Clone()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, id string, upd Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	applyUpdate(rec, upd)
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) DeleteCompletedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, rec := range s.records {
		if rec.CompletedAt != nil && rec.CompletedAt.Before(cutoff) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) MarkAbandonedBefore(_ context.Context, cutoff time.Time, message string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var n int64
	for _, rec := range s.records {
		if rec.CompletedAt == nil && rec.CreatedAt.Before(cutoff) {
			rec.CompletedAt = &now
			rec.ErrorMessage = message
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error { return nil }

func applyUpdate(rec *Record, upd Update) {
	if upd.SummaryText != nil {
		rec.SummaryText = *upd.SummaryText
	}
	if upd.TotalTokens != nil {
		rec.TotalTokens = *upd.TotalTokens
	}
	if upd.CostUSD != nil {
		rec.CostUSD = *upd.CostUSD
	}
	if upd.CompletedAt != nil {
		t := *upd.CompletedAt
		rec.CompletedAt = &t
	}
	if upd.ErrorMessage != nil {
		rec.ErrorMessage = *upd.ErrorMessage
	}
}
