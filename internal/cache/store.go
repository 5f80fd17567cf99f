// Package cache holds the capacity- and time-bounded store of error
// entries.
//
// Eviction discipline: strictly by insertion order. FirstSeen is stamped
// from the store's clock at insert time, so insertion order and
// oldest-FirstSeen order are the same axis, and both capacity eviction
// and TTL expiry key off it. Repeat matches update Count and LastSeen
// but never an entry's position.
package cache

import (
	"sync"
	"time"

	"errgate/internal/model"
	"errgate/internal/signature"
	"errgate/internal/similarity"
)

type Store struct {
	mu        sync.RWMutex
	entries   map[string]*model.Entry
	order     []string // insertion order, oldest first
	maxSize   int
	ttl       time.Duration
	threshold float64
	now       func() time.Time
}

func New(maxSize int, ttl time.Duration, threshold float64) *Store {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if threshold <= 0 || threshold > 1 {
		threshold = similarity.DefaultThreshold
	}
	return &Store{
		entries:   make(map[string]*model.Entry),
		maxSize:   maxSize,
		ttl:       ttl,
		threshold: threshold,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AddResult reports the store's verdict on one occurrence. PrevSeen is
// the matched entry's LastSeen before this occurrence updated it; it is
// zero for a new entry.
type AddResult struct {
	Entry     model.Entry
	Duplicate bool
	PrevSeen  time.Time
}

// Add records one occurrence. An exact key hit or a similarity fold
// returns the matched entry with Duplicate=true; otherwise a new entry
// is inserted, evicting the oldest entry if the store is full.
func (s *Store) Add(sig model.Signal) AddResult {
	key := signature.Key(sig.Code, sig.Message, sig.Context)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		prev := e.LastSeen
		e.Count++
		e.LastSeen = now
		return AddResult{Entry: *e, Duplicate: true, PrevSeen: prev}
	}

	// No exact match: fold into the first sufficiently similar entry,
	// scanning newest first since one match suffices.
	for i := len(s.order) - 1; i >= 0; i-- {
		e := s.entries[s.order[i]]
		if similarity.Score(e.Signal, sig) >= s.threshold {
			prev := e.LastSeen
			e.Count++
			e.LastSeen = now
			return AddResult{Entry: *e, Duplicate: true, PrevSeen: prev}
		}
	}

	e := &model.Entry{
		Key:       key,
		Signal:    sig,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
	s.entries[key] = e
	s.order = append(s.order, key)
	for len(s.order) > s.maxSize {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
	return AddResult{Entry: *e}
}

// Get looks up an entry by exact key.
func (s *Store) Get(key string) (model.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return model.Entry{}, false
	}
	return *e, true
}

// Remove deletes an entry by key, reporting whether it existed.
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	s.removeFromOrder(key)
	return true
}

// All returns the current entries in insertion order.
func (s *Store) All() []model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Entry, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, *s.entries[key])
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*model.Entry)
	s.order = nil
}

// Sweep removes every entry whose FirstSeen is older than the TTL at
// the given instant and returns the removed count.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	kept := s.order[:0]
	for _, key := range s.order {
		e := s.entries[key]
		if now.Sub(e.FirstSeen) > s.ttl {
			delete(s.entries, key)
			removed++
			continue
		}
		kept = append(kept, key)
	}
	s.order = kept
	return removed
}

func (s *Store) removeFromOrder(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
