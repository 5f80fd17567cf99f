package cache

import (
	"sort"

	"errgate/internal/model"
)

// ByCode returns entries whose retained signal carries the given code,
// in insertion order.
func (s *Store) ByCode(code string) []model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Entry, 0)
	for _, key := range s.order {
		e := s.entries[key]
		if e.Signal.Code == code {
			out = append(out, *e)
		}
	}
	return out
}

// BySeverity returns entries whose derived severity matches, in
// insertion order.
func (s *Store) BySeverity(sev model.Severity) []model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Entry, 0)
	for _, key := range s.order {
		e := s.entries[key]
		if e.Signal.Severity() == sev {
			out = append(out, *e)
		}
	}
	return out
}

// MostFrequent returns up to limit entries sorted by count descending,
// ties broken by insertion order.
func (s *Store) MostFrequent(limit int) []model.Entry {
	entries := s.All()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return truncate(entries, limit)
}

// MostRecent returns up to limit entries sorted by last-seen time
// descending.
func (s *Store) MostRecent(limit int) []model.Entry {
	entries := s.All()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastSeen.After(entries[j].LastSeen)
	})
	return truncate(entries, limit)
}

// Stats derives aggregates from the current entries. It reads only; a
// sweep that has not run yet is not anticipated here.
func (s *Store) Stats() model.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := model.Stats{UniqueErrors: len(s.order)}
	for i, key := range s.order {
		e := s.entries[key]
		st.TotalErrors += e.Count
		if i == 0 || e.FirstSeen.Before(*st.OldestError) {
			t := e.FirstSeen
			st.OldestError = &t
		}
		if i == 0 || e.FirstSeen.After(*st.NewestError) {
			t := e.FirstSeen
			st.NewestError = &t
		}
	}
	st.DuplicateErrors = st.TotalErrors - st.UniqueErrors
	if st.TotalErrors > 0 {
		st.HitRate = float64(st.DuplicateErrors) / float64(st.TotalErrors)
	}
	return st
}

func truncate(entries []model.Entry, limit int) []model.Entry {
	if limit > 0 && limit < len(entries) {
		return entries[:limit]
	}
	return entries
}
