package cache

import (
	"sync"
	"time"
)

// Entry is the cached result of one subscription key. Data survives failed
// refreshes (stale-while-error); Err holds the latest failure reason, empty
// when the last fetch succeeded.
type Entry struct {
	Key       string
	Data      any
	Err       string
	Loading   bool
	FetchedAt time.Time
}

// HasError reports whether the most recent fetch for this entry failed.
func (e Entry) HasError() bool {
	return e.Err != ""
}

type refEntry struct {
	entry Entry
	refs  int
}

// Store keeps one reference-counted entry per subscription key. It is
// mutated only by the polling scheduler; everything else gets value copies.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*refEntry
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*refEntry),
	}
}

// Acquire registers one more consumer of key, creating a loading entry on
// first use, and returns the current entry value.
func (s *Store) Acquire(key string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	re, ok := s.entries[key]
	if !ok {
		re = &refEntry{entry: Entry{Key: key, Loading: true}}
		s.entries[key] = re
	}
	re.refs++
	return re.entry
}

// Release drops one consumer of key. The entry is garbage-collected when the
// last consumer releases it. Releasing an unknown key is a no-op.
func (s *Store) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	re, ok := s.entries[key]
	if !ok {
		return
	}
	re.refs--
	if re.refs <= 0 {
		delete(s.entries, key)
	}
}

// Get returns a copy of the entry for key.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	re, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	return re.entry, true
}

// Refs reports the current consumer count for key.
func (s *Store) Refs(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if re, ok := s.entries[key]; ok {
		return re.refs
	}
	return 0
}

// Len reports the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SetLoading marks the entry as having a fetch in flight. Existing data and
// error are untouched so consumers keep rendering the last known value.
func (s *Store) SetLoading(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if re, ok := s.entries[key]; ok {
		re.entry.Loading = true
	}
}

// ClearLoading marks the entry as idle without recording a result. Used when
// in-flight work is invalidated instead of completed; data and error stay.
func (s *Store) ClearLoading(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if re, ok := s.entries[key]; ok {
		re.entry.Loading = false
	}
}

// SetResult records a completed fetch. On success data replaces the previous
// value and the error clears; on failure the error is recorded and the
// previous data is retained so the entry never flashes back to empty.
func (s *Store) SetResult(key string, data any, err error, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	re, ok := s.entries[key]
	if !ok {
		// All consumers left while the fetch was in flight; nothing to record.
		return
	}

	re.entry.Loading = false
	re.entry.FetchedAt = at
	if err != nil {
		re.entry.Err = err.Error()
		return
	}
	re.entry.Data = data
	re.entry.Err = ""
}
