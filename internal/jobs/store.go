package jobs

import (
	"fmt"

	"github.com/timmy/mdb2el/internal/domain"
)

// Store is the ordered list of job descriptors built while loading the jobs file.
// Entries are appended in the order their sections are first entered and are never
// removed or reordered.
type Store struct {
	entries    []domain.JobDescriptor
	maxEntries int
}

// NewStore creates a store with room for exactly one entry.
// Parameters:
//   - maxEntries: upper bound on the number of entries; values below 1 mean unbounded.
// Returns:
//   - *Store: empty job store.
func NewStore(maxEntries int) *Store {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Store{
		entries:    make([]domain.JobDescriptor, 0, 1),
		maxEntries: maxEntries,
	}
}

// Append adds one empty slot and returns its index.
// Existing entries are preserved exactly, including when growth fails.
func (s *Store) Append() (int, error) {
	if s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		return -1, fmt.Errorf("%w: job store is limited to %d entries", ErrStorageExhausted, s.maxEntries)
	}
	s.entries = append(s.entries, domain.JobDescriptor{})
	return len(s.entries) - 1, nil
}

// Update applies fn to the entry at index i.
func (s *Store) Update(i int, fn func(*domain.JobDescriptor)) error {
	if i < 0 || i >= len(s.entries) {
		return fmt.Errorf("job store index %d out of range [0,%d)", i, len(s.entries))
	}
	fn(&s.entries[i])
	return nil
}

// At returns a copy of the entry at index i.
func (s *Store) At(i int) (domain.JobDescriptor, bool) {
	if i < 0 || i >= len(s.entries) {
		return domain.JobDescriptor{}, false
	}
	return s.entries[i], true
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Entries returns a copy of all entries in insertion order.
func (s *Store) Entries() []domain.JobDescriptor {
	out := make([]domain.JobDescriptor, len(s.entries))
	copy(out, s.entries)
	return out
}
