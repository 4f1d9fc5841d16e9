package jobs

import (
	"fmt"

	"github.com/timmy/mdb2el/internal/domain"
)

// Recognized keys within a job section.
const (
	KeyDatabase   = "dbname"
	KeyCollection = "colname"
	KeyIndex      = "elidx"
	KeyType       = "eltype"
)

var fieldSetters = map[string]func(*domain.JobDescriptor, string){
	KeyDatabase:   func(j *domain.JobDescriptor, v string) { j.SourceDatabase = v },
	KeyCollection: func(j *domain.JobDescriptor, v string) { j.SourceCollection = v },
	KeyIndex:      func(j *domain.JobDescriptor, v string) { j.TargetIndex = v },
	KeyType:       func(j *domain.JobDescriptor, v string) { j.TargetType = v },
}

// Handler accumulates (section, key, value) triples into a Store.
//
// A new entry is opened whenever the section name differs from the section of the
// previous triple. Grouping follows transitions, not section identity, so a name that
// reappears after another section opens a new entry.
type Handler struct {
	store           *Store
	previousSection string
	transitions     int
}

// NewHandler creates a handler that writes into store.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Handle consumes one triple. A non-nil error means the caller must stop feeding
// triples; entries populated so far stay in the store.
func (h *Handler) Handle(section, key, value string) error {
	if section != h.previousSection {
		h.previousSection = section
		h.transitions++
		// The first transition takes the slot the store was created with.
		if _, err := h.store.Append(); err != nil {
			return fmt.Errorf("section %q: %w", section, err)
		}
	}

	entry := h.transitions - 1
	set, ok := fieldSetters[key]
	if !ok || entry < 0 {
		return &RecordError{Section: section, Key: key, Entry: entry}
	}
	return h.store.Update(entry, func(j *domain.JobDescriptor) {
		set(j, value)
	})
}

// Transitions returns the number of section transitions observed so far.
func (h *Handler) Transitions() int {
	return h.transitions
}
