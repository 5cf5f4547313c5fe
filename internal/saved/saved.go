// Package saved persists the set of bookmarked job ids as a whole-object
// snapshot in the application state store.
package saved

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mahadevipille/Job-tracker-notification/internal/storage"
)

// StateKey is the app_state key the saved set lives under.
const StateKey = "saved_jobs"

// StateStore defines the storage operations the Set needs.
// Implemented by storage.Store.
type StateStore interface {
	SetStateKey(key, value string) error
	GetStateKey(key string) (string, error)
}

// Set is the user's bookmarked job ids.
type Set struct {
	store StateStore
}

// NewSet creates a Set over the given state store.
func NewSet(store StateStore) *Set {
	return &Set{store: store}
}

// IDs returns the saved job ids in insertion order. A missing or malformed
// record is an empty set.
func (s *Set) IDs() []int {
	raw, err := s.store.GetStateKey(StateKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.Warn("reading saved set", "error", err)
		return nil
	}
	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		slog.Warn("malformed saved set record, treating as empty", "error", err)
		return nil
	}
	return ids
}

// Contains reports whether a job id is bookmarked.
func (s *Set) Contains(id int) bool {
	for _, saved := range s.IDs() {
		if saved == id {
			return true
		}
	}
	return false
}

// Toggle flips a job id's membership and returns the new state.
func (s *Set) Toggle(id int) (bool, error) {
	ids := s.IDs()
	next := make([]int, 0, len(ids)+1)
	removed := false
	for _, saved := range ids {
		if saved == id {
			removed = true
			continue
		}
		next = append(next, saved)
	}
	if !removed {
		next = append(next, id)
	}

	data, err := json.Marshal(next)
	if err != nil {
		return false, fmt.Errorf("marshalling saved set: %w", err)
	}
	if err := s.store.SetStateKey(StateKey, string(data)); err != nil {
		return false, fmt.Errorf("saving saved set: %w", err)
	}
	return !removed, nil
}
