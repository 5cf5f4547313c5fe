// Package prefs persists the user's matching preferences as a single
// whole-object snapshot in the application state store.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mahadevipille/Job-tracker-notification/internal/match"
	"github.com/mahadevipille/Job-tracker-notification/internal/storage"
)

// StateKey is the app_state key the preferences snapshot lives under.
const StateKey = "preferences"

// StateStore defines the storage operations the Manager needs.
// Implemented by storage.Store.
type StateStore interface {
	SetStateKey(key, value string) error
	GetStateKey(key string) (string, error)
	DeleteStateKey(key string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager provides cached access to the persisted preferences snapshot.
// A nil result from Get means no personalization is active.
type Manager struct {
	store StateStore
	clock Clock
	ttl   time.Duration

	mu       sync.RWMutex
	cached   *match.Preferences
	loaded   bool
	cachedAt time.Time
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store StateStore) *Manager {
	return &Manager{
		store: store,
		clock: realClock{},
		ttl:   60 * time.Second,
	}
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store StateStore, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		clock: clock,
		ttl:   ttl,
	}
}

// Get returns the active preferences, or nil when none are saved. A missing
// or malformed persisted record degrades to nil rather than an error.
func (m *Manager) Get() (*match.Preferences, error) {
	m.mu.RLock()
	if m.loaded && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		p := copyPrefs(m.cached)
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if m.loaded && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		return copyPrefs(m.cached), nil
	}

	raw, err := m.store.GetStateKey(StateKey)
	if errors.Is(err, storage.ErrNotFound) {
		m.cached, m.loaded, m.cachedAt = nil, true, m.clock.Now()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}

	var p match.Preferences
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		slog.Warn("malformed preferences record, treating as absent", "error", err)
		m.cached, m.loaded, m.cachedAt = nil, true, m.clock.Now()
		return nil, nil
	}

	m.cached, m.loaded, m.cachedAt = &p, true, m.clock.Now()
	return copyPrefs(&p), nil
}

// Set replaces the preferences snapshot wholesale and invalidates the cache.
func (m *Manager) Set(p match.Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshalling preferences: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SetStateKey(StateKey, string(data)); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	m.loaded = false
	return nil
}

// Clear removes the preferences snapshot, deactivating personalization.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.DeleteStateKey(StateKey); err != nil {
		return fmt.Errorf("clearing preferences: %w", err)
	}
	m.loaded = false
	return nil
}

func copyPrefs(p *match.Preferences) *match.Preferences {
	if p == nil {
		return nil
	}
	cp := *p
	if p.PreferredLocations != nil {
		cp.PreferredLocations = make([]string, len(p.PreferredLocations))
		copy(cp.PreferredLocations, p.PreferredLocations)
	}
	if p.PreferredModes != nil {
		cp.PreferredModes = make([]string, len(p.PreferredModes))
		copy(cp.PreferredModes, p.PreferredModes)
	}
	return &cp
}
