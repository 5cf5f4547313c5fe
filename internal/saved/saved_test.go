package saved

import (
	"sync"
	"testing"

	"github.com/mahadevipille/Job-tracker-notification/internal/storage"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) SetStateKey(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockStore) GetStateKey(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func TestEmptySet(t *testing.T) {
	s := NewSet(newMockStore())
	if ids := s.IDs(); len(ids) != 0 {
		t.Errorf("fresh set IDs = %v, want empty", ids)
	}
	if s.Contains(1) {
		t.Error("fresh set contains a job")
	}
}

func TestToggle(t *testing.T) {
	s := NewSet(newMockStore())

	saved, err := s.Toggle(3)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !saved || !s.Contains(3) {
		t.Error("first toggle should save the job")
	}

	saved, err = s.Toggle(3)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if saved || s.Contains(3) {
		t.Error("second toggle should remove the job")
	}
}

func TestToggleKeepsInsertionOrder(t *testing.T) {
	s := NewSet(newMockStore())

	for _, id := range []int{5, 2, 9} {
		if _, err := s.Toggle(id); err != nil {
			t.Fatalf("Toggle(%d): %v", id, err)
		}
	}
	s.Toggle(2)

	ids := s.IDs()
	if len(ids) != 2 || ids[0] != 5 || ids[1] != 9 {
		t.Errorf("IDs = %v, want [5 9]", ids)
	}
}

func TestMalformedRecordTreatedAsEmpty(t *testing.T) {
	store := newMockStore()
	store.SetStateKey(StateKey, "not json")
	s := NewSet(store)

	if ids := s.IDs(); len(ids) != 0 {
		t.Errorf("IDs on malformed record = %v, want empty", ids)
	}

	// Toggling afterwards starts a clean set.
	if saved, err := s.Toggle(1); err != nil || !saved {
		t.Errorf("Toggle after malformed record = %v, %v", saved, err)
	}
	if ids := s.IDs(); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("IDs = %v, want [1]", ids)
	}
}
