package tracker

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/mahadevipille/Job-tracker-notification/internal/catalog"
	"github.com/mahadevipille/Job-tracker-notification/internal/storage"
)

// --- Mock store ---

type mockStore struct {
	mu      sync.Mutex
	records map[int]storage.StatusRecord
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[int]storage.StatusRecord)}
}

func (m *mockStore) SetJobStatus(rec storage.StatusRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.JobID] = rec
	return nil
}

func (m *mockStore) GetJobStatus(jobID int) (storage.StatusRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[jobID]
	if !ok {
		return storage.StatusRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

func (m *mockStore) ListStatusUpdates(defaultStatus string, limit int) ([]storage.StatusRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var recs []storage.StatusRecord
	for _, rec := range m.records {
		if rec.Status == defaultStatus {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].UpdatedAt.After(recs[j].UpdatedAt) })
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// --- Mock clock ---

type mockClock struct {
	now time.Time
}

func (c *mockClock) Now() time.Time { return c.now }

var testCatalog = map[int]catalog.Job{
	1: {ID: 1, Title: "Backend Engineer", Company: "Acme"},
	2: {ID: 2, Title: "Frontend Developer", Company: "Beta"},
	3: {ID: 3, Title: "Data Analyst", Company: "Gamma"},
}

func lookup(id int) (catalog.Job, bool) {
	job, ok := testCatalog[id]
	return job, ok
}

func newTestTracker(t *testing.T) (*Tracker, *mockStore, *mockClock) {
	t.Helper()
	store := newMockStore()
	clock := &mockClock{now: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)}
	return NewWithClock(store, lookup, clock), store, clock
}

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses() {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []Status{"", "pending", "APPLIED"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestSetAndCurrent(t *testing.T) {
	tr, store, clock := newTestTracker(t)

	if err := tr.Set(1, StatusApplied); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := tr.Current(1); got != StatusApplied {
		t.Errorf("Current = %q, want applied", got)
	}

	rec, err := store.GetJobStatus(1)
	if err != nil {
		t.Fatalf("GetJobStatus: %v", err)
	}
	if !rec.UpdatedAt.Equal(clock.now) {
		t.Errorf("UpdatedAt = %v, want clock time %v", rec.UpdatedAt, clock.now)
	}

	// Overwrite.
	if err := tr.Set(1, StatusRejected); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := tr.Current(1); got != StatusRejected {
		t.Errorf("Current after overwrite = %q, want rejected", got)
	}
}

func TestSetRejectsInvalidStatus(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	if err := tr.Set(1, "pending"); err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestCurrentDefaults(t *testing.T) {
	tr, store, _ := newTestTracker(t)

	if got := tr.Current(99); got != StatusNotApplied {
		t.Errorf("Current of untracked job = %q, want not_applied", got)
	}

	// A malformed stored value degrades to the default instead of leaking.
	store.SetJobStatus(storage.StatusRecord{JobID: 1, Status: "garbage"})
	if got := tr.Current(1); got != StatusNotApplied {
		t.Errorf("Current of malformed record = %q, want not_applied", got)
	}
}

func TestRecentUpdates(t *testing.T) {
	tr, _, clock := newTestTracker(t)

	tr.Set(1, StatusApplied)
	clock.now = clock.now.Add(time.Minute)
	tr.Set(2, StatusRejected)
	clock.now = clock.now.Add(time.Minute)
	tr.Set(3, StatusSelected)

	updates, err := tr.RecentUpdates(2)
	if err != nil {
		t.Fatalf("RecentUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}
	if updates[0].JobID != 3 || updates[1].JobID != 2 {
		t.Errorf("updates order = [%d %d], want [3 2]", updates[0].JobID, updates[1].JobID)
	}
	if updates[0].Title != "Data Analyst" || updates[0].Company != "Gamma" {
		t.Errorf("update not annotated with job fields: %+v", updates[0])
	}
}

func TestRecentUpdatesExcludesDefault(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	tr.Set(1, StatusApplied)
	tr.Set(2, StatusNotApplied)

	updates, err := tr.RecentUpdates(10)
	if err != nil {
		t.Fatalf("RecentUpdates: %v", err)
	}
	if len(updates) != 1 || updates[0].JobID != 1 {
		t.Errorf("updates = %+v, want only job 1", updates)
	}
}

func TestRecentUpdatesSkipsUnknownJobs(t *testing.T) {
	tr, store, _ := newTestTracker(t)

	store.SetJobStatus(storage.StatusRecord{JobID: 99, Status: string(StatusApplied), UpdatedAt: time.Now()})
	tr.Set(1, StatusApplied)

	updates, err := tr.RecentUpdates(10)
	if err != nil {
		t.Fatalf("RecentUpdates: %v", err)
	}
	if len(updates) != 1 || updates[0].JobID != 1 {
		t.Errorf("updates = %+v, want job 99 skipped", updates)
	}
}

func TestRecentUpdatesDefaultLimit(t *testing.T) {
	tr, _, clock := newTestTracker(t)
	tr.Set(1, StatusApplied)
	clock.now = clock.now.Add(time.Minute)
	tr.Set(2, StatusApplied)

	updates, err := tr.RecentUpdates(0)
	if err != nil {
		t.Fatalf("RecentUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Errorf("got %d updates, want 2 under the default limit", len(updates))
	}
}

func TestSetKnown(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	if err := tr.SetKnown(1, StatusApplied); err != nil {
		t.Fatalf("SetKnown: %v", err)
	}
	if err := tr.SetKnown(99, StatusApplied); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("SetKnown(99) error = %v, want ErrUnknownJob", err)
	}
}
