package storage

import (
	"fmt"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

// TestMigrationsOrdered verifies migrations are applied in ascending numeric order.
func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(versions) == 0 {
		t.Fatal("expected at least one applied migration")
	}

	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("migrations not in ascending order: %v", versions)
			break
		}
	}
}

func TestTablesExist(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"app_state", "job_status", "digests"} {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("querying sqlite_master: %v", err)
		}
		if count != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

// --- Application state ---

func TestStateKeyRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetStateKey("preferences"); err != ErrNotFound {
		t.Fatalf("GetStateKey on empty store = %v, want ErrNotFound", err)
	}

	if err := s.SetStateKey("preferences", `{"roleKeywords":"backend"}`); err != nil {
		t.Fatalf("SetStateKey: %v", err)
	}
	v, err := s.GetStateKey("preferences")
	if err != nil {
		t.Fatalf("GetStateKey: %v", err)
	}
	if v != `{"roleKeywords":"backend"}` {
		t.Errorf("GetStateKey = %q", v)
	}

	// Upsert.
	if err := s.SetStateKey("preferences", `{}`); err != nil {
		t.Fatalf("SetStateKey (update): %v", err)
	}
	v, _ = s.GetStateKey("preferences")
	if v != `{}` {
		t.Errorf("GetStateKey after update = %q", v)
	}

	if err := s.DeleteStateKey("preferences"); err != nil {
		t.Fatalf("DeleteStateKey: %v", err)
	}
	if _, err := s.GetStateKey("preferences"); err != ErrNotFound {
		t.Errorf("GetStateKey after delete = %v, want ErrNotFound", err)
	}

	// Deleting an absent key is not an error.
	if err := s.DeleteStateKey("never_set"); err != nil {
		t.Errorf("DeleteStateKey of absent key: %v", err)
	}
}

func TestGetAllStateKeys(t *testing.T) {
	s := openTestStore(t)

	s.SetStateKey("a", "1")
	s.SetStateKey("b", "2")

	all, err := s.GetAllStateKeys()
	if err != nil {
		t.Fatalf("GetAllStateKeys: %v", err)
	}
	if len(all) != 2 || all["a"] != "1" || all["b"] != "2" {
		t.Errorf("GetAllStateKeys = %v", all)
	}
}

// --- Job statuses ---

func TestJobStatusRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetJobStatus(1); err != ErrNotFound {
		t.Fatalf("GetJobStatus on empty store = %v, want ErrNotFound", err)
	}

	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	if err := s.SetJobStatus(StatusRecord{JobID: 1, Status: "applied", UpdatedAt: now}); err != nil {
		t.Fatalf("SetJobStatus: %v", err)
	}

	rec, err := s.GetJobStatus(1)
	if err != nil {
		t.Fatalf("GetJobStatus: %v", err)
	}
	if rec.Status != "applied" || !rec.UpdatedAt.Equal(now) {
		t.Errorf("GetJobStatus = %+v", rec)
	}

	// Upsert replaces status and timestamp.
	later := now.Add(time.Hour)
	if err := s.SetJobStatus(StatusRecord{JobID: 1, Status: "rejected", UpdatedAt: later}); err != nil {
		t.Fatalf("SetJobStatus (update): %v", err)
	}
	rec, _ = s.GetJobStatus(1)
	if rec.Status != "rejected" || !rec.UpdatedAt.Equal(later) {
		t.Errorf("GetJobStatus after update = %+v", rec)
	}
}

func TestListStatusUpdates(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	for i, status := range []string{"applied", "not_applied", "rejected", "selected"} {
		rec := StatusRecord{JobID: i + 1, Status: status, UpdatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.SetJobStatus(rec); err != nil {
			t.Fatalf("SetJobStatus: %v", err)
		}
	}

	recs, err := s.ListStatusUpdates("not_applied", 10)
	if err != nil {
		t.Fatalf("ListStatusUpdates: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3 (default status excluded)", len(recs))
	}
	// Newest first.
	for i := 1; i < len(recs); i++ {
		if recs[i].UpdatedAt.After(recs[i-1].UpdatedAt) {
			t.Errorf("records not newest-first: %v", recs)
		}
	}

	limited, err := s.ListStatusUpdates("not_applied", 2)
	if err != nil {
		t.Fatalf("ListStatusUpdates (limit): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit not applied: got %d records", len(limited))
	}
}

// --- Digest cache ---

func TestDigestRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetDigest("2025-06-10"); err != ErrNotFound {
		t.Fatalf("GetDigest on empty store = %v, want ErrNotFound", err)
	}

	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	rec := DigestRecord{Day: "2025-06-10", GenerationID: "gen-1", Payload: `[]`, GeneratedAt: now}
	if err := s.SaveDigest(rec); err != nil {
		t.Fatalf("SaveDigest: %v", err)
	}

	got, err := s.GetDigest("2025-06-10")
	if err != nil {
		t.Fatalf("GetDigest: %v", err)
	}
	if got.GenerationID != "gen-1" || got.Payload != `[]` || !got.GeneratedAt.Equal(now) {
		t.Errorf("GetDigest = %+v", got)
	}

	// Regeneration upserts under the same day key.
	rec.GenerationID = "gen-2"
	rec.Payload = `[{"matchScore":50}]`
	if err := s.SaveDigest(rec); err != nil {
		t.Fatalf("SaveDigest (update): %v", err)
	}
	got, _ = s.GetDigest("2025-06-10")
	if got.GenerationID != "gen-2" {
		t.Errorf("GetDigest after regen = %+v", got)
	}

	if err := s.DeleteDigest("2025-06-10"); err != nil {
		t.Fatalf("DeleteDigest: %v", err)
	}
	if err := s.DeleteDigest("2025-06-10"); err != ErrNotFound {
		t.Errorf("second DeleteDigest = %v, want ErrNotFound", err)
	}
}

func TestDigestDays(t *testing.T) {
	s := openTestStore(t)

	for i := 1; i <= 3; i++ {
		rec := DigestRecord{
			Day:          fmt.Sprintf("2025-06-%02d", i),
			GenerationID: fmt.Sprintf("gen-%d", i),
			Payload:      `[]`,
			GeneratedAt:  time.Now(),
		}
		if err := s.SaveDigest(rec); err != nil {
			t.Fatalf("SaveDigest: %v", err)
		}
	}

	days, err := s.DigestDays()
	if err != nil {
		t.Fatalf("DigestDays: %v", err)
	}
	want := []string{"2025-06-03", "2025-06-02", "2025-06-01"}
	if len(days) != len(want) {
		t.Fatalf("got %d days, want %d", len(days), len(want))
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("days[%d] = %s, want %s", i, days[i], want[i])
		}
	}
}
