package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for application state snapshots,
// per-job statuses, and daily digest caches.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "jobtrack.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Application state ---
//
// Whole-object snapshots (preferences, saved set, checklist, artifact links,
// shipped flag, API token) are stored as JSON text under a named key.

func (s *Store) SetStateKey(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetStateKey(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM app_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

func (s *Store) DeleteStateKey(key string) error {
	_, err := s.db.Exec("DELETE FROM app_state WHERE key = ?", key)
	return err
}

func (s *Store) GetAllStateKeys() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM app_state")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, rows.Err()
}

// --- Job statuses ---

func (s *Store) SetJobStatus(rec StatusRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO job_status (job_id, status, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		rec.JobID, rec.Status, rec.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetJobStatus(jobID int) (StatusRecord, error) {
	var rec StatusRecord
	var updatedAt string
	err := s.db.QueryRow("SELECT job_id, status, updated_at FROM job_status WHERE job_id = ?", jobID).
		Scan(&rec.JobID, &rec.Status, &updatedAt)
	if err == sql.ErrNoRows {
		return StatusRecord{}, ErrNotFound
	}
	if err != nil {
		return StatusRecord{}, err
	}
	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return StatusRecord{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	rec.UpdatedAt = t
	return rec, nil
}

// ListStatusUpdates returns the most recently updated records whose status is
// not the given default, newest first.
func (s *Store) ListStatusUpdates(defaultStatus string, limit int) ([]StatusRecord, error) {
	rows, err := s.db.Query(`
		SELECT job_id, status, updated_at FROM job_status
		WHERE status <> ? ORDER BY updated_at DESC LIMIT ?`, defaultStatus, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []StatusRecord
	for rows.Next() {
		var rec StatusRecord
		var updatedAt string
		if err := rows.Scan(&rec.JobID, &rec.Status, &updatedAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		rec.UpdatedAt = t
		results = append(results, rec)
	}
	return results, rows.Err()
}

// --- Digest cache ---

func (s *Store) SaveDigest(rec DigestRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO digests (day, generation_id, payload, generated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET generation_id = excluded.generation_id,
			payload = excluded.payload, generated_at = excluded.generated_at`,
		rec.Day, rec.GenerationID, rec.Payload, rec.GeneratedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetDigest(day string) (DigestRecord, error) {
	var rec DigestRecord
	var generatedAt string
	err := s.db.QueryRow("SELECT day, generation_id, payload, generated_at FROM digests WHERE day = ?", day).
		Scan(&rec.Day, &rec.GenerationID, &rec.Payload, &generatedAt)
	if err == sql.ErrNoRows {
		return DigestRecord{}, ErrNotFound
	}
	if err != nil {
		return DigestRecord{}, err
	}
	t, err := time.Parse(time.RFC3339, generatedAt)
	if err != nil {
		return DigestRecord{}, fmt.Errorf("parsing generated_at: %w", err)
	}
	rec.GeneratedAt = t
	return rec, nil
}

func (s *Store) DeleteDigest(day string) error {
	res, err := s.db.Exec("DELETE FROM digests WHERE day = ?", day)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DigestDays returns the cached digest day keys in descending order.
func (s *Store) DigestDays() ([]string, error) {
	rows, err := s.db.Query("SELECT day FROM digests ORDER BY day DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
