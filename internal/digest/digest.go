// Package digest ranks the catalogue by match score and caches the top
// result per calendar day.
package digest

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mahadevipille/Job-tracker-notification/internal/catalog"
	"github.com/mahadevipille/Job-tracker-notification/internal/match"
	"github.com/mahadevipille/Job-tracker-notification/internal/storage"
	"github.com/mahadevipille/Job-tracker-notification/internal/tracker"
)

// DefaultSize is the maximum number of entries in a digest.
const DefaultSize = 10

const scoreConcurrency = 4

// ErrNoPreferences is returned by Generate when no personalization is
// active; without preferences every job scores 0 and a digest would always
// be empty, so the caller is told to configure preferences first.
var ErrNoPreferences = errors.New("preferences required to generate a digest")

// Entry is one (job, score) snapshot in a cached digest.
type Entry struct {
	Job        catalog.Job `json:"job"`
	MatchScore int         `json:"matchScore"`
}

// Digest is the cached top-N-by-score subset of the catalogue for one
// calendar day. Once generated for a day its content is immutable until
// explicitly cleared.
type Digest struct {
	Day          string    `json:"day"`
	GenerationID string    `json:"generationId"`
	GeneratedAt  time.Time `json:"generatedAt"`
	Entries      []Entry   `json:"entries"`
}

// DigestStore defines the storage operations the Engine needs.
// Implemented by storage.Store.
type DigestStore interface {
	SaveDigest(rec storage.DigestRecord) error
	GetDigest(day string) (storage.DigestRecord, error)
	DeleteDigest(day string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Engine generates and serves daily digests.
type Engine struct {
	store  DigestStore
	scorer *match.Scorer
	clock  Clock
	size   int
}

// New creates an Engine producing digests of up to size entries; size <= 0
// means DefaultSize.
func New(store DigestStore, scorer *match.Scorer, size int) *Engine {
	return NewWithClock(store, scorer, size, realClock{})
}

// NewWithClock creates an Engine with a custom clock (for testing).
func NewWithClock(store DigestStore, scorer *match.Scorer, size int, clock Clock) *Engine {
	if size <= 0 {
		size = DefaultSize
	}
	return &Engine{store: store, scorer: scorer, clock: clock, size: size}
}

// DayKey formats t as the local YYYY-MM-DD digest cache key.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Generate scores every job, discards zero scores, ranks by score descending
// then postedDaysAgo ascending, takes the top N and persists the result
// under today's key. Regenerating on the same day overwrites the cache, but
// with unchanged inputs the content is identical, so the operation is
// idempotent per day.
func (e *Engine) Generate(jobs []catalog.Job, prefs *match.Preferences) (Digest, error) {
	if prefs == nil {
		return Digest{}, ErrNoPreferences
	}

	scores := make([]int, len(jobs))
	g := new(errgroup.Group)
	g.SetLimit(scoreConcurrency)
	for i, job := range jobs {
		g.Go(func() error {
			scores[i] = e.scorer.Score(job, prefs)
			return nil
		})
	}
	g.Wait() // scoring never errors

	entries := make([]Entry, 0, len(jobs))
	for i, job := range jobs {
		if scores[i] == 0 {
			continue
		}
		entries = append(entries, Entry{Job: job, MatchScore: scores[i]})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].MatchScore != entries[j].MatchScore {
			return entries[i].MatchScore > entries[j].MatchScore
		}
		return entries[i].Job.PostedDaysAgo < entries[j].Job.PostedDaysAgo
	})
	if len(entries) > e.size {
		entries = entries[:e.size]
	}

	now := e.clock.Now()
	d := Digest{
		Day:          DayKey(now),
		GenerationID: uuid.New().String(),
		GeneratedAt:  now,
		Entries:      entries,
	}

	payload, err := json.Marshal(d.Entries)
	if err != nil {
		return Digest{}, fmt.Errorf("marshalling digest entries: %w", err)
	}
	rec := storage.DigestRecord{
		Day:          d.Day,
		GenerationID: d.GenerationID,
		Payload:      string(payload),
		GeneratedAt:  now,
	}
	if err := e.store.SaveDigest(rec); err != nil {
		return Digest{}, fmt.Errorf("saving digest for %s: %w", d.Day, err)
	}
	return d, nil
}

// Today returns today's cached digest. The boolean distinguishes "not yet
// generated" (false) from "generated but empty" (true with zero entries).
func (e *Engine) Today() (Digest, bool, error) {
	return e.ForDay(DayKey(e.clock.Now()))
}

// ForDay returns the cached digest for an arbitrary day key.
func (e *Engine) ForDay(day string) (Digest, bool, error) {
	rec, err := e.store.GetDigest(day)
	if errors.Is(err, storage.ErrNotFound) {
		return Digest{}, false, nil
	}
	if err != nil {
		return Digest{}, false, fmt.Errorf("loading digest for %s: %w", day, err)
	}

	d := Digest{
		Day:          rec.Day,
		GenerationID: rec.GenerationID,
		GeneratedAt:  rec.GeneratedAt,
		Entries:      []Entry{},
	}
	// A corrupted payload degrades to an empty digest rather than an error.
	if err := json.Unmarshal([]byte(rec.Payload), &d.Entries); err != nil {
		d.Entries = []Entry{}
	}
	return d, true, nil
}

// Clear removes the cached digest for a day, allowing regeneration.
func (e *Engine) Clear(day string) error {
	err := e.store.DeleteDigest(day)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// FormatText renders a digest (plus optional recent status updates) as the
// plain-text report used by the copy and email flows.
func FormatText(d Digest, updates []tracker.Update) string {
	var b strings.Builder
	b.WriteString("### 9AM JOB DIGEST\n\n")

	if len(d.Entries) == 0 {
		b.WriteString("No matching roles today. Check again tomorrow.")
	}
	for i, entry := range d.Entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d. %s @ %s\n   Score: %d%% | %s\n   Apply: %s",
			i+1, entry.Job.Title, entry.Job.Company,
			entry.MatchScore, entry.Job.Location, entry.Job.ApplyURL)
	}

	if len(updates) > 0 {
		b.WriteString("\n\n---\n\n### RECENT STATUS UPDATES\n\n")
		for i, u := range updates {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "• %s @ %s\n  Status: %s (%s)",
				u.Title, u.Company,
				strings.ToUpper(string(u.Status)), u.UpdatedAt.Format("2006-01-02"))
		}
	}

	return b.String()
}
