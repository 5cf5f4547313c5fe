// Package checklist tracks the fixed verification checklist, the artifact
// links, and the terminal ship gate.
package checklist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mahadevipille/Job-tracker-notification/internal/storage"
)

// State keys in the app_state store.
const (
	stateKeyChecklist = "checklist"
	stateKeyLinks     = "artifact_links"
	stateKeyShipped   = "shipped"
)

// Item is one verification checklist entry.
type Item struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Desc  string `json:"desc"`
}

// Items is the fixed verification checklist. The gate requires every item
// to be passed before shipping.
var Items = []Item{
	{ID: "prefs_persist", Label: "Preferences persist after refresh", Desc: "Save settings, restart, and check if they remain."},
	{ID: "score_calc", Label: "Match score calculates correctly", Desc: "Verify role keywords/location add up as expected."},
	{ID: "toggle_works", Label: "\"Show only matches\" toggle works", Desc: "Enable the threshold filter and see low scores disappear."},
	{ID: "save_persist", Label: "Save job persists after refresh", Desc: "Save a role and verify it stays in the saved list."},
	{ID: "apply_tab", Label: "Apply link resolves", Desc: "Open an apply URL and verify it loads."},
	{ID: "status_persist", Label: "Status update persists after refresh", Desc: "Change status to Applied and restart."},
	{ID: "filter_works", Label: "Status filter works correctly", Desc: "Filter by Applied and see only those jobs."},
	{ID: "digest_score", Label: "Digest generates top 10 by score", Desc: "Verify digest order follows match score logic."},
	{ID: "digest_persist", Label: "Digest persists for the day", Desc: "Generate a digest and see it remains on return."},
	{ID: "no_errors", Label: "No errors on main flows", Desc: "Run through the main commands and verify clean output."},
}

// ItemCount is the number of checklist items the gate requires.
var ItemCount = len(Items)

// Links are the three artifact links required before shipping.
type Links struct {
	Design   string `json:"design"`
	Repo     string `json:"repository"`
	Deployed string `json:"deployed"`
}

// Provided reports whether all three links are non-empty after trimming.
func (l Links) Provided() bool {
	return strings.TrimSpace(l.Design) != "" &&
		strings.TrimSpace(l.Repo) != "" &&
		strings.TrimSpace(l.Deployed) != ""
}

// Ship validation reasons.
const (
	ReasonChecklistIncomplete = "checklist_incomplete"
	ReasonLinksMissing        = "links_missing"
)

// ShipError reports which gate condition blocked shipping.
type ShipError struct {
	Reason    string
	Completed int
}

func (e *ShipError) Error() string {
	switch e.Reason {
	case ReasonChecklistIncomplete:
		return fmt.Sprintf("cannot ship: %d/%d checklist items passed, all %d required", e.Completed, ItemCount, ItemCount)
	case ReasonLinksMissing:
		return "cannot ship: all three artifact links must be provided"
	}
	return "cannot ship"
}

// StateStore defines the storage operations the Gate needs.
// Implemented by storage.Store.
type StateStore interface {
	SetStateKey(key, value string) error
	GetStateKey(key string) (string, error)
	DeleteStateKey(key string) error
}

// Gate tracks checklist completion and gates the terminal ship action.
type Gate struct {
	store StateStore
}

// NewGate creates a Gate over the given state store.
func NewGate(store StateStore) *Gate {
	return &Gate{store: store}
}

// SetItem marks a checklist item as passed or not. Unknown ids are
// rejected; the item set is fixed.
func (g *Gate) SetItem(id string, passed bool) error {
	if !knownItem(id) {
		return fmt.Errorf("unknown checklist item %q", id)
	}
	state := g.State()
	state[id] = passed

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshalling checklist: %w", err)
	}
	if err := g.store.SetStateKey(stateKeyChecklist, string(data)); err != nil {
		return fmt.Errorf("saving checklist: %w", err)
	}
	return nil
}

// State returns the persisted item-id to passed mapping. A missing or
// malformed record is an empty checklist.
func (g *Gate) State() map[string]bool {
	state := make(map[string]bool)
	raw, err := g.store.GetStateKey(stateKeyChecklist)
	if errors.Is(err, storage.ErrNotFound) {
		return state
	}
	if err != nil {
		slog.Warn("reading checklist state", "error", err)
		return state
	}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		slog.Warn("malformed checklist record, treating as empty", "error", err)
		return make(map[string]bool)
	}
	return state
}

// CompletedCount returns how many of the fixed items are currently passed.
func (g *Gate) CompletedCount() int {
	state := g.State()
	count := 0
	for _, item := range Items {
		if state[item.ID] {
			count++
		}
	}
	return count
}

// AllComplete reports whether every checklist item is passed.
func (g *Gate) AllComplete() bool {
	return g.CompletedCount() == ItemCount
}

// SetLinks replaces the artifact links snapshot.
func (g *Gate) SetLinks(l Links) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshalling artifact links: %w", err)
	}
	if err := g.store.SetStateKey(stateKeyLinks, string(data)); err != nil {
		return fmt.Errorf("saving artifact links: %w", err)
	}
	return nil
}

// GetLinks returns the persisted artifact links; missing or malformed
// records are empty links.
func (g *Gate) GetLinks() Links {
	raw, err := g.store.GetStateKey(stateKeyLinks)
	if err != nil {
		return Links{}
	}
	var l Links
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		slog.Warn("malformed artifact links record, treating as empty", "error", err)
		return Links{}
	}
	return l
}

// CanShip reports whether the gate is open: all items passed and all three
// links provided.
func (g *Gate) CanShip() bool {
	return g.AllComplete() && g.GetLinks().Provided()
}

// Shipped reports the terminal shipped flag.
func (g *Gate) Shipped() bool {
	raw, err := g.store.GetStateKey(stateKeyShipped)
	if err != nil {
		return false
	}
	var shipped bool
	if err := json.Unmarshal([]byte(raw), &shipped); err != nil {
		return false
	}
	return shipped
}

// Ship sets the shipped flag if the gate is open, otherwise returns a
// *ShipError naming the unmet condition. Shipping is one-way until Reset.
func (g *Gate) Ship() error {
	if completed := g.CompletedCount(); completed < ItemCount {
		return &ShipError{Reason: ReasonChecklistIncomplete, Completed: completed}
	}
	if !g.GetLinks().Provided() {
		return &ShipError{Reason: ReasonLinksMissing, Completed: ItemCount}
	}
	if err := g.store.SetStateKey(stateKeyShipped, "true"); err != nil {
		return fmt.Errorf("saving shipped flag: %w", err)
	}
	return nil
}

// Reset clears the checklist and the shipped flag together.
func (g *Gate) Reset() error {
	if err := g.store.DeleteStateKey(stateKeyChecklist); err != nil {
		return fmt.Errorf("clearing checklist: %w", err)
	}
	if err := g.store.DeleteStateKey(stateKeyShipped); err != nil {
		return fmt.Errorf("clearing shipped flag: %w", err)
	}
	return nil
}

// SubmissionText renders the final-submission text used by the copy flow.
func SubmissionText(l Links) string {
	return fmt.Sprintf(`Job Notification Tracker — Final Submission

Design Project:
%s

Source Repository:
%s

Live Deployment:
%s

Core Features:
- Intelligent match scoring
- Daily digest simulation
- Status tracking
- Test checklist enforced`, l.Design, l.Repo, l.Deployed)
}

func knownItem(id string) bool {
	for _, item := range Items {
		if item.ID == id {
			return true
		}
	}
	return false
}
