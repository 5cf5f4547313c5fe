// Package filtering applies user-selected predicates and an ordering to the
// job catalogue. Filtering is conjunctive across all active criteria; an
// inactive criterion always passes. Absent or invalid values are treated as
// "no filter", never an error.
package filtering

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/mahadevipille/Job-tracker-notification/internal/catalog"
	"github.com/mahadevipille/Job-tracker-notification/internal/match"
)

// Sort keys.
const (
	SortLatest = "latest"
	SortOldest = "oldest"
	SortMatch  = "match"
	SortSalary = "salary"
)

// Criteria are the user-selected filters and ordering. Zero values mean
// "no filter"; an unknown Sort falls back to latest.
type Criteria struct {
	Keyword     string
	Location    string
	Mode        string
	Experience  string
	Source      string
	Status      string
	OnlyMatches bool
	Sort        string
}

// Deps aggregates the collaborators the pipeline reads from.
type Deps struct {
	Scorer *match.Scorer
	Prefs  *match.Preferences     // nil when no personalization is active
	Status func(jobID int) string // current status lookup
	Logger *slog.Logger           // optional
}

// step is one named conjunctive predicate.
type step struct {
	name string
	keep func(catalog.Job) bool
}

// Select filters the catalogue by the active criteria and sorts the result.
// Ties are broken by original catalogue order.
func Select(jobs []catalog.Job, c Criteria, deps Deps) []catalog.Job {
	steps := buildSteps(c, deps)

	filtered := make([]catalog.Job, 0, len(jobs))
	filtered = append(filtered, jobs...)

	for _, st := range steps {
		initial := len(filtered)
		next := filtered[:0]
		for _, job := range filtered {
			if st.keep(job) {
				next = append(next, job)
			}
		}
		filtered = next

		if deps.Logger != nil {
			deps.Logger.Debug("filter step",
				"name", st.name,
				"initial", initial,
				"dropped", initial-len(filtered),
				"left", len(filtered),
			)
		}
	}

	sortJobs(filtered, c.Sort, deps)
	return filtered
}

func buildSteps(c Criteria, deps Deps) []step {
	var steps []step

	if kw := strings.ToLower(strings.TrimSpace(c.Keyword)); kw != "" {
		steps = append(steps, step{name: "keyword", keep: func(j catalog.Job) bool {
			return strings.Contains(strings.ToLower(j.Title), kw) ||
				strings.Contains(strings.ToLower(j.Company), kw)
		}})
	}
	if c.Location != "" {
		steps = append(steps, step{name: "location", keep: func(j catalog.Job) bool {
			return j.Location == c.Location
		}})
	}
	if c.Mode != "" {
		steps = append(steps, step{name: "mode", keep: func(j catalog.Job) bool {
			return j.Mode == c.Mode
		}})
	}
	if c.Experience != "" {
		steps = append(steps, step{name: "experience", keep: func(j catalog.Job) bool {
			return j.Experience == c.Experience
		}})
	}
	if c.Source != "" {
		steps = append(steps, step{name: "source", keep: func(j catalog.Job) bool {
			return j.Source == c.Source
		}})
	}
	if c.Status != "" && deps.Status != nil {
		steps = append(steps, step{name: "status", keep: func(j catalog.Job) bool {
			return deps.Status(j.ID) == c.Status
		}})
	}

	// Threshold filter requires active preferences; without them it passes
	// everything rather than hiding the whole catalogue behind score 0.
	if c.OnlyMatches && deps.Prefs != nil && deps.Scorer != nil {
		threshold := deps.Prefs.Threshold()
		steps = append(steps, step{name: "threshold", keep: func(j catalog.Job) bool {
			return deps.Scorer.Score(j, deps.Prefs) >= threshold
		}})
	}

	return steps
}

func sortJobs(jobs []catalog.Job, key string, deps Deps) {
	switch key {
	case SortOldest:
		sort.SliceStable(jobs, func(i, j int) bool {
			return jobs[i].PostedDaysAgo > jobs[j].PostedDaysAgo
		})
	case SortMatch:
		if deps.Scorer == nil {
			return
		}
		scores := make(map[int]int, len(jobs))
		for _, j := range jobs {
			scores[j.ID] = deps.Scorer.Score(j, deps.Prefs)
		}
		sort.SliceStable(jobs, func(i, j int) bool {
			return scores[jobs[i].ID] > scores[jobs[j].ID]
		})
	case SortSalary:
		sort.SliceStable(jobs, func(i, j int) bool {
			return catalog.SalaryValue(jobs[i].SalaryRange) > catalog.SalaryValue(jobs[j].SalaryRange)
		})
	default: // SortLatest and anything unrecognised
		sort.SliceStable(jobs, func(i, j int) bool {
			return jobs[i].PostedDaysAgo < jobs[j].PostedDaysAgo
		})
	}
}
