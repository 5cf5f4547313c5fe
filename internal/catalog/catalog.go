package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
)

//go:embed catalog.json
var seedFS embed.FS

// Job is a single posting from the fixed catalogue. Records are loaded once
// at startup and never mutated.
type Job struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Company       string   `json:"company"`
	Description   string   `json:"description"`
	Location      string   `json:"location"`
	Mode          string   `json:"mode"`
	Experience    string   `json:"experience"`
	Skills        []string `json:"skills"`
	SalaryRange   string   `json:"salaryRange"`
	Source        string   `json:"source"`
	PostedDaysAgo int      `json:"postedDaysAgo"`
	ApplyURL      string   `json:"applyUrl"`
}

// Catalog is the ordered, read-only collection of jobs.
type Catalog struct {
	jobs []Job
	byID map[int]Job
}

// Load parses the embedded seed catalogue.
func Load() (*Catalog, error) {
	data, err := seedFS.ReadFile("catalog.json")
	if err != nil {
		return nil, fmt.Errorf("reading embedded catalogue: %w", err)
	}
	return Parse(data)
}

// Parse builds a Catalog from a JSON array of jobs. IDs must be unique.
func Parse(data []byte) (*Catalog, error) {
	var jobs []Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("parsing catalogue: %w", err)
	}

	byID := make(map[int]Job, len(jobs))
	for _, j := range jobs {
		if _, dup := byID[j.ID]; dup {
			return nil, fmt.Errorf("duplicate job id %d in catalogue", j.ID)
		}
		byID[j.ID] = j
	}
	return &Catalog{jobs: jobs, byID: byID}, nil
}

// FromJobs builds a Catalog from an in-memory slice (used by tests).
func FromJobs(jobs []Job) *Catalog {
	byID := make(map[int]Job, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
	}
	return &Catalog{jobs: jobs, byID: byID}
}

// Jobs returns the catalogue in its original order. Callers must not mutate
// the returned slice.
func (c *Catalog) Jobs() []Job {
	return c.jobs
}

// ByID looks a job up by its catalogue id.
func (c *Catalog) ByID(id int) (Job, bool) {
	j, ok := c.byID[id]
	return j, ok
}

func (c *Catalog) Len() int {
	return len(c.jobs)
}

// SalaryValue extracts the first embedded integer from a free-text salary
// range ("12-18 LPA" yields 12). Jobs with no embedded integer sort as 0.
func SalaryValue(salaryRange string) int {
	start := -1
	for i, r := range salaryRange {
		if r >= '0' && r <= '9' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			v, _ := strconv.Atoi(salaryRange[start:i])
			return v
		}
	}
	if start != -1 {
		v, _ := strconv.Atoi(salaryRange[start:])
		return v
	}
	return 0
}
