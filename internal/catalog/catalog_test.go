package catalog

import (
	"testing"
)

func TestLoadEmbeddedCatalogue(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("embedded catalogue is empty")
	}

	seen := make(map[int]bool, c.Len())
	for _, j := range c.Jobs() {
		if seen[j.ID] {
			t.Errorf("duplicate job id %d", j.ID)
		}
		seen[j.ID] = true

		if j.Title == "" || j.Company == "" || j.ApplyURL == "" {
			t.Errorf("job %d missing required display fields: %+v", j.ID, j)
		}
		if j.PostedDaysAgo < 0 {
			t.Errorf("job %d has negative postedDaysAgo", j.ID)
		}
	}
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	data := []byte(`[{"id":1,"title":"A"},{"id":1,"title":"B"}]`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte(`{not an array`)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestByID(t *testing.T) {
	c := FromJobs([]Job{{ID: 1, Title: "Backend Engineer"}, {ID: 7, Title: "Analyst"}})

	j, ok := c.ByID(7)
	if !ok || j.Title != "Analyst" {
		t.Errorf("ByID(7) = %+v, %v", j, ok)
	}
	if _, ok := c.ByID(99); ok {
		t.Error("ByID(99) found a job that does not exist")
	}
}

func TestSalaryValue(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"₹12-18 LPA", 12},
		{"₹8-12 LPA", 8},
		{"30-40 LPA", 30},
		{"Stipend negotiable", 0},
		{"", 0},
		{"up to 25", 25},
		{"7", 7},
	}
	for _, tt := range tests {
		if got := SalaryValue(tt.in); got != tt.want {
			t.Errorf("SalaryValue(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
