package match

import (
	"testing"

	"github.com/mahadevipille/Job-tracker-notification/internal/catalog"
)

func backendJob() catalog.Job {
	return catalog.Job{
		ID:            1,
		Title:         "Backend Engineer",
		Company:       "Acme",
		Description:   "Build Go services on the backend platform",
		Location:      "Bangalore",
		Mode:          "Remote",
		Experience:    "2-4 years",
		Skills:        []string{"Go", "SQL", "AWS"},
		Source:        "LinkedIn",
		PostedDaysAgo: 1,
	}
}

func TestScoreNilPreferences(t *testing.T) {
	s := NewScorer("")
	if got := s.Score(backendJob(), nil); got != 0 {
		t.Errorf("Score with nil prefs = %d, want 0", got)
	}
	if reasons := s.Explain(backendJob(), nil); reasons != nil {
		t.Errorf("Explain with nil prefs = %v, want nil", reasons)
	}
}

// The additive schedule: title (25) + description (15) + location (15) +
// mode (10) + experience (10) + skill (15) sums to 90, and the job here
// is neither fresh nor from the premium source.
func TestScoreSchedule(t *testing.T) {
	s := NewScorer("")

	job := backendJob()
	job.PostedDaysAgo = 5
	job.Source = "Naukri"

	prefs := &Preferences{
		RoleKeywords:       "backend",
		PreferredLocations: []string{"Bangalore"},
		PreferredModes:     []string{"Remote"},
		ExperienceLevel:    "2-4 years",
		Skills:             "go,python",
	}

	if got := s.Score(job, prefs); got != 90 {
		t.Errorf("Score = %d, want 90", got)
	}
}

func TestScoreConditions(t *testing.T) {
	s := NewScorer("")

	tests := []struct {
		name  string
		prefs Preferences
		mod   func(*catalog.Job)
		want  int
	}{
		{
			name:  "title keyword only",
			prefs: Preferences{RoleKeywords: "backend"},
			mod:   func(j *catalog.Job) { j.Description = "nothing relevant"; j.PostedDaysAgo = 9; j.Source = "Indeed" },
			want:  25,
		},
		{
			name:  "description keyword only",
			prefs: Preferences{RoleKeywords: "platform"},
			mod:   func(j *catalog.Job) { j.PostedDaysAgo = 9; j.Source = "Indeed" },
			want:  15,
		},
		{
			name:  "keyword matching is case-insensitive",
			prefs: Preferences{RoleKeywords: "BACKEND"},
			mod:   func(j *catalog.Job) { j.Description = "nothing relevant"; j.PostedDaysAgo = 9; j.Source = "Indeed" },
			want:  25,
		},
		{
			name:  "location requires exact match",
			prefs: Preferences{PreferredLocations: []string{"bangalore"}},
			mod:   func(j *catalog.Job) { j.PostedDaysAgo = 9; j.Source = "Indeed" },
			want:  0,
		},
		{
			name:  "skill overlap is case-insensitive",
			prefs: Preferences{Skills: "go"},
			mod:   func(j *catalog.Job) { j.PostedDaysAgo = 9; j.Source = "Indeed" },
			want:  15,
		},
		{
			name:  "recency bonus at the cap",
			prefs: Preferences{},
			mod:   func(j *catalog.Job) { j.PostedDaysAgo = 2; j.Source = "Indeed" },
			want:  5,
		},
		{
			name:  "no recency bonus past the cap",
			prefs: Preferences{},
			mod:   func(j *catalog.Job) { j.PostedDaysAgo = 3; j.Source = "Indeed" },
			want:  0,
		},
		{
			name:  "premium source bonus",
			prefs: Preferences{},
			mod:   func(j *catalog.Job) { j.PostedDaysAgo = 9 },
			want:  5,
		},
		{
			name:  "empty preferences score zero",
			prefs: Preferences{},
			mod:   func(j *catalog.Job) { j.PostedDaysAgo = 9; j.Source = "Indeed" },
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := backendJob()
			tt.mod(&job)
			if got := s.Score(job, &tt.prefs); got != tt.want {
				t.Errorf("Score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreClampedAt100(t *testing.T) {
	s := NewScorer("")

	// All eight conditions trigger: 25+15+15+10+10+15+5+5 = 100 raw, and the
	// clamp keeps any future schedule change from exceeding it.
	prefs := &Preferences{
		RoleKeywords:       "backend",
		PreferredLocations: []string{"Bangalore"},
		PreferredModes:     []string{"Remote"},
		ExperienceLevel:    "2-4 years",
		Skills:             "go",
	}
	if got := s.Score(backendJob(), prefs); got != 100 {
		t.Errorf("Score = %d, want 100", got)
	}
	if got := len(s.Explain(backendJob(), prefs)); got != 8 {
		t.Errorf("Explain returned %d reasons, want 8", got)
	}
}

func TestExplainSumEqualsScore(t *testing.T) {
	s := NewScorer("")
	prefs := &Preferences{RoleKeywords: "backend", Skills: "go"}

	job := backendJob()
	total := 0
	for _, r := range s.Explain(job, prefs) {
		total += r.Points
	}
	if got := s.Score(job, prefs); got != total {
		t.Errorf("Score = %d, Explain sum = %d", got, total)
	}
}

func TestCustomPremiumSource(t *testing.T) {
	s := NewScorer("Wellfound")

	job := backendJob()
	job.PostedDaysAgo = 9
	job.Source = "Wellfound"
	if got := s.Score(job, &Preferences{}); got != 5 {
		t.Errorf("Score = %d, want 5 for custom premium source", got)
	}

	job.Source = "LinkedIn"
	if got := s.Score(job, &Preferences{}); got != 0 {
		t.Errorf("Score = %d, want 0 when LinkedIn is not the premium source", got)
	}
}

func TestThreshold(t *testing.T) {
	var nilPrefs *Preferences
	if got := nilPrefs.Threshold(); got != DefaultThreshold {
		t.Errorf("nil Threshold = %d, want %d", got, DefaultThreshold)
	}
	if got := (&Preferences{}).Threshold(); got != DefaultThreshold {
		t.Errorf("zero Threshold = %d, want %d", got, DefaultThreshold)
	}
	if got := (&Preferences{MinMatchScore: 65}).Threshold(); got != 65 {
		t.Errorf("Threshold = %d, want 65", got)
	}
}

func TestSplitPhrases(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"  ,  , ", 0},
		{"backend", 1},
		{"Backend, Golang , ,sql", 3},
	}
	for _, tt := range tests {
		if got := splitPhrases(tt.in); len(got) != tt.want {
			t.Errorf("splitPhrases(%q) = %v, want %d phrases", tt.in, got, tt.want)
		}
	}
}
