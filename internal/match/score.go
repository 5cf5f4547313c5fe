package match

import (
	"strings"

	"github.com/mahadevipille/Job-tracker-notification/internal/catalog"
)

// DefaultThreshold is the minimum match score used when preferences carry no
// explicit value.
const DefaultThreshold = 40

// DefaultPremiumSource is the posting source that earns the premium bonus.
const DefaultPremiumSource = "LinkedIn"

// Point values of the additive scoring schedule. Each condition is
// independent and cumulative; the total is clamped to 100.
const (
	pointsTitleKeyword = 25
	pointsDescKeyword  = 15
	pointsLocation     = 15
	pointsMode         = 10
	pointsExperience   = 10
	pointsSkill        = 15
	pointsRecency      = 5
	pointsSource       = 5

	maxScore   = 100
	recencyCap = 2 // postedDaysAgo at or below this counts as fresh
)

// Preferences are the user's matching criteria. A nil *Preferences means no
// personalization is active: every job scores 0, and 0 is "no opinion",
// not "no match".
type Preferences struct {
	RoleKeywords       string   `json:"roleKeywords"`
	PreferredLocations []string `json:"preferredLocations"`
	PreferredModes     []string `json:"preferredModes"`
	ExperienceLevel    string   `json:"experienceLevel"`
	Skills             string   `json:"skills"`
	MinMatchScore      int      `json:"minMatchScore"`
}

// Threshold returns the configured minimum match score, falling back to
// DefaultThreshold when unset. Safe on a nil receiver.
func (p *Preferences) Threshold() int {
	if p == nil || p.MinMatchScore <= 0 {
		return DefaultThreshold
	}
	return p.MinMatchScore
}

// Reason is one triggered condition of the scoring schedule.
type Reason struct {
	Label  string `json:"label"`
	Points int    `json:"points"`
}

// Scorer computes match scores against a premium source label.
type Scorer struct {
	premium string
}

// NewScorer creates a Scorer. An empty premium label falls back to
// DefaultPremiumSource.
func NewScorer(premiumSource string) *Scorer {
	if premiumSource == "" {
		premiumSource = DefaultPremiumSource
	}
	return &Scorer{premium: premiumSource}
}

// Score returns the 0-100 match score for a (job, preferences) pair.
// Pure and deterministic; safe to call repeatedly per render.
func (s *Scorer) Score(job catalog.Job, prefs *Preferences) int {
	total := 0
	for _, r := range s.Explain(job, prefs) {
		total += r.Points
	}
	if total > maxScore {
		total = maxScore
	}
	return total
}

// Explain returns the triggered conditions for a (job, preferences) pair,
// in schedule order. The unclamped sum of the points equals the raw score.
func (s *Scorer) Explain(job catalog.Job, prefs *Preferences) []Reason {
	if prefs == nil {
		return nil
	}

	var reasons []Reason

	keywords := splitPhrases(prefs.RoleKeywords)
	if anySubstring(keywords, strings.ToLower(job.Title)) {
		reasons = append(reasons, Reason{Label: "role keyword in title", Points: pointsTitleKeyword})
	}
	if anySubstring(keywords, strings.ToLower(job.Description)) {
		reasons = append(reasons, Reason{Label: "role keyword in description", Points: pointsDescKeyword})
	}

	if containsString(prefs.PreferredLocations, job.Location) {
		reasons = append(reasons, Reason{Label: "preferred location", Points: pointsLocation})
	}
	if containsString(prefs.PreferredModes, job.Mode) {
		reasons = append(reasons, Reason{Label: "preferred work mode", Points: pointsMode})
	}
	if prefs.ExperienceLevel != "" && job.Experience == prefs.ExperienceLevel {
		reasons = append(reasons, Reason{Label: "experience level", Points: pointsExperience})
	}

	if skillOverlap(splitPhrases(prefs.Skills), job.Skills) {
		reasons = append(reasons, Reason{Label: "matching skill", Points: pointsSkill})
	}

	if job.PostedDaysAgo <= recencyCap {
		reasons = append(reasons, Reason{Label: "posted recently", Points: pointsRecency})
	}
	if job.Source == s.premium {
		reasons = append(reasons, Reason{Label: "premium source", Points: pointsSource})
	}

	return reasons
}

// splitPhrases splits a comma-separated phrase list, trimming whitespace and
// lowercasing each phrase. Empty phrases are dropped.
func splitPhrases(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func anySubstring(needles []string, haystack string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func containsString(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}

// skillOverlap reports whether any user skill equals one of the job's skills
// case-insensitively. userSkills must already be lowercased.
func skillOverlap(userSkills, jobSkills []string) bool {
	if len(userSkills) == 0 {
		return false
	}
	for _, js := range jobSkills {
		if containsString(userSkills, strings.ToLower(js)) {
			return true
		}
	}
	return false
}
