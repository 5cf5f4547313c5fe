// Package api exposes the tracker core over a localhost HTTP API and an MCP
// surface. The CLI client commands are the primary consumer.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mahadevipille/Job-tracker-notification/internal/catalog"
	"github.com/mahadevipille/Job-tracker-notification/internal/checklist"
	"github.com/mahadevipille/Job-tracker-notification/internal/digest"
	"github.com/mahadevipille/Job-tracker-notification/internal/filtering"
	"github.com/mahadevipille/Job-tracker-notification/internal/match"
	"github.com/mahadevipille/Job-tracker-notification/internal/prefs"
	"github.com/mahadevipille/Job-tracker-notification/internal/saved"
	"github.com/mahadevipille/Job-tracker-notification/internal/tracker"
)

const maxRequestBodySize = 1 << 20 // 1MB

// AppDeps holds the collaborators the HTTP handlers delegate to.
type AppDeps struct {
	Catalog *catalog.Catalog
	Scorer  *match.Scorer
	Prefs   *prefs.Manager
	Digest  *digest.Engine
	Tracker *tracker.Tracker
	Saved   *saved.Set
	Gate    *checklist.Gate
	Token   string
}

// JobView is a catalogue job annotated with viewer-specific state.
type JobView struct {
	catalog.Job
	MatchScore *int   `json:"matchScore,omitempty"` // absent when no personalization is active
	Status     string `json:"status"`
	Saved      bool   `json:"saved"`
}

// NewAppHandler builds the full HTTP route set. Every route except /health
// requires the bearer token.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/jobs", handleListJobs(deps))
		r.Get("/jobs/{id}", handleGetJob(deps))
		r.Get("/jobs/{id}/score", handleScoreJob(deps))
		r.Put("/jobs/{id}/status", handleSetStatus(deps))

		r.Get("/preferences", handleGetPreferences(deps))
		r.Put("/preferences", handlePutPreferences(deps))
		r.Delete("/preferences", handleDeletePreferences(deps))

		r.Get("/digest", handleGetDigest(deps))
		r.Post("/digest/generate", handleGenerateDigest(deps))
		r.Get("/digest/text", handleDigestText(deps))

		r.Get("/updates", handleRecentUpdates(deps))

		r.Get("/saved", handleListSaved(deps))
		r.Post("/saved/{id}", handleToggleSaved(deps))

		r.Get("/checklist", handleGetChecklist(deps))
		r.Put("/checklist/{id}", handleSetChecklistItem(deps))

		r.Get("/links", handleGetLinks(deps))
		r.Put("/links", handlePutLinks(deps))

		r.Get("/ship", handleShipStatus(deps))
		r.Post("/ship", handleShip(deps))
		r.Post("/ship/reset", handleReset(deps))
		r.Get("/steps", handleSteps(deps))
	})

	return r
}

func (d AppDeps) jobView(job catalog.Job, p *match.Preferences) JobView {
	v := JobView{
		Job:    job,
		Status: string(d.Tracker.Current(job.ID)),
		Saved:  d.Saved.Contains(job.ID),
	}
	if p != nil {
		score := d.Scorer.Score(job, p)
		v.MatchScore = &score
	}
	return v
}

func handleListJobs(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Prefs.Get()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading preferences: %v", err)
			return
		}

		q := r.URL.Query()
		crit := filtering.Criteria{
			Keyword:     q.Get("keyword"),
			Location:    q.Get("location"),
			Mode:        q.Get("mode"),
			Experience:  q.Get("experience"),
			Source:      q.Get("source"),
			Status:      q.Get("status"),
			OnlyMatches: q.Get("matches") == "true",
			Sort:        q.Get("sort"),
		}
		jobs := filtering.Select(deps.Catalog.Jobs(), crit, filtering.Deps{
			Scorer: deps.Scorer,
			Prefs:  p,
			Status: func(id int) string { return string(deps.Tracker.Current(id)) },
		})

		views := make([]JobView, 0, len(jobs))
		for _, job := range jobs {
			views = append(views, deps.jobView(job, p))
		}
		writeJSON(w, views)
	}
}

func jobFromURL(deps AppDeps, w http.ResponseWriter, r *http.Request) (catalog.Job, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid job id")
		return catalog.Job{}, false
	}
	job, ok := deps.Catalog.ByID(id)
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "job %d not found", id)
		return catalog.Job{}, false
	}
	return job, true
}

func handleGetJob(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := jobFromURL(deps, w, r)
		if !ok {
			return
		}
		p, err := deps.Prefs.Get()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading preferences: %v", err)
			return
		}
		writeJSON(w, deps.jobView(job, p))
	}
}

func handleScoreJob(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := jobFromURL(deps, w, r)
		if !ok {
			return
		}
		p, err := deps.Prefs.Get()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading preferences: %v", err)
			return
		}
		reasons := deps.Scorer.Explain(job, p)
		if reasons == nil {
			reasons = []match.Reason{}
		}
		writeJSON(w, map[string]any{
			"jobId":        job.ID,
			"score":        deps.Scorer.Score(job, p),
			"personalized": p != nil,
			"reasons":      reasons,
		})
	}
}

func handleSetStatus(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := jobFromURL(deps, w, r)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		status := tracker.Status(req.Status)
		if !status.Valid() {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid status %q", req.Status)
			return
		}
		if err := deps.Tracker.Set(job.ID, status); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "setting status: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "updated"})
	}
}

func handleGetPreferences(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Prefs.Get()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading preferences: %v", err)
			return
		}
		if p == nil {
			httpError(w, http.StatusNotFound, "not_found", "no preferences saved")
			return
		}
		writeJSON(w, p)
	}
}

func handlePutPreferences(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var p match.Preferences
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if err := deps.Prefs.Set(p); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving preferences: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "updated"})
	}
}

func handleDeletePreferences(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Prefs.Clear(); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "clearing preferences: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "cleared"})
	}
}

func handleGetDigest(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, generated, err := deps.Digest.Today()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading digest: %v", err)
			return
		}
		if !generated {
			httpError(w, http.StatusNotFound, "not_generated", "no digest generated for today")
			return
		}
		writeJSON(w, d)
	}
}

func handleGenerateDigest(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Prefs.Get()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading preferences: %v", err)
			return
		}

		d, err := deps.Digest.Generate(deps.Catalog.Jobs(), p)
		if errors.Is(err, digest.ErrNoPreferences) {
			httpError(w, http.StatusConflict, "preferences_required", "save preferences before generating a digest")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "generating digest: %v", err)
			return
		}
		writeJSON(w, d)
	}
}

func handleDigestText(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, generated, err := deps.Digest.Today()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading digest: %v", err)
			return
		}
		if !generated {
			httpError(w, http.StatusNotFound, "not_generated", "no digest generated for today")
			return
		}

		updates, err := deps.Tracker.RecentUpdates(5)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading recent updates: %v", err)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(digest.FormatText(d, updates)))
	}
}

func handleRecentUpdates(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 5
		if s := r.URL.Query().Get("limit"); s != "" {
			if v, err := strconv.Atoi(s); err == nil && v > 0 {
				limit = v
			}
		}
		updates, err := deps.Tracker.RecentUpdates(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading recent updates: %v", err)
			return
		}
		if updates == nil {
			updates = []tracker.Update{}
		}
		writeJSON(w, updates)
	}
}

func handleListSaved(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Prefs.Get()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading preferences: %v", err)
			return
		}

		views := []JobView{}
		for _, id := range deps.Saved.IDs() {
			job, ok := deps.Catalog.ByID(id)
			if !ok {
				continue
			}
			views = append(views, deps.jobView(job, p))
		}
		writeJSON(w, views)
	}
}

func handleToggleSaved(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := jobFromURL(deps, w, r)
		if !ok {
			return
		}
		nowSaved, err := deps.Saved.Toggle(job.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "toggling saved job: %v", err)
			return
		}
		writeJSON(w, map[string]any{"jobId": job.ID, "saved": nowSaved})
	}
}

func handleGetChecklist(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := deps.Gate.State()
		type itemView struct {
			checklist.Item
			Passed bool `json:"passed"`
		}
		items := make([]itemView, 0, len(checklist.Items))
		for _, item := range checklist.Items {
			items = append(items, itemView{Item: item, Passed: state[item.ID]})
		}
		writeJSON(w, map[string]any{
			"items":       items,
			"completed":   deps.Gate.CompletedCount(),
			"total":       checklist.ItemCount,
			"allComplete": deps.Gate.AllComplete(),
		})
	}
}

func handleSetChecklistItem(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req struct {
			Passed bool `json:"passed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if err := deps.Gate.SetItem(id, req.Passed); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		writeJSON(w, map[string]any{
			"status":    "updated",
			"completed": deps.Gate.CompletedCount(),
		})
	}
}

func handleGetLinks(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, deps.Gate.GetLinks())
	}
}

func handlePutLinks(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var l checklist.Links
		if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if err := deps.Gate.SetLinks(l); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving artifact links: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "updated"})
	}
}

func handleShipStatus(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"shipped":       deps.Gate.Shipped(),
			"canShip":       deps.Gate.CanShip(),
			"completed":     deps.Gate.CompletedCount(),
			"total":         checklist.ItemCount,
			"linksProvided": deps.Gate.GetLinks().Provided(),
		})
	}
}

func handleShip(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Gate.Ship()
		var shipErr *checklist.ShipError
		if errors.As(err, &shipErr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"message":   shipErr.Error(),
					"type":      "ship_validation_error",
					"reason":    shipErr.Reason,
					"completed": shipErr.Completed,
				},
			})
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "shipping: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "shipped"})
	}
}

func handleReset(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Gate.Reset(); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "resetting: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "reset"})
	}
}

func handleSteps(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Prefs.Get()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading preferences: %v", err)
			return
		}
		_, generated, err := deps.Digest.Today()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading digest: %v", err)
			return
		}
		writeJSON(w, checklist.Steps(deps.Gate, checklist.StepProbe{
			CatalogLoaded:   deps.Catalog.Len() > 0,
			PrefsConfigured: p != nil,
			DigestGenerated: generated,
		}))
	}
}
