package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mahadevipille/Job-tracker-notification/internal/digest"
	"github.com/mahadevipille/Job-tracker-notification/internal/filtering"
	"github.com/mahadevipille/Job-tracker-notification/internal/match"
	"github.com/mahadevipille/Job-tracker-notification/internal/tracker"
)

// NewMCPServer creates an MCP server with all jobtrack tools and resources
// registered. It shares the daemon's collaborators with the HTTP layer.
func NewMCPServer(deps AppDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"jobtrack",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("jobtrack — local job catalogue with match scoring, application tracking, and a daily digest."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("search_jobs",
			mcp.WithDescription("Search the job catalogue with filters, ranked by the selected sort order."),
			mcp.WithString("keyword", mcp.Description("Substring matched against title and company")),
			mcp.WithString("location", mcp.Description("Exact location filter")),
			mcp.WithString("mode", mcp.Description("Work mode filter (Remote, Hybrid, Onsite)")),
			mcp.WithString("status", mcp.Description("Application status filter")),
			mcp.WithBoolean("matches", mcp.Description("Only return jobs scoring at or above the match threshold")),
			mcp.WithString("sort", mcp.Description("Sort order: latest, oldest, match, salary")),
		),
		mcpSearchJobs(deps),
	)

	s.AddTool(
		mcp.NewTool("get_job",
			mcp.WithDescription("Fetch a single job by ID with its match score breakdown."),
			mcp.WithNumber("id", mcp.Description("Job ID"), mcp.Required()),
		),
		mcpGetJob(deps),
	)

	s.AddTool(
		mcp.NewTool("set_status",
			mcp.WithDescription("Record an application status for a job."),
			mcp.WithNumber("id", mcp.Description("Job ID"), mcp.Required()),
			mcp.WithString("status", mcp.Description("One of: not_applied, applied, rejected, selected"), mcp.Required()),
		),
		mcpSetStatus(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_digest",
			mcp.WithDescription("Generate (or regenerate) today's digest of top matching jobs. Requires saved preferences."),
		),
		mcpGenerateDigest(deps),
	)

	s.AddTool(
		mcp.NewTool("set_preferences",
			mcp.WithDescription("Replace the saved matching preferences."),
			mcp.WithString("preferences", mcp.Description("JSON object with roleKeywords, preferredLocations, preferredModes, experienceLevel, skills, minMatchScore"), mcp.Required()),
		),
		mcpSetPreferences(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"jobtrack://preferences",
			"Matching Preferences",
			mcp.WithResourceDescription("Current matching preferences as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourcePreferences(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"jobtrack://digest/today",
			"Today's Digest",
			mcp.WithResourceDescription("Today's digest rendered as shareable text"),
			mcp.WithMIMEType("text/plain"),
		),
		mcpResourceDigest(deps),
	)

	return s
}

func mcpSearchJobs(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := deps.Prefs.Get()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load preferences: %v", err)), nil
		}

		crit := filtering.Criteria{
			Keyword:     req.GetString("keyword", ""),
			Location:    req.GetString("location", ""),
			Mode:        req.GetString("mode", ""),
			Status:      req.GetString("status", ""),
			OnlyMatches: req.GetBool("matches", false),
			Sort:        req.GetString("sort", ""),
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

		b, err := json.Marshal(views)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetJob(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		job, ok := deps.Catalog.ByID(id)
		if !ok {
			return mcpError(fmt.Sprintf("job %d not found", id)), nil
		}

		p, err := deps.Prefs.Get()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load preferences: %v", err)), nil
		}

		reasons := deps.Scorer.Explain(job, p)
		if reasons == nil {
			reasons = []match.Reason{}
		}
		b, err := json.Marshal(map[string]any{
			"job":     deps.jobView(job, p),
			"score":   deps.Scorer.Score(job, p),
			"reasons": reasons,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal job: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSetStatus(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		raw, err := req.RequireString("status")
		if err != nil {
			return mcpError("status is required"), nil
		}

		status := tracker.Status(raw)
		if !status.Valid() {
			return mcpError(fmt.Sprintf("invalid status %q", raw)), nil
		}
		if err := deps.Tracker.SetKnown(id, status); err != nil {
			if errors.Is(err, tracker.ErrUnknownJob) {
				return mcpError(fmt.Sprintf("job %d not found", id)), nil
			}
			return mcpError(fmt.Sprintf("failed to set status: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Job %d marked %s", id, status)), nil
	}
}

func mcpGenerateDigest(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := deps.Prefs.Get()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load preferences: %v", err)), nil
		}

		d, err := deps.Digest.Generate(deps.Catalog.Jobs(), p)
		if errors.Is(err, digest.ErrNoPreferences) {
			return mcpError("save preferences before generating a digest"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to generate digest: %v", err)), nil
		}

		updates, err := deps.Tracker.RecentUpdates(5)
		if err != nil {
			return mcpError(fmt.Sprintf("digest generated but failed to load updates: %v", err)), nil
		}
		return mcpText(digest.FormatText(d, updates)), nil
	}
}

func mcpSetPreferences(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("preferences")
		if err != nil {
			return mcpError("preferences is required"), nil
		}

		var p match.Preferences
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return mcpError(fmt.Sprintf("invalid preferences JSON: %v", err)), nil
		}
		if err := deps.Prefs.Set(p); err != nil {
			return mcpError(fmt.Sprintf("failed to save preferences: %v", err)), nil
		}
		return mcpText("Preferences saved"), nil
	}
}

func mcpResourcePreferences(deps AppDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p, err := deps.Prefs.Get()
		if err != nil {
			return nil, fmt.Errorf("failed to get preferences: %w", err)
		}
		if p == nil {
			p = &match.Preferences{}
		}

		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal preferences: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceDigest(deps AppDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		d, generated, err := deps.Digest.Today()
		if err != nil {
			return nil, fmt.Errorf("failed to get digest: %w", err)
		}
		if !generated {
			return nil, fmt.Errorf("no digest generated for today")
		}

		updates, err := deps.Tracker.RecentUpdates(5)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent updates: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     digest.FormatText(d, updates),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
