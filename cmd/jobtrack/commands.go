package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mahadevipille/Job-tracker-notification/internal/checklist"
	"github.com/mahadevipille/Job-tracker-notification/internal/clipboard"
	"github.com/mahadevipille/Job-tracker-notification/internal/config"
)

// jobRow mirrors the job view the server returns.
type jobRow struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Company       string   `json:"company"`
	Location      string   `json:"location"`
	Mode          string   `json:"mode"`
	Experience    string   `json:"experience"`
	Skills        []string `json:"skills"`
	SalaryRange   string   `json:"salaryRange"`
	Source        string   `json:"source"`
	PostedDaysAgo int      `json:"postedDaysAgo"`
	ApplyURL      string   `json:"applyUrl"`
	MatchScore    *int     `json:"matchScore"`
	Status        string   `json:"status"`
	Saved         bool     `json:"saved"`
}

func printJobRow(j jobRow) {
	score := "-"
	if j.MatchScore != nil {
		score = colorize(scoreColor(*j.MatchScore), fmt.Sprintf("%d%%", *j.MatchScore))
	}
	saved := " "
	if j.Saved {
		saved = colorize(colorYellow, "★")
	}
	fmt.Printf("%s %s  %s — %s\n", saved, colorize(colorCyan, fmt.Sprintf("#%d", j.ID)), colorize(colorBold, j.Title), j.Company)
	fmt.Printf("     %s · %s · %s · %s · posted %dd ago\n", j.Location, j.Mode, j.Experience, j.Source, j.PostedDaysAgo)
	fmt.Printf("     match %s · status %s · %s\n", score, statusLabel(j.Status), j.SalaryRange)
}

// --- jobs ---

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Browse and filter the job catalogue",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs with optional filters",
	Long: `List jobs with optional filters.

Examples:
  jobtrack jobs list --keyword backend --location Bangalore
  jobtrack jobs list --matches --sort match
  jobtrack jobs list --status applied --sort latest`,
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword, _ := cmd.Flags().GetString("keyword")
		location, _ := cmd.Flags().GetString("location")
		mode, _ := cmd.Flags().GetString("mode")
		experience, _ := cmd.Flags().GetString("experience")
		source, _ := cmd.Flags().GetString("source")
		status, _ := cmd.Flags().GetString("status")
		matches, _ := cmd.Flags().GetBool("matches")
		sortKey, _ := cmd.Flags().GetString("sort")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		q := make([]string, 0, 8)
		add := func(k, v string) {
			if v != "" {
				q = append(q, k+"="+v)
			}
		}
		add("keyword", keyword)
		add("location", location)
		add("mode", mode)
		add("experience", experience)
		add("source", source)
		add("status", status)
		add("sort", sortKey)
		if matches {
			q = append(q, "matches=true")
		}

		path := "/jobs"
		if len(q) > 0 {
			path += "?" + strings.Join(q, "&")
		}

		resp, err := client.get(path)
		if err != nil {
			return err
		}

		var jobs []jobRow
		if err := decodeJSON(resp, &jobs); err != nil {
			return err
		}

		if len(jobs) == 0 {
			fmt.Println("No jobs match the current filters.")
			return nil
		}

		for _, j := range jobs {
			printJobRow(j)
		}
		fmt.Printf("\n%d job(s)\n", len(jobs))
		return nil
	},
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/jobs/" + args[0])
		if err != nil {
			return err
		}

		var job any
		if err := decodeJSON(resp, &job); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(job)
	},
}

var jobsScoreCmd = &cobra.Command{
	Use:   "score <id>",
	Short: "Show the match score breakdown for a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/jobs/" + args[0] + "/score")
		if err != nil {
			return err
		}

		var result struct {
			JobID        int  `json:"jobId"`
			Score        int  `json:"score"`
			Personalized bool `json:"personalized"`
			Reasons      []struct {
				Label  string `json:"label"`
				Points int    `json:"points"`
			} `json:"reasons"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if !result.Personalized {
			printWarning("No preferences saved — every job scores 0. Run 'jobtrack prefs set' first.")
			return nil
		}

		fmt.Printf("Job #%d scores %s\n", result.JobID, colorize(scoreColor(result.Score), fmt.Sprintf("%d%%", result.Score)))
		for _, r := range result.Reasons {
			fmt.Printf("  +%-3d %s\n", r.Points, r.Label)
		}
		if len(result.Reasons) == 0 {
			fmt.Println("  no conditions triggered")
		}
		return nil
	},
}

func init() {
	jobsListCmd.Flags().String("keyword", "", "substring matched against title and company")
	jobsListCmd.Flags().String("location", "", "exact location filter")
	jobsListCmd.Flags().String("mode", "", "work mode filter (Remote, Hybrid, Onsite)")
	jobsListCmd.Flags().String("experience", "", "experience level filter")
	jobsListCmd.Flags().String("source", "", "posting source filter")
	jobsListCmd.Flags().String("status", "", "application status filter")
	jobsListCmd.Flags().Bool("matches", false, "only jobs at or above the match threshold")
	jobsListCmd.Flags().String("sort", "", "sort order: latest, oldest, match, salary")

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
	jobsCmd.AddCommand(jobsScoreCmd)
}

// --- prefs ---

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage matching preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show saved preferences as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/preferences")
		if err != nil {
			return err
		}
		if resp.StatusCode == 404 {
			resp.Body.Close()
			fmt.Println("No preferences saved. Run 'jobtrack prefs set' to create them.")
			return nil
		}

		var p any
		if err := decodeJSON(resp, &p); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save matching preferences",
	Long: `Save matching preferences. The full set is replaced on every call.

Examples:
  jobtrack prefs set --roles "backend,golang" --locations "Bangalore,Remote" \
    --modes "Remote,Hybrid" --experience "2-4 years" --skills "go,sql,aws"
  jobtrack prefs set --roles frontend --min-score 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		roles, _ := cmd.Flags().GetString("roles")
		locations, _ := cmd.Flags().GetString("locations")
		modes, _ := cmd.Flags().GetString("modes")
		experience, _ := cmd.Flags().GetString("experience")
		skills, _ := cmd.Flags().GetString("skills")
		minScore, _ := cmd.Flags().GetInt("min-score")

		body := map[string]any{
			"roleKeywords":       roles,
			"preferredLocations": splitCSV(locations),
			"preferredModes":     splitCSV(modes),
			"experienceLevel":    experience,
			"skills":             skills,
			"minMatchScore":      minScore,
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.put("/preferences", body)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Preferences saved")
		return nil
	},
}

var prefsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete saved preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete("/preferences")
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Preferences cleared")
		return nil
	},
}

func splitCSV(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func init() {
	prefsSetCmd.Flags().String("roles", "", "comma-separated role keywords")
	prefsSetCmd.Flags().String("locations", "", "comma-separated preferred locations")
	prefsSetCmd.Flags().String("modes", "", "comma-separated preferred work modes")
	prefsSetCmd.Flags().String("experience", "", "experience level")
	prefsSetCmd.Flags().String("skills", "", "comma-separated skills")
	prefsSetCmd.Flags().Int("min-score", 0, "minimum match score (default 40)")

	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	prefsCmd.AddCommand(prefsClearCmd)
}

// --- digest ---

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Generate and view the daily digest",
}

var digestShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show today's digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/digest/text")
		if err != nil {
			return err
		}
		if resp.StatusCode == 404 {
			resp.Body.Close()
			fmt.Println("No digest generated for today. Run 'jobtrack digest generate'.")
			return nil
		}

		text, err := readText(resp)
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	},
}

var digestGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate (or regenerate) today's digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/digest/generate", nil)
		if err != nil {
			return err
		}
		if resp.StatusCode == 409 {
			resp.Body.Close()
			printWarning("Save preferences before generating a digest ('jobtrack prefs set').")
			return fmt.Errorf("no preferences saved")
		}

		var d struct {
			Day     string `json:"day"`
			Entries []struct {
				MatchScore int `json:"matchScore"`
			} `json:"entries"`
		}
		if err := decodeJSON(resp, &d); err != nil {
			return err
		}

		if len(d.Entries) == 0 {
			printWarning("Digest for %s generated, but no jobs scored above zero.", d.Day)
			return nil
		}
		printSuccess("Digest for %s generated with %d job(s)", d.Day, len(d.Entries))
		return nil
	},
}

var digestCopyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy today's digest to the clipboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/digest/text")
		if err != nil {
			return err
		}
		if resp.StatusCode == 404 {
			resp.Body.Close()
			return fmt.Errorf("no digest generated for today — run 'jobtrack digest generate' first")
		}

		text, err := readText(resp)
		if err != nil {
			return err
		}

		sink, err := clipboard.Copy(text, clipboard.Default(os.Stdout)...)
		if err != nil {
			return err
		}
		if sink != clipboard.PromptSinkName {
			printSuccess("Digest copied via %s", sink)
		}
		return nil
	},
}

func init() {
	digestCmd.AddCommand(digestShowCmd)
	digestCmd.AddCommand(digestGenerateCmd)
	digestCmd.AddCommand(digestCopyCmd)
}

// --- track ---

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Track application statuses",
}

var trackSetCmd = &cobra.Command{
	Use:   "set <id> <status>",
	Short: "Set the application status for a job",
	Long: `Set the application status for a job.

Valid statuses: not_applied, applied, rejected, selected.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid job id %q", args[0])
		}
		status := args[1]

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.put(fmt.Sprintf("/jobs/%d/status", id), map[string]string{"status": status})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Job #%d marked %s", id, status)
		return nil
	},
}

var trackUpdatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "List recent status updates",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(fmt.Sprintf("/updates?limit=%d", limit))
		if err != nil {
			return err
		}

		var updates []struct {
			JobID     int    `json:"jobId"`
			Title     string `json:"title"`
			Company   string `json:"company"`
			Status    string `json:"status"`
			UpdatedAt string `json:"updatedAt"`
		}
		if err := decodeJSON(resp, &updates); err != nil {
			return err
		}

		if len(updates) == 0 {
			fmt.Println("No status updates yet.")
			return nil
		}

		for _, u := range updates {
			fmt.Printf("%s  %s — %s: %s\n",
				colorize(colorCyan, fmt.Sprintf("#%d", u.JobID)),
				u.Title, u.Company, statusLabel(u.Status))
		}
		return nil
	},
}

func init() {
	trackUpdatesCmd.Flags().Int("limit", 5, "maximum number of updates to list")

	trackCmd.AddCommand(trackSetCmd)
	trackCmd.AddCommand(trackUpdatesCmd)
}

// --- saved ---

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage saved jobs",
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/saved")
		if err != nil {
			return err
		}

		var jobs []jobRow
		if err := decodeJSON(resp, &jobs); err != nil {
			return err
		}

		if len(jobs) == 0 {
			fmt.Println("No saved jobs.")
			return nil
		}

		for _, j := range jobs {
			printJobRow(j)
		}
		return nil
	},
}

var savedToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Save or unsave a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/saved/"+args[0], nil)
		if err != nil {
			return err
		}

		var result struct {
			JobID int  `json:"jobId"`
			Saved bool `json:"saved"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if result.Saved {
			printSuccess("Job #%d saved", result.JobID)
		} else {
			printSuccess("Job #%d removed from saved", result.JobID)
		}
		return nil
	},
}

func init() {
	savedCmd.AddCommand(savedListCmd)
	savedCmd.AddCommand(savedToggleCmd)
}

// --- checklist ---

var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Manage the pre-ship test checklist",
}

var checklistListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show checklist items and their state",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/checklist")
		if err != nil {
			return err
		}

		var result struct {
			Items []struct {
				ID     string `json:"id"`
				Label  string `json:"label"`
				Passed bool   `json:"passed"`
			} `json:"items"`
			Completed int `json:"completed"`
			Total     int `json:"total"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		for _, item := range result.Items {
			mark := colorize(colorRed, "[ ]")
			if item.Passed {
				mark = colorize(colorGreen, "[x]")
			}
			fmt.Printf("%s %s  %s\n", mark, colorize(colorCyan, item.ID), item.Label)
		}
		fmt.Printf("\n%d/%d complete\n", result.Completed, result.Total)
		return nil
	},
}

var checklistSetCmd = &cobra.Command{
	Use:   "set <id> <pass|fail>",
	Short: "Mark a checklist item passed or failed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		var passed bool
		switch args[1] {
		case "pass":
			passed = true
		case "fail":
			passed = false
		default:
			return fmt.Errorf("expected 'pass' or 'fail', got %q", args[1])
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.put("/checklist/"+id, map[string]bool{"passed": passed})
		if err != nil {
			return err
		}

		var result struct {
			Completed int `json:"completed"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Checklist item %s updated (%d/%d complete)", id, result.Completed, checklist.ItemCount)
		return nil
	},
}

func init() {
	checklistCmd.AddCommand(checklistListCmd)
	checklistCmd.AddCommand(checklistSetCmd)
}

// --- ship ---

var shipCmd = &cobra.Command{
	Use:   "ship",
	Short: "Artifact links and the final ship gate",
}

var shipStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ship readiness",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/ship")
		if err != nil {
			return err
		}

		var result struct {
			Shipped       bool `json:"shipped"`
			CanShip       bool `json:"canShip"`
			Completed     int  `json:"completed"`
			Total         int  `json:"total"`
			LinksProvided bool `json:"linksProvided"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printStatus("Checklist", "%d/%d complete", result.Completed, result.Total)
		printStatus("Links", "%v", result.LinksProvided)
		printStatus("Can ship", "%v", result.CanShip)
		printStatus("Shipped", "%v", result.Shipped)
		return nil
	},
}

var shipLinksCmd = &cobra.Command{
	Use:   "links",
	Short: "Set the three artifact links",
	RunE: func(cmd *cobra.Command, args []string) error {
		design, _ := cmd.Flags().GetString("design")
		repo, _ := cmd.Flags().GetString("repo")
		deployed, _ := cmd.Flags().GetString("deployed")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]string{
			"design":     design,
			"repository": repo,
			"deployed":   deployed,
		}
		resp, err := client.put("/links", body)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Artifact links saved")
		return nil
	},
}

var shipNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Mark the project shipped (all checklist items and links required)",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/ship", nil)
		if err != nil {
			return err
		}
		if resp.StatusCode == 422 {
			var body struct {
				Error struct {
					Message   string `json:"message"`
					Reason    string `json:"reason"`
					Completed int    `json:"completed"`
				} `json:"error"`
			}
			json.NewDecoder(resp.Body).Decode(&body)
			resp.Body.Close()
			printError("%s", body.Error.Message)
			return fmt.Errorf("not ready to ship")
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Shipped 🚀")
		return nil
	},
}

var shipResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the checklist and shipped state",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This clears the checklist and shipped state. Use --confirm to proceed.")
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/ship/reset", nil)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Checklist and shipped state reset")
		return nil
	},
}

var shipCopyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy the final submission text to the clipboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/links")
		if err != nil {
			return err
		}

		var links checklist.Links
		if err := decodeJSON(resp, &links); err != nil {
			return err
		}
		if !links.Provided() {
			return fmt.Errorf("all three artifact links must be set first ('jobtrack ship links')")
		}

		sink, err := clipboard.Copy(checklist.SubmissionText(links), clipboard.Default(os.Stdout)...)
		if err != nil {
			return err
		}
		if sink != clipboard.PromptSinkName {
			printSuccess("Submission text copied via %s", sink)
		}
		return nil
	},
}

func init() {
	shipLinksCmd.Flags().String("design", "", "design document URL")
	shipLinksCmd.Flags().String("repo", "", "repository URL")
	shipLinksCmd.Flags().String("deployed", "", "deployed app URL")
	shipResetCmd.Flags().Bool("confirm", false, "confirm the reset")

	shipCmd.AddCommand(shipStatusCmd)
	shipCmd.AddCommand(shipLinksCmd)
	shipCmd.AddCommand(shipNowCmd)
	shipCmd.AddCommand(shipResetCmd)
	shipCmd.AddCommand(shipCopyCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
