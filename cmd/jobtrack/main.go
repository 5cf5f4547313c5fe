package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "jobtrack",
	Short: "Local job catalogue with match scoring, tracking, and a daily digest",
	Long: `jobtrack keeps a seeded job catalogue on your machine, scores each job
against your saved preferences, tracks application statuses, and renders a
shareable daily digest of the top matches.

Run "jobtrack start" to launch the local server, then use the other commands
to browse, filter, and track jobs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the jobtrack version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jobtrack version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(savedCmd)
	rootCmd.AddCommand(checklistCmd)
	rootCmd.AddCommand(shipCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
