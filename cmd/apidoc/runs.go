package main

import (
	"os"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored build runs",
	Long: `List the runs stored in the database, newest first. Pass a run ID to
resolve, members, check or export with --run.`,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list (0 = all)")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	db, repo, err := a.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repo.Runs(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}
	return writeResponse(os.Stdout, &RunsResponseCLI{Database: db.Path(), Runs: runs})
}
