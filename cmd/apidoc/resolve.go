package main

import (
	"os"

	"github.com/spf13/cobra"

	"apidoc/internal/xref"
)

var (
	resolveRun     string
	resolveRebuild bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <cref>...",
	Short: "Resolve documentation cross-references",
	Long: `Resolve cref strings against the stored model and print the target, its
display text and link address. Unresolvable references are reported, never
treated as errors.

Examples:
  apidoc resolve 'T:Demo.Bag` + "`" + `1'
  apidoc resolve 'M:Demo.Bag` + "`" + `1.Add(` + "`" + `0)' Demo.IResettable
  apidoc resolve --rebuild 'N:Demo'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveRun, "run", "", "Stored run to query (default latest)")
	resolveCmd.Flags().BoolVar(&resolveRebuild, "rebuild", false, "Build from descriptors instead of reading the database")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	reg, run, err := a.loadRegistry(cmd.Context(), resolveRun, resolveRebuild)
	if err != nil {
		return err
	}
	return writeResponse(os.Stdout, resolveRefs(xref.NewResolver(reg), run.ID, args))
}
