package main

import (
	"os"

	"github.com/spf13/cobra"

	"apidoc/internal/xref"
)

var (
	membersRun      string
	membersRebuild  bool
	membersDeclared bool
)

var membersCmd = &cobra.Command{
	Use:   "members <typeID>",
	Short: "List the members a type exposes",
	Long: `List the declared and inherited members of a type with their override,
implementation and inheritdoc links.

Examples:
  apidoc members Demo.IntBag
  apidoc members 'T:Demo.Bag` + "`" + `1' --declared`,
	Args: cobra.ExactArgs(1),
	RunE: runMembers,
}

func init() {
	membersCmd.Flags().StringVar(&membersRun, "run", "", "Stored run to query (default latest)")
	membersCmd.Flags().BoolVar(&membersRebuild, "rebuild", false, "Build from descriptors instead of reading the database")
	membersCmd.Flags().BoolVar(&membersDeclared, "declared", false, "Only list members declared on the type")
	rootCmd.AddCommand(membersCmd)
}

func runMembers(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	reg, run, err := a.loadRegistry(cmd.Context(), membersRun, membersRebuild)
	if err != nil {
		return err
	}
	resp, err := describeType(xref.NewResolver(reg), run.ID, args[0], membersDeclared)
	if err != nil {
		return err
	}
	return writeResponse(os.Stdout, resp)
}
