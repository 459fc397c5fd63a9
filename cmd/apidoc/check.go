package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"apidoc/internal/markup"
	"apidoc/internal/xref"
)

var (
	checkRun     string
	checkRebuild bool
)

var checkCmd = &cobra.Command{
	Use:   "check [doc files...]",
	Short: "Check XML documentation against the model",
	Long: `Check that every documented member exists in the model, that every cref
resolves and that every <inheritdoc/> has a source. Exits non-zero when a
problem is found.

Without arguments the docFiles configured in .apidoc/config.json are used.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkRun, "run", "", "Stored run to query (default latest)")
	checkCmd.Flags().BoolVar(&checkRebuild, "rebuild", false, "Build from descriptors instead of reading the database")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	files := args
	if len(files) == 0 {
		if files, err = a.cfg.ResolveDocFiles(a.root); err != nil {
			return err
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no documentation files to check")
	}
	docs, err := readDocFiles(files)
	if err != nil {
		return err
	}

	reg, run, err := a.loadRegistry(cmd.Context(), checkRun, checkRebuild)
	if err != nil {
		return err
	}
	resp := checkDocs(xref.NewResolver(reg), run.ID, docs)
	a.logger.Info("Documentation checked", "files", len(files), "members", resp.MembersChecked, "problems", len(resp.Unresolved))
	if err := writeResponse(os.Stdout, resp); err != nil {
		return err
	}
	return unresolvedError(resp)
}

func readDocFiles(paths []string) (map[string]*markup.DocSet, error) {
	docs := make(map[string]*markup.DocSet, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		set, err := markup.ParseDocFile(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		docs[p] = set
	}
	return docs, nil
}
