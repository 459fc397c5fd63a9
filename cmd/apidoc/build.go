package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildPolicy           string
	buildMinAccessibility string
	buildExcludeAssembly  []string
	buildExcludeNamespace []string
	buildNoStore          bool
)

var buildCmd = &cobra.Command{
	Use:   "build [descriptor files...]",
	Short: "Build the symbol model and store it",
	Long: `Load metadata descriptors (.json, .yaml, .toml), canonicalize every type and
member, resolve inheritance, filter by visibility and store the result in
.apidoc/apidoc.db.

Without arguments the inputs configured in .apidoc/config.json are used.

Examples:
  apidoc build
  apidoc build metadata/Core.yaml --policy=all
  apidoc build --min-accessibility=protected --exclude-namespace=Demo.Internal`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildPolicy, "policy", "", "Inheritance policy (none, all, nonobject)")
	buildCmd.Flags().StringVar(&buildMinAccessibility, "min-accessibility", "", "Minimum accessibility to keep")
	buildCmd.Flags().StringSliceVar(&buildExcludeAssembly, "exclude-assembly", nil, "Assemblies to skip")
	buildCmd.Flags().StringSliceVar(&buildExcludeNamespace, "exclude-namespace", nil, "Namespaces to skip")
	buildCmd.Flags().BoolVar(&buildNoStore, "no-store", false, "Do not write the result to the database")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := applyBuildFlags(a); err != nil {
		return err
	}
	resp, err := a.runBuild(cmd.Context(), args, !buildNoStore && a.cfg.Storage.Enabled)
	if err != nil {
		return err
	}
	return writeResponse(os.Stdout, resp)
}

func applyBuildFlags(a *app) error {
	if buildPolicy != "" {
		a.cfg.InheritancePolicy = buildPolicy
	}
	if buildMinAccessibility != "" {
		a.cfg.MinAccessibility = buildMinAccessibility
	}
	a.cfg.ExcludedAssemblies = append(a.cfg.ExcludedAssemblies, buildExcludeAssembly...)
	a.cfg.ExcludedNamespaces = append(a.cfg.ExcludedNamespaces, buildExcludeNamespace...)
	return a.cfg.Validate()
}

func (a *app) runBuild(ctx context.Context, paths []string, store bool) (*BuildResponseCLI, error) {
	res, inputs, err := a.build(ctx, paths)
	if err != nil {
		return nil, err
	}
	resp := &BuildResponseCLI{
		RunID:       res.RunID,
		Inputs:      inputs,
		Stats:       res.Stats,
		DurationMs:  res.Duration.Milliseconds(),
		Diagnostics: res.Diagnostics,
	}
	if store {
		if err := a.store(ctx, res); err != nil {
			return nil, err
		}
		resp.Stored = true
		resp.Database = a.cfg.StoragePath(a.root)
	}
	return resp, nil
}
