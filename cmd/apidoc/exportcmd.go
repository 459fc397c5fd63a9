package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"apidoc/internal/export"
)

var (
	exportTo       string
	exportCompress bool
	exportOutput   string
	exportDeclared bool
	exportRun      string
	exportRebuild  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the symbol model",
	Long: `Export the stored model grouped by namespace.

Formats:
  text   compact listing with a namespace map, for reading or LLM context
  json   full snapshot
  toml   full snapshot
  scip   SCIP index (protobuf) with implementation relationships

Examples:
  apidoc export
  apidoc export --to=text --declared
  apidoc export --to=scip --compress --output=index.scip.zst`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Export format (text, json, toml, scip; default from config)")
	exportCmd.Flags().BoolVar(&exportCompress, "compress", false, "Compress the output with zstd")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
	exportCmd.Flags().BoolVar(&exportDeclared, "declared", false, "Omit inherited members")
	exportCmd.Flags().StringVar(&exportRun, "run", "", "Stored run to export (default latest)")
	exportCmd.Flags().BoolVar(&exportRebuild, "rebuild", false, "Build from descriptors instead of reading the database")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	opts, output, err := a.exportOptions(cmd)
	if err != nil {
		return err
	}

	reg, run, err := a.loadRegistry(cmd.Context(), exportRun, exportRebuild)
	if err != nil {
		return err
	}
	meta := export.Metadata{
		RunID:            run.ID,
		Policy:           run.Policy,
		MinAccessibility: run.MinAccessibility,
	}

	var w io.Writer = os.Stdout
	if output != "" {
		if !filepath.IsAbs(output) {
			output = filepath.Join(a.root, output)
		}
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			return err
		}
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := export.NewExporter(a.logger).Export(w, reg, meta, opts); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported %d types to %s\n", reg.Len(), output)
	}
	return nil
}

// exportOptions merges the flags over the export section of the config.
func (a *app) exportOptions(cmd *cobra.Command) (export.Options, string, error) {
	format := a.cfg.Export.Format
	if exportTo != "" {
		format = exportTo
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return export.Options{}, "", err
	}

	opts := export.Options{
		Format:   f,
		Compress: a.cfg.Export.Compress,
		Declared: a.cfg.Export.Declared,
	}
	if cmd.Flags().Changed("compress") {
		opts.Compress = exportCompress
	}
	if cmd.Flags().Changed("declared") {
		opts.Declared = exportDeclared
	}

	output := a.cfg.Export.Output
	if exportOutput != "" {
		output = exportOutput
	}
	return opts, output, nil
}
