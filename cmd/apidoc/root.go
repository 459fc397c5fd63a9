package main

import (
	"github.com/spf13/cobra"

	"apidoc/internal/version"
)

var (
	rootFlag   string
	formatFlag string
	verbosity  int
	quietFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "apidoc",
	Short: "apidoc - API symbol model builder",
	Long: `apidoc builds a canonical symbol model from assembly metadata descriptors:
stable IDs for every type and member, inheritance and interface
implementation links, visibility filtering and documentation
cross-reference resolution.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".", "Project root containing .apidoc/")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "human", "Output format (json, human)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress all logging")
}
