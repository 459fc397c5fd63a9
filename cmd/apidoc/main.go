package main

import (
	"context"
	"fmt"
	"os"

	apierrors "apidoc/internal/errors"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, fix := range apierrors.GetSuggestedFixes(apierrors.CodeOf(err)) {
			fmt.Fprintf(os.Stderr, "  - %s\n", fix.Description)
			if fix.Command != "" {
				fmt.Fprintf(os.Stderr, "    $ %s\n", fix.Command)
			}
		}
		os.Exit(1)
	}
}
