// Command moku-review is a thin CLI wrapper over the review engine: run
// a review or compare directly against a URL without standing up the
// HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "moku-review",
		Short: "Spec-driven visual design review engine",
	}
	root.AddCommand(newReviewCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newSpecCmd())
	root.AddCommand(newSessionsCmd())
	return root
}
