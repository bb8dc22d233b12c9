// Command loom-baseline-health manages the cached main-branch test health
// report shepherds consult before starting work: the auditor role reports
// status with "report", a shepherd's preflight scripts test it with
// "check", and an operator inspects it with "show".
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "loom-baseline-health",
	Short:         "Report, check, and show the cached main-branch baseline health",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
