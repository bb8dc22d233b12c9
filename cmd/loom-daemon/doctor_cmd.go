package main

import (
	"fmt"
	"path/filepath"

	"github.com/rjwalters/loom-sub003/internal/doctor"
	"github.com/rjwalters/loom-sub003/internal/repo"
	"github.com/rjwalters/loom-sub003/internal/statestore"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run environment preflight checks (gh CLI, git tree, baseline health)",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var locator repo.Locator
	root, err := locator.Root("")
	if err != nil {
		return exitFailure
	}
	store := statestore.New(filepath.Join(root, ".loom"))

	checks := doctor.RunAll(root, store.BaselineHealth())
	for _, c := range checks {
		fmt.Printf("[%s] %-20s %s\n", statusGlyph(c.Status), c.Name, c.Message)
		if c.Detail != "" {
			fmt.Printf("    %s\n", c.Detail)
		}
		if c.Fix != "" {
			fmt.Printf("    fix: %s\n", c.Fix)
		}
	}

	switch doctor.WorstStatus(checks) {
	case doctor.StatusError:
		return errDoctorFailed
	default:
		return nil
	}
}

func statusGlyph(s doctor.Status) string {
	switch s {
	case doctor.StatusOK:
		return "ok"
	case doctor.StatusWarning:
		return "warn"
	default:
		return "fail"
	}
}

var errDoctorFailed = fmt.Errorf("loom-daemon doctor: one or more checks failed")
