package main

import (
	"os"
	"path/filepath"

	"github.com/rjwalters/loom-sub003/internal/doctor"
	"github.com/rjwalters/loom-sub003/internal/repo"
	"github.com/rjwalters/loom-sub003/internal/statestore"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check baseline health for scripting: exits 0 healthy, 1 failing, 2 unknown/stale",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	var locator repo.Locator
	root, err := locator.Root("")
	if err != nil {
		os.Exit(2)
	}
	store := statestore.New(filepath.Join(root, ".loom"))
	os.Exit(doctor.BaselineCheckExitCode(store.BaselineHealth()))
	return nil
}
