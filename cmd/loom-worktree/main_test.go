package main

import (
	"testing"

	"github.com/rjwalters/loom-sub003/internal/worktree"
)

func TestEmitSuccessExitCode(t *testing.T) {
	flagJSON = false
	if got := emit(&worktree.Result{Success: true, WorktreePath: "/tmp/x", BranchName: "issue-1"}); got != 0 {
		t.Errorf("emit(success) exit code = %d, want 0", got)
	}
}

func TestEmitFailureExitCode(t *testing.T) {
	flagJSON = false
	if got := emit(&worktree.Result{Success: false, Error: "boom"}); got != 1 {
		t.Errorf("emit(failure) exit code = %d, want 1", got)
	}
}
