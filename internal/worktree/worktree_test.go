package worktree

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init")
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial")
	return dir
}

func TestBranchNameAndPath(t *testing.T) {
	if got := BranchName(42); got != "issue-42" {
		t.Errorf("BranchName(42) = %q, want %q", got, "issue-42")
	}
	path := Path("/repos/loom", 42)
	want := filepath.Join("/repos", "loom-worktrees", "issue-42")
	if path != want {
		t.Errorf("Path() = %q, want %q", path, want)
	}
}

func TestEnsureCreatesWorktree(t *testing.T) {
	repo := initRepo(t)

	result := Ensure(repo, 42)
	if !result.Success {
		t.Fatalf("Ensure() failed: %s", result.Error)
	}
	if result.BranchName != "issue-42" {
		t.Errorf("BranchName = %q, want %q", result.BranchName, "issue-42")
	}
	if info, err := os.Stat(result.WorktreePath); err != nil || !info.IsDir() {
		t.Errorf("worktree path %q was not created", result.WorktreePath)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	repo := initRepo(t)

	first := Ensure(repo, 7)
	if !first.Success {
		t.Fatalf("first Ensure() failed: %s", first.Error)
	}
	second := Ensure(repo, 7)
	if !second.Success {
		t.Fatalf("second Ensure() failed: %s", second.Error)
	}
	if second.WorktreePath != first.WorktreePath {
		t.Errorf("Ensure() not idempotent: %q != %q", second.WorktreePath, first.WorktreePath)
	}
}

func TestCheckInsidePrimaryCheckout(t *testing.T) {
	repo := initRepo(t)
	result := Check(repo)
	if result.Success {
		t.Error("Check() on primary checkout: want Success=false")
	}
}

func TestCheckInsideLinkedWorktree(t *testing.T) {
	repo := initRepo(t)
	created := Ensure(repo, 99)
	if !created.Success {
		t.Fatalf("Ensure() failed: %s", created.Error)
	}

	result := Check(created.WorktreePath)
	if !result.Success {
		t.Errorf("Check() on linked worktree: want Success=true, got error %q", result.Error)
	}
	if result.BranchName != "issue-99" {
		t.Errorf("Check() BranchName = %q, want %q", result.BranchName, "issue-99")
	}
}

func TestRemove(t *testing.T) {
	repo := initRepo(t)
	created := Ensure(repo, 5)
	if !created.Success {
		t.Fatalf("Ensure() failed: %s", created.Error)
	}

	if err := Remove(repo, created.WorktreePath); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if _, err := os.Stat(created.WorktreePath); !os.IsNotExist(err) {
		t.Error("Remove() left worktree directory behind")
	}
}
