package doctor

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/timeutil"
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

func TestCheckGitWorkingTreeCleanRepo(t *testing.T) {
	dir := t.TempDir()
	runGit(t, dir, "init")
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial")

	check := CheckGitWorkingTree(dir)
	if check.Status != StatusOK {
		t.Errorf("Status = %q, want ok; detail=%s", check.Status, check.Detail)
	}
}

func TestCheckGitWorkingTreeDirtyRepo(t *testing.T) {
	dir := t.TempDir()
	runGit(t, dir, "init")
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial")

	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}

	check := CheckGitWorkingTree(dir)
	if check.Status != StatusWarning {
		t.Errorf("Status = %q, want warning", check.Status)
	}
}

func TestCheckLoomStateDirPresentAndAbsent(t *testing.T) {
	dir := t.TempDir()
	if check := CheckLoomStateDir(dir); check.Status != StatusError {
		t.Errorf("Status = %q, want error when .loom is missing", check.Status)
	}

	if err := os.MkdirAll(filepath.Join(dir, ".loom"), 0o755); err != nil {
		t.Fatal(err)
	}
	if check := CheckLoomStateDir(dir); check.Status != StatusOK {
		t.Errorf("Status = %q, want ok once .loom exists", check.Status)
	}
}

func TestCheckBaselineHealthHealthyAndFresh(t *testing.T) {
	b := &model.BaselineHealth{
		Status:     model.BaselineHealthy,
		ReportedAt: timeutil.FormatTimestamp(timeutil.NowUTC()),
		TTLSeconds: 900,
	}
	check := CheckBaselineHealth(b)
	if check.Status != StatusOK {
		t.Errorf("Status = %q, want ok", check.Status)
	}
}

func TestCheckBaselineHealthFailingIsError(t *testing.T) {
	b := &model.BaselineHealth{
		Status:       model.BaselineFailing,
		ReportedAt:   timeutil.FormatTimestamp(timeutil.NowUTC()),
		TTLSeconds:   900,
		Issue:        "#2042",
		FailingTests: []model.FailingTest{{Name: "test_cli_wrapper_health"}},
	}
	check := CheckBaselineHealth(b)
	if check.Status != StatusError {
		t.Errorf("Status = %q, want error", check.Status)
	}
	if check.Detail != "test_cli_wrapper_health" {
		t.Errorf("Detail = %q, want failing test name", check.Detail)
	}
}

func TestCheckBaselineHealthStaleIsWarning(t *testing.T) {
	b := &model.BaselineHealth{
		Status:     model.BaselineHealthy,
		ReportedAt: timeutil.FormatTimestamp(timeutil.NowUTC().Add(-1 * time.Hour)),
		TTLSeconds: 900,
	}
	check := CheckBaselineHealth(b)
	if check.Status != StatusWarning {
		t.Errorf("Status = %q, want warning for a stale report", check.Status)
	}
}

func TestCheckBaselineHealthUnknownIsWarning(t *testing.T) {
	check := CheckBaselineHealth(&model.BaselineHealth{Status: model.BaselineUnknown})
	if check.Status != StatusWarning {
		t.Errorf("Status = %q, want warning", check.Status)
	}
}

func TestWorstStatusPrefersErrorOverWarningOverOK(t *testing.T) {
	checks := []Check{
		{Status: StatusOK},
		{Status: StatusWarning},
	}
	if got := WorstStatus(checks); got != StatusWarning {
		t.Errorf("WorstStatus() = %q, want warning", got)
	}

	checks = append(checks, Check{Status: StatusError})
	if got := WorstStatus(checks); got != StatusError {
		t.Errorf("WorstStatus() = %q, want error", got)
	}
}

func TestBaselineCheckExitCode(t *testing.T) {
	cases := []struct {
		status model.BaselineHealthStatus
		want   int
	}{
		{model.BaselineHealthy, 0},
		{model.BaselineFailing, 1},
		{model.BaselineUnknown, 2},
	}
	for _, tc := range cases {
		got := BaselineCheckExitCode(&model.BaselineHealth{Status: tc.status})
		if got != tc.want {
			t.Errorf("BaselineCheckExitCode(%q) = %d, want %d", tc.status, got, tc.want)
		}
	}
}

func TestWorstStatusAllOK(t *testing.T) {
	checks := []Check{{Status: StatusOK}, {Status: StatusOK}}
	if got := WorstStatus(checks); got != StatusOK {
		t.Errorf("WorstStatus() = %q, want ok", got)
	}
}
