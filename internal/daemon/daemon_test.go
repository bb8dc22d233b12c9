package daemon

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rjwalters/loom-sub003/internal/config"
	"github.com/rjwalters/loom-sub003/internal/logging"
	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/platform"
	"github.com/rjwalters/loom-sub003/internal/statestore"
)

func newTestClient(runner func(name string, args ...string) ([]byte, error)) *platform.Client {
	return platform.NewTestClient("gh", runner)
}

func newTestContext(t *testing.T) (*Context, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".loom", "signals"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := &config.DaemonConfig{PollInterval: 0}
	ctx := NewContext(cfg, root, time.Unix(1700000000, 0))
	return ctx, root
}

func TestNewContextDerivesSessionIDFromTimeAndPID(t *testing.T) {
	ctx, _ := newTestContext(t)
	if ctx.SessionID == "" {
		t.Fatal("SessionID is empty")
	}
	if !ctx.Running {
		t.Error("Running = false, want true")
	}
}

func TestContextPathHelpers(t *testing.T) {
	ctx, root := newTestContext(t)
	want := filepath.Join(root, ".loom", "daemon-state.json")
	if got := ctx.StateFile(); got != want {
		t.Errorf("StateFile() = %q, want %q", got, want)
	}
	if got := ctx.PIDFile(); got != filepath.Join(root, ".loom", "daemon-loop.pid") {
		t.Errorf("PIDFile() = %q", got)
	}
	if got := ctx.SignalsDir(); got != filepath.Join(root, ".loom", "signals") {
		t.Errorf("SignalsDir() = %q", got)
	}
}

func TestContextSnapshotAccessorsNilSafe(t *testing.T) {
	ctx, _ := newTestContext(t)
	if got := ctx.RecommendedActions(); got != nil {
		t.Errorf("RecommendedActions() = %v, want nil", got)
	}
	if got := ctx.AvailableShepherdSlots(); got != 0 {
		t.Errorf("AvailableShepherdSlots() = %d, want 0", got)
	}
	if got := ctx.ReadyIssueNumbers(); got != nil {
		t.Errorf("ReadyIssueNumbers() = %v, want nil", got)
	}
	if got := ctx.PromotableProposals(); got != nil {
		t.Errorf("PromotableProposals() = %v, want nil", got)
	}
}

func TestCheckStopSignalAndClear(t *testing.T) {
	ctx, _ := newTestContext(t)
	if CheckStopSignal(ctx) {
		t.Fatal("CheckStopSignal() = true before file exists")
	}
	if err := os.WriteFile(ctx.StopSignal(), []byte(""), 0o644); err != nil {
		t.Fatalf("write stop signal: %v", err)
	}
	if !CheckStopSignal(ctx) {
		t.Fatal("CheckStopSignal() = false after file created")
	}
	ClearStopSignal(ctx)
	if CheckStopSignal(ctx) {
		t.Fatal("CheckStopSignal() = true after ClearStopSignal")
	}
}

func TestCheckSessionConflict(t *testing.T) {
	log := logging.New()
	ctx, _ := newTestContext(t)

	if CheckSessionConflict(log, ctx, "") {
		t.Error("empty file session id should never conflict")
	}
	if CheckSessionConflict(log, ctx, ctx.SessionID) {
		t.Error("matching session id should never conflict")
	}
	if !CheckSessionConflict(log, ctx, "9999999999-1") {
		t.Error("mismatched session id should conflict")
	}
}

func TestCheckExistingPIDNoFile(t *testing.T) {
	log := logging.New()
	ctx, _ := newTestContext(t)

	running, pid := CheckExistingPID(log, ctx)
	if running || pid != 0 {
		t.Errorf("CheckExistingPID() = (%v, %d), want (false, 0)", running, pid)
	}
}

func TestCheckExistingPIDStaleFileRemoved(t *testing.T) {
	log := logging.New()
	ctx, _ := newTestContext(t)

	if err := os.MkdirAll(filepath.Dir(ctx.PIDFile()), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// PID unlikely to be alive: a very large, reserved-looking value.
	if err := os.WriteFile(ctx.PIDFile(), []byte("999999999"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}

	running, pid := CheckExistingPID(log, ctx)
	if running || pid != 0 {
		t.Errorf("CheckExistingPID() = (%v, %d), want (false, 0) for dead pid", running, pid)
	}
	if _, err := os.Stat(ctx.PIDFile()); !os.IsNotExist(err) {
		t.Error("stale PID file was not removed")
	}
}

func TestCheckExistingPIDLiveProcess(t *testing.T) {
	log := logging.New()
	ctx, _ := newTestContext(t)

	if err := WritePIDFile(ctx); err != nil {
		t.Fatalf("WritePIDFile: %v", err)
	}
	running, pid := CheckExistingPID(log, ctx)
	if !running || pid != os.Getpid() {
		t.Errorf("CheckExistingPID() = (%v, %d), want (true, %d)", running, pid, os.Getpid())
	}
}

func TestWritePIDFileAndCleanupOnExit(t *testing.T) {
	ctx, _ := newTestContext(t)

	if err := WritePIDFile(ctx); err != nil {
		t.Fatalf("WritePIDFile: %v", err)
	}
	if _, err := os.Stat(ctx.PIDFile()); err != nil {
		t.Fatalf("PID file missing after write: %v", err)
	}

	if err := os.WriteFile(ctx.StopSignal(), []byte(""), 0o644); err != nil {
		t.Fatalf("write stop signal: %v", err)
	}

	CleanupOnExit(ctx)
	if _, err := os.Stat(ctx.PIDFile()); !os.IsNotExist(err) {
		t.Error("PID file still exists after CleanupOnExit")
	}
	if _, err := os.Stat(ctx.StopSignal()); !os.IsNotExist(err) {
		t.Error("stop signal file still exists after CleanupOnExit")
	}
}

func writeSignalFile(t *testing.T, dir, name string, s Signal) {
	t.Helper()
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal signal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write signal file: %v", err)
	}
}

func TestReadPendingSignalsSortedAndMalformedRemoved(t *testing.T) {
	ctx, _ := newTestContext(t)
	dir := ctx.SignalsDir()

	writeSignalFile(t, dir, "0002-stop.json", Signal{Kind: "stop_orchestration"})
	writeSignalFile(t, dir, "0001-start.json", Signal{Kind: "start_orchestration"})
	if err := os.WriteFile(filepath.Join(dir, "0000-bad.json"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("write malformed signal: %v", err)
	}

	signals := ReadPendingSignals(ctx)
	if len(signals) != 2 {
		t.Fatalf("len(signals) = %d, want 2", len(signals))
	}
	if signals[0].Kind != "start_orchestration" || signals[1].Kind != "stop_orchestration" {
		t.Errorf("signals out of order: %+v", signals)
	}
	if _, err := os.Stat(filepath.Join(dir, "0000-bad.json")); !os.IsNotExist(err) {
		t.Error("malformed signal file was not removed")
	}
}

func TestConsumeSignalRemovesFile(t *testing.T) {
	ctx, _ := newTestContext(t)
	dir := ctx.SignalsDir()
	writeSignalFile(t, dir, "0001-stop.json", Signal{Kind: "stop_orchestration"})

	signals := ReadPendingSignals(ctx)
	if len(signals) != 1 {
		t.Fatalf("len(signals) = %d, want 1", len(signals))
	}
	ConsumeSignal(signals[0])
	if _, err := os.Stat(filepath.Join(dir, "0001-stop.json")); !os.IsNotExist(err) {
		t.Error("signal file still exists after ConsumeSignal")
	}
}

func TestApplySignalStartAndStopOrchestration(t *testing.T) {
	ctx, _ := newTestContext(t)

	ApplySignal(ctx, Signal{Kind: "start_orchestration"})
	if !ctx.OrchestrationActive {
		t.Error("OrchestrationActive = false after start_orchestration signal")
	}
	ApplySignal(ctx, Signal{Kind: "stop_orchestration"})
	if ctx.OrchestrationActive {
		t.Error("OrchestrationActive = true after stop_orchestration signal")
	}
}

func TestApplySignalSyncsPersistedOrchestrationFlag(t *testing.T) {
	ctx, _ := newTestContext(t)
	ctx.State = model.NewDaemonState(ctx.SessionID)

	ApplySignal(ctx, Signal{Kind: "start_orchestration"})
	if !ctx.State.OrchestrationOn {
		t.Error("State.OrchestrationOn = false after start_orchestration signal")
	}
	ApplySignal(ctx, Signal{Kind: "stop_orchestration"})
	if ctx.State.OrchestrationOn {
		t.Error("State.OrchestrationOn = true after stop_orchestration signal")
	}
}

func TestApplySignalSpawnShepherdQueuesWhenNoSlots(t *testing.T) {
	ctx, _ := newTestContext(t)
	ApplySignal(ctx, Signal{Kind: "spawn_shepherd", Issue: 42})

	if len(ctx.PendingSpawns) != 1 || ctx.PendingSpawns[0].Issue != 42 {
		t.Errorf("PendingSpawns = %+v, want one entry for issue 42", ctx.PendingSpawns)
	}
}

// countingLauncher implements SessionLauncher, recording every call so tests
// can assert the spawn pipeline actually reached it.
type countingLauncher struct {
	calls int
}

func (l *countingLauncher) LaunchShepherd(taskID string, issue int) (string, error) {
	l.calls++
	return "/state/output-" + taskID + ".log", nil
}

func (l *countingLauncher) LaunchSupportRole(role string) error { return nil }

// TestLoopRunExitsOnPreexistingStopSignal verifies Run's very first
// iteration honors a stop-signal file dropped before the loop starts,
// without ever calling Tick or sleeping, so the test terminates
// deterministically with no real waiting.
func TestLoopRunExitsOnPreexistingStopSignal(t *testing.T) {
	ctx, _ := newTestContext(t)
	if err := os.WriteFile(ctx.StopSignal(), []byte(""), 0o644); err != nil {
		t.Fatalf("write stop signal: %v", err)
	}

	store := statestore.New(filepath.Join(ctx.RepoRoot, ".loom"))
	client := newTestClient(func(name string, args ...string) ([]byte, error) {
		return []byte("[]"), nil
	})
	loop := &Loop{
		Store:    store,
		Client:   client,
		Log:      logging.New(),
		Launcher: &countingLauncher{},
	}

	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ctx.Iteration != 0 {
		t.Errorf("Iteration = %d, want 0 (stop signal should fire before any tick)", ctx.Iteration)
	}
	if _, err := os.Stat(ctx.PIDFile()); !os.IsNotExist(err) {
		t.Error("PID file still exists after Run returns")
	}
	if ctx.ExitReason != ExitReasonSignal {
		t.Errorf("ExitReason = %q, want %q", ctx.ExitReason, ExitReasonSignal)
	}
}

// TestLoopRunRefusesWhenAnotherInstanceIsAlive verifies Run bails out
// immediately, without touching state or PID files, when a live PID is
// already recorded.
func TestLoopRunRefusesWhenAnotherInstanceIsAlive(t *testing.T) {
	ctx, _ := newTestContext(t)
	if err := WritePIDFile(ctx); err != nil {
		t.Fatalf("seed PID file: %v", err)
	}

	store := statestore.New(filepath.Join(ctx.RepoRoot, ".loom"))
	client := newTestClient(func(name string, args ...string) ([]byte, error) {
		t.Fatalf("platform client should not be called when another instance is running")
		return nil, nil
	})
	loop := &Loop{Store: store, Client: client, Log: logging.New(), Launcher: &countingLauncher{}}

	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(ctx.PIDFile()); err != nil {
		t.Error("pre-existing PID file should survive a refused Run")
	}
	if ctx.ExitReason != ExitReasonConflict {
		t.Errorf("ExitReason = %q, want %q", ctx.ExitReason, ExitReasonConflict)
	}
}

// TestLoopTickBuildsSnapshotAndSkipsActionsWhenInactive verifies Tick
// builds a snapshot from the platform client's responses but runs no
// reconciliation actions while orchestration is inactive.
func TestLoopTickBuildsSnapshotAndSkipsActionsWhenInactive(t *testing.T) {
	ctx, _ := newTestContext(t)
	store := statestore.New(filepath.Join(ctx.RepoRoot, ".loom"))
	ctx.State = store.DaemonState(ctx.SessionID)

	client := newTestClient(func(name string, args ...string) ([]byte, error) {
		return []byte("[]"), nil
	})
	launcher := &countingLauncher{}
	loop := &Loop{Store: store, Client: client, Log: logging.New(), Launcher: launcher}

	loop.Tick(ctx)

	if ctx.Snapshot == nil {
		t.Fatal("Tick() left Snapshot nil")
	}
	if launcher.calls != 0 {
		t.Errorf("launcher.calls = %d, want 0 while orchestration is inactive", launcher.calls)
	}
}
