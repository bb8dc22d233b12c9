package daemon

import (
	"strings"
	"time"

	"github.com/rjwalters/loom-sub003/internal/actions"
	"github.com/rjwalters/loom-sub003/internal/logging"
	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/platform"
	"github.com/rjwalters/loom-sub003/internal/session"
	"github.com/rjwalters/loom-sub003/internal/snapshot"
	"github.com/rjwalters/loom-sub003/internal/statestore"
)

// SessionLauncher is satisfied by whatever wires tmux sessions to shepherd
// tasks; kept here (rather than imported from shepherd, which has no
// platform-launching concern of its own) to avoid a daemon<->shepherd
// import cycle while the two share the same interface shape.
type SessionLauncher = actions.SessionLauncher

// Loop owns everything one daemon process needs across its lifetime: the
// repo-rooted state store, the platform client, and the session launcher
// that turns a claimed issue into a live shepherd.
type Loop struct {
	Store    *statestore.Store
	Client   *platform.Client
	Log      *logging.Logger
	Launcher SessionLauncher
}

// Run executes the daemon's main loop until a stop signal arrives, the
// TimeoutMin deadline passes (0 means no deadline), another instance takes
// over the state file, or ctx.Running is cleared. On startup it refuses to
// run beside a live PID-file owner, writes its own PID file, and stamps its
// session id into the persisted daemon state.
//
// Each iteration: (1) check the stop signal, (2) check the timeout, (3)
// re-read the persisted session id and yield on a mismatch, (4) apply and
// consume inbound signal files, (5) run Tick (snapshot build, then, when
// orchestration is active, the reconciliation actions ending with the
// pending-spawn drain), (6) persist state, (7) sleep for the poll interval.
func (l *Loop) Run(ctx *Context) error {
	if running, pid := CheckExistingPID(l.Log, ctx); running {
		l.Log.Error("another daemon instance is already running (pid %d)", pid)
		ctx.ExitReason = ExitReasonConflict
		return nil
	}
	if err := WritePIDFile(ctx); err != nil {
		return err
	}
	defer CleanupOnExit(ctx)

	ctx.State = l.Store.DaemonState(ctx.SessionID)
	ctx.State.DaemonSessionID = ctx.SessionID
	if err := l.Store.WriteDaemonState(ctx.State); err != nil {
		l.Log.Error("failed to persist daemon state: %v", err)
	}

	var deadline time.Time
	if ctx.Config.TimeoutMin > 0 {
		deadline = time.Now().Add(time.Duration(ctx.Config.TimeoutMin) * time.Minute)
	}

	for ctx.Running {
		if CheckStopSignal(ctx) {
			l.Log.Info("stop signal received, shutting down")
			ClearStopSignal(ctx)
			ctx.ExitReason = ExitReasonSignal
			break
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			l.Log.Info("timeout of %d minute(s) reached, shutting down", ctx.Config.TimeoutMin)
			break
		}

		if CheckSessionConflict(l.Log, ctx, l.Store.DaemonState(ctx.SessionID).DaemonSessionID) {
			ctx.ExitReason = ExitReasonConflict
			break
		}

		for _, s := range ReadPendingSignals(ctx) {
			ApplySignal(ctx, s)
			ConsumeSignal(s)
		}

		l.Tick(ctx)

		if err := l.Store.WriteDaemonState(ctx.State); err != nil {
			l.Log.Error("failed to persist daemon state: %v", err)
		}

		ctx.Iteration++
		InterruptibleSleep(ctx.SignalsDir(), time.Duration(ctx.Config.PollInterval)*time.Second)
	}
	return nil
}

// Tick runs one iteration's worth of snapshot building and, when
// orchestration is active, reconciliation actions.
func (l *Loop) Tick(ctx *Context) {
	readyIssues := l.fetchReadyIssues()
	openPRs := l.fetchOpenPRs()
	progress := l.Store.ReadAllProgress()
	ci := l.Client.DefaultBranchCIStatus()

	snap := snapshot.Build(ctx.Config, ctx.State, readyIssues, openPRs, progress, ci)
	ctx.Snapshot = &snap

	if !ctx.OrchestrationActive {
		return
	}

	l.runReconciliation(ctx, snap)
}

// runReconciliation runs this tick's actions in the exact order required:
// reclaim-stale, check-completions, escalate-spinning, promote-proposals
// (force mode), spawn-support-roles (interval-gated), spawn-shepherds (auto
// build only), then drain pending_spawns. Several of these steps consume
// the same shepherd-slot pool and mutate ctx.State as they run, so slot
// counts are recomputed live from ctx.State immediately before each
// consumer rather than read once from the tick's opening snapshot.
func (l *Loop) runReconciliation(ctx *Context, snap snapshot.Snapshot) {
	progressBySlot := progressBySlotName(ctx.State, l.Store)

	actions.ReclaimStale(l.Log, ctx.State, progressBySlot, ctx.Config.NoProgressGracePeriod, func(taskID string) *session.Session {
		return session.New(taskID)
	})

	actions.CheckCompletions(l.Log, ctx.State, progressBySlot)

	if len(snap.SpinningPRs) > 0 {
		actions.EscalateSpinningIssues(l.Client, l.Log, snap.SpinningPRs)
	}

	if ctx.Config.ForceMode {
		actions.PromoteProposals(l.Client, l.Log, ctx.PromotableProposals())
	}

	for _, role := range triggeredRoles(snap.Computed.RecommendedActions) {
		actions.SpawnSupportRole(l.Launcher, l.Log, ctx.State, role)
	}

	if ctx.Config.AutoBuild {
		actions.SpawnShepherds(l.Client, l.Launcher, l.Log, ctx.State, ctx.ReadyIssueNumbers(), ctx.LiveAvailableShepherdSlots())
	}

	l.retryPendingSpawns(ctx)
}

// triggeredRoles extracts the support roles (guide, champion, doctor, ...)
// that the snapshot's interval gating says are due, from its
// "trigger_<role>" recommendations.
func triggeredRoles(recommended []string) []string {
	var roles []string
	for _, action := range recommended {
		if strings.HasPrefix(action, "trigger_") {
			roles = append(roles, strings.TrimPrefix(action, "trigger_"))
		}
	}
	return roles
}

func (l *Loop) retryPendingSpawns(ctx *Context) {
	var remaining []PendingSpawn
	for _, p := range ctx.PendingSpawns {
		if ctx.LiveAvailableShepherdSlots() <= 0 {
			remaining = append(remaining, p)
			continue
		}
		spawned := actions.SpawnShepherds(l.Client, l.Launcher, l.Log, ctx.State, []int{p.Issue}, 1)
		if spawned == 0 {
			remaining = append(remaining, p)
		}
	}
	ctx.PendingSpawns = remaining
}

func progressBySlotName(state *model.DaemonState, store *statestore.Store) map[string]*model.ShepherdProgress {
	out := map[string]*model.ShepherdProgress{}
	for slot, entry := range state.Shepherds {
		if entry.TaskID == "" {
			continue
		}
		if p := store.ReadProgress(entry.TaskID); p != nil {
			out[slot] = p
		}
	}
	return out
}

func (l *Loop) fetchReadyIssues() []snapshot.Issue {
	raw := l.Client.List(platform.Issue, platform.ListOptions{
		Labels: []string{"loom:issue", "loom:architect", "loom:hermit", "loom:curated"},
		State:  "open",
		Fields: []string{"number", "title", "labels", "state"},
	})
	return toSnapshotIssues(raw)
}

func (l *Loop) fetchOpenPRs() []snapshot.PR {
	raw := l.Client.List(platform.PR, platform.ListOptions{
		State:  "open",
		Fields: []string{"number", "title", "labels", "state"},
	})
	return toSnapshotPRs(raw)
}

func toSnapshotIssues(raw []map[string]interface{}) []snapshot.Issue {
	issues := make([]snapshot.Issue, 0, len(raw))
	for _, r := range raw {
		issues = append(issues, snapshot.Issue{
			Number: intField(r, "number"),
			Labels: labelNames(r),
			Closed: stringField(r, "state") == "CLOSED",
		})
	}
	return issues
}

func toSnapshotPRs(raw []map[string]interface{}) []snapshot.PR {
	prs := make([]snapshot.PR, 0, len(raw))
	for _, r := range raw {
		prs = append(prs, snapshot.PR{
			Number: intField(r, "number"),
			Labels: labelNames(r),
		})
	}
	return prs
}

func intField(m map[string]interface{}, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func labelNames(m map[string]interface{}) []string {
	raw, ok := m["labels"].([]interface{})
	if !ok {
		return nil
	}
	var names []string
	for _, item := range raw {
		if lm, ok := item.(map[string]interface{}); ok {
			if name, ok := lm["name"].(string); ok {
				names = append(names, name)
			}
		}
	}
	return names
}
