package actions

import (
	"testing"
	"time"

	"github.com/rjwalters/loom-sub003/internal/logging"
	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/session"
	"github.com/rjwalters/loom-sub003/internal/timeutil"
)

func TestReclaimStaleFreesSlotWhenSessionGone(t *testing.T) {
	log := logging.New()
	state := model.NewDaemonState("S1")
	state.Shepherds["shepherd-1"] = &model.ShepherdEntry{Status: model.ShepherdWorking, TaskID: "T1", Issue: 9}

	reclaimed := ReclaimStale(log, state, nil, 300, func(taskID string) *session.Session {
		return nil
	})
	if reclaimed != 1 {
		t.Fatalf("ReclaimStale() = %d, want 1", reclaimed)
	}
	entry := state.Shepherds["shepherd-1"]
	if entry.Working() {
		t.Error("expected slot to be freed")
	}
	if entry.IdleReason != "stale_session" {
		t.Errorf("IdleReason = %q, want stale_session", entry.IdleReason)
	}
}

func TestReclaimStaleLeavesIdleSlotsUntouched(t *testing.T) {
	log := logging.New()
	state := model.NewDaemonState("S1")
	state.Shepherds["shepherd-1"] = &model.ShepherdEntry{Status: model.ShepherdIdle}

	reclaimed := ReclaimStale(log, state, nil, 300, func(taskID string) *session.Session {
		return nil
	})
	if reclaimed != 0 {
		t.Errorf("ReclaimStale() = %d, want 0", reclaimed)
	}
}

func TestNoProgressStaleBeyondGracePeriod(t *testing.T) {
	old := timeutil.FormatTimestamp(timeutil.NowUTC().Add(-10 * time.Minute))
	progress := &model.ShepherdProgress{LastHeartbeat: old}
	if !noProgressStale(progress, 300) {
		t.Error("expected heartbeat 10m old to be stale against a 300s grace period")
	}
}

func TestNoProgressStaleWithinGracePeriod(t *testing.T) {
	recent := timeutil.FormatTimestamp(timeutil.NowUTC().Add(-10 * time.Second))
	progress := &model.ShepherdProgress{LastHeartbeat: recent}
	if noProgressStale(progress, 300) {
		t.Error("expected heartbeat 10s old not to be stale against a 300s grace period")
	}
}

func TestNoProgressStaleFallsBackToStartedAt(t *testing.T) {
	old := timeutil.FormatTimestamp(timeutil.NowUTC().Add(-1 * time.Hour))
	progress := &model.ShepherdProgress{StartedAt: old}
	if !noProgressStale(progress, 300) {
		t.Error("expected stale StartedAt to count when LastHeartbeat is unset")
	}
}

func TestNoProgressStaleNilProgressIsNotStale(t *testing.T) {
	if noProgressStale(nil, 300) {
		t.Error("a missing progress record should not itself trigger a no-progress reclaim")
	}
}
