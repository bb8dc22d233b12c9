package daemon

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rjwalters/loom-sub003/internal/logging"
	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/statestore"
)

// TestTickNeverExceedsMaxShepherdsWithPendingSpawnAndReadyIssue reproduces
// the scenario a stale, once-per-tick slot count can overrun: one shepherd
// slot total, a queued pending_spawn signal, and a ready issue that also
// earns a spawn_shepherds recommendation in the same tick. Both consumers
// must see the same live count, so only one of them may actually spawn.
func TestTickNeverExceedsMaxShepherdsWithPendingSpawnAndReadyIssue(t *testing.T) {
	ctx, root := newTestContext(t)
	ctx.Config.MaxShepherds = 1
	ctx.Config.AutoBuild = true
	ctx.OrchestrationActive = true
	ctx.PendingSpawns = []PendingSpawn{{Issue: 501}}

	store := statestore.New(filepath.Join(root, ".loom"))
	ctx.State = store.DaemonState(ctx.SessionID)

	readyIssue := map[string]interface{}{
		"number": float64(502),
		"state":  "OPEN",
		"labels": []interface{}{
			map[string]interface{}{"name": "loom:issue"},
		},
	}
	readyJSON, err := json.Marshal([]interface{}{readyIssue})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	client := newTestClient(func(name string, args ...string) ([]byte, error) {
		if len(args) >= 2 && args[0] == "issue" && args[1] == "list" {
			return readyJSON, nil
		}
		return []byte("[]"), nil
	})
	launcher := &countingLauncher{}
	loop := &Loop{Store: store, Client: client, Log: logging.New(), Launcher: launcher}

	loop.Tick(ctx)

	working := 0
	for _, entry := range ctx.State.Shepherds {
		if entry.Working() {
			working++
		}
	}
	if working > ctx.Config.MaxShepherds {
		t.Fatalf("working shepherds = %d, want at most max_shepherds = %d", working, ctx.Config.MaxShepherds)
	}
	if launcher.calls > ctx.Config.MaxShepherds {
		t.Fatalf("launcher.calls = %d, want at most %d", launcher.calls, ctx.Config.MaxShepherds)
	}
}

// TestRunReconciliationOrderReclaimsBeforeSpawning verifies reclaim-stale
// runs before spawn-shepherds within one tick: a shepherd slot freed by
// ReclaimStale must be available to SpawnShepherds in the same pass, not
// just on the following tick.
func TestRunReconciliationOrderReclaimsBeforeSpawning(t *testing.T) {
	ctx, root := newTestContext(t)
	ctx.Config.MaxShepherds = 1
	ctx.Config.AutoBuild = true
	ctx.OrchestrationActive = true

	store := statestore.New(filepath.Join(root, ".loom"))
	ctx.State = store.DaemonState(ctx.SessionID)
	ctx.State.Shepherds["shepherd-1"] = &model.ShepherdEntry{
		Status: model.ShepherdWorking,
		TaskID: "dead-task",
		Issue:  9,
	}

	readyIssue := map[string]interface{}{
		"number": float64(502),
		"state":  "OPEN",
		"labels": []interface{}{
			map[string]interface{}{"name": "loom:issue"},
		},
	}
	readyJSON, err := json.Marshal([]interface{}{readyIssue})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	client := newTestClient(func(name string, args ...string) ([]byte, error) {
		if len(args) >= 2 && args[0] == "issue" && args[1] == "list" {
			return readyJSON, nil
		}
		return []byte("[]"), nil
	})
	launcher := &countingLauncher{}
	loop := &Loop{Store: store, Client: client, Log: logging.New(), Launcher: launcher}

	loop.Tick(ctx)

	if launcher.calls != 1 {
		t.Fatalf("launcher.calls = %d, want 1 (reclaimed slot filled same tick)", launcher.calls)
	}
}
