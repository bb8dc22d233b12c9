package actions

import (
	"errors"
	"testing"

	"github.com/rjwalters/loom-sub003/internal/logging"
	"github.com/rjwalters/loom-sub003/internal/model"
)

type fakeLauncher struct {
	fail bool
}

func (f *fakeLauncher) LaunchShepherd(taskID string, issue int) (string, error) {
	if f.fail {
		return "", errors.New("launch failed")
	}
	return "/state/output-" + taskID + ".log", nil
}

func (f *fakeLauncher) LaunchSupportRole(role string) error {
	if f.fail {
		return errors.New("launch failed")
	}
	return nil
}

func TestSpawnShepherdsClaimsAndFillsSlots(t *testing.T) {
	client := newTestClient(func(name string, args ...string) ([]byte, error) {
		return nil, nil
	})
	log := logging.New()
	state := model.NewDaemonState("S1")

	got := SpawnShepherds(client, &fakeLauncher{}, log, state, []int{1, 2, 3}, 2)
	if got != 2 {
		t.Fatalf("SpawnShepherds() = %d, want 2", got)
	}
	working := 0
	for _, e := range state.Shepherds {
		if e.Working() {
			working++
		}
	}
	if working != 2 {
		t.Errorf("working slots = %d, want 2", working)
	}
}

func TestSpawnShepherdsSkipsLostClaimRace(t *testing.T) {
	client := newTestClient(func(name string, args ...string) ([]byte, error) {
		return nil, errors.New("race lost")
	})
	log := logging.New()
	state := model.NewDaemonState("S1")

	got := SpawnShepherds(client, &fakeLauncher{}, log, state, []int{1}, 1)
	if got != 0 {
		t.Errorf("SpawnShepherds() = %d, want 0", got)
	}
}

func TestSpawnSupportRoleRecordsLastSpawned(t *testing.T) {
	log := logging.New()
	state := model.NewDaemonState("S1")

	ok := SpawnSupportRole(&fakeLauncher{}, log, state, "doctor")
	if !ok {
		t.Fatal("SpawnSupportRole() = false, want true")
	}
	if state.SupportRoles["doctor"].LastSpawned == "" {
		t.Error("expected LastSpawned to be set")
	}
}
