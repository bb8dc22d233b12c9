package snapshot

import (
	"testing"

	"github.com/rjwalters/loom-sub003/internal/config"
	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/platform"
)

func TestCountReviewCyclesCountsCompletedCyclesOnly(t *testing.T) {
	events := []ReviewEvent{
		{Kind: "changes_requested"},
		{Kind: "commit_pushed"},
		{Kind: "changes_requested"},
		{Kind: "commit_pushed"},
		{Kind: "changes_requested"}, // dangling, not yet fixed
	}
	if got := CountReviewCycles(events); got != 2 {
		t.Errorf("CountReviewCycles() = %d, want 2", got)
	}
}

func TestBuildSpawnShepherdsRecommendedWhenReadyAndSlotAvailable(t *testing.T) {
	cfg := &config.DaemonConfig{MaxShepherds: 1}
	state := model.NewDaemonState("S1")
	state.Shepherds["shepherd-1"] = &model.ShepherdEntry{Status: model.ShepherdIdle}

	issues := []Issue{{Number: 42, Labels: []string{"loom:issue"}}}
	snap := Build(cfg, state, issues, nil, nil, platform.CIStatusResult{Status: "passing"})

	if !contains(snap.Computed.RecommendedActions, "spawn_shepherds") {
		t.Errorf("expected spawn_shepherds recommended, got %v", snap.Computed.RecommendedActions)
	}
	if snap.Computed.AvailableShepherdSlots != 1 {
		t.Errorf("AvailableShepherdSlots = %d, want 1", snap.Computed.AvailableShepherdSlots)
	}
}

func TestBuildNoSpawnRecommendationWhenSlotsFull(t *testing.T) {
	cfg := &config.DaemonConfig{MaxShepherds: 1}
	state := model.NewDaemonState("S1")
	state.Shepherds["shepherd-1"] = &model.ShepherdEntry{Status: model.ShepherdWorking, TaskID: "T1"}

	issues := []Issue{{Number: 42, Labels: []string{"loom:issue"}}}
	snap := Build(cfg, state, issues, nil, nil, platform.CIStatusResult{Status: "passing"})

	if contains(snap.Computed.RecommendedActions, "spawn_shepherds") {
		t.Errorf("did not expect spawn_shepherds, got %v", snap.Computed.RecommendedActions)
	}
	if snap.Computed.AvailableShepherdSlots != 0 {
		t.Errorf("AvailableShepherdSlots = %d, want 0", snap.Computed.AvailableShepherdSlots)
	}
}

func TestBuildPromotableProposals(t *testing.T) {
	cfg := &config.DaemonConfig{MaxShepherds: 1}
	state := model.NewDaemonState("S1")
	issues := []Issue{
		{Number: 77, Labels: []string{"loom:architect"}},
		{Number: 80, Labels: []string{"loom:issue"}}, // already approved
		{Number: 90, Labels: []string{"loom:curated"}, Closed: true},
	}
	snap := Build(cfg, state, issues, nil, nil, platform.CIStatusResult{})

	if len(snap.Computed.PromotableProposals) != 1 || snap.Computed.PromotableProposals[0] != 77 {
		t.Errorf("PromotableProposals = %v, want [77]", snap.Computed.PromotableProposals)
	}
}

func TestBuildSpinningPRDetection(t *testing.T) {
	cfg := &config.DaemonConfig{MaxShepherds: 1}
	state := model.NewDaemonState("S1")
	prs := []PR{
		{Number: 200, ReviewCycles: 5, LinkedIssue: 101},
		{Number: 201, ReviewCycles: 2},
	}
	snap := Build(cfg, state, nil, prs, nil, platform.CIStatusResult{})

	if len(snap.SpinningPRs) != 1 || snap.SpinningPRs[0].PRNumber != 200 {
		t.Errorf("SpinningPRs = %v, want one entry for PR 200", snap.SpinningPRs)
	}
}

func TestIntervalElapsedEmptyMeansNeverSpawned(t *testing.T) {
	if !IntervalElapsed("", 900) {
		t.Error("expected empty last-spawned to count as elapsed")
	}
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
