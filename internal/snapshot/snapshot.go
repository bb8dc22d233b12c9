// Package snapshot builds the ephemeral, per-tick view of the pipeline
// described in §4.E: queues by label, open PRs, shepherd progress,
// systematic-failure counters, and derived recommended actions.
package snapshot

import (
	"sort"

	"github.com/rjwalters/loom-sub003/internal/config"
	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/platform"
	"github.com/rjwalters/loom-sub003/internal/timeutil"
)

// IntervalElapsed reports whether interval seconds have elapsed since
// lastSpawned (an ISO-8601 timestamp), treating an empty lastSpawned — a
// role never yet spawned — as elapsed.
func IntervalElapsed(lastSpawned string, interval int) bool {
	if lastSpawned == "" {
		return true
	}
	return timeutil.ElapsedSeconds(lastSpawned) >= interval
}

// proposalLabels are the three label kinds a promotable proposal may carry.
var proposalLabels = map[string]bool{
	"loom:architect": true,
	"loom:hermit":    true,
	"loom:curated":   true,
}

// spinningThreshold fixes the open question in §9: a PR counts as spinning
// once it has accumulated at least this many judge-requests-changes ->
// doctor-fixes review cycles.
const spinningThreshold = 3

// Issue is the subset of platform issue fields the snapshot builder reads.
type Issue struct {
	Number int
	Labels []string
	Closed bool
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}

// ReviewEvent is one observable step in a PR's review/commit timeline, used
// to count spinning cycles without needing a live platform client in tests.
type ReviewEvent struct {
	Kind string // "changes_requested" or "commit_pushed"
}

// CountReviewCycles counts judge-requests-changes -> fixes-pushed cycles
// from a PR's timeline: each "changes_requested" event that is later
// followed by a "commit_pushed" event completes one cycle.
func CountReviewCycles(events []ReviewEvent) int {
	cycles := 0
	awaitingFix := false
	for _, e := range events {
		switch e.Kind {
		case "changes_requested":
			awaitingFix = true
		case "commit_pushed":
			if awaitingFix {
				cycles++
				awaitingFix = false
			}
		}
	}
	return cycles
}

// PR is the subset of platform PR fields the snapshot builder reads.
type PR struct {
	Number       int
	Labels       []string
	LinkedIssue  int // 0 if none
	ReviewCycles int
}

// SpinningPR describes one PR past the spinning threshold.
type SpinningPR struct {
	PRNumber     int
	ReviewCycles int
	LinkedIssue  int // 0 if none
}

// Computed holds the snapshot's derived fields.
type Computed struct {
	TotalReady            int
	ActiveShepherds       int
	AvailableShepherdSlots int
	RecommendedActions    []string
	PromotableProposals   []int
	HealthStatus          model.HealthStatus
	NeedsHumanInput       bool
}

// PipelineHealth summarizes escalation-relevant counters.
type PipelineHealth struct {
	RetryableIssues int
	EscalationNeeded bool
}

// Snapshot is the ephemeral per-tick view produced by Build; it is never
// persisted whole (§3).
type Snapshot struct {
	ReadyIssues    []Issue
	OpenPRs        []PR
	SpinningPRs    []SpinningPR
	ShepherdProgress []*model.ShepherdProgress
	PipelineHealth PipelineHealth
	SupportRoleLastSpawned map[string]string
	Computed       Computed
}

// Build produces the snapshot for one tick from the current daemon state,
// the ready-issue/open-PR listings, and shepherd progress files.
func Build(cfg *config.DaemonConfig, state *model.DaemonState, readyIssues []Issue, openPRs []PR, progress []*model.ShepherdProgress, ciStatus platform.CIStatusResult) Snapshot {
	snap := Snapshot{
		ReadyIssues:      readyIssues,
		ShepherdProgress: progress,
		SupportRoleLastSpawned: map[string]string{},
	}

	for name, entry := range state.SupportRoles {
		snap.SupportRoleLastSpawned[name] = entry.LastSpawned
	}

	active := 0
	for _, entry := range state.Shepherds {
		if entry.Working() {
			active++
		}
	}
	available := cfg.MaxShepherds - active
	if available < 0 {
		available = 0
	}

	var openOnly []PR
	var spinning []SpinningPR
	for _, pr := range openPRs {
		openOnly = append(openOnly, pr)
		if pr.ReviewCycles >= spinningThreshold {
			spinning = append(spinning, SpinningPR{
				PRNumber:     pr.Number,
				ReviewCycles: pr.ReviewCycles,
				LinkedIssue:  pr.LinkedIssue,
			})
		}
	}
	snap.OpenPRs = openOnly
	snap.SpinningPRs = spinning

	var promotable []int
	for _, issue := range readyIssues {
		if issue.Closed {
			continue
		}
		if hasLabel(issue.Labels, "loom:issue") || hasLabel(issue.Labels, "loom:building") {
			continue
		}
		if hasProposalLabel(issue.Labels) {
			promotable = append(promotable, issue.Number)
		}
	}
	sort.Ints(promotable)

	blocked := state.Pipeline.BlockedIssuesCount
	snap.PipelineHealth = PipelineHealth{
		RetryableIssues:  countRetryable(progress),
		EscalationNeeded: len(spinning) > 0 || state.Pipeline.ConsecutiveStalls >= cfg.StallDiagnosticThreshold,
	}

	healthStatus := model.HealthHealthy
	switch {
	case ciStatus.Status == "failing" || state.Pipeline.ConsecutiveStalls >= cfg.StallRestartThreshold:
		healthStatus = model.HealthUnhealthy
	case state.Pipeline.ConsecutiveStalls >= cfg.StallDiagnosticThreshold || blocked > 0:
		healthStatus = model.HealthDegraded
	}

	totalReady := 0
	for _, issue := range readyIssues {
		if !issue.Closed && hasLabel(issue.Labels, "loom:issue") {
			totalReady++
		}
	}

	var recommended []string
	if totalReady > 0 && available > 0 {
		recommended = append(recommended, "spawn_shepherds")
	}
	if len(promotable) > 0 {
		recommended = append(recommended, "promote_proposals")
	}
	for role, interval := range map[string]int{
		"guide":    cfg.GuideInterval,
		"champion": cfg.ChampionInterval,
		"doctor":   cfg.DoctorInterval,
		"auditor":  cfg.AuditorInterval,
		"judge":    cfg.JudgeInterval,
		"curator":  cfg.CuratorInterval,
	} {
		if IntervalElapsed(snap.SupportRoleLastSpawned[role], interval) {
			recommended = append(recommended, "trigger_"+role)
		}
	}
	if needsArchitect(state.SystematicFailure) && IntervalElapsed(snap.SupportRoleLastSpawned["architect"], cfg.ArchitectCooldown) {
		recommended = append(recommended, "trigger_architect")
	}
	sort.Strings(recommended)

	snap.Computed = Computed{
		TotalReady:             totalReady,
		ActiveShepherds:        active,
		AvailableShepherdSlots: available,
		RecommendedActions:     recommended,
		PromotableProposals:    promotable,
		HealthStatus:           healthStatus,
		NeedsHumanInput:        healthStatus == model.HealthUnhealthy || len(spinning) > 0,
	}
	return snap
}

// needsArchitect reports whether any issue's systematic-failure count has
// crossed model.SystematicFailureThreshold, meaning a shepherd has blocked
// on it repeatedly and it likely needs decomposition rather than another
// automated attempt.
func needsArchitect(systematicFailure map[string]int) bool {
	for _, count := range systematicFailure {
		if count >= model.SystematicFailureThreshold {
			return true
		}
	}
	return false
}

func hasProposalLabel(labels []string) bool {
	for _, l := range labels {
		if proposalLabels[l] {
			return true
		}
	}
	return false
}

func countRetryable(progress []*model.ShepherdProgress) int {
	count := 0
	for _, p := range progress {
		if p.HasMilestone(model.MilestoneTransientError) && p.Status == model.ProgressWorking {
			count++
		}
	}
	return count
}
