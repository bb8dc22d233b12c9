package shepherd

import (
	"strconv"

	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/platform"
)

// BuilderPhase implements the issue and opens a PR, or determines that no
// changes are needed and blocks the issue for human review.
//
// No Python source for this phase survived distillation; it follows the
// structure of its sibling phases (CuratorPhase, JudgePhase) and §4.G's
// builder description, with the issue-quality preflight wired in as an
// advisory, non-blocking check.
type BuilderPhase struct {
	// IssueBody supplies the issue's markdown body for the quality
	// preflight; injected so tests don't need a live platform client.
	IssueBody func(ctx *Context) string
}

func (BuilderPhase) Name() string { return "builder" }

func (BuilderPhase) ShouldSkip(ctx *Context) (bool, string) {
	if ctx.Config.StartFrom != "" && ctx.Config.StartFrom != "curator" && ctx.Config.StartFrom != "approval" && ctx.Config.StartFrom != "builder" {
		if ctx.PRNumber != 0 {
			return true, "skipped via --from " + ctx.Config.StartFrom
		}
	}
	return false, ""
}

func (p BuilderPhase) Run(ctx *Context) PhaseResult {
	if ctx.CheckShutdown() {
		return shutdownResult(p.Name())
	}
	ctx.ReportMilestone(model.MilestonePhaseEntered, map[string]interface{}{"phase": "builder"})

	if p.IssueBody != nil {
		report := ValidateIssueQuality(p.IssueBody(ctx))
		for _, f := range report.Warnings() {
			ctx.ReportMilestone(model.MilestoneHeartbeat, map[string]interface{}{
				"action": "issue_quality_warning", "message": f.Message,
			})
		}
	}

	exitCode, err := ctx.Runner.RunPhaseWithRetry("builder", ctx.Config.Issue, 0, 0, ctx.Config.StuckMaxRetries)
	if err != nil {
		return stuckResult(p.Name(), "builder agent error: "+err.Error())
	}

	switch ExitCode(exitCode) {
	case ExitShutdown:
		return shutdownResult(p.Name())
	case ExitNeedsIntervention:
		return stuckResult(p.Name(), "builder stuck after retry")
	case ExitNoChangesNeeded:
		return PhaseResult{Status: PhaseSuccess, Message: "no changes needed, issue blocked for human review", PhaseName: p.Name(), Data: map[string]interface{}{"no_changes": true}}
	case ExitBudgetExhausted:
		return PhaseResult{Status: PhaseSuccess, Message: "builder exhausted its session budget", PhaseName: p.Name(), Data: map[string]interface{}{"budget_exhausted": true}}
	}

	prNumber := extractPRNumber(ctx)
	if prNumber == 0 {
		return failedResult(p.Name(), "no PR found after builder phase")
	}
	ctx.PRNumber = prNumber
	ctx.InvalidatePRLabels()
	ctx.ReportMilestone(model.MilestonePRCreated, map[string]interface{}{"pr_number": prNumber})

	return successResult(p.Name(), "PR #"+strconv.Itoa(prNumber)+" created", map[string]interface{}{"pr_number": prNumber})
}

func extractPRNumber(ctx *Context) int {
	results := ctx.Client.List(platform.PR, platform.ListOptions{
		Head:   "",
		Search: "linked:" + strconv.Itoa(ctx.Config.Issue),
		Fields: []string{"number"},
	})
	if len(results) == 0 {
		return 0
	}
	if n, ok := results[0]["number"].(float64); ok {
		return int(n)
	}
	return 0
}
