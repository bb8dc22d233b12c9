package shepherd

import (
	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/platform"
)

// CuratorPhase enhances the issue with implementation guidance before a
// human or auto-approval gate lets the builder start.
type CuratorPhase struct{}

func (CuratorPhase) Name() string { return "curator" }

func (CuratorPhase) ShouldSkip(ctx *Context) (bool, string) {
	if ctx.Config.StartFrom != "" && ctx.Config.StartFrom != "curator" {
		return true, "skipped via --from " + ctx.Config.StartFrom
	}
	if ctx.HasIssueLabel("loom:curated") {
		return true, "issue already curated"
	}
	return false, ""
}

func (p CuratorPhase) Run(ctx *Context) PhaseResult {
	if ctx.CheckShutdown() {
		return shutdownResult(p.Name())
	}
	ctx.ReportMilestone(model.MilestonePhaseEntered, map[string]interface{}{"phase": "curator"})

	exitCode, err := ctx.Runner.RunPhaseWithRetry("curator", ctx.Config.Issue, 0, ctx.Config.CuratorTimeout, ctx.Config.StuckMaxRetries)
	if err != nil {
		return stuckResult(p.Name(), "curator agent error: "+err.Error())
	}

	switch ExitCode(exitCode) {
	case ExitShutdown:
		return shutdownResult(p.Name())
	case ExitNeedsIntervention:
		return stuckResult(p.Name(), "curator stuck after retry")
	case ExitBudgetExhausted:
		return PhaseResult{Status: PhaseSuccess, Message: "curator exhausted its session budget", PhaseName: p.Name(), Data: map[string]interface{}{"budget_exhausted": true}}
	}

	if !p.validate(ctx) {
		return failedResult(p.Name(), "curator phase validation failed")
	}

	ctx.Client.EditLabels(platform.Issue, ctx.Config.Issue, nil, []string{"loom:curating"})
	return successResult(p.Name(), "curator phase complete", nil)
}

func (p CuratorPhase) validate(ctx *Context) bool {
	if ctx.Validator == nil {
		return true
	}
	return ctx.Validator.Validate(ctx, p.Name())
}
