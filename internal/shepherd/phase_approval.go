package shepherd

import (
	"time"

	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/platform"
)

// ApprovalPhase waits for the issue to carry loom:issue, auto-approving in
// force/auto-approve mode or polling for human approval otherwise.
type ApprovalPhase struct {
	// sleep is injected so tests can run the polling loop without a real
	// clock; defaults to time.Sleep.
	sleep func(time.Duration)
	now   func() time.Time
}

func (ApprovalPhase) Name() string { return "approval" }

// ApprovalPhase never skips via --from: approval status is always checked.
func (ApprovalPhase) ShouldSkip(*Context) (bool, string) { return false, "" }

func (p ApprovalPhase) Run(ctx *Context) PhaseResult {
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	now := p.now
	if now == nil {
		now = time.Now
	}

	if ctx.CheckShutdown() {
		return shutdownResult(p.Name())
	}

	if ctx.HasIssueLabel("loom:issue") {
		return successResult(p.Name(), "issue already approved (has loom:issue label)", map[string]interface{}{"summary": "already approved"})
	}

	if ctx.HasIssueLabel("loom:building") {
		return successResult(p.Name(), "issue pre-approved (claimed by daemon, has loom:building label)",
			map[string]interface{}{"summary": "daemon-claimed", "method": "building-label"})
	}

	if ctx.Config.ShouldAutoApprove {
		ctx.Client.EditLabels(platform.Issue, ctx.Config.Issue, []string{"loom:issue"}, nil)
		ctx.InvalidateIssueLabels()
		return successResult(p.Name(), "issue auto-approved", map[string]interface{}{"summary": "auto-approved"})
	}

	start := now()
	for {
		elapsed := now().Sub(start)
		if elapsed > ctx.Config.ApprovalTimeout {
			return failedResult(p.Name(), "approval timed out after "+elapsed.Round(time.Second).String())
		}

		ctx.InvalidateIssueLabels()
		if ctx.HasIssueLabel("loom:issue") {
			return successResult(p.Name(), "issue approved by human", map[string]interface{}{"summary": "human approved"})
		}

		if ctx.CheckShutdown() {
			return shutdownResult(p.Name())
		}

		ctx.ReportMilestone(model.MilestoneHeartbeat, map[string]interface{}{"action": "waiting for approval"})
		sleep(ctx.Config.PollInterval)
	}
}

func (ApprovalPhase) validate(ctx *Context) bool {
	ctx.InvalidateIssueLabels()
	return ctx.HasIssueLabel("loom:issue") || ctx.HasIssueLabel("loom:building")
}
