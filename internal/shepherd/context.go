package shepherd

import (
	"time"

	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/platform"
	"github.com/rjwalters/loom-sub003/internal/statestore"
	"github.com/rjwalters/loom-sub003/internal/timeutil"
)

// Options configures one shepherd run, the Go analogue of the Python
// orchestration's per-run config object.
type Options struct {
	Issue            int
	TaskID           string
	IsForceMode      bool
	ShouldAutoApprove bool
	ApprovalTimeout  time.Duration
	PollInterval     time.Duration
	CuratorTimeout   int
	JudgeTimeout     int
	StuckMaxRetries  int
	StartFrom        string // empty, or a phase name to resume from
}

// Context carries everything a Phase needs to run: the platform client,
// the run's options, a live progress record, and the abstractions that let
// it be driven without a real tmux session or gh binary.
type Context struct {
	Client    *platform.Client
	Store     *statestore.Store
	Runner    CommandRunner
	Validator PhaseValidator
	Config    Options

	PRNumber int // 0 until the builder phase creates one

	progress    *model.ShepherdProgress
	shutdownFn  func() bool
	issueLabels map[string]bool
	prLabels    map[string]bool
}

// NewContext builds a fresh Context and its backing progress record.
func NewContext(client *platform.Client, store *statestore.Store, runner CommandRunner, validator PhaseValidator, opts Options, shutdownFn func() bool) *Context {
	return &Context{
		Client:     client,
		Store:      store,
		Runner:     runner,
		Validator:  validator,
		Config:     opts,
		shutdownFn: shutdownFn,
		progress: &model.ShepherdProgress{
			TaskID:    opts.TaskID,
			Issue:     opts.Issue,
			StartedAt: timeutil.FormatTimestamp(timeutil.NowUTC()),
			Status:    model.ProgressWorking,
		},
	}
}

// Progress exposes the run's in-memory progress record.
func (c *Context) Progress() *model.ShepherdProgress { return c.progress }

// CheckShutdown reports whether a shutdown was requested since the run
// began.
func (c *Context) CheckShutdown() bool {
	return c.shutdownFn != nil && c.shutdownFn()
}

// ReportMilestone appends event to the progress log (enforcing the
// terminal-milestone invariant: transient_error/completed/errored may only
// follow a started milestone) and persists it immediately so a concurrently
// running daemon tick sees live progress.
func (c *Context) ReportMilestone(event model.MilestoneEvent, data map[string]interface{}) {
	if event.IsTerminal() && !c.progress.HasMilestone(model.MilestoneStarted) {
		c.progress.Milestones = append(c.progress.Milestones, model.Milestone{
			Event:     model.MilestoneStarted,
			Timestamp: timeutil.FormatTimestamp(timeutil.NowUTC()),
		})
	}
	c.progress.Milestones = append(c.progress.Milestones, model.Milestone{
		Event:     event,
		Timestamp: timeutil.FormatTimestamp(timeutil.NowUTC()),
		Data:      data,
	})
	c.progress.LastHeartbeat = timeutil.FormatTimestamp(timeutil.NowUTC())
	if c.Store != nil {
		_ = c.Store.WriteProgress(c.progress)
	}
}

// HasIssueLabel reports whether the issue currently carries label, fetching
// fresh labels on first use or after InvalidateIssueLabels.
func (c *Context) HasIssueLabel(label string) bool {
	if c.issueLabels == nil {
		c.refreshIssueLabels()
	}
	return c.issueLabels[label]
}

// HasPRLabel reports whether the linked PR currently carries label.
func (c *Context) HasPRLabel(label string) bool {
	if c.prLabels == nil {
		c.refreshPRLabels()
	}
	return c.prLabels[label]
}

// InvalidateIssueLabels forces the next HasIssueLabel call to refetch.
func (c *Context) InvalidateIssueLabels() { c.issueLabels = nil }

// InvalidatePRLabels forces the next HasPRLabel call to refetch.
func (c *Context) InvalidatePRLabels() { c.prLabels = nil }

func (c *Context) refreshIssueLabels() {
	c.issueLabels = map[string]bool{}
	view := c.Client.View(platform.Issue, c.Config.Issue, []string{"labels"})
	for _, name := range extractLabelNames(view) {
		c.issueLabels[name] = true
	}
}

func (c *Context) refreshPRLabels() {
	c.prLabels = map[string]bool{}
	if c.PRNumber == 0 {
		return
	}
	view := c.Client.View(platform.PR, c.PRNumber, []string{"labels"})
	for _, name := range extractLabelNames(view) {
		c.prLabels[name] = true
	}
}

func extractLabelNames(view map[string]interface{}) []string {
	if view == nil {
		return nil
	}
	raw, ok := view["labels"].([]interface{})
	if !ok {
		return nil
	}
	var names []string
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			if name, ok := m["name"].(string); ok {
				names = append(names, name)
			}
		}
	}
	return names
}
