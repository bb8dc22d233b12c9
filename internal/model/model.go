// Package model defines the JSON-serializable records persisted under the
// state directory. Decoding relies on encoding/json's own behavior: unknown
// fields are ignored and missing fields take their Go zero value, which is
// why every field below carries an explicit default-bearing type rather than
// a pointer unless "absent" must be distinguishable from "zero".
package model

// ShepherdStatus is the lifecycle state of a shepherd slot.
type ShepherdStatus string

const (
	ShepherdIdle    ShepherdStatus = "idle"
	ShepherdWorking ShepherdStatus = "working"
)

// ProgressStatus is the lifecycle state of a running shepherd task.
type ProgressStatus string

const (
	ProgressWorking   ProgressStatus = "working"
	ProgressCompleted ProgressStatus = "completed"
	ProgressErrored   ProgressStatus = "errored"
)

// MilestoneEvent names a valid entry in a ShepherdProgress milestone log.
type MilestoneEvent string

const (
	MilestoneStarted                MilestoneEvent = "started"
	MilestonePhaseEntered           MilestoneEvent = "phase_entered"
	MilestoneHeartbeat              MilestoneEvent = "heartbeat"
	MilestoneTransientError         MilestoneEvent = "transient_error"
	MilestonePRCreated              MilestoneEvent = "pr_created"
	MilestonePhaseContractSatisfied MilestoneEvent = "phase_contract_satisfied"
	MilestoneCompleted              MilestoneEvent = "completed"
	MilestoneErrored                MilestoneEvent = "errored"
)

// terminalMilestones are the events gated by the "must follow started"
// invariant (§3, milestone order testable property).
var terminalMilestones = map[MilestoneEvent]bool{
	MilestoneTransientError: true,
	MilestoneCompleted:      true,
	MilestoneErrored:        true,
}

// IsTerminal reports whether event may only follow a started milestone.
func (e MilestoneEvent) IsTerminal() bool {
	return terminalMilestones[e]
}

// ShepherdEntry is one slot in DaemonState.Shepherds.
type ShepherdEntry struct {
	Status        ShepherdStatus `json:"status"`
	TaskID        string         `json:"task_id,omitempty"`
	Issue         int            `json:"issue,omitempty"`
	PRNumber      int            `json:"pr_number,omitempty"`
	OutputFile    string         `json:"output_file,omitempty"`
	IdleSince     string         `json:"idle_since,omitempty"`
	IdleReason    string         `json:"idle_reason,omitempty"`
	LastIssue     int            `json:"last_issue,omitempty"`
	LastCompleted string         `json:"last_completed,omitempty"`
}

// Working reports the ownership invariant from §3: working iff non-null
// task_id and (by the caller's knowledge of) a live session.
func (e ShepherdEntry) Working() bool {
	return e.Status == ShepherdWorking && e.TaskID != ""
}

// SupportRoleEntry tracks the last time a periodic support role ran.
type SupportRoleEntry struct {
	LastSpawned string `json:"last_spawned,omitempty"`
}

// PipelineCounters is the last-observed counter snapshot on DaemonState.
type PipelineCounters struct {
	ReadyIssues        int `json:"ready_issues"`
	OpenPRs            int `json:"open_prs"`
	ConsecutiveStalls  int `json:"consecutive_stalls"`
	BlockedIssuesCount int `json:"blocked_issues_count"`
}

// Warning is one entry in DaemonState's bounded warning ring.
type Warning struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// MaxWarnings bounds the DaemonState.Warnings ring buffer.
const MaxWarnings = 50

// SystematicFailureThreshold is how many blocking transitions (§4.G) the
// same issue accumulates in DaemonState.SystematicFailure before the
// snapshot builder recommends an architect decomposition.
const SystematicFailureThreshold = 2

// DaemonState is persisted as STATE/daemon-state.json.
type DaemonState struct {
	DaemonSessionID   string                      `json:"daemon_session_id"`
	OrchestrationOn   bool                        `json:"orchestration_active"`
	Shepherds         map[string]*ShepherdEntry   `json:"shepherds"`
	SupportRoles      map[string]*SupportRoleEntry `json:"support_roles"`
	Pipeline          PipelineCounters            `json:"pipeline"`
	CompletedIssues   []int                       `json:"completed_issues"`
	TotalPRsMerged    int                         `json:"total_prs_merged"`
	Warnings          []Warning                   `json:"warnings"`
	SystematicFailure map[string]int              `json:"systematic_failure,omitempty"`
}

// NewDaemonState returns a DaemonState with initialized maps/slices, matching
// the "created on first start" lifecycle note in §3.
func NewDaemonState(sessionID string) *DaemonState {
	return &DaemonState{
		DaemonSessionID: sessionID,
		Shepherds:       map[string]*ShepherdEntry{},
		SupportRoles:    map[string]*SupportRoleEntry{},
		CompletedIssues: []int{},
		Warnings:        []Warning{},
	}
}

// AddWarning appends to the bounded warning ring, dropping the oldest entry
// once MaxWarnings is exceeded.
func (d *DaemonState) AddWarning(timestamp, message string) {
	d.Warnings = append(d.Warnings, Warning{Timestamp: timestamp, Message: message})
	if len(d.Warnings) > MaxWarnings {
		d.Warnings = d.Warnings[len(d.Warnings)-MaxWarnings:]
	}
}

// Milestone is one append-only entry in a ShepherdProgress's milestone log.
type Milestone struct {
	Event     MilestoneEvent         `json:"event"`
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// ShepherdProgress is persisted per task as
// STATE/progress/shepherd-<task_id>.json.
type ShepherdProgress struct {
	TaskID        string         `json:"task_id"`
	Issue         int            `json:"issue"`
	Mode          string         `json:"mode,omitempty"`
	StartedAt     string         `json:"started_at"`
	CurrentPhase  string         `json:"current_phase,omitempty"`
	LastHeartbeat string         `json:"last_heartbeat,omitempty"`
	Status        ProgressStatus `json:"status"`
	PRNumber      int            `json:"pr_number,omitempty"`
	PRMerged      bool           `json:"pr_merged,omitempty"`
	BlockedReason string         `json:"blocked_reason,omitempty"`
	Milestones    []Milestone    `json:"milestones"`
}

// HasMilestone reports whether event already appears in the log.
func (p *ShepherdProgress) HasMilestone(event MilestoneEvent) bool {
	for _, m := range p.Milestones {
		if m.Event == event {
			return true
		}
	}
	return false
}

// HealthStatus summarizes pipeline health for the snapshot's computed block.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// MetricEntry is one timestamped sample in HealthMetrics.
type MetricEntry struct {
	Timestamp string  `json:"timestamp"`
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
}

// HealthMetrics is persisted as STATE/health-metrics.json; the core treats it
// as an opaque container with atomic-replace semantics (§3).
type HealthMetrics struct {
	Entries []MetricEntry `json:"entries"`
}

// Alert is one entry in AlertsFile. AckedAt is left empty (and thus omitted)
// until a human acknowledges it, matching the "sparse" shape the original
// dataclass produced for unacknowledged alerts.
type Alert struct {
	ID        string `json:"id"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
	AckedAt   string `json:"acked_at,omitempty"`
}

// AlertsFile is persisted as STATE/alerts.json.
type AlertsFile struct {
	Alerts []Alert `json:"alerts"`
}

// FailingTest is one named test in a BaselineHealth report.
type FailingTest struct {
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
}

// BaselineHealthStatus mirrors the three states loom-baseline-health reports.
type BaselineHealthStatus string

const (
	BaselineHealthy BaselineHealthStatus = "healthy"
	BaselineFailing BaselineHealthStatus = "failing"
	BaselineUnknown BaselineHealthStatus = "unknown"
)

// BaselineHealth is persisted as STATE/baseline-health.json.
type BaselineHealth struct {
	Status       BaselineHealthStatus `json:"status"`
	FailingTests []FailingTest        `json:"failing_tests,omitempty"`
	Issue        string               `json:"issue,omitempty"`
	ReportedAt   string               `json:"reported_at"`
	TTLSeconds   int                  `json:"ttl_seconds,omitempty"`
	MainCommit   string               `json:"main_commit,omitempty"`
}

// StuckEntry records one detected stuck-agent event.
type StuckEntry struct {
	Timestamp string `json:"timestamp"`
	Issue     int    `json:"issue,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// StuckHistory is persisted as STATE/stuck-history.json.
type StuckHistory struct {
	Entries []StuckEntry `json:"entries"`
}
