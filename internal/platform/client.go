// Package platform is a thin abstraction over the hosting-platform CLI
// (§4.C): list/view issues and PRs, edit labels, comment, close, query CI.
// Any non-zero exit from the underlying binary yields the caller's default
// rather than propagating an error, matching §7's TransientIO policy.
package platform

import (
	"bytes"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// EntityType selects issues or pull requests for list/view/edit operations.
type EntityType string

const (
	Issue EntityType = "issue"
	PR    EntityType = "pr"
)

// Client wraps the platform CLI binary (preferring a caching variant named
// "gh-cached" if present on PATH, falling back to "gh").
type Client struct {
	binary  string
	lookPath func(string) (string, error)
	runner   func(name string, args ...string) ([]byte, error)
}

// NewClient resolves the binary once (gh-cached preferred) and returns a
// ready-to-use Client.
func NewClient() *Client {
	c := &Client{lookPath: exec.LookPath}
	c.runner = c.run
	c.binary = c.resolveBinary()
	return c
}

// NewTestClient builds a Client backed by runner instead of a real
// subprocess, for other packages' tests to exercise action code against a
// fake platform CLI without shelling out.
func NewTestClient(binary string, runner func(name string, args ...string) ([]byte, error)) *Client {
	return &Client{binary: binary, runner: runner}
}

func (c *Client) resolveBinary() string {
	if path, err := c.lookPath("gh-cached"); err == nil && path != "" {
		return "gh-cached"
	}
	return "gh"
}

func (c *Client) run(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &bytes.Buffer{}
	err := cmd.Run()
	return stdout.Bytes(), err
}

// ListOptions configures List's query.
type ListOptions struct {
	Labels []string
	State  string // "open" (default), "closed", "all"
	Fields []string
	Search string
	Head   string
	Limit  int
}

var defaultFields = []string{"number", "title", "labels", "state"}

func (c *Client) listArgs(entity EntityType, opts ListOptions) []string {
	fields := opts.Fields
	if len(fields) == 0 {
		fields = defaultFields
	}
	state := opts.State
	if state == "" {
		state = "open"
	}
	args := []string{string(entity), "list", "--json", strings.Join(fields, ","), "--state", state}
	if len(opts.Labels) > 0 {
		args = append(args, "--label", strings.Join(opts.Labels, ","))
	}
	if opts.Search != "" {
		args = append(args, "--search", opts.Search)
	}
	if opts.Head != "" {
		args = append(args, "--head", opts.Head)
	}
	if opts.Limit > 0 {
		args = append(args, "--limit", strconv.Itoa(opts.Limit))
	}
	return args
}

// List returns entities matching opts, or an empty slice on any error.
func (c *Client) List(entity EntityType, opts ListOptions) []map[string]interface{} {
	out, err := c.runner(c.binary, c.listArgs(entity, opts)...)
	if err != nil {
		return nil
	}
	var results []map[string]interface{}
	if err := json.Unmarshal(out, &results); err != nil {
		return nil
	}
	return results
}

// ListParallel runs several List calls concurrently, bounded at 4
// simultaneous invocations, preserving input order in the returned slice.
func (c *Client) ListParallel(entity EntityType, all []ListOptions) [][]map[string]interface{} {
	results := make([][]map[string]interface{}, len(all))
	var g errgroup.Group
	g.SetLimit(4)
	for i, opts := range all {
		i, opts := i, opts
		g.Go(func() error {
			results[i] = c.List(entity, opts)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// View fetches a single entity's fields, or nil on error.
func (c *Client) View(entity EntityType, number int, fields []string) map[string]interface{} {
	if len(fields) == 0 {
		fields = defaultFields
	}
	args := []string{string(entity), "view", strconv.Itoa(number), "--json", strings.Join(fields, ",")}
	out, err := c.runner(c.binary, args...)
	if err != nil {
		return nil
	}
	var result map[string]interface{}
	if err := json.Unmarshal(out, &result); err != nil {
		return nil
	}
	return result
}

// EditLabels adds and removes labels on an entity. Returns false if the CLI
// invocation failed (e.g. lost a claim race). Note: the platform applies
// remove-then-add atomically in one call, which is what makes the
// loom:issue -> loom:building claim swap race-safe (§5).
func (c *Client) EditLabels(entity EntityType, number int, add, remove []string) bool {
	args := []string{string(entity), "edit", strconv.Itoa(number)}
	for _, label := range add {
		args = append(args, "--add-label", label)
	}
	for _, label := range remove {
		args = append(args, "--remove-label", label)
	}
	_, err := c.runner(c.binary, args...)
	return err == nil
}

// Comment posts body on entity number. Returns false on failure.
func (c *Client) Comment(entity EntityType, number int, body string) bool {
	args := []string{string(entity), "comment", strconv.Itoa(number), "--body", body}
	_, err := c.runner(c.binary, args...)
	return err == nil
}

// Close closes entity number. Returns false on failure.
func (c *Client) Close(entity EntityType, number int) bool {
	args := []string{string(entity), "close", strconv.Itoa(number)}
	_, err := c.runner(c.binary, args...)
	return err == nil
}

// MergePR merges PR number, optionally deleting the branch. Returns false
// on failure.
func (c *Client) MergePR(number int, cleanup bool) bool {
	args := []string{"pr", "merge", strconv.Itoa(number), "--merge"}
	if cleanup {
		args = append(args, "--delete-branch")
	}
	_, err := c.runner(c.binary, args...)
	return err == nil
}

// CIStatusResult is the classification returned by DefaultBranchCIStatus.
type CIStatusResult struct {
	Status     string // "passing", "failing", "unknown"
	FailedRuns []string
	TotalRuns  int
	Message    string
}

// DefaultBranchCIStatus fetches the five most recent workflow runs on the
// branch named "main" (the repository's actual default branch is not looked
// up), keeps the first (latest) run per workflow name, and
// classifies the branch as failing if any of those completed with
// conclusion "failure"; otherwise passing. Any I/O error or empty result
// yields "unknown".
func (c *Client) DefaultBranchCIStatus() CIStatusResult {
	out, err := c.runner(c.binary, "run", "list", "--branch", "main", "--limit", "5",
		"--json", "name,conclusion,status,headBranch")
	if err != nil {
		return CIStatusResult{Status: "unknown", Message: "Error checking CI status"}
	}

	var runs []struct {
		Name       string `json:"name"`
		Conclusion string `json:"conclusion"`
		Status     string `json:"status"`
	}
	if err := json.Unmarshal(out, &runs); err != nil || len(runs) == 0 {
		return CIStatusResult{Status: "unknown", Message: "No recent workflow runs found"}
	}

	latestByName := map[string]struct {
		Conclusion string
		Status     string
	}{}
	var order []string
	for _, run := range runs {
		name := run.Name
		if name == "" {
			name = "Unknown"
		}
		if _, seen := latestByName[name]; !seen {
			latestByName[name] = struct {
				Conclusion string
				Status     string
			}{run.Conclusion, run.Status}
			order = append(order, name)
		}
	}

	var failed []string
	for _, name := range order {
		run := latestByName[name]
		if run.Status == "completed" && run.Conclusion == "failure" {
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		return CIStatusResult{
			Status:     "failing",
			FailedRuns: failed,
			TotalRuns:  len(order),
			Message:    "CI failing: " + strconv.Itoa(len(failed)) + " workflow(s) failed on main",
		}
	}
	return CIStatusResult{
		Status:    "passing",
		TotalRuns: len(order),
		Message:   "CI passing on main",
	}
}
