// Package statestore implements §4.B: typed, atomic-replace JSON file
// access over the .loom/ state directory. Readers never fail a tick; any
// missing, empty, or malformed file decodes to the caller's default.
package statestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"github.com/rjwalters/loom-sub003/internal/model"
)

// Store is typed read/write access rooted at one .loom/ state directory.
type Store struct {
	dir string
}

// New returns a Store rooted at stateDir (normally "<repo>/.loom").
func New(stateDir string) *Store {
	return &Store{dir: stateDir}
}

// Dir returns the root state directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(rel string) string {
	return filepath.Join(s.dir, rel)
}

// ReadRaw reads and parses path as a generic JSON value. Any of: the file
// missing, empty, whitespace-only, or invalid JSON, is not an error — it
// yields nil so the caller can substitute its own default.
func ReadRaw(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, nil
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, nil
	}
	return v, nil
}

// WriteRaw writes v to path with two-space indent and a trailing newline,
// via a temp file in the same directory followed by an atomic rename. The
// temp file is removed on any failure.
func WriteRaw(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("statestore: mkdir: %w", err)
	}
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("statestore: marshal: %w", err)
	}
	encoded = append(encoded, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("statestore: create temp: %w", err)
	}
	tmpName := tmp.Name()
	writeErr := func() error {
		if _, err := tmp.Write(encoded); err != nil {
			return err
		}
		return tmp.Close()
	}()
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("statestore: write temp: %w", writeErr)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("statestore: replace: %w", err)
	}
	return nil
}

// readTyped decodes path into dst via JSON, leaving dst untouched (at its
// zero value) on any failure — missing file, unreadable, or shape mismatch.
func readTyped(path string, dst interface{}) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return
	}
	_ = json.Unmarshal(data, dst)
}

// DaemonState reads STATE/daemon-state.json, defaulting to a fresh state
// with the given session id when no usable file exists.
func (s *Store) DaemonState(sessionID string) *model.DaemonState {
	state := model.NewDaemonState(sessionID)
	readTyped(s.path("daemon-state.json"), state)
	if state.Shepherds == nil {
		state.Shepherds = map[string]*model.ShepherdEntry{}
	}
	if state.SupportRoles == nil {
		state.SupportRoles = map[string]*model.SupportRoleEntry{}
	}
	return state
}

// WriteDaemonState atomically replaces daemon-state.json while holding an
// advisory lock, so two writers never replace the file at the same time.
// Only the write is under the lock; a caller's preceding DaemonState read
// is not.
func (s *Store) WriteDaemonState(state *model.DaemonState) error {
	return s.withLock("daemon-state.lock", func() error {
		return WriteRaw(s.path("daemon-state.json"), state)
	})
}

func (s *Store) withLock(lockName string, fn func() error) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("statestore: mkdir: %w", err)
	}
	lock := flock.New(s.path(lockName))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("statestore: lock %s: %w", lockName, err)
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

// ProgressPath returns the path for a shepherd's progress file.
func (s *Store) ProgressPath(taskID string) string {
	return s.path(filepath.Join("progress", "shepherd-"+taskID+".json"))
}

// ReadProgress loads one shepherd's progress file, or nil if absent/invalid.
func (s *Store) ReadProgress(taskID string) *model.ShepherdProgress {
	var p model.ShepherdProgress
	path := s.ProgressPath(taskID)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	readTyped(path, &p)
	if p.TaskID == "" {
		return nil
	}
	return &p
}

// WriteProgress atomically replaces a shepherd's progress file.
func (s *Store) WriteProgress(p *model.ShepherdProgress) error {
	return WriteRaw(s.ProgressPath(p.TaskID), p)
}

// DeleteProgress removes a shepherd's progress file; used by the
// post-completion cleanup collaborator. Missing files are not an error.
func (s *Store) DeleteProgress(taskID string) error {
	if err := os.Remove(s.ProgressPath(taskID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReadAllProgress loads every progress/shepherd-*.json file in sorted
// filename order.
func (s *Store) ReadAllProgress() []*model.ShepherdProgress {
	dir := s.path("progress")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "shepherd-") && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	results := make([]*model.ShepherdProgress, 0, len(names))
	for _, name := range names {
		var p model.ShepherdProgress
		readTyped(filepath.Join(dir, name), &p)
		if p.TaskID != "" {
			results = append(results, &p)
		}
	}
	return results
}

// HealthMetrics reads STATE/health-metrics.json, defaulting to empty.
func (s *Store) HealthMetrics() *model.HealthMetrics {
	m := &model.HealthMetrics{}
	readTyped(s.path("health-metrics.json"), m)
	return m
}

// WriteHealthMetrics atomically replaces health-metrics.json.
func (s *Store) WriteHealthMetrics(m *model.HealthMetrics) error {
	return WriteRaw(s.path("health-metrics.json"), m)
}

// Alerts reads STATE/alerts.json, defaulting to empty.
func (s *Store) Alerts() *model.AlertsFile {
	a := &model.AlertsFile{}
	readTyped(s.path("alerts.json"), a)
	return a
}

// WriteAlerts atomically replaces alerts.json.
func (s *Store) WriteAlerts(a *model.AlertsFile) error {
	return WriteRaw(s.path("alerts.json"), a)
}

// BaselineHealth reads STATE/baseline-health.json, defaulting to unknown.
func (s *Store) BaselineHealth() *model.BaselineHealth {
	b := &model.BaselineHealth{Status: model.BaselineUnknown}
	readTyped(s.path("baseline-health.json"), b)
	return b
}

// WriteBaselineHealth atomically replaces baseline-health.json.
func (s *Store) WriteBaselineHealth(b *model.BaselineHealth) error {
	return WriteRaw(s.path("baseline-health.json"), b)
}

// StuckHistory reads STATE/stuck-history.json, defaulting to empty.
func (s *Store) StuckHistory() *model.StuckHistory {
	h := &model.StuckHistory{}
	readTyped(s.path("stuck-history.json"), h)
	return h
}

// WriteStuckHistory atomically replaces stuck-history.json.
func (s *Store) WriteStuckHistory(h *model.StuckHistory) error {
	return WriteRaw(s.path("stuck-history.json"), h)
}
