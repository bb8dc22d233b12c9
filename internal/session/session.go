// Package session supervises worker sessions inside a terminal multiplexer
// (§4.D). Every operation absorbs CLI failures into a conservative default;
// the supervisor never blocks longer than the length of one invocation.
package session

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// Socket is the named multiplexer socket shared across all Loom-managed
// sessions, matching the teacher repo's convention of a fixed server name
// rather than the default socket.
const Socket = "loom"

// ProcessingIndicator is the substring Claude Code's status bar shows while
// actively working; its presence in a captured pane means the agent is live
// rather than idle.
const ProcessingIndicator = "esc to interrupt"

// Session manages one named terminal-multiplexer session.
type Session struct {
	Name   string
	socket string
	run    func(args ...string) (stdout string, exitCode int)
}

// New returns a Session named name on the shared Loom socket.
func New(name string) *Session {
	s := &Session{Name: name, socket: Socket}
	s.run = s.execTmux
	return s
}

func (s *Session) execTmux(args ...string) (string, int) {
	full := append([]string{"-L", s.socket}, args...)
	cmd := exec.Command("tmux", full...)
	out, err := cmd.Output()
	if err == nil {
		return string(out), 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return string(out), exitErr.ExitCode()
	}
	return "", -1
}

// Start launches a new detached session running command in workDir,
// replacing any session already using this name. The command runs inside
// a login shell so pipelines and redirection (e.g. writing an output log)
// work as written.
func (s *Session) Start(workDir, command string) error {
	if s.Exists() {
		s.Kill()
	}
	_, code := s.run("new-session", "-d", "-s", s.Name, "-c", workDir, "bash", "-lc", command)
	if code != 0 {
		return fmt.Errorf("session: failed to start %s", s.Name)
	}
	return nil
}

// Exists reports whether the session is currently running.
func (s *Session) Exists() bool {
	_, code := s.run("has-session", "-t", s.Name)
	return code == 0
}

// CapturePane returns the visible pane content, or "" on failure.
func (s *Session) CapturePane() string {
	out, code := s.run("capture-pane", "-t", s.Name, "-p")
	if code != 0 {
		return ""
	}
	return out
}

// CaptureScrollback returns the last n lines of scrollback (including
// history), or "" on failure.
func (s *Session) CaptureScrollback(n int) string {
	out, code := s.run("capture-pane", "-t", s.Name, "-p", "-S", "-"+strconv.Itoa(n))
	if code != 0 {
		return ""
	}
	return out
}

// IsProcessing reports whether the visible pane shows Claude Code's
// actively-processing indicator.
func (s *Session) IsProcessing() bool {
	return strings.Contains(s.CapturePane(), ProcessingIndicator)
}

// SendKeys sends keys (and any tmux send-keys modifiers, e.g. "Enter") to
// the session. Returns false on failure.
func (s *Session) SendKeys(keys string, modifiers ...string) bool {
	args := append([]string{"send-keys", "-t", s.Name, keys}, modifiers...)
	_, code := s.run(args...)
	return code == 0
}

// Kill terminates the session. Best-effort: always reports success, since
// the underlying tmux error on an already-gone session is not actionable.
func (s *Session) Kill() bool {
	s.run("kill-session", "-t", s.Name)
	return true
}

// GetShellPID returns the PID of the session's first pane's shell, or ""
// if the session doesn't exist or the PID can't be determined.
func (s *Session) GetShellPID() string {
	out, code := s.run("list-panes", "-t", s.Name, "-F", "#{pane_pid}")
	if code != 0 {
		return ""
	}
	line := strings.TrimSpace(out)
	if line == "" {
		return ""
	}
	return strings.SplitN(line, "\n", 2)[0]
}

// IsShellAlive reports whether the session's shell process still exists,
// via a zero-signal liveness probe (kill(pid, 0)).
func (s *Session) IsShellAlive() bool {
	pidStr := s.GetShellPID()
	if pidStr == "" {
		return false
	}
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return false
	}
	return unix.Kill(pid, 0) == nil
}

// GetSessionAge returns the session's age in seconds since creation, or -1
// if the session doesn't exist or its age can't be determined.
func (s *Session) GetSessionAge() int {
	out, code := s.run("display-message", "-t", s.Name, "-p", "#{session_created}")
	if code != 0 || strings.TrimSpace(out) == "" {
		return -1
	}
	createdAt, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil || createdAt == 0 {
		return -1
	}
	return int(time.Now().Unix() - createdAt)
}
