package session

import "testing"

func newFakeSession(fn func(args []string) (string, int)) *Session {
	s := &Session{Name: "loom-issue-42", socket: Socket}
	s.run = func(args ...string) (string, int) { return fn(args) }
	return s
}

func TestExistsTrueOnZeroExit(t *testing.T) {
	s := newFakeSession(func(args []string) (string, int) { return "", 0 })
	if !s.Exists() {
		t.Error("expected Exists() true")
	}
}

func TestExistsFalseOnNonZeroExit(t *testing.T) {
	s := newFakeSession(func(args []string) (string, int) { return "", 1 })
	if s.Exists() {
		t.Error("expected Exists() false")
	}
}

func TestCapturePaneEmptyOnFailure(t *testing.T) {
	s := newFakeSession(func(args []string) (string, int) { return "garbage", 1 })
	if got := s.CapturePane(); got != "" {
		t.Errorf("CapturePane() = %q, want empty on failure", got)
	}
}

func TestStartCreatesNewSessionWhenNoneExists(t *testing.T) {
	var calls [][]string
	s := &Session{Name: "loom-issue-42", socket: Socket}
	s.run = func(args ...string) (string, int) {
		calls = append(calls, args)
		if args[0] == "has-session" {
			return "", 1
		}
		return "", 0
	}

	if err := s.Start("/repo", "echo hi"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %v, want has-session then new-session", calls)
	}
	if calls[1][0] != "new-session" {
		t.Errorf("second call = %v, want new-session", calls[1])
	}
}

func TestStartKillsExistingSessionFirst(t *testing.T) {
	var calls [][]string
	s := &Session{Name: "loom-issue-42", socket: Socket}
	s.run = func(args ...string) (string, int) {
		calls = append(calls, args)
		if args[0] == "has-session" {
			return "", 0
		}
		return "", 0
	}

	if err := s.Start("/repo", "echo hi"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(calls) != 3 || calls[1][0] != "kill-session" || calls[2][0] != "new-session" {
		t.Fatalf("calls = %v, want has-session, kill-session, new-session", calls)
	}
}

func TestStartReturnsErrorOnNonZeroExit(t *testing.T) {
	s := &Session{Name: "loom-issue-42", socket: Socket}
	s.run = func(args ...string) (string, int) {
		if args[0] == "has-session" {
			return "", 1
		}
		return "", 1
	}
	if err := s.Start("/repo", "echo hi"); err == nil {
		t.Error("Start() error = nil, want error on tmux failure")
	}
}

func TestIsProcessingDetectsIndicator(t *testing.T) {
	s := newFakeSession(func(args []string) (string, int) {
		return "Working... (esc to interrupt)", 0
	})
	if !s.IsProcessing() {
		t.Error("expected IsProcessing() true")
	}
}

func TestGetSessionAgeUnknownIsNegativeOne(t *testing.T) {
	s := newFakeSession(func(args []string) (string, int) { return "", 1 })
	if got := s.GetSessionAge(); got != -1 {
		t.Errorf("GetSessionAge() = %d, want -1", got)
	}
}

func TestGetShellPIDEmptyWhenNoSession(t *testing.T) {
	s := newFakeSession(func(args []string) (string, int) { return "", 1 })
	if got := s.GetShellPID(); got != "" {
		t.Errorf("GetShellPID() = %q, want empty", got)
	}
}
