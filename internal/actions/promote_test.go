package actions

import (
	"testing"

	"github.com/rjwalters/loom-sub003/internal/logging"
	"github.com/rjwalters/loom-sub003/internal/platform"
)

func newTestClient(runner func(name string, args ...string) ([]byte, error)) *platform.Client {
	return platform.NewTestClient("gh", runner)
}

func TestPromoteProposalsRemovesLabelsAndAddsIssue(t *testing.T) {
	var editCalls [][]string
	client := newTestClient(func(name string, args ...string) ([]byte, error) {
		switch args[1] {
		case "view":
			return []byte(`{"labels":[{"name":"loom:architect"}]}`), nil
		case "edit":
			editCalls = append(editCalls, args)
			return nil, nil
		case "comment":
			return nil, nil
		}
		return nil, nil
	})

	log := logging.New()
	got := PromoteProposals(client, log, []int{7})
	if got != 1 {
		t.Fatalf("PromoteProposals() = %d, want 1", got)
	}
	if len(editCalls) != 1 {
		t.Fatalf("expected one edit call, got %d", len(editCalls))
	}
}

func TestPromoteProposalsSkipsIssueWithoutProposalLabel(t *testing.T) {
	client := newTestClient(func(name string, args ...string) ([]byte, error) {
		if args[1] == "view" {
			return []byte(`{"labels":[{"name":"loom:issue"}]}`), nil
		}
		return nil, nil
	})

	log := logging.New()
	got := PromoteProposals(client, log, []int{7})
	if got != 0 {
		t.Errorf("PromoteProposals() = %d, want 0", got)
	}
}
