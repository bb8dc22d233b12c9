package logfilter

import (
	"reflect"
	"testing"
)

func TestCleanLineStripsANSI(t *testing.T) {
	got, ok := CleanLine("\x1b[31mhello\x1b[0m")
	if !ok || got != "hello" {
		t.Errorf("CleanLine ansi = (%q, %v), want (hello, true)", got, ok)
	}
}

func TestCleanLineBlankIsSuppressed(t *testing.T) {
	if _, ok := CleanLine("   "); ok {
		t.Error("expected blank line to be suppressed")
	}
}

func TestCleanLineCarriageReturnKeepsLastSegment(t *testing.T) {
	got, ok := CleanLine("progress 10%\rprogress 90%")
	if !ok || got != "progress 90%" {
		t.Errorf("got (%q, %v), want (progress 90%%, true)", got, ok)
	}
}

func TestFilterCollapsesDuplicates(t *testing.T) {
	lines := []string{"working", "working", "working", "done"}
	got := Filter(lines)
	want := []string{"working", "  [repeated 2 more times]", "done"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter() = %v, want %v", got, want)
	}
}

func TestFilterSingleDuplicateUsesSingular(t *testing.T) {
	got := Filter([]string{"a", "a"})
	want := []string{"a", "  [repeated 1 more time]"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter() = %v, want %v", got, want)
	}
}
