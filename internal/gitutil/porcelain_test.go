package gitutil

import "testing"

func TestParsePorcelainPath(t *testing.T) {
	cases := map[string]string{
		" M path/to/file":                "path/to/file",
		"A  path/to/file":                "path/to/file",
		"?? path/to/file":                "path/to/file",
		` M "path with spaces/file"`:     "path with spaces/file",
		"R  old -> new":                  "old -> new",
		"M ":                             "M",
		" M  path/to/file":               "path/to/file",
		" D path/to/deleted":             "path/to/deleted",
		"MM path/to/file":                "path/to/file",
		"":                                "",
		"M  ":                            "",
		"?? a/b/c/d/e/file.txt":          "a/b/c/d/e/file.txt",
		"?? .loom/daemon-state.json":     ".loom/daemon-state.json",
		` M "path/with\"quotes/file"`:    `path/with\"quotes/file`,
	}
	for in, want := range cases {
		if got := ParsePorcelainPath(in); got != want {
			t.Errorf("ParsePorcelainPath(%q) = %q, want %q", in, got, want)
		}
	}
}
