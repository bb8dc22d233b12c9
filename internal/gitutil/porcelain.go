// Package gitutil ports the small slice of git plumbing the core touches
// directly: porcelain status-line parsing and reading the HEAD commit.
// Everything else (committing, branching, merging) belongs to the external
// version-control collaborator named in spec §1's out-of-scope list.
package gitutil

import "strings"

// ParsePorcelainPath extracts the file path from one line of
// `git status --porcelain` output. Rename lines ("R  old -> new") are
// returned with the arrow intact; callers split on " -> " themselves.
func ParsePorcelainPath(line string) string {
	if len(line) < 3 {
		return strings.TrimSpace(line)
	}
	path := strings.TrimLeft(line[3:], " \t")
	if len(path) >= 2 && path[0] == '"' && path[len(path)-1] == '"' {
		path = path[1 : len(path)-1]
	}
	return path
}
