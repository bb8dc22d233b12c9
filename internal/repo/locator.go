// Package repo resolves a Loom repository root and its state directory, per
// §4.A. Unlike the Python original's module-level cache, the result is
// memoized on an explicit Locator value rather than a process global — see
// DESIGN.md's internal/repo section.
package repo

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no ancestor directory both contains a .git
// entry and a .loom/ directory.
var ErrNotFound = errors.New("repository-not-found")

// StateDirName is the fixed, repo-relative name of Loom's state directory.
const StateDirName = ".loom"

// Locator resolves and memoizes one repository root. A fresh Locator should
// be constructed per logical process/context rather than shared as a
// package-level singleton.
type Locator struct {
	root string
}

// Root walks upward from start (or the current working directory if start
// is empty) until it finds a directory containing both a .git entry and a
// .loom/ directory. The result is memoized on this Locator.
func (l *Locator) Root(start string) (string, error) {
	if l.root != "" {
		return l.root, nil
	}
	dir := start
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("repo: getwd: %w", err)
		}
		dir = cwd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("repo: %w", err)
	}

	for {
		gitPath := filepath.Join(dir, ".git")
		info, statErr := os.Lstat(gitPath)
		if statErr == nil {
			root := dir
			if !info.IsDir() {
				resolved, err := resolveGitdirFile(gitPath)
				if err == nil {
					root = filepath.Dir(nearestDotGitAncestor(resolved))
				}
			}
			if isLoomRepo(root) {
				l.root = root
				return root, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ErrNotFound
}

// StateDir returns the .loom/ directory under the resolved root.
func (l *Locator) StateDir(start string) (string, error) {
	root, err := l.Root(start)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, StateDirName), nil
}

func isLoomRepo(root string) bool {
	info, err := os.Stat(filepath.Join(root, StateDirName))
	return err == nil && info.IsDir()
}

// resolveGitdirFile reads a worktree's ".git" file, which contains a single
// line "gitdir: <path>", and returns the pointed-to directory.
func resolveGitdirFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "gitdir:") {
			target := strings.TrimSpace(strings.TrimPrefix(line, "gitdir:"))
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(path), target)
			}
			return filepath.Clean(target), nil
		}
	}
	return "", fmt.Errorf("repo: no gitdir: line in %s", path)
}

// nearestDotGitAncestor walks up from dir until it finds an ancestor named
// ".git", returning that ancestor. Worktree gitdirs resolve to something
// like "<root>/.git/worktrees/<name>"; the repository root is the directory
// above the nearest ".git" in that chain.
func nearestDotGitAncestor(dir string) string {
	for {
		if filepath.Base(dir) == ".git" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
