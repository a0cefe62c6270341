package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Stdin is the path that stands for standard input.
const Stdin = "-"

// ExpandGlobs expands file paths and glob patterns into a list without
// duplicates. Arguments keep their order and the matches of one pattern are
// sorted. No patterns at all, or "-", selects standard input.
func ExpandGlobs(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return []string{Stdin}, nil
	}

	files := make([]string, 0)
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, pattern := range patterns {
		if pattern == Stdin {
			add(Stdin)
			continue
		}
		if hasGlobMeta(pattern) {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return nil, err
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no matches for pattern %q", pattern)
			}
			sort.Strings(matches)
			for _, match := range matches {
				add(match)
			}
			continue
		}

		if _, err := os.Stat(pattern); err != nil {
			return nil, err
		}
		add(pattern)
	}

	return files, nil
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
