package utils

import (
	"fmt"
	"sort"
	"strings"
)

// CondenseFileList collapses a list of changed files so that directories
// with many entries are reported as "dir/ (N files)" instead of one line
// per file. Top-level files and single-file directories are kept as-is.
// Order is alphabetical.
func CondenseFileList(files []string) []string {
	perDir := make(map[string][]string)
	var topLevel []string

	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if idx := strings.IndexByte(f, '/'); idx > 0 {
			dir := f[:idx+1]
			perDir[dir] = append(perDir[dir], f)
		} else {
			topLevel = append(topLevel, f)
		}
	}

	condensed := make([]string, 0, len(topLevel)+len(perDir))
	condensed = append(condensed, topLevel...)
	for dir, entries := range perDir {
		if len(entries) == 1 {
			condensed = append(condensed, entries[0])
		} else {
			condensed = append(condensed, fmt.Sprintf("%s (%d files)", dir, len(entries)))
		}
	}

	sort.Strings(condensed)
	return condensed
}
