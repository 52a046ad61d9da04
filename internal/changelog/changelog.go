// Package changelog parses and mutates per-module CHANGELOG.md files and
// implements the semantic version arithmetic behind version bumps.
//
// A changelog is Markdown with an optional "## Unreleased" section followed
// by released sections headed "## vMAJOR.MINOR.PATCH", newest first. Bullets
// are "- " lines between a header and the next "## " line or end of file.
package changelog

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrNoChangelog is returned when CHANGELOG.md does not exist.
	ErrNoChangelog = errors.New("CHANGELOG.md not found")
	// ErrNoVersionHeader is returned when no ## vX.Y.Z header exists.
	ErrNoVersionHeader = errors.New("no version header in CHANGELOG.md")
	// ErrNoUnreleased is returned when a promote finds no ## Unreleased section.
	ErrNoUnreleased = errors.New("no ## Unreleased section in CHANGELOG.md")
)

const unreleasedHeader = "## Unreleased"

var versionHeaderRe = regexp.MustCompile(`##\s+v(\d+)\.(\d+)\.(\d+)`)

// Version is a semantic version triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

// String renders the version in changelog/tag form, e.g. "v1.2.3".
func (v Version) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 comparing v against o component by component.
func (v Version) Compare(o Version) int {
	a := [3]int{v.Major, v.Minor, v.Patch}
	b := [3]int{o.Major, o.Minor, o.Patch}
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// ParseVersion parses "v1.2.3" (or "1.2.3") into a Version.
func ParseVersion(s string) (Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "v")
	parts := strings.Split(trimmed, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version %q", s)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Bump applies a bump kind to a version. Kind must be "major", "minor" or
// "patch"; anything else (including "none") is an error, never a silent
// default. "none" means no version at all and must be filtered out before
// this package is involved.
func Bump(v Version, kind string) (Version, error) {
	switch strings.ToLower(kind) {
	case "major":
		return Version{Major: v.Major + 1}, nil
	case "minor":
		return Version{Major: v.Major, Minor: v.Minor + 1}, nil
	case "patch":
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}, nil
	default:
		return Version{}, fmt.Errorf("invalid bump kind %q: must be major, minor, or patch", kind)
	}
}

func readChangelog(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w at %s", ErrNoChangelog, path)
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// ExtractCurrentVersion returns the version of the first ## vX.Y.Z header
// scanning top to bottom. Since new sections are always inserted at the top
// of the released history, the first header is the most recent release.
func ExtractCurrentVersion(path string) (Version, error) {
	content, err := readChangelog(path)
	if err != nil {
		return Version{}, err
	}

	m := versionHeaderRe.FindStringSubmatch(content)
	if m == nil {
		return Version{}, ErrNoVersionHeader
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// UnreleasedEntries returns the bullet lines of the ## Unreleased section.
// The second return reports whether the section exists at all, so callers
// can tell "no section" apart from "section with no bullets".
func UnreleasedEntries(path string) ([]string, bool, error) {
	content, err := readChangelog(path)
	if err != nil {
		return nil, false, err
	}

	lines := strings.Split(content, "\n")
	inSection := false
	found := false
	var entries []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == unreleasedHeader {
			inSection = true
			found = true
			continue
		}
		if inSection {
			if strings.HasPrefix(trimmed, "## ") {
				break
			}
			if strings.HasPrefix(trimmed, "- ") {
				entries = append(entries, trimmed)
			}
		}
	}

	return entries, found, nil
}

// PromoteUnreleased replaces the ## Unreleased header with ## <version>,
// leaving the bullets and their order untouched. Promotion is how the
// accumulated unreleased bucket becomes the newest release at the top of
// the document.
func PromoteUnreleased(path string, newVersion Version) error {
	content, err := readChangelog(path)
	if err != nil {
		return err
	}

	idx := headerLineIndex(content)
	if idx < 0 {
		return ErrNoUnreleased
	}

	lines := strings.Split(content, "\n")
	lines[idx] = "## " + newVersion.String()
	return writeChangelog(path, strings.Join(lines, "\n"))
}

// AddToUnreleased appends bullets to the ## Unreleased section, creating
// the section immediately before the first versioned section (or at the
// end of the document) if it does not exist. Repeated calls append
// duplicate bullets; the section is an append-only audit trail and is
// never deduplicated here.
func AddToUnreleased(path string, bullets []string) error {
	content, err := readChangelog(path)
	if err != nil {
		return err
	}

	formatted := formatBullets(bullets)
	lines := strings.Split(content, "\n")

	idx := headerLineIndex(content)
	if idx < 0 {
		// No section yet: create one above the released history.
		section := append([]string{unreleasedHeader, ""}, formatted...)
		section = append(section, "")
		insertAt := firstVersionLineIndex(lines)
		if insertAt < 0 {
			insertAt = len(lines)
		}
		lines = insertLines(lines, insertAt, section)
		return writeChangelog(path, strings.Join(lines, "\n"))
	}

	// Section exists: append after its last bullet, before the next header.
	insertAt := idx + 1
	for i := idx + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "## ") {
			break
		}
		if strings.HasPrefix(trimmed, "- ") {
			insertAt = i + 1
		}
	}
	if insertAt == idx+1 && idx+1 < len(lines) && strings.TrimSpace(lines[idx+1]) == "" {
		// Empty section: skip the blank line under the header.
		insertAt = idx + 2
	}
	lines = insertLines(lines, insertAt, formatted)
	return writeChangelog(path, strings.Join(lines, "\n"))
}

// InsertVersionSection inserts a new ## <version> section with the given
// bullets immediately before the first existing versioned section,
// regardless of whether an ## Unreleased section is present. The released
// history stays newest-first by construction.
func InsertVersionSection(path string, version Version, bullets []string) error {
	content, err := readChangelog(path)
	if err != nil {
		return err
	}

	lines := strings.Split(content, "\n")
	section := append([]string{"## " + version.String(), ""}, formatBullets(bullets)...)
	section = append(section, "")

	insertAt := firstVersionLineIndex(lines)
	if insertAt < 0 {
		insertAt = len(lines)
	}
	lines = insertLines(lines, insertAt, section)
	return writeChangelog(path, strings.Join(lines, "\n"))
}

// headerLineIndex returns the line index of the ## Unreleased header, or -1.
func headerLineIndex(content string) int {
	for i, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == unreleasedHeader {
			return i
		}
	}
	return -1
}

// firstVersionLineIndex returns the index of the first ## vX.Y.Z line, or -1.
func firstVersionLineIndex(lines []string) int {
	for i, line := range lines {
		if versionHeaderRe.MatchString(line) && strings.HasPrefix(strings.TrimSpace(line), "## ") {
			return i
		}
	}
	return -1
}

// formatBullets normalizes entries to "- " prefixed lines.
func formatBullets(bullets []string) []string {
	out := make([]string, 0, len(bullets))
	for _, b := range bullets {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		out = append(out, "- "+strings.TrimPrefix(b, "- "))
	}
	return out
}

func insertLines(lines []string, at int, insert []string) []string {
	out := make([]string, 0, len(lines)+len(insert))
	out = append(out, lines[:at]...)
	out = append(out, insert...)
	out = append(out, lines[at:]...)
	return out
}

func writeChangelog(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
