// Package discover locates updatable modules under one or more roots and
// orders them so shared library modules are processed before the services
// that depend on them.
package discover

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind classifies a module by its ecosystem marker files.
type Kind string

const (
	// KindGo is a directory containing go.mod.
	KindGo Kind = "go"
	// KindPython is a directory containing pyproject.toml and uv.lock.
	KindPython Kind = "python"
	// KindDocker is a directory with a Dockerfile and no Go/Python markers.
	KindDocker Kind = "docker"
	// KindLegacyPython is a pre-uv Python project; reported but not processed.
	KindLegacyPython Kind = "legacy-python"
)

// Module is one discovered module directory.
type Module struct {
	Path string
	Kind Kind
}

// Name returns the directory base name for display.
func (m Module) Name() string {
	return filepath.Base(m.Path)
}

// Directory segments never descended into during discovery.
var excludedDirs = map[string]bool{
	"vendor":       true,
	".venv":        true,
	"node_modules": true,
	".git":         true,
}

// sortKey is an alternating sequence of priority-band and path-segment
// elements, compared lexicographically. At every directory level a segment
// named "lib" gets band 0, a leaf segment band 1, and a directory to recurse
// into band 2, so "{dir}/lib/**" sorts before "{dir}/**" locally, at each
// level independently, with alphabetical order inside a band.
type sortKey []string

func makeSortKey(modulePath, root string) sortKey {
	rel, err := filepath.Rel(root, modulePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		// Paths that escape the root never crash discovery; they just sort last.
		return sortKey{"9", modulePath}
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	key := make(sortKey, 0, 2*len(parts))
	for i, part := range parts {
		switch {
		case part == "lib":
			key = append(key, "0", part)
		case i == len(parts)-1:
			key = append(key, "1", part)
		default:
			key = append(key, "2", part)
		}
	}
	return key
}

func (k sortKey) less(o sortKey) bool {
	for i := 0; i < len(k) && i < len(o); i++ {
		if k[i] != o[i] {
			return k[i] < o[i]
		}
	}
	return len(k) < len(o)
}

// Modules discovers every module under root. With recursive set, the whole
// tree is walked and the result is ordered lib-first at every level;
// otherwise only immediate children are checked, in plain alphabetical
// order. Unreadable entries are skipped, never fatal. An empty result is a
// valid outcome meaning there is nothing to do.
func Modules(root string, recursive bool) []Module {
	if !recursive {
		return directChildren(root)
	}

	var modules []Module
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !d.IsDir() {
			return nil
		}
		if excludedDirs[d.Name()] && path != root {
			return filepath.SkipDir
		}
		if kind, ok := Classify(path); ok {
			modules = append(modules, Module{Path: path, Kind: kind})
		}
		return nil
	})

	modules = dedupe(modules)
	sort.SliceStable(modules, func(i, j int) bool {
		return makeSortKey(modules[i].Path, root).less(makeSortKey(modules[j].Path, root))
	})
	return modules
}

// directChildren returns modules among the immediate children of root,
// alphabetically. The lib-first rule only applies to recursive discovery.
func directChildren(root string) []Module {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var modules []Module
	for _, e := range entries {
		if !e.IsDir() || excludedDirs[e.Name()] {
			continue
		}
		path := filepath.Join(root, e.Name())
		if kind, ok := Classify(path); ok {
			modules = append(modules, Module{Path: path, Kind: kind})
		}
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].Path < modules[j].Path })
	return dedupe(modules)
}

// Classify reports the module kind of a directory, if it is one.
func Classify(dir string) (Kind, bool) {
	switch {
	case exists(filepath.Join(dir, "go.mod")):
		return KindGo, true
	case exists(filepath.Join(dir, "pyproject.toml")) && exists(filepath.Join(dir, "uv.lock")):
		return KindPython, true
	case isLegacyPython(dir):
		return KindLegacyPython, true
	case exists(filepath.Join(dir, "Dockerfile")):
		return KindDocker, true
	default:
		return "", false
	}
}

// isLegacyPython detects pre-uv Python projects: requirements.txt without
// uv.lock, or setup.py without pyproject.toml.
func isLegacyPython(dir string) bool {
	hasRequirements := exists(filepath.Join(dir, "requirements.txt"))
	hasSetupPy := exists(filepath.Join(dir, "setup.py"))
	hasPyproject := exists(filepath.Join(dir, "pyproject.toml"))
	hasUvLock := exists(filepath.Join(dir, "uv.lock"))

	if hasPyproject && hasUvLock {
		return false
	}
	return (hasRequirements && !hasUvLock) || (hasSetupPy && !hasPyproject)
}

// dedupe removes repeated paths, keeping first-seen order.
func dedupe(modules []Module) []Module {
	seen := make(map[string]bool, len(modules))
	out := modules[:0]
	for _, m := range modules {
		if seen[m.Path] {
			continue
		}
		seen[m.Path] = true
		out = append(out, m)
	}
	return out
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
