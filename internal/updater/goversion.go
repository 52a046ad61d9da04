// Package updater performs the mechanical file edits behind an update run:
// runtime version pins in go.mod, Dockerfiles, CI workflows and Python
// version files, plus the dependency-manager command invocations.
package updater

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/mod/modfile"

	"github.com/gnzdotmx/depflow/internal/utils"
)

// UpdateGoModVersion rewrites the go directive in go.mod to newVersion.
// Returns true when the file changed.
func UpdateGoModVersion(modulePath, newVersion string) (bool, error) {
	path := filepath.Join(modulePath, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	f, err := modfile.Parse(path, data, nil)
	if err != nil {
		return false, fmt.Errorf("parsing go.mod: %w", err)
	}

	if f.Go != nil && f.Go.Version == newVersion {
		return false, nil
	}
	if err := f.AddGoStmt(newVersion); err != nil {
		return false, fmt.Errorf("setting go directive: %w", err)
	}

	updated, err := f.Format()
	if err != nil {
		return false, fmt.Errorf("formatting go.mod: %w", err)
	}
	if err := os.WriteFile(path, updated, 0644); err != nil {
		return false, err
	}
	utils.LogInfo("  Updated go.mod: go %s", newVersion)
	return true, nil
}

var workflowGoVersionRe = regexp.MustCompile(`go-version:\s*(['"]?)(\d+\.\d+\.\d+)['"]?`)

// UpdateWorkflowsGoVersion rewrites go-version pins in GitHub Actions
// workflow files, preserving the original quote style. Returns true when
// any file changed.
func UpdateWorkflowsGoVersion(modulePath, newVersion string) (bool, error) {
	workflowsDir := filepath.Join(modulePath, ".github", "workflows")
	entries, err := os.ReadDir(workflowsDir)
	if err != nil {
		return false, nil // no workflows is not an error
	}

	anyUpdated := false
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) != ".yml" && filepath.Ext(name) != ".yaml" {
			continue
		}
		path := filepath.Join(workflowsDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		updated := workflowGoVersionRe.ReplaceAllStringFunc(string(data), func(match string) string {
			quote := workflowGoVersionRe.FindStringSubmatch(match)[1]
			return fmt.Sprintf("go-version: %s%s%s", quote, newVersion, quote)
		})

		if updated != string(data) {
			if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
				return anyUpdated, err
			}
			utils.LogInfo("  Updated %s: go-version: %s", name, newVersion)
			anyUpdated = true
		}
	}
	return anyUpdated, nil
}
