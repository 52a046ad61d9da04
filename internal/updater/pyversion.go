package updater

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gnzdotmx/depflow/internal/utils"
)

var requiresPythonRe = regexp.MustCompile(`requires-python\s*=\s*">=\d+\.\d+"`)

// UpdatePythonVersionFile rewrites .python-version to the new minor.
func UpdatePythonVersionFile(modulePath, newVersion string) (bool, error) {
	path := filepath.Join(modulePath, ".python-version")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	current := strings.TrimSpace(string(data))
	if current == newVersion {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(newVersion+"\n"), 0644); err != nil {
		return false, err
	}
	utils.LogInfo("  Updated .python-version: %s", newVersion)
	return true, nil
}

// UpdatePyprojectPython rewrites the requires-python floor in
// pyproject.toml.
func UpdatePyprojectPython(modulePath, newVersion string) (bool, error) {
	path := filepath.Join(modulePath, "pyproject.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	updated := requiresPythonRe.ReplaceAllString(string(data), `requires-python = ">=`+newVersion+`"`)
	if updated == string(data) {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return false, err
	}
	utils.LogInfo("  Updated pyproject.toml: requires-python >=%s", newVersion)
	return true, nil
}
