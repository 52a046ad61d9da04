package updater

import (
	"context"

	"github.com/gnzdotmx/depflow/internal/registry"
	"github.com/gnzdotmx/depflow/internal/utils"
)

// UpdateGoRuntime refreshes the Go and Alpine runtime pins of a module:
// go.mod, Dockerfile base images and CI workflow go-version entries.
// Registry lookup failures are soft misses; the affected runtime is left
// alone and the run continues.
func UpdateGoRuntime(ctx context.Context, reg *registry.Client, modulePath string) (bool, error) {
	anyUpdates := false

	latestGo, err := reg.LatestGoVersion(ctx)
	if err != nil {
		utils.LogWarning("Could not fetch latest Go version: %v", err)
	} else {
		utils.LogVerbose("Latest golang: %s", latestGo)
		for _, apply := range []func(string, string) (bool, error){
			UpdateGoModVersion,
			UpdateDockerfileGolang,
			UpdateWorkflowsGoVersion,
		} {
			changed, err := apply(modulePath, latestGo)
			if err != nil {
				return anyUpdates, err
			}
			anyUpdates = anyUpdates || changed
		}
	}

	latestAlpine, err := reg.LatestAlpineVersion(ctx)
	if err != nil {
		utils.LogWarning("Could not fetch latest Alpine version: %v", err)
	} else {
		utils.LogVerbose("Latest alpine: %s", latestAlpine)
		changed, err := UpdateDockerfileAlpine(modulePath, latestAlpine)
		if err != nil {
			return anyUpdates, err
		}
		anyUpdates = anyUpdates || changed
	}

	return anyUpdates, nil
}

// UpdatePythonRuntime refreshes a Python module's interpreter pins:
// .python-version, pyproject.toml and the Dockerfile base image.
func UpdatePythonRuntime(ctx context.Context, reg *registry.Client, modulePath string) (bool, error) {
	latest, err := reg.LatestPythonVersion(ctx)
	if err != nil {
		utils.LogWarning("Could not fetch latest Python version: %v", err)
		return false, nil
	}
	utils.LogVerbose("Latest python: %s", latest)

	anyUpdates := false
	for _, apply := range []func(string, string) (bool, error){
		UpdatePythonVersionFile,
		UpdatePyprojectPython,
		UpdateDockerfilePython,
	} {
		changed, err := apply(modulePath, latest)
		if err != nil {
			return anyUpdates, err
		}
		anyUpdates = anyUpdates || changed
	}
	return anyUpdates, nil
}
