package updater

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gnzdotmx/depflow/internal/utils"
)

// commandTimeout bounds dependency-manager and build invocations. A tool
// that exceeds it surfaces as a normal step failure.
const commandTimeout = 10 * time.Minute

// runCommand executes a command in dir, logging its output at verbose
// level. The command's output is never interpreted; only the exit status
// matters.
func runCommand(ctx context.Context, dir string, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	utils.LogVerbose("Running %s %s", name, strings.Join(args, " "))
	err := cmd.Run()
	if output := strings.TrimSpace(out.String()); output != "" {
		utils.LogDebug("%s", output)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w\n%s", name, strings.Join(args, " "), err, strings.TrimSpace(out.String()))
	}
	return nil
}

// snapshot reads a set of files, keyed by name; missing files read as "".
func snapshot(dir string, names ...string) map[string]string {
	contents := make(map[string]string, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			contents[name] = ""
			continue
		}
		contents[name] = string(data)
	}
	return contents
}

// UpdateGoDependencies refreshes a Go module's dependencies and reports
// whether go.mod or go.sum changed as a result.
func UpdateGoDependencies(ctx context.Context, modulePath string) (bool, error) {
	before := snapshot(modulePath, "go.mod", "go.sum")

	if err := runCommand(ctx, modulePath, "go", "get", "-u", "./..."); err != nil {
		return false, err
	}
	if err := runCommand(ctx, modulePath, "go", "mod", "tidy"); err != nil {
		return false, err
	}

	after := snapshot(modulePath, "go.mod", "go.sum")
	changed := before["go.mod"] != after["go.mod"] || before["go.sum"] != after["go.sum"]
	if changed {
		utils.LogSuccess("  Go dependencies updated")
	} else {
		utils.LogInfo("  Go dependencies are up to date")
	}
	return changed, nil
}

// UpdatePythonDependencies refreshes a uv-managed Python module and
// reports whether uv.lock changed.
func UpdatePythonDependencies(ctx context.Context, modulePath string) (bool, error) {
	if _, err := os.Stat(filepath.Join(modulePath, "pyproject.toml")); err != nil {
		return false, fmt.Errorf("no pyproject.toml in %s", modulePath)
	}

	before := snapshot(modulePath, "uv.lock")
	if err := runCommand(ctx, modulePath, "uv", "sync", "--upgrade"); err != nil {
		return false, err
	}
	after := snapshot(modulePath, "uv.lock")

	changed := before["uv.lock"] != after["uv.lock"]
	if changed {
		utils.LogSuccess("  Python dependencies updated")
	} else {
		utils.LogInfo("  Python dependencies are up to date")
	}
	return changed, nil
}

// RunPrecommit runs the module's `make precommit` target, which is the
// conventional validation and auto-fix hook in the repositories this tool
// manages. Modules without a Makefile skip validation.
func RunPrecommit(ctx context.Context, modulePath string) error {
	if _, err := os.Stat(filepath.Join(modulePath, "Makefile")); err != nil {
		utils.LogVerbose("No Makefile, skipping precommit")
		return nil
	}
	return runCommand(ctx, modulePath, "make", "precommit")
}
