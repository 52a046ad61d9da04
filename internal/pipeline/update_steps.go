package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/gnzdotmx/depflow/internal/gitops"
	"github.com/gnzdotmx/depflow/internal/registry"
	"github.com/gnzdotmx/depflow/internal/updater"
	"github.com/gnzdotmx/depflow/internal/utils"
)

// changedFileLines caps the changed-file listing printed per module.
const changedFileLines = 20

// GoRuntimeStep brings a Go module's toolchain pins (go.mod, Dockerfile
// base images, workflow go-version lines) up to the latest published
// releases.
type GoRuntimeStep struct {
	Registry *registry.Client
}

func (s *GoRuntimeStep) Name() string { return "go-runtime-update" }

func (s *GoRuntimeStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	changed, err := updater.UpdateGoRuntime(ctx, s.Registry, modulePath)
	if err != nil {
		return Result{}, err
	}
	state.UpdatesMade = state.UpdatesMade || changed
	return Result{Status: StatusSuccess}, nil
}

// GoExcludesStep applies the fleet-standard go.mod exclude and replace
// directives before dependencies are refreshed, so `go get -u` never
// resolves into a known-broken version.
type GoExcludesStep struct{}

func (s *GoExcludesStep) Name() string { return "go-excludes" }

func (s *GoExcludesStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	changed, err := updater.ApplyGoModExcludes(modulePath)
	if err != nil {
		return Result{}, err
	}
	state.UpdatesMade = state.UpdatesMade || changed
	return Result{Status: StatusSuccess}, nil
}

// GoDepUpdateStep refreshes a Go module's dependency graph.
type GoDepUpdateStep struct{}

func (s *GoDepUpdateStep) Name() string { return "go-dep-update" }

func (s *GoDepUpdateStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	changed, err := updater.UpdateGoDependencies(ctx, modulePath)
	if err != nil {
		return Result{}, err
	}
	state.UpdatesMade = state.UpdatesMade || changed
	return Result{Status: StatusSuccess}, nil
}

// DepSkipStep takes the place of a dependency update step when the
// operator asked for version-pin updates only. It reports Skip so the
// pipeline moves on to change detection with whatever the runtime steps
// produced.
type DepSkipStep struct{}

func (s *DepSkipStep) Name() string { return "dep-update-skip" }

func (s *DepSkipStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	utils.LogVerbose("Skipping dependency updates for %s", modulePath)
	return Result{Status: StatusSkip}, nil
}

// PythonRuntimeStep pins a Python module's interpreter version across
// .python-version, pyproject.toml and Dockerfiles.
type PythonRuntimeStep struct {
	Registry *registry.Client
}

func (s *PythonRuntimeStep) Name() string { return "python-runtime-update" }

func (s *PythonRuntimeStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	changed, err := updater.UpdatePythonRuntime(ctx, s.Registry, modulePath)
	if err != nil {
		return Result{}, err
	}
	state.UpdatesMade = state.UpdatesMade || changed
	return Result{Status: StatusSuccess}, nil
}

// PythonDepUpdateStep refreshes a Python module's locked dependencies.
type PythonDepUpdateStep struct{}

func (s *PythonDepUpdateStep) Name() string { return "python-dep-update" }

func (s *PythonDepUpdateStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	changed, err := updater.UpdatePythonDependencies(ctx, modulePath)
	if err != nil {
		return Result{}, err
	}
	state.UpdatesMade = state.UpdatesMade || changed
	return Result{Status: StatusSuccess}, nil
}

// CheckChangesStep inspects the working tree scoped to the module. With
// no changes it short-circuits the pipeline as up to date; otherwise it
// records the change count and a condensed file listing on the context.
type CheckChangesStep struct{}

func (s *CheckChangesStep) Name() string { return "check-changes" }

func (s *CheckChangesStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	count, files, err := gitops.Status(ctx, modulePath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to check working tree: %w", err)
	}
	if count == 0 {
		utils.LogInfo("Already up to date: %s", modulePath)
		return Result{Status: StatusUpToDate}, nil
	}

	state.ChangeCount = count
	state.Files = files

	utils.LogInfo("%d changed file(s) in %s:", count, modulePath)
	lines := utils.CondenseFileList(files)
	if len(lines) > changedFileLines {
		lines = append(lines[:changedFileLines], fmt.Sprintf("... and %d more", len(lines)-changedFileLines))
	}
	for _, line := range lines {
		utils.LogPlain("  %s", line)
	}
	return Result{Status: StatusSuccess}, nil
}

// PrecommitStep runs the module's precommit target when one exists.
// A precommit failure fails the pipeline so broken trees never reach
// the commit phase.
type PrecommitStep struct{}

func (s *PrecommitStep) Name() string { return "precommit" }

func (s *PrecommitStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	if err := updater.RunPrecommit(ctx, modulePath); err != nil {
		return Result{}, fmt.Errorf("precommit failed: %w", err)
	}
	return Result{Status: StatusSuccess}, nil
}

// ConfirmStep is the operator gate before anything is committed. When
// confirmation is disabled it passes through; a declined prompt stops
// the pipeline with UserDeclined, leaving the tree as the updaters left
// it.
type ConfirmStep struct {
	// Question overrides the default prompt text.
	Question string
}

func (s *ConfirmStep) Name() string { return "confirm" }

func (s *ConfirmStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	if state.Cfg != nil && !state.Cfg.RequireConfirm {
		return Result{Status: StatusSuccess}, nil
	}

	question := s.Question
	if question == "" {
		question = fmt.Sprintf("Commit changes to %s?", modulePath)
	}
	if state.NewVersion != "" {
		question = strings.TrimSuffix(question, "?") + fmt.Sprintf(" as %s?", state.NewVersion)
	}
	if !utils.PromptYesNo(question, true) {
		utils.LogWarning("Declined; leaving %s uncommitted", modulePath)
		return Result{Status: StatusUserDeclined}, nil
	}
	return Result{Status: StatusSuccess}, nil
}
