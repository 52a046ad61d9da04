package runner

import (
	"github.com/gnzdotmx/depflow/internal/advisor"
	"github.com/gnzdotmx/depflow/internal/config"
	"github.com/gnzdotmx/depflow/internal/discover"
	"github.com/gnzdotmx/depflow/internal/pipeline"
	"github.com/gnzdotmx/depflow/internal/registry"
)

// Mode selects which pipeline recipe a run assembles per module.
type Mode string

const (
	// ModeUpdate refreshes runtimes and dependencies, then commits.
	ModeUpdate Mode = "update"
	// ModeRelease promotes accumulated Unreleased entries into a version.
	ModeRelease Mode = "release"
	// ModeDocker refreshes standalone Dockerfile base images only.
	ModeDocker Mode = "docker"
)

// BuildPipeline assembles the step sequence for one module. The second
// return value is false when the mode has nothing to do for the module's
// ecosystem (e.g. releasing a Dockerfile-only module).
func BuildPipeline(mode Mode, kind discover.Kind, cfg *config.Config, reg *registry.Client, adv advisor.Service) (*pipeline.Pipeline, bool) {
	switch mode {
	case ModeRelease:
		switch kind {
		case discover.KindGo, discover.KindPython:
			return pipeline.New(
				&pipeline.ReleaseStep{Advisor: adv},
				&pipeline.ConfirmStep{},
				&pipeline.CommitStep{},
				&pipeline.PushStep{},
			), true
		}
		return nil, false

	case ModeDocker:
		if kind != discover.KindDocker {
			return nil, false
		}
		return pipeline.New(
			&pipeline.DockerUpdateStep{Registry: reg},
			&pipeline.CheckChangesStep{},
			&pipeline.ConfirmStep{},
			&pipeline.DockerCommitStep{},
			&pipeline.PushStep{},
		), true

	default: // ModeUpdate
		switch kind {
		case discover.KindGo:
			steps := []pipeline.Step{
				&pipeline.GoRuntimeStep{Registry: reg},
				&pipeline.GoExcludesStep{},
			}
			steps = append(steps, depStep(cfg, &pipeline.GoDepUpdateStep{}))
			steps = append(steps,
				&pipeline.CheckChangesStep{},
				&pipeline.PrecommitStep{},
				&pipeline.ChangelogStep{Advisor: adv},
				&pipeline.ConfirmStep{},
				&pipeline.CommitStep{},
				&pipeline.PushStep{},
			)
			return pipeline.New(steps...), true

		case discover.KindPython:
			steps := []pipeline.Step{&pipeline.PythonRuntimeStep{Registry: reg}}
			steps = append(steps, depStep(cfg, &pipeline.PythonDepUpdateStep{}))
			steps = append(steps,
				&pipeline.CheckChangesStep{},
				&pipeline.PrecommitStep{},
				&pipeline.ChangelogStep{Advisor: adv},
				&pipeline.ConfirmStep{},
				&pipeline.CommitStep{},
				&pipeline.PushStep{},
			)
			return pipeline.New(steps...), true

		case discover.KindDocker:
			return pipeline.New(
				&pipeline.DockerUpdateStep{Registry: reg},
				&pipeline.CheckChangesStep{},
				&pipeline.ConfirmStep{},
				&pipeline.DockerCommitStep{},
				&pipeline.PushStep{},
			), true
		}
		return nil, false
	}
}

// depStep swaps the real dependency update for the skip placeholder when
// dependency refresh is disabled.
func depStep(cfg *config.Config, real pipeline.Step) pipeline.Step {
	if cfg != nil && !cfg.UpdateDeps {
		return &pipeline.DepSkipStep{}
	}
	return real
}
