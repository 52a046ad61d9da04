// Package pipeline is the workflow execution core: an ordered list of
// idempotent steps sharing one mutable per-module state, with early-exit
// semantics on up-to-date, failure, and operator-declined results.
// Commands are recipes: specific combinations of steps over the same
// engine.
package pipeline

import (
	"context"
	"fmt"

	"github.com/gnzdotmx/depflow/internal/advisor"
	"github.com/gnzdotmx/depflow/internal/config"
)

// Status is the result status of a pipeline step.
type Status string

const (
	// StatusSuccess means the step did its work; the pipeline continues.
	StatusSuccess Status = "success"
	// StatusSkip means the step intentionally bypassed its phase; the
	// pipeline continues.
	StatusSkip Status = "skip"
	// StatusFail means the step failed; the pipeline stops.
	StatusFail Status = "fail"
	// StatusUpToDate means there is nothing to do for this module; the
	// pipeline stops without error.
	StatusUpToDate Status = "up-to-date"
	// StatusUserDeclined means the operator declined a confirmation gate;
	// the pipeline stops, leaving changes uncommitted.
	StatusUserDeclined Status = "user-declined"
)

// Result is what a step reports back to the pipeline.
type Result struct {
	Status   Status
	Metadata map[string]interface{}
}

// Context is the mutable state shared by the steps of one module's run.
// Each module gets a fresh Context; steps communicate only through it,
// never by calling each other. Known cross-step values are explicit
// fields; Extra is the open extension map for anything step-specific.
type Context struct {
	Cfg *config.Config

	// UpdatesMade accumulates whether any updater step changed a file.
	UpdatesMade bool

	// ChangeCount and Files are set by the changes-detector step.
	ChangeCount int
	Files       []string

	// Analysis is the advisory verdict, once obtained.
	Analysis *advisor.Analysis

	// NewVersion is the version being cut, in "vX.Y.Z" form, when a tag
	// will be created.
	NewVersion string

	// CommitMessage overrides the advisory suggestion when set.
	CommitMessage string

	// NoTag suppresses tag creation for this module's commit.
	NoTag bool

	// TagOnly marks a release repair run: only the missing tag is
	// created, nothing is committed.
	TagOnly bool

	// EnsureTag requests that the current changelog head version gets a
	// tag if it is missing.
	EnsureTag bool

	// DockerUpdates holds human-readable image update descriptions for
	// the docker commit step.
	DockerUpdates []string

	// Extra carries step-specific values with no known consumer.
	Extra map[string]interface{}
}

// NewContext returns a fresh per-module context for one pipeline run.
func NewContext(cfg *config.Config) *Context {
	return &Context{Cfg: cfg, Extra: make(map[string]interface{})}
}

// Step is one unit of work over a module. Implementations read and write
// the shared Context but never invoke other steps.
type Step interface {
	// Name returns the step's identifier for logs and errors.
	Name() string

	// Run executes the step against the module at modulePath.
	Run(ctx context.Context, modulePath string, state *Context) (Result, error)
}

// Pipeline executes a sequence of steps, stopping early on terminal
// statuses.
type Pipeline struct {
	steps []Step
}

// New creates a pipeline from an ordered list of steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Run executes all steps in order against one module. Success and Skip
// continue to the next step; UpToDate, Fail and UserDeclined return
// immediately. A step error is a failure and stops the run. With a nil
// state a fresh Context is created.
func (p *Pipeline) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	if state == nil {
		state = NewContext(config.New())
	}

	last := Result{Status: StatusSuccess}
	for _, step := range p.steps {
		result, err := step.Run(ctx, modulePath, state)
		if err != nil {
			return Result{Status: StatusFail}, fmt.Errorf("step %s: %w", step.Name(), err)
		}
		last = result

		switch result.Status {
		case StatusUpToDate, StatusFail, StatusUserDeclined:
			return result, nil
		}
	}
	return last, nil
}
