// Package runner drives a whole run: it resolves the module set, keeps
// the backing repositories fresh, executes each module's pipeline behind
// an operator-facing retry loop, and aggregates a categorized summary.
package runner

import (
	"context"
	"errors"

	"github.com/gnzdotmx/depflow/internal/config"
	"github.com/gnzdotmx/depflow/internal/notify"
	"github.com/gnzdotmx/depflow/internal/pipeline"
	"github.com/gnzdotmx/depflow/internal/utils"
)

// Outcome is the per-module result of a run.
type Outcome string

const (
	// OutcomeUpdated means the module's pipeline completed with changes.
	OutcomeUpdated Outcome = "updated"
	// OutcomeUpToDate means there was nothing to do.
	OutcomeUpToDate Outcome = "up-to-date"
	// OutcomeSkipped means the operator declined or abandoned the module.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the module could not be processed at all.
	OutcomeFailed Outcome = "failed"
)

// RunWithRetry executes one module's pipeline, offering the operator a
// skip/retry choice on failure. Retries restart the whole pipeline with
// a fresh context; there is no retry limit. Up-to-date and declined
// terminal statuses map straight to outcomes without a prompt.
func RunWithRetry(ctx context.Context, p *pipeline.Pipeline, cfg *config.Config, modulePath string) Outcome {
	for {
		state := pipeline.NewContext(cfg)
		result, err := p.Run(ctx, modulePath, state)
		if err == nil {
			switch result.Status {
			case pipeline.StatusUpToDate:
				return OutcomeUpToDate
			case pipeline.StatusUserDeclined:
				return OutcomeSkipped
			case pipeline.StatusFail:
				// fall through to the prompt below
			default:
				return OutcomeUpdated
			}
		} else {
			utils.LogError("Module %s failed: %v", modulePath, err)
		}

		notify.Error()
		notify.Interaction()
		if utils.PromptSkipOrRetry() == "skip" {
			utils.LogWarning("Skipping %s", modulePath)
			return OutcomeSkipped
		}
		utils.LogInfo("Retrying %s", modulePath)
	}
}

// Summary aggregates per-module outcomes for the final report.
type Summary struct {
	Updated  []string
	UpToDate []string
	Skipped  []string
	Failed   []string
}

// Add records one module's outcome under its display name.
func (s *Summary) Add(name string, outcome Outcome) {
	switch outcome {
	case OutcomeUpdated:
		s.Updated = append(s.Updated, name)
	case OutcomeUpToDate:
		s.UpToDate = append(s.UpToDate, name)
	case OutcomeSkipped:
		s.Skipped = append(s.Skipped, name)
	case OutcomeFailed:
		s.Failed = append(s.Failed, name)
	}
}

// Total returns the number of modules the summary covers.
func (s *Summary) Total() int {
	return len(s.Updated) + len(s.UpToDate) + len(s.Skipped) + len(s.Failed)
}

// Print writes the categorized report.
func (s *Summary) Print() {
	utils.LogPlain("")
	utils.LogPlain("Summary (%d module(s)):", s.Total())
	printCategory("Updated", s.Updated, utils.LogSuccess)
	printCategory("Up to date", s.UpToDate, utils.LogInfo)
	printCategory("Skipped", s.Skipped, utils.LogWarning)
	printCategory("Failed", s.Failed, utils.LogError)
}

func printCategory(label string, names []string, log func(string, ...interface{})) {
	if len(names) == 0 {
		return
	}
	log("%s (%d):", label, len(names))
	for _, n := range names {
		utils.LogPlain("  %s", n)
	}
}

// ErrNoModules is the structural failure for an empty module set.
var ErrNoModules = errors.New("no modules found")
