package pipeline

import (
	"context"
	"fmt"

	"github.com/gnzdotmx/depflow/internal/gitops"
	"github.com/gnzdotmx/depflow/internal/utils"
)

const defaultCommitMessage = "Update dependencies"

// CommitStep commits the module's pending changes and creates the
// release tag when one is due. In tag-only mode (release repair) it
// creates the missing tag without committing anything.
type CommitStep struct{}

func (s *CommitStep) Name() string { return "commit" }

func (s *CommitStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	if state.TagOnly {
		if state.NewVersion == "" {
			return Result{}, fmt.Errorf("tag-only run without a version")
		}
		if gitops.TagExists(ctx, modulePath, state.NewVersion) {
			utils.LogInfo("Tag %s already exists", state.NewVersion)
			return Result{Status: StatusSuccess}, nil
		}
		if err := gitops.CreateTag(ctx, modulePath, state.NewVersion); err != nil {
			return Result{}, err
		}
		utils.LogSuccess("Created missing tag %s", state.NewVersion)
		return Result{Status: StatusSuccess}, nil
	}

	message := state.CommitMessage
	if message == "" {
		message = defaultCommitMessage
	}
	if err := gitops.CommitAll(ctx, modulePath, message); err != nil {
		return Result{}, fmt.Errorf("commit failed: %w", err)
	}
	utils.LogSuccess("Committed: %s", message)

	if state.EnsureTag {
		if err := gitops.EnsureChangelogTag(ctx, modulePath); err != nil {
			return Result{}, err
		}
	}
	if state.NoTag {
		return Result{Status: StatusSuccess}, nil
	}

	if state.NewVersion != "" {
		if err := gitops.CreateTag(ctx, modulePath, state.NewVersion); err != nil {
			return Result{}, err
		}
		utils.LogSuccess("Tagged %s", state.NewVersion)
		return Result{Status: StatusSuccess}, nil
	}
	if err := gitops.TagFromChangelog(ctx, modulePath); err != nil {
		return Result{}, err
	}
	return Result{Status: StatusSuccess}, nil
}

// PushStep pushes the module's branch and tags to the remote.
type PushStep struct{}

func (s *PushStep) Name() string { return "push" }

func (s *PushStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	if err := gitops.Push(ctx, modulePath); err != nil {
		return Result{}, fmt.Errorf("push failed: %w", err)
	}
	utils.LogSuccess("Pushed %s", modulePath)
	return Result{Status: StatusSuccess}, nil
}
