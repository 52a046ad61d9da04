package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gnzdotmx/depflow/internal/advisor"
	"github.com/gnzdotmx/depflow/internal/changelog"
	"github.com/gnzdotmx/depflow/internal/utils"
)

// ChangelogStep obtains the advisory verdict for the module's pending
// changes and applies it to CHANGELOG.md. Four paths:
//
//   - verdict "none": the change is committed without a version; the
//     existing head version only gets its tag ensured.
//   - no-tag mode: bullets accumulate in ## Unreleased for a later
//     release run.
//   - no CHANGELOG.md: the module is committed untagged.
//   - otherwise: bump the current version and insert a new released
//     section at the top.
type ChangelogStep struct {
	Advisor advisor.Service
}

func (s *ChangelogStep) Name() string { return "changelog" }

func (s *ChangelogStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	analysis, err := s.Advisor.AnalyzeChanges(ctx, modulePath)
	if err != nil {
		return Result{}, fmt.Errorf("advisory analysis failed: %w", err)
	}
	state.Analysis = analysis
	state.CommitMessage = analysis.CommitMessage

	changelogPath := filepath.Join(modulePath, "CHANGELOG.md")

	// A "none" verdict commits without a version: the changelog is left
	// untouched and only the existing head tag is ensured.
	if analysis.VersionBump == "none" {
		utils.LogInfo("No version bump needed for %s", modulePath)
		state.NoTag = true
		state.EnsureTag = true
		return Result{Status: StatusSuccess}, nil
	}

	if state.Cfg != nil && state.Cfg.NoTag {
		if err := changelog.AddToUnreleased(changelogPath, analysis.Changelog); err != nil {
			if errors.Is(err, changelog.ErrNoChangelog) {
				utils.LogWarning("No CHANGELOG.md in %s; committing without changelog entry", modulePath)
				return Result{Status: StatusSuccess}, nil
			}
			return Result{}, err
		}
		utils.LogInfo("Recorded %d change(s) under Unreleased", len(analysis.Changelog))
		return Result{Status: StatusSuccess}, nil
	}

	current, err := changelog.ExtractCurrentVersion(changelogPath)
	if err != nil {
		if errors.Is(err, changelog.ErrNoChangelog) {
			utils.LogWarning("No CHANGELOG.md in %s; committing without a tag", modulePath)
			state.NoTag = true
			return Result{Status: StatusSuccess}, nil
		}
		if !errors.Is(err, changelog.ErrNoVersionHeader) {
			return Result{}, err
		}
		// First release of a module whose changelog has only an
		// Unreleased section; bump from v0.0.0.
		current = changelog.Version{}
	}

	next, err := changelog.Bump(current, analysis.VersionBump)
	if err != nil {
		return Result{}, err
	}
	if err := changelog.InsertVersionSection(changelogPath, next, analysis.Changelog); err != nil {
		return Result{}, err
	}
	state.NewVersion = next.String()
	utils.LogSuccess("Changelog updated: %s -> %s (%s)", current, next, analysis.VersionBump)
	return Result{Status: StatusSuccess}, nil
}
