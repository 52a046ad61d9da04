package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gnzdotmx/depflow/internal/advisor"
	"github.com/gnzdotmx/depflow/internal/changelog"
	"github.com/gnzdotmx/depflow/internal/gitops"
	"github.com/gnzdotmx/depflow/internal/utils"
)

// ReleaseStep promotes a module's accumulated ## Unreleased entries into
// a concrete version. When no Unreleased section exists it first checks
// for an untagged head version (a previous run that committed but never
// tagged) and repairs it tag-only; failing that it reconstructs entries
// from commit subjects since the last tag. With no changelog, no commits
// and no tag gap there is nothing to release.
type ReleaseStep struct {
	Advisor advisor.Service
}

func (s *ReleaseStep) Name() string { return "release" }

func (s *ReleaseStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	changelogPath := filepath.Join(modulePath, "CHANGELOG.md")
	moduleName := filepath.Base(modulePath)

	entries, hasSection, err := changelog.UnreleasedEntries(changelogPath)
	if err != nil && !errors.Is(err, changelog.ErrNoChangelog) {
		return Result{}, err
	}
	if errors.Is(err, changelog.ErrNoChangelog) {
		utils.LogInfo("No CHANGELOG.md in %s; nothing to release", modulePath)
		return Result{Status: StatusUpToDate}, nil
	}

	current, err := changelog.ExtractCurrentVersion(changelogPath)
	if err != nil && !errors.Is(err, changelog.ErrNoVersionHeader) {
		return Result{}, err
	}
	hasReleases := err == nil

	// An empty Unreleased section is treated the same as a missing one.
	if !hasSection || len(entries) == 0 {
		if hasReleases && !gitops.TagExists(ctx, modulePath, current.String()) {
			utils.LogWarning("Head version %s has no tag; repairing", current)
			state.NewVersion = current.String()
			state.TagOnly = true
			return Result{Status: StatusSuccess}, nil
		}

		latest := gitops.LatestTag(ctx, modulePath)
		commits, err := gitops.CommitsSinceTag(ctx, modulePath, latest)
		if err != nil {
			return Result{}, err
		}
		if len(commits) == 0 {
			utils.LogInfo("Nothing to release for %s", modulePath)
			return Result{Status: StatusUpToDate}, nil
		}
		entries, err = s.Advisor.EntriesFromCommits(ctx, commits, moduleName)
		if err != nil {
			return Result{}, fmt.Errorf("failed to derive entries from commits: %w", err)
		}
		if err := changelog.AddToUnreleased(changelogPath, entries); err != nil {
			return Result{}, err
		}
		utils.LogInfo("Reconstructed %d changelog entries from %d commit(s)", len(entries), len(commits))
	}

	analysis, err := s.Advisor.AnalyzeRelease(ctx, entries, moduleName)
	if err != nil {
		return Result{}, fmt.Errorf("release analysis failed: %w", err)
	}
	state.Analysis = analysis

	next, err := changelog.Bump(current, analysis.VersionBump)
	if err != nil {
		return Result{}, err
	}
	if err := changelog.PromoteUnreleased(changelogPath, next); err != nil {
		return Result{}, err
	}
	state.NewVersion = next.String()
	state.CommitMessage = fmt.Sprintf("Release %s %s", moduleName, next)
	utils.LogSuccess("Promoted Unreleased to %s (%s)", next, analysis.VersionBump)
	return Result{Status: StatusSuccess}, nil
}
