package advisor

import (
	"context"

	"github.com/gnzdotmx/depflow/internal/gitops"
)

// Analysis is the advisory verdict for a set of changes.
type Analysis struct {
	// VersionBump is one of "major", "minor", "patch" or "none". "none"
	// means the change is committed without touching the changelog version
	// machinery; callers filter it out before any version arithmetic.
	VersionBump string `json:"version_bump"`

	// Changelog holds suggested bullet entries, without the "- " prefix.
	Changelog []string `json:"changelog"`

	// CommitMessage is a short suggested commit message.
	CommitMessage string `json:"commit_message"`
}

// Service analyzes module changes and suggests version bumps, changelog
// bullets and commit messages. Implementations must be safe to call once
// per module in sequence; each call is an isolated session.
type Service interface {
	// VerifyAuth checks that the advisory backend is reachable and
	// authenticated before a run starts.
	VerifyAuth(ctx context.Context) error

	// AnalyzeChanges inspects the module's diffs against its latest tag
	// (or uncommitted changes) and returns a verdict.
	AnalyzeChanges(ctx context.Context, modulePath string) (*Analysis, error)

	// AnalyzeRelease classifies accumulated unreleased entries into a
	// bump kind for the release workflow.
	AnalyzeRelease(ctx context.Context, entries []string, moduleName string) (*Analysis, error)

	// EntriesFromCommits generates changelog bullets from commit subjects
	// when no ## Unreleased section exists at release time.
	EntriesFromCommits(ctx context.Context, commits []gitops.Commit, moduleName string) ([]string, error)
}
