// Package gitops wraps the git operations the update and release workflows
// need. Commands are observed only through their exit status and change
// counts; no porcelain output is interpreted beyond that.
package gitops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gnzdotmx/depflow/internal/changelog"
	"github.com/gnzdotmx/depflow/internal/utils"
)

// ErrNoRepo is returned when a module is not inside a git repository.
var ErrNoRepo = errors.New("no git repository found")

// commandTimeout bounds every git invocation. A hung remote surfaces as a
// normal step failure, not a special cancellation path.
const commandTimeout = 2 * time.Minute

// Commit is one commit reachable since the last tag.
type Commit struct {
	Hash    string
	Subject string
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	utils.LogDebug("git %s (in %s)", strings.Join(args, " "), dir)
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return strings.TrimSpace(out.String()), nil
}

// FindRepo walks up from path to the enclosing git repository root.
func FindRepo(path string) (string, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w for %s", ErrNoRepo, path)
		}
		dir = parent
	}
}

// Status returns the number of uncommitted changed files under dir and
// their paths, restricted to dir itself so sibling modules sharing a
// repository do not bleed into each other's counts.
func Status(ctx context.Context, dir string) (int, []string, error) {
	out, err := run(ctx, dir, "status", "--porcelain", "--", ".")
	if err != nil {
		return 0, nil, err
	}
	if out == "" {
		return 0, nil, nil
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) > 3 {
			files = append(files, strings.TrimSpace(line[3:]))
		}
	}
	return len(files), files, nil
}

// UpdateBranch fast-forwards the repository's current branch from its
// upstream. A failure here is fatal to the whole run; the caller must not
// build on a stale base.
func UpdateBranch(ctx context.Context, repo string) error {
	if _, err := run(ctx, repo, "pull", "--ff-only"); err != nil {
		return fmt.Errorf("updating %s: %w", filepath.Base(repo), err)
	}
	return nil
}

// CommitAll stages everything under dir and commits with the given message.
func CommitAll(ctx context.Context, dir, message string) error {
	if _, err := run(ctx, dir, "add", "-A", "--", "."); err != nil {
		return err
	}
	if _, err := run(ctx, dir, "commit", "-m", message); err != nil {
		return err
	}
	utils.LogVerbose("Committed: %s", message)
	return nil
}

// Push pushes commits and tags to the default remote.
func Push(ctx context.Context, dir string) error {
	if _, err := run(ctx, dir, "push"); err != nil {
		return err
	}
	if _, err := run(ctx, dir, "push", "--tags"); err != nil {
		return err
	}
	return nil
}

// LatestTag returns the most recent reachable tag, or "" when the module
// has never been tagged.
func LatestTag(ctx context.Context, dir string) string {
	out, err := run(ctx, dir, "describe", "--tags", "--abbrev=0")
	if err != nil {
		return ""
	}
	return out
}

// TagExists reports whether the named tag exists in the repository.
func TagExists(ctx context.Context, dir, tag string) bool {
	_, err := run(ctx, dir, "rev-parse", "--verify", "refs/tags/"+tag)
	return err == nil
}

// CreateTag creates an annotated tag at HEAD.
func CreateTag(ctx context.Context, dir, tag string) error {
	if _, err := run(ctx, dir, "tag", "-a", tag, "-m", tag); err != nil {
		return err
	}
	utils.LogVerbose("Created tag %s", tag)
	return nil
}

// TagFromChangelog tags HEAD with the current changelog head version.
func TagFromChangelog(ctx context.Context, dir string) error {
	version, err := changelog.ExtractCurrentVersion(filepath.Join(dir, "CHANGELOG.md"))
	if err != nil {
		return err
	}
	return CreateTag(ctx, dir, version.String())
}

// EnsureChangelogTag creates the tag for the current changelog head version
// if it is missing. Used when a commit lands without a version bump but the
// existing head release was never tagged.
func EnsureChangelogTag(ctx context.Context, dir string) error {
	version, err := changelog.ExtractCurrentVersion(filepath.Join(dir, "CHANGELOG.md"))
	if err != nil {
		if errors.Is(err, changelog.ErrNoChangelog) || errors.Is(err, changelog.ErrNoVersionHeader) {
			return nil
		}
		return err
	}
	if TagExists(ctx, dir, version.String()) {
		return nil
	}
	return CreateTag(ctx, dir, version.String())
}

// CommitsSinceTag lists commits made after the given tag, newest first.
// With an empty tag the whole history is returned.
func CommitsSinceTag(ctx context.Context, dir, tag string) ([]Commit, error) {
	rangeArg := "HEAD"
	if tag != "" {
		rangeArg = tag + "..HEAD"
	}
	out, err := run(ctx, dir, "log", rangeArg, "--pretty=format:%h\t%s", "--", ".")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		hash, subject, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		commits = append(commits, Commit{Hash: hash, Subject: subject})
	}
	return commits, nil
}

// Diff returns the diff of the given pathspecs against base (a tag, or ""
// for uncommitted changes against HEAD).
func Diff(ctx context.Context, dir, base string, pathspecs ...string) (string, error) {
	args := []string{"diff", "--no-color"}
	if base != "" {
		args = append(args, base)
	}
	args = append(args, "--")
	args = append(args, pathspecs...)
	return run(ctx, dir, args...)
}
