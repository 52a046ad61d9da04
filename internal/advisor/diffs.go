package advisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gnzdotmx/depflow/internal/gitops"
)

// Truncation budgets keep prompts inside the backend's request limits.
const (
	maxDiffPerFile = 50_000
	maxTotalDiff   = 200_000
)

// dependency manifests inspected individually before the general code diff
var manifestFiles = []string{"go.mod", "go.sum", "package.json", "pyproject.toml", "Dockerfile"}

// collectDiffs gathers per-manifest diffs plus a budget-capped code diff,
// comparing against the latest tag when one exists and uncommitted changes
// otherwise. Returns the ordered diff sections and the base description.
func collectDiffs(ctx context.Context, modulePath string) (sections []string, baseInfo string) {
	base := gitops.LatestTag(ctx, modulePath)
	if base != "" {
		baseInfo = "Comparing against tag: " + base
	} else {
		baseInfo = "Comparing uncommitted changes"
	}

	total := 0
	for _, name := range manifestFiles {
		if _, err := os.Stat(filepath.Join(modulePath, name)); err != nil && name != "go.mod" && name != "go.sum" {
			continue
		}
		diff, err := gitops.Diff(ctx, modulePath, base, name)
		if err != nil || diff == "" {
			continue
		}
		diff = truncateDiff(diff, maxDiffPerFile, name)
		sections = append(sections, fmt.Sprintf("=== %s ===\n%s", name, diff))
		total += len(diff)
	}

	// Generated and vendored trees never affect the verdict.
	remaining := maxTotalDiff - total
	if remaining > 10_000 {
		codeDiff, err := gitops.Diff(ctx, modulePath, base,
			".",
			":(exclude)node_modules/**",
			":(exclude)vendor/**",
			":(exclude)**/mocks/**",
			":(exclude)**/*_mock.go",
			":(exclude)**/*.gen.go",
		)
		if err == nil && codeDiff != "" {
			codeDiff = truncateDiff(codeDiff, remaining, "code changes")
			sections = append(sections, "=== code changes ===\n"+codeDiff)
		}
	}

	return sections, baseInfo
}

// truncateDiff cuts a diff down to maxSize, preferring a newline boundary
// and appending an omission marker.
func truncateDiff(diff string, maxSize int, label string) string {
	if len(diff) <= maxSize {
		return diff
	}
	truncated := diff[:maxSize]
	if idx := strings.LastIndexByte(truncated, '\n'); idx > maxSize*8/10 {
		truncated = truncated[:idx]
	}
	return fmt.Sprintf("%s\n... [truncated %s, %d bytes omitted]", truncated, label, len(diff)-len(truncated))
}
