package runner

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gnzdotmx/depflow/internal/advisor"
	"github.com/gnzdotmx/depflow/internal/config"
	"github.com/gnzdotmx/depflow/internal/discover"
	"github.com/gnzdotmx/depflow/internal/gitops"
	"github.com/gnzdotmx/depflow/internal/notify"
	"github.com/gnzdotmx/depflow/internal/registry"
	"github.com/gnzdotmx/depflow/internal/utils"
)

// Coordinator is the top-level driver of one run.
type Coordinator struct {
	Cfg      *config.Config
	Mode     Mode
	Registry *registry.Client
	Advisor  advisor.Service
}

// Run resolves the module set, refreshes repositories, processes each
// module strictly in discovery order and prints the final summary. A
// returned error is a structural failure: no modules, a failed repo
// refresh, or an operator abort.
func (c *Coordinator) Run(ctx context.Context) error {
	modules := c.resolveModules()
	if len(modules) == 0 {
		return ErrNoModules
	}
	utils.LogInfo("Processing %d module(s)", len(modules))
	for _, m := range modules {
		utils.LogVerbose("  %s (%s)", m.Path, m.Kind)
	}

	if c.Mode != ModeDocker {
		if err := c.Advisor.VerifyAuth(ctx); err != nil {
			return fmt.Errorf("advisory service auth failed: %w", err)
		}
	}

	if err := c.refreshRepos(ctx, modules); err != nil {
		return err
	}
	if err := c.checkDirtyRepos(ctx, modules); err != nil {
		return err
	}

	var summary Summary
	for _, m := range modules {
		if m.Kind == discover.KindLegacyPython {
			utils.LogWarning("Skipping legacy Python module (no uv.lock): %s", m.Path)
			summary.Add(m.Name(), OutcomeSkipped)
			continue
		}

		p, ok := BuildPipeline(c.Mode, m.Kind, c.Cfg, c.Registry, c.Advisor)
		if !ok {
			summary.Add(m.Name(), OutcomeUpToDate)
			continue
		}

		utils.LogPlain("")
		utils.LogInfo("=== %s ===", m.Path)
		summary.Add(m.Name(), RunWithRetry(ctx, p, c.Cfg, m.Path))
	}

	summary.Print()
	notify.Completion()
	return nil
}

// resolveModules expands the configured paths into an ordered module
// list. A path that is itself a module is taken as-is; anything else is
// scanned recursively with the lib-first ordering. Duplicates keep their
// first position.
func (c *Coordinator) resolveModules() []discover.Module {
	var modules []discover.Module
	seen := make(map[string]bool)

	add := func(m discover.Module) {
		abs, err := filepath.Abs(m.Path)
		if err != nil {
			abs = m.Path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		modules = append(modules, discover.Module{Path: abs, Kind: m.Kind})
	}

	for _, path := range c.Cfg.Paths {
		if kind, ok := discover.Classify(path); ok {
			add(discover.Module{Path: path, Kind: kind})
			continue
		}
		for _, m := range discover.Modules(path, true) {
			add(m)
		}
	}
	return modules
}

// refreshRepos pulls every backing repository to its latest upstream
// state before any module is touched. Any refresh failure aborts the
// whole run: a stale base is unsafe to build on for every module.
func (c *Coordinator) refreshRepos(ctx context.Context, modules []discover.Module) error {
	if c.Cfg.SkipGitUpdate {
		utils.LogVerbose("Skipping repository refresh")
		return nil
	}
	for _, repo := range c.repoRoots(modules) {
		utils.LogInfo("Refreshing repository %s", repo)
		if err := gitops.UpdateBranch(ctx, repo); err != nil {
			return fmt.Errorf("repository refresh failed for %s: %w", repo, err)
		}
	}
	return nil
}

// checkDirtyRepos looks for pre-existing uncommitted changes and asks
// the operator whether to proceed over them.
func (c *Coordinator) checkDirtyRepos(ctx context.Context, modules []discover.Module) error {
	for _, repo := range c.repoRoots(modules) {
		count, _, err := gitops.Status(ctx, repo)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", repo, err)
		}
		if count == 0 {
			continue
		}
		utils.LogWarning("%d uncommitted change(s) already present in %s", count, repo)
		notify.Interaction()
		if !utils.PromptYesNo("Continue anyway?", false) {
			return fmt.Errorf("aborted: uncommitted changes in %s", repo)
		}
	}
	return nil
}

// repoRoots returns the unique repository roots backing the module set,
// in first-seen order. Modules outside any repository are left out; the
// per-module pipeline will surface that as its own failure.
func (c *Coordinator) repoRoots(modules []discover.Module) []string {
	var roots []string
	seen := make(map[string]bool)
	for _, m := range modules {
		repo, err := gitops.FindRepo(m.Path)
		if err != nil {
			continue
		}
		if seen[repo] {
			continue
		}
		seen[repo] = true
		roots = append(roots, repo)
	}
	return roots
}
