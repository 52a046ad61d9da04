package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gnzdotmx/depflow/internal/advisor"
	"github.com/gnzdotmx/depflow/internal/config"
	"github.com/gnzdotmx/depflow/internal/registry"
	"github.com/gnzdotmx/depflow/internal/runner"
)

var (
	updateModel         string
	updateYes           bool
	updateNoTag         bool
	updateSkipGitUpdate bool
	updateSkipDeps      bool
)

var updateCmd = &cobra.Command{
	Use:   "update [path...]",
	Short: "Update runtimes and dependencies for each module",
	Long: `Update discovers modules under the given paths (default: the
current directory), refreshes their runtime pins and dependencies,
records the change in each module's CHANGELOG.md and commits, tags and
pushes the result. Library modules are always processed before the
modules that depend on them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.New()
		if len(args) > 0 {
			cfg.Paths = args
		}
		cfg.Model = updateModel
		cfg.RequireConfirm = !updateYes
		cfg.NoTag = updateNoTag
		cfg.SkipGitUpdate = updateSkipGitUpdate
		cfg.UpdateDeps = !updateSkipDeps
		if err := cfg.Validate(); err != nil {
			return err
		}

		adv, err := advisor.NewClient(cfg.Model, advisor.WithCooldown(cfg.SessionCooldown))
		if err != nil {
			return err
		}

		coordinator := &runner.Coordinator{
			Cfg:      cfg,
			Mode:     runner.ModeUpdate,
			Registry: registry.NewClient(),
			Advisor:  adv,
		}
		return coordinator.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVarP(&updateModel, "model", "m", "sonnet", "Advisory model: sonnet, opus, haiku")
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "Commit without asking for confirmation")
	updateCmd.Flags().BoolVar(&updateNoTag, "no-tag", false, "Record changes under ## Unreleased instead of cutting a version")
	updateCmd.Flags().BoolVar(&updateSkipGitUpdate, "skip-git-update", false, "Do not pull repositories before processing")
	updateCmd.Flags().BoolVar(&updateSkipDeps, "skip-deps", false, "Update runtime versions only, not dependencies")
}
