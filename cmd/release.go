package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gnzdotmx/depflow/internal/advisor"
	"github.com/gnzdotmx/depflow/internal/config"
	"github.com/gnzdotmx/depflow/internal/registry"
	"github.com/gnzdotmx/depflow/internal/runner"
)

var (
	releaseModel         string
	releaseYes           bool
	releaseSkipGitUpdate bool
)

var releaseCmd = &cobra.Command{
	Use:   "release [path...]",
	Short: "Promote accumulated Unreleased changes into versions",
	Long: `Release promotes each module's ## Unreleased changelog section
into a new semantic version, then commits, tags and pushes. Modules
whose head version was committed but never tagged get the missing tag
created; modules with commits but no Unreleased section get entries
reconstructed from commit subjects first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.New()
		if len(args) > 0 {
			cfg.Paths = args
		}
		cfg.Model = releaseModel
		cfg.RequireConfirm = !releaseYes
		cfg.SkipGitUpdate = releaseSkipGitUpdate
		if err := cfg.Validate(); err != nil {
			return err
		}

		adv, err := advisor.NewClient(cfg.Model, advisor.WithCooldown(cfg.SessionCooldown))
		if err != nil {
			return err
		}

		coordinator := &runner.Coordinator{
			Cfg:      cfg,
			Mode:     runner.ModeRelease,
			Registry: registry.NewClient(),
			Advisor:  adv,
		}
		return coordinator.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(releaseCmd)

	releaseCmd.Flags().StringVarP(&releaseModel, "model", "m", "sonnet", "Advisory model: sonnet, opus, haiku")
	releaseCmd.Flags().BoolVarP(&releaseYes, "yes", "y", false, "Release without asking for confirmation")
	releaseCmd.Flags().BoolVar(&releaseSkipGitUpdate, "skip-git-update", false, "Do not pull repositories before processing")
}
