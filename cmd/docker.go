package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gnzdotmx/depflow/internal/config"
	"github.com/gnzdotmx/depflow/internal/registry"
	"github.com/gnzdotmx/depflow/internal/runner"
)

var (
	dockerYes           bool
	dockerSkipGitUpdate bool
)

var dockerCmd = &cobra.Command{
	Use:   "docker [path...]",
	Short: "Update base images of standalone Dockerfile modules",
	Long: `Docker updates the FROM lines of Dockerfile-only modules to the
latest published golang, alpine and python versions and commits the
result. Dockerfiles inside Go and Python modules are handled by the
update command instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.New()
		if len(args) > 0 {
			cfg.Paths = args
		}
		cfg.RequireConfirm = !dockerYes
		cfg.SkipGitUpdate = dockerSkipGitUpdate
		if err := cfg.Validate(); err != nil {
			return err
		}

		coordinator := &runner.Coordinator{
			Cfg:      cfg,
			Mode:     runner.ModeDocker,
			Registry: registry.NewClient(),
		}
		return coordinator.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(dockerCmd)

	dockerCmd.Flags().BoolVarP(&dockerYes, "yes", "y", false, "Commit without asking for confirmation")
	dockerCmd.Flags().BoolVar(&dockerSkipGitUpdate, "skip-git-update", false, "Do not pull repositories before processing")
}
