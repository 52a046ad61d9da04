package cmd

import (
	"github.com/gnzdotmx/depflow/internal/utils"
	"github.com/spf13/cobra"
)

var (
	// verbosityLevel is the command-line flag for setting the log level
	verbosityLevel string
)

var rootCmd = &cobra.Command{
	Use:   "depflow",
	Short: "Keep module dependencies current and cut releases",
	Long: `Depflow automates dependency updates and releases across the
modules of one or more repositories: it discovers modules in a
library-first order, applies runtime and dependency updates, maintains
each module's CHANGELOG.md and commits, tags and pushes the results.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set the global log level based on the flag
		logLevel := utils.LogLevelFromString(verbosityLevel)
		utils.SetLogLevel(logLevel)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Initialize global flags
	rootCmd.PersistentFlags().StringVarP(&verbosityLevel, "log-level", "l", "normal",
		"Set the logging verbosity level: quiet, normal, verbose, debug")
}
