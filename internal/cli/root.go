package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Build metadata, overridden through SetVersionInfo from ldflags.
var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo records the build metadata shown by `todo version`.
func SetVersionInfo(version, commit, date string) {
	appVersion, appCommit, appDate = version, commit, date
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "todo",
	Short: "todo - a persistent task list",
	Long: `todo keeps a list of tasks with priorities and due dates.

Tasks are saved after every change. Use the task commands to add, edit,
complete and remove tasks, export and import to move the list between
machines, and dashboard or mcp to work with it interactively.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose && Logger != nil {
			Logger.SetLevel(log.DebugLevel)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "todo %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
