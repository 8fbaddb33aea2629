package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates a new root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flowrunner",
		Short: "Flowrunner browser workflow runner",
		Long: `Flowrunner replays declarative browser workflows (navigate, type, click, wait)
against a live page, once per data row, and reports which iterations passed.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Check if debug flag is set
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				// Set the environment variable for debug logging
				_ = os.Setenv("FLOWRUNNER_LOG", "DEBUG")
			}

			// Initialize logging after potentially setting the debug env var
			InitLogging()
		},
	}

	// Add persistent flags
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(
		NewRunCmd(),
		NewTestCmd(),
		NewValidateCmd(),
		NewHistoryCmd(),
		NewVersionCmd(),
	)

	return cmd
}
