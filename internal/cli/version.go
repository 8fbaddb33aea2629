package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// DefaultVersion is overridden at build time with -ldflags "-X".
var DefaultVersion = "v0.1.0"

// NewVersionCmd creates a new version command
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of Flowrunner",
		Long:  `Print the version number of the Flowrunner CLI.`,
		Run: func(cmd *cobra.Command, args []string) {
			// Get version from environment variable or use default
			version := os.Getenv("FLOWRUNNER_VERSION")
			if version == "" {
				version = DefaultVersion
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Flowrunner CLI %s\n", version)
		},
	}

	return cmd
}
