// Package version implements the "version" subcommand, printing the
// build-time metadata injected at startup.
package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/dictea-go/internal/buildinfo"
)

// Command builds the "version" subcommand bound to info.
func Command(info *buildinfo.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("version:    %s\n", info.GetVersion())
			fmt.Printf("build date: %s\n", info.GetBuildDate())
			fmt.Printf("system id:  %s\n", info.GetSystemID())
			return nil
		},
	}
}
