package version

import (
	"fmt"

	"github.com/spf13/cobra"

	buildinfo "github.com/arthur-debert/zreplica/internal/version"
)

// NewCommand creates the version command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgShort,
		Long:  MsgLong,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgFormat, buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		},
	}
}
