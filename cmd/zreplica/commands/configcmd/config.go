package configcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/zreplica/internal/cli"
	"github.com/arthur-debert/zreplica/pkg/config"
)

// NewCommand creates the config command and its subcommands
func NewCommand(g *cli.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: MsgShort,
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: MsgShowShort,
		Long:  MsgShowLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.Config(nil)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: MsgPathShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			path := g.ConfigFile
			if path == "" {
				path = config.DefaultFile()
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
		},
	})

	return cmd
}
