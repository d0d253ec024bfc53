package snapshot

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/zreplica/internal/cli"
	"github.com/arthur-debert/zreplica/pkg/remote"
	"github.com/arthur-debert/zreplica/pkg/replication"
)

// NewCommand creates the snapshot command
func NewCommand(g *cli.Globals) *cobra.Command {
	var (
		name, tag              string
		timestamp, noTimestamp bool
		bookmark, noBookmark   bool
	)

	cmd := &cobra.Command{
		Use:     "snapshot [user@host:]pool/dataset",
		Short:   MsgShort,
		Long:    MsgLong,
		Example: MsgExample,
		Args:    cobra.ExactArgs(1),
		GroupID: "maintenance",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := remote.ParseDataset(args[0])
			if err != nil {
				return err
			}

			overrides := make(map[string]interface{})
			flags := cmd.Flags()
			if flags.Changed("name") {
				overrides["snapshot.prefix"] = name
			}
			switch {
			case flags.Changed("no-timestamp"):
				overrides["snapshot.timestamp"] = !noTimestamp
			case flags.Changed("timestamp"):
				overrides["snapshot.timestamp"] = timestamp
			}
			switch {
			case flags.Changed("no-bookmark"):
				overrides["snapshot.bookmark"] = !noBookmark
			case flags.Changed("bookmark"):
				overrides["snapshot.bookmark"] = bookmark
			}

			cfg, err := g.Config(overrides)
			if err != nil {
				return err
			}
			opts := cfg.SnapshotOptions(tag)
			w := cmd.OutOrStdout()

			if g.DryRun {
				snapName, err := replication.SnapshotName(opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, MsgWouldCreate, loc.FQN(), snapName)
				return nil
			}

			ds := g.Open(cfg, g.PipelineRunner(cfg), loc)
			snapName, err := replication.CreateSnapshot(cmd.Context(), ds, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, MsgCreated, ds.FQN(), snapName)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&name, "name", "", MsgFlagName)
	flags.StringVar(&tag, "tag", "", MsgFlagTag)
	flags.BoolVar(&timestamp, "timestamp", true, MsgFlagTimestamp)
	flags.BoolVar(&noTimestamp, "no-timestamp", false, MsgFlagNoTimestamp)
	flags.BoolVar(&bookmark, "bookmark", true, MsgFlagBookmark)
	flags.BoolVar(&noBookmark, "no-bookmark", false, MsgFlagNoBookmark)
	cmd.MarkFlagsMutuallyExclusive("timestamp", "no-timestamp")
	cmd.MarkFlagsMutuallyExclusive("bookmark", "no-bookmark")
	return cmd
}
