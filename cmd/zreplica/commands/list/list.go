package list

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/zreplica/internal/cli"
	"github.com/arthur-debert/zreplica/pkg/output"
	"github.com/arthur-debert/zreplica/pkg/pattern"
	"github.com/arthur-debert/zreplica/pkg/remote"
)

// NewCommand creates the list command
func NewCommand(g *cli.Globals) *cobra.Command {
	var (
		filter               string
		snapshots, bookmarks bool
		format               string
	)

	cmd := &cobra.Command{
		Use:     "list [user@host:]pool/dataset",
		Aliases: []string{"ls"},
		Short:   MsgShort,
		Long:    MsgLong,
		Args:    cobra.ExactArgs(1),
		GroupID: "maintenance",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := remote.ParseDataset(args[0])
			if err != nil {
				return err
			}
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}

			overrides := make(map[string]interface{})
			if cmd.Flags().Changed("filter") {
				overrides["sync.filter"] = filter
			}
			cfg, err := g.Config(overrides)
			if err != nil {
				return err
			}
			p, err := pattern.Compile(cfg.Sync.Filter)
			if err != nil {
				return err
			}

			ds := g.Open(cfg, g.PipelineRunner(cfg), loc)
			ctx := cmd.Context()

			var entries []output.Entry
			if snapshots {
				snaps, err := ds.Snapshots(ctx)
				if err != nil {
					return err
				}
				for _, s := range snaps {
					if p.Match(s.Name()) {
						entries = append(entries, output.NewEntry(s))
					}
				}
			}
			if bookmarks {
				marks, err := ds.Bookmarks(ctx)
				if err != nil {
					return err
				}
				for _, b := range marks {
					if p.Match(b.Name()) {
						entries = append(entries, output.NewEntry(b))
					}
				}
			}

			w := cmd.OutOrStdout()
			return output.RenderList(w, f, entries, g.Styles(w))
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&filter, "filter", "f", "", MsgFlagFilter)
	flags.BoolVar(&snapshots, "snapshots", true, MsgFlagSnapshots)
	flags.BoolVar(&bookmarks, "bookmarks", false, MsgFlagBookmarks)
	flags.StringVarP(&format, "format", "o", string(output.FormatText), MsgFlagFormat)
	return cmd
}
