package send

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/zreplica/internal/cli"
	"github.com/arthur-debert/zreplica/pkg/logging"
	"github.com/arthur-debert/zreplica/pkg/output"
	"github.com/arthur-debert/zreplica/pkg/remote"
	"github.com/arthur-debert/zreplica/pkg/replication"
)

// NewCommand creates the send command
func NewCommand(g *cli.Globals) *cobra.Command {
	var transfer cli.TransferFlags

	cmd := &cobra.Command{
		Use:     "send [user@host:]pool/dataset@snapshot [user@host:]pool/target",
		Short:   MsgShort,
		Long:    MsgLong,
		Example: MsgExample,
		Args:    cobra.ExactArgs(2),
		GroupID: "replication",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.send")

			src, err := remote.ParseSnapshot(args[0])
			if err != nil {
				return err
			}
			dst, err := remote.ParseDataset(args[1])
			if err != nil {
				return err
			}

			cfg, err := g.Config(transfer.Overrides(cmd))
			if err != nil {
				return err
			}
			opts, err := cfg.SendOptions(g.DryRun)
			if err != nil {
				return err
			}

			runner := g.PipelineRunner(cfg)
			source := g.Open(cfg, runner, src)
			target := g.Open(cfg, runner, dst)

			ctx := cmd.Context()
			snapshot, err := source.Find(ctx, src.Snapshot)
			if err != nil {
				return err
			}

			logger.Info().
				Str("snapshot", snapshot.FQN).
				Str("target", target.FQN()).
				Bool("dryRun", g.DryRun).
				Msg("Starting send")

			t, err := replication.Send(ctx, snapshot, source, target, opts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			return output.RenderTransfers(w, []replication.Transfer{t}, g.DryRun, g.Styles(w))
		},
	}

	transfer.Register(cmd)
	return cmd
}
