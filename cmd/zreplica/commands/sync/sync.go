package sync

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/zreplica/internal/cli"
	"github.com/arthur-debert/zreplica/pkg/logging"
	"github.com/arthur-debert/zreplica/pkg/output"
	"github.com/arthur-debert/zreplica/pkg/pattern"
	"github.com/arthur-debert/zreplica/pkg/remote"
	"github.com/arthur-debert/zreplica/pkg/replication"
)

// NewCommand creates the sync command
func NewCommand(g *cli.Globals) *cobra.Command {
	var (
		transfer cli.TransferFlags
		filter   string
		showPlan bool
	)

	cmd := &cobra.Command{
		Use:     "sync [user@host:]pool/source [user@host:]pool/target",
		Short:   MsgShort,
		Long:    MsgLong,
		Args:    cobra.ExactArgs(2),
		GroupID: "replication",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.sync")

			src, err := remote.ParseDataset(args[0])
			if err != nil {
				return err
			}
			dst, err := remote.ParseDataset(args[1])
			if err != nil {
				return err
			}

			overrides := transfer.Overrides(cmd)
			if cmd.Flags().Changed("filter") {
				overrides["sync.filter"] = filter
			}
			cfg, err := g.Config(overrides)
			if err != nil {
				return err
			}
			sendOpts, err := cfg.SendOptions(g.DryRun)
			if err != nil {
				return err
			}
			p, err := pattern.Compile(cfg.Sync.Filter)
			if err != nil {
				return err
			}

			runner := g.PipelineRunner(cfg)
			source := g.Open(cfg, runner, src)
			target := g.Open(cfg, runner, dst)
			ctx := cmd.Context()
			w := cmd.OutOrStdout()
			st := g.Styles(w)

			if showPlan {
				plan, err := replication.PlanSync(ctx, source, target, p)
				if err != nil {
					return err
				}
				if err := output.RenderPlan(w, plan, st); err != nil {
					return err
				}
			}

			done := logging.LogOperationStart(logger, "sync")
			transfers, err := replication.Sync(ctx, source, target, replication.SyncOptions{
				SendOptions: sendOpts,
				Filter:      p,
			})
			done()
			if renderErr := output.RenderTransfers(w, transfers, g.DryRun, st); renderErr != nil && err == nil {
				err = renderErr
			}
			if err != nil {
				return err
			}
			if len(transfers) == 0 {
				fmt.Fprintf(w, MsgNothingNew, target.FQN(), source.FQN())
			}
			return nil
		},
	}

	transfer.Register(cmd)
	cmd.Flags().StringVarP(&filter, "filter", "f", "", MsgFlagFilter)
	cmd.Flags().BoolVar(&showPlan, "plan", false, MsgFlagPlan)
	return cmd
}
