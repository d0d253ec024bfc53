package zreplica

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/zreplica/cmd/zreplica/commands/configcmd"
	"github.com/arthur-debert/zreplica/cmd/zreplica/commands/list"
	"github.com/arthur-debert/zreplica/cmd/zreplica/commands/prune"
	"github.com/arthur-debert/zreplica/cmd/zreplica/commands/send"
	"github.com/arthur-debert/zreplica/cmd/zreplica/commands/snapshot"
	synccmd "github.com/arthur-debert/zreplica/cmd/zreplica/commands/sync"
	versioncmd "github.com/arthur-debert/zreplica/cmd/zreplica/commands/version"
	"github.com/arthur-debert/zreplica/internal/cli"
	"github.com/arthur-debert/zreplica/internal/version"
	"github.com/arthur-debert/zreplica/pkg/logging"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&cli.Globals{}, afero.NewOsFs())
}

func newRootCmd(g *cli.Globals, fs afero.Fs) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "zreplica",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(g.Verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	g.AddPersistentFlags(rootCmd)

	rootCmd.AddGroup(
		&cobra.Group{ID: "replication", Title: MsgGroupReplication},
		&cobra.Group{ID: "maintenance", Title: MsgGroupMaintenance},
	)

	rootCmd.AddCommand(send.NewCommand(g))
	rootCmd.AddCommand(synccmd.NewCommand(g))
	rootCmd.AddCommand(snapshot.NewCommand(g))
	rootCmd.AddCommand(list.NewCommand(g))
	rootCmd.AddCommand(prune.NewCommand(g, fs))
	rootCmd.AddCommand(configcmd.NewCommand(g))
	rootCmd.AddCommand(versioncmd.NewCommand())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: MsgCompletionShort,
		Long: `To load completions:

Bash:
  $ source <(zreplica completion bash)

Zsh:
  $ zreplica completion zsh > "${fpath[1]}/_zreplica"

Fish:
  $ zreplica completion fish | source

PowerShell:
  PS> zreplica completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
