package prune

import (
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/zreplica/internal/cli"
	"github.com/arthur-debert/zreplica/pkg/config"
	"github.com/arthur-debert/zreplica/pkg/errors"
	"github.com/arthur-debert/zreplica/pkg/output"
	"github.com/arthur-debert/zreplica/pkg/remote"
	"github.com/arthur-debert/zreplica/pkg/replication"
)

// ParseKeep parses a rule written as N:PATTERN. The pattern is everything
// after the first colon, so it may contain colons itself.
func ParseKeep(value string) (replication.Rule, error) {
	count, pattern, ok := strings.Cut(value, ":")
	keep, err := strconv.Atoi(strings.TrimSpace(count))
	if !ok || err != nil || keep < 0 || pattern == "" {
		return replication.Rule{}, errors.Newf(errors.ErrInvalidInput, "invalid retention rule %q, expected N:PATTERN", value).
			WithDetail("value", value)
	}
	return replication.Rule{Pattern: pattern, Keep: keep}, nil
}

// NewCommand creates the prune command. Policy files are read from fs.
func NewCommand(g *cli.Globals, fs afero.Fs) *cobra.Command {
	var (
		keep       []string
		policyFile string
	)

	cmd := &cobra.Command{
		Use:     "prune [user@host:]pool/dataset",
		Short:   MsgShort,
		Long:    MsgLong,
		Args:    cobra.ExactArgs(1),
		GroupID: "maintenance",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := remote.ParseDataset(args[0])
			if err != nil {
				return err
			}
			cfg, err := g.Config(nil)
			if err != nil {
				return err
			}

			var policy replication.Policy
			switch {
			case len(keep) > 0:
				for _, k := range keep {
					rule, err := ParseKeep(k)
					if err != nil {
						return err
					}
					policy = append(policy, rule)
				}
			case policyFile != "":
				if policy, err = config.LoadPolicyFile(fs, policyFile); err != nil {
					return err
				}
			default:
				policy = cfg.Policy()
			}
			if len(policy) == 0 {
				return errors.New(errors.ErrInvalidInput, MsgErrNoRules)
			}

			ds := g.Open(cfg, g.PipelineRunner(cfg), loc)
			result, err := replication.Prune(cmd.Context(), ds, policy, g.DryRun)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			return output.RenderPrune(w, result, g.Styles(w))
		},
	}

	cmd.Flags().StringArrayVar(&keep, "keep", nil, MsgFlagKeep)
	cmd.Flags().StringVar(&policyFile, "policy-file", "", MsgFlagPolicyFile)
	return cmd
}
