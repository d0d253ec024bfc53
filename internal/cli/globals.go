// Package cli holds the state shared by every zreplica command: global
// flags, configuration loading and construction of runners and datasets.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/zreplica/pkg/config"
	"github.com/arthur-debert/zreplica/pkg/dataset"
	"github.com/arthur-debert/zreplica/pkg/output"
	"github.com/arthur-debert/zreplica/pkg/pipeline"
	"github.com/arthur-debert/zreplica/pkg/remote"
)

// Globals are the persistent flags of the root command.
type Globals struct {
	Verbosity  int
	DryRun     bool
	ConfigFile string
	NoColor    bool

	// Runner replaces the system runner when set
	Runner pipeline.Runner
}

// Config loads the configuration with overrides collected from flags.
func (g *Globals) Config(overrides map[string]interface{}) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		File:      g.ConfigFile,
		Overrides: overrides,
	})
}

// PipelineRunner returns the runner commands execute zfs through.
func (g *Globals) PipelineRunner(cfg *config.Config) pipeline.Runner {
	if g.Runner != nil {
		return g.Runner
	}
	return pipeline.NewSystemRunner(pipeline.Options{
		StderrPolicy:   cfg.StderrPolicy(),
		TerminateGrace: cfg.Pipeline.TerminateGrace,
	})
}

// Open returns the dataset at loc with the configured ssh options.
func (g *Globals) Open(cfg *config.Config, runner pipeline.Runner, loc remote.Location) *dataset.Dataset {
	return dataset.FromLocation(loc.WithSSHOptions(cfg.SSH.Options), runner)
}

// Styles returns output styles for w, colored only for a terminal.
func (g *Globals) Styles(w io.Writer) output.Styles {
	color := false
	if f, ok := w.(*os.File); ok && !g.NoColor {
		color = output.ColorEnabled(f)
	}
	return output.NewStyles(w, color)
}

// AddPersistentFlags registers the global flags on root.
func (g *Globals) AddPersistentFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.CountVarP(&g.Verbosity, "verbose", "v", MsgFlagVerbose)
	flags.BoolVarP(&g.DryRun, "dry-run", "n", false, MsgFlagDryRun)
	flags.StringVar(&g.ConfigFile, "config", "", MsgFlagConfig)
	flags.BoolVar(&g.NoColor, "no-color", false, MsgFlagNoColor)
}
