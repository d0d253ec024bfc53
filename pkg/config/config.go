package config

import (
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/google/shlex"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/zreplica/pkg/errors"
	"github.com/arthur-debert/zreplica/pkg/pattern"
	"github.com/arthur-debert/zreplica/pkg/pipeline"
	"github.com/arthur-debert/zreplica/pkg/replication"
)

// Config is the effective zreplica configuration.
type Config struct {
	SSH       SSH                `koanf:"ssh"`
	Send      Options            `koanf:"send"`
	Receive   Options            `koanf:"receive"`
	Pipeline  Pipeline           `koanf:"pipeline"`
	Sync      Sync               `koanf:"sync"`
	Snapshot  Snapshot           `koanf:"snapshot"`
	Transfer  Transfer           `koanf:"transfer"`
	Retention []replication.Rule `koanf:"retention"`

	k *koanf.Koanf
}

// SSH holds options passed as `-o` to every ssh invocation.
type SSH struct {
	Options []string `koanf:"options"`
}

// Options holds extra flags for zfs send or zfs receive.
type Options struct {
	Options []string `koanf:"options"`
}

type Pipeline struct {
	StderrPolicy   string        `koanf:"stderr_policy"`
	TerminateGrace time.Duration `koanf:"terminate_grace"`
}

type Sync struct {
	Filter string `koanf:"filter"`
}

type Snapshot struct {
	Prefix     string `koanf:"prefix"`
	Timestamp  bool   `koanf:"timestamp"`
	TimeFormat string `koanf:"time_format"`
	Bookmark   bool   `koanf:"bookmark"`
}

// Transfer configures the filter stages between send and receive.
type Transfer struct {
	// BWLimit enables an mbuffer stage limiting the rate, e.g. "10M"
	BWLimit string   `koanf:"bwlimit"`
	Buffer  string   `koanf:"buffer"`
	Pipes   []string `koanf:"pipes"`
}

func invalid(key, format string, args ...interface{}) error {
	return errors.Newf(errors.ErrConfigValid, format, args...).WithDetail("key", key)
}

// Validate checks every value that later stages would otherwise reject.
func (c *Config) Validate() error {
	if _, err := pipeline.ParseStderrPolicy(c.Pipeline.StderrPolicy); err != nil {
		return invalid("pipeline.stderr_policy", "invalid stderr policy %q", c.Pipeline.StderrPolicy)
	}
	if c.Pipeline.TerminateGrace <= 0 {
		return invalid("pipeline.terminate_grace", "terminate grace must be positive, got %s", c.Pipeline.TerminateGrace)
	}
	if _, err := pattern.Compile(c.Sync.Filter); err != nil {
		return invalid("sync.filter", "invalid sync filter %q", c.Sync.Filter)
	}
	if c.Snapshot.Timestamp && c.Snapshot.TimeFormat == "" {
		return invalid("snapshot.time_format", "time format is required when timestamps are enabled")
	}
	if c.Transfer.BWLimit != "" {
		if _, err := units.RAMInBytes(c.Transfer.BWLimit); err != nil {
			return invalid("transfer.bwlimit", "invalid bandwidth limit %q", c.Transfer.BWLimit)
		}
		if _, err := units.RAMInBytes(c.Transfer.Buffer); err != nil {
			return invalid("transfer.buffer", "invalid buffer size %q", c.Transfer.Buffer)
		}
	}
	for _, p := range c.Transfer.Pipes {
		args, err := shlex.Split(p)
		if err != nil || len(args) == 0 {
			return invalid("transfer.pipes", "invalid pipe command %q", p)
		}
	}
	for _, rule := range c.Retention {
		if _, err := pattern.Compile(rule.Pattern); err != nil {
			return invalid("retention", "invalid retention pattern %q", rule.Pattern)
		}
		if rule.Keep < 0 {
			return invalid("retention", "retention for %q keeps a negative count", rule.Pattern)
		}
	}
	return nil
}

// StderrPolicy returns the validated pipeline policy.
func (c *Config) StderrPolicy() pipeline.StderrPolicy {
	policy, err := pipeline.ParseStderrPolicy(c.Pipeline.StderrPolicy)
	if err != nil {
		return pipeline.StderrStrict
	}
	return policy
}

// MbufferStage builds the rate limiting stage for limit with a buffer of
// size memory.
func MbufferStage(limit, memory string) []string {
	return []string{"mbuffer", "-q", "-s", "128k", "-m", memory, "-r", limit}
}

// TransferPipes returns the filter stages placed between send and receive:
// the bandwidth limiter first, then every configured pipe split into argv
// the way a shell would.
func (c *Config) TransferPipes() ([][]string, error) {
	var pipes [][]string
	if c.Transfer.BWLimit != "" {
		pipes = append(pipes, MbufferStage(c.Transfer.BWLimit, c.Transfer.Buffer))
	}
	for _, p := range c.Transfer.Pipes {
		args, err := shlex.Split(p)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigValid, "invalid pipe command %q", p)
		}
		if len(args) == 0 {
			continue
		}
		pipes = append(pipes, args)
	}
	return pipes, nil
}

// SendOptions assembles replication options from the configuration.
func (c *Config) SendOptions(dryRun bool) (replication.SendOptions, error) {
	pipes, err := c.TransferPipes()
	if err != nil {
		return replication.SendOptions{}, err
	}
	return replication.SendOptions{
		SendFlags:    c.Send.Options,
		ReceiveFlags: c.Receive.Options,
		Pipes:        pipes,
		DryRun:       dryRun,
	}, nil
}

// SnapshotOptions maps the snapshot section onto naming options.
func (c *Config) SnapshotOptions(tag string) replication.SnapshotOptions {
	return replication.SnapshotOptions{
		Prefix:     c.Snapshot.Prefix,
		Tag:        tag,
		Timestamp:  c.Snapshot.Timestamp,
		TimeFormat: c.Snapshot.TimeFormat,
		Bookmark:   c.Snapshot.Bookmark,
	}
}

// Policy returns the configured retention rules.
func (c *Config) Policy() replication.Policy {
	return replication.Policy(c.Retention)
}

// Marshal renders the effective configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	if c.k == nil {
		return nil, errors.New(errors.ErrInternal, "configuration was not loaded")
	}
	data, err := c.k.Marshal(toml.Parser())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to render configuration")
	}
	return []byte(strings.TrimSpace(string(data)) + "\n"), nil
}
