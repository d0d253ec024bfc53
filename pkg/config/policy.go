package config

import (
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/zreplica/pkg/errors"
	"github.com/arthur-debert/zreplica/pkg/pattern"
	"github.com/arthur-debert/zreplica/pkg/replication"
)

// policyFile accepts rules either as a list or as a pattern -> keep table:
//
//	[[retention]]
//	pattern = "*_hourly"
//	keep = 24
//
//	[keep]
//	"*_weekly" = 4
type policyFile struct {
	Retention []replication.Rule `toml:"retention" yaml:"retention"`
	Keep      map[string]int     `toml:"keep" yaml:"keep"`
}

// LoadPolicyFile reads a retention policy from a .toml, .yaml or .yml file.
// List rules come first in file order, followed by table rules ordered by
// pattern.
func LoadPolicyFile(fs afero.Fs, path string) (replication.Policy, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read policy file %s", path).
			WithDetail("path", path)
	}

	var pf policyFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &pf)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &pf)
	default:
		return nil, errors.Newf(errors.ErrConfigLoad, "unsupported policy file type %q", ext).
			WithDetail("path", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse policy file %s", path).
			WithDetail("path", path)
	}

	policy := append(replication.Policy{}, pf.Retention...)
	policy = append(policy, replication.PolicyFromMap(pf.Keep)...)
	if len(policy) == 0 {
		return nil, errors.Newf(errors.ErrConfigValid, "policy file %s has no rules", path).
			WithDetail("path", path)
	}
	for _, rule := range policy {
		if _, err := pattern.Compile(rule.Pattern); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigValid, "invalid retention pattern %q", rule.Pattern).
				WithDetail("path", path)
		}
		if rule.Keep < 0 {
			return nil, errors.Newf(errors.ErrConfigValid, "retention for %q keeps a negative count", rule.Pattern).
				WithDetail("path", path)
		}
	}
	return policy, nil
}
