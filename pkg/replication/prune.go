package replication

import (
	"context"
	"sort"

	"github.com/arthur-debert/zreplica/pkg/dataset"
	"github.com/arthur-debert/zreplica/pkg/pattern"
)

// Rule keeps the Keep most recent snapshots whose name matches Pattern.
type Rule struct {
	Pattern string `json:"pattern" yaml:"pattern" toml:"pattern" koanf:"pattern"`
	Keep    int    `json:"keep" yaml:"keep" toml:"keep" koanf:"keep"`
}

// Policy is a list of retention rules evaluated independently.
type Policy []Rule

// PolicyFromMap builds a policy from pattern -> keep, ordered by pattern.
func PolicyFromMap(m map[string]int) Policy {
	policy := make(Policy, 0, len(m))
	for p, keep := range m {
		policy = append(policy, Rule{Pattern: p, Keep: keep})
	}
	sort.Slice(policy, func(i, j int) bool { return policy[i].Pattern < policy[j].Pattern })
	return policy
}

// RuleResult is the outcome of one rule.
type RuleResult struct {
	Rule      Rule     `json:"rule" yaml:"rule"`
	Matched   []string `json:"matched" yaml:"matched"`
	Kept      []string `json:"kept" yaml:"kept"`
	Destroyed []string `json:"destroyed" yaml:"destroyed"`
}

// PruneResult lists what every rule selected and the names passed to the
// single destroy call.
type PruneResult struct {
	Rules     []RuleResult `json:"rules" yaml:"rules"`
	Destroyed []string     `json:"destroyed" yaml:"destroyed"`
	DryRun    bool         `json:"dryRun" yaml:"dryRun"`
}

// Prune applies policy to the snapshots of ds. Per rule the last Keep
// matches are retained (none when Keep <= 0) and every other match is
// obsolete. The union of obsolete names, each once, is destroyed in one
// call; with dryRun the destroy only reports.
func Prune(ctx context.Context, ds *dataset.Dataset, policy Policy, dryRun bool) (*PruneResult, error) {
	log := logger()

	compiled := make([]*pattern.Pattern, len(policy))
	for i, rule := range policy {
		p, err := pattern.Compile(rule.Pattern)
		if err != nil {
			return nil, err
		}
		compiled[i] = p
	}

	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, err
	}

	result := &PruneResult{DryRun: dryRun}
	seen := make(map[string]struct{})
	for i, rule := range policy {
		rr := RuleResult{Rule: rule}
		for _, s := range snapshots {
			if compiled[i].Match(s.Name()) {
				rr.Matched = append(rr.Matched, s.Name())
			}
		}

		cut := len(rr.Matched)
		if rule.Keep > 0 {
			cut = max(len(rr.Matched)-rule.Keep, 0)
		}
		rr.Destroyed = rr.Matched[:cut:cut]
		rr.Kept = rr.Matched[cut:]

		for _, name := range rr.Destroyed {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				result.Destroyed = append(result.Destroyed, name)
			}
		}

		log.Info().
			Str("dataset", ds.FQN()).
			Str("pattern", rule.Pattern).
			Int("keep", rule.Keep).
			Int("matched", len(rr.Matched)).
			Int("destroy", len(rr.Destroyed)).
			Msg("Retention rule")
		for _, name := range rr.Matched {
			action := "keep"
			if _, ok := seen[name]; ok {
				action = "prune"
			}
			log.Debug().Str("action", action).Str("snapshot", name).Msg("Retention")
		}
		result.Rules = append(result.Rules, rr)
	}

	if err := ds.Destroy(ctx, result.Destroyed, dryRun); err != nil {
		return nil, err
	}
	return result, nil
}
