// Package config loads the zreplica configuration.
//
// Values are layered, later sources overriding earlier ones:
//
//  1. the embedded defaults (embedded/defaults.toml)
//  2. a TOML file, either given explicitly or found at
//     $XDG_CONFIG_HOME/zreplica/config.toml
//  3. ZREPLICA_* environment variables, where the first underscore after the
//     prefix separates the section from the key (ZREPLICA_PIPELINE_STDERR_POLICY
//     sets pipeline.stderr_policy)
//  4. explicit overrides, usually collected from command line flags
//
// Retention policies can also live in their own TOML or YAML file, see
// LoadPolicyFile.
package config
