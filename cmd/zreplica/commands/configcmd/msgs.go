package configcmd

// Message constants
const (
	MsgShort     = "Inspect the zreplica configuration"
	MsgShowShort = "Print the effective configuration as TOML"
	MsgShowLong  = `Show prints the configuration after layering the built-in defaults, the
config file and ZREPLICA_* environment variables. The output is valid TOML
and can be used as a starting point for a config file.`
	MsgPathShort = "Print the path of the user config file"
)
