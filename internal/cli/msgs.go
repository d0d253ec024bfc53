package cli

// Flag descriptions
const (
	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun  = "Show what would be done without changing any dataset"
	MsgFlagConfig  = "Config file (default is $XDG_CONFIG_HOME/zreplica/config.toml)"
	MsgFlagNoColor = "Disable colored output"

	MsgFlagBWLimit = "Limit the transfer rate through mbuffer, e.g. 10M"
	MsgFlagPipe    = "Filter command placed between send and receive (repeatable, {size} is replaced with the estimated stream size)"
	MsgFlagSendOpt = "Option passed to zfs send (repeatable, replaces send.options)"
	MsgFlagRecvOpt = "Option passed to zfs receive (repeatable, replaces receive.options)"
)
