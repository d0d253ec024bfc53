package version

// Message constants
const (
	MsgShort  = "Print version information"
	MsgLong   = "Print detailed version information including commit hash and build date"
	MsgFormat = "zreplica version %s\n  commit: %s\n  built:  %s\n"
)
