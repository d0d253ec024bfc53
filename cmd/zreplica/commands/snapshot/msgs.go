package snapshot

// Message constants
const (
	MsgShort = "Create a named snapshot, and by default a bookmark of it"
	MsgLong  = `Snapshot creates <name>_<timestamp>_<tag> on the dataset. The name defaults
to snapshot.prefix, the timestamp uses snapshot.time_format and the tag is
omitted unless given. A bookmark with the same name is created as well unless
--no-bookmark is set; bookmarks survive pruning and keep incremental sends
possible.`
	MsgExample = `  zreplica snapshot tank/home --tag hourly
  zreplica snapshot user@nas:backup/home --name manual --no-timestamp`

	MsgFlagName        = "Snapshot name prefix (default: snapshot.prefix)"
	MsgFlagTag         = "Tag appended to the name, e.g. hourly"
	MsgFlagTimestamp   = "Append a timestamp to the name"
	MsgFlagNoTimestamp = "Do not append a timestamp"
	MsgFlagBookmark    = "Also bookmark the snapshot"
	MsgFlagNoBookmark  = "Do not bookmark the snapshot"

	MsgCreated     = "created %s@%s\n"
	MsgWouldCreate = "would create %s@%s\n"
)
