package list

// Message constants
const (
	MsgShort = "List the snapshots and bookmarks of a dataset"
	MsgLong  = "List prints the snapshots of a dataset, oldest first, with their GUIDs. Bookmarks are included with --bookmarks."

	MsgFlagFilter    = "Only list names matching this glob, or a regular expression prefixed with re: (default: sync.filter)"
	MsgFlagSnapshots = "List snapshots"
	MsgFlagBookmarks = "List bookmarks"
	MsgFlagFormat    = "Output format: text, table, json or yaml"
)
