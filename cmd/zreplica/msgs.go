package zreplica

// Short messages (one-liners)
const (
	MsgRootShort = "Replicate ZFS snapshots between datasets and hosts"
	MsgRootLong  = `zreplica keeps ZFS datasets in sync by sending snapshots with zfs send and
zfs receive, locally or over ssh. It works out the cheapest transfer for each
snapshot: resuming an interrupted receive, sending incrementally from the
newest common snapshot or bookmark, or sending the full stream.

It also creates snapshots with predictable names and prunes old ones by
retention rules.`

	MsgCompletionShort = "Generate shell completion script"

	MsgGroupReplication = "Replication:"
	MsgGroupMaintenance = "Maintenance:"
)
