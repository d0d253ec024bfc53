// Package replication decides how snapshots move between two datasets.
//
// Ancestor finds the newest state a source and a target share, so a transfer
// can be an incremental delta. Send picks the cheapest correct transfer for
// one snapshot: skip, resume, incremental or full. Sync sends, oldest first,
// every filtered source snapshot newer than the target's newest state, and
// refuses to act when the target holds a state the source does not know.
// Prune applies keep-count retention rules and destroys the rest in a single
// call.
//
// Matching across systems is by GUID only. Creation txgs order snapshots
// within one dataset and are never compared between source and target.
package replication
