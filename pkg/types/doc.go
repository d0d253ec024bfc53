// Package types defines the entity model shared by every other package:
// snapshots and bookmarks of a dataset, identified across systems by their
// GUID and ordered within one dataset by their creation transaction group.
package types
