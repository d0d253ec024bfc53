package types

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// SnapshotSeparator separates the dataset path from a snapshot name.
	SnapshotSeparator = "@"
	// BookmarkSeparator separates the dataset path from a bookmark name.
	BookmarkSeparator = "#"
)

// Identity holds the properties every point-in-time reference carries.
//
// GUID is the only property comparable across systems. CreateTXG orders
// entries within one dataset on one system and means nothing elsewhere.
type Identity struct {
	FQN       string `json:"fqn" yaml:"fqn"`
	GUID      string `json:"guid" yaml:"guid"`
	CreateTXG uint64 `json:"createtxg" yaml:"createtxg"`
}

// Ref is either a Snapshot or a Bookmark.
type Ref interface {
	Ident() Identity
	Name() string
	Dataset() string
	IsSnapshot() bool
}

// Snapshot is an immutable named state of a dataset, e.g. pool/A@s1.
type Snapshot struct {
	Identity
}

// Bookmark references the identity of a past snapshot, e.g. pool/A#s1.
// It can serve as an incremental base but can not be received.
type Bookmark struct {
	Identity
}

// NewSnapshot creates a Snapshot from its properties.
func NewSnapshot(fqn, guid string, createTXG uint64) Snapshot {
	return Snapshot{Identity{FQN: fqn, GUID: guid, CreateTXG: createTXG}}
}

// NewBookmark creates a Bookmark from its properties.
func NewBookmark(fqn, guid string, createTXG uint64) Bookmark {
	return Bookmark{Identity{FQN: fqn, GUID: guid, CreateTXG: createTXG}}
}

func (s Snapshot) Ident() Identity  { return s.Identity }
func (s Snapshot) Name() string     { return after(s.FQN, SnapshotSeparator) }
func (s Snapshot) Dataset() string  { return before(s.FQN, SnapshotSeparator) }
func (s Snapshot) IsSnapshot() bool { return true }
func (s Snapshot) String() string   { return s.FQN }

func (b Bookmark) Ident() Identity  { return b.Identity }
func (b Bookmark) Name() string     { return after(b.FQN, BookmarkSeparator) }
func (b Bookmark) Dataset() string  { return before(b.FQN, BookmarkSeparator) }
func (b Bookmark) IsSnapshot() bool { return false }
func (b Bookmark) String() string   { return b.FQN }

// ParseSnapshot parses one line of `zfs list -pH -o name,guid,createtxg -t snapshot`.
func ParseSnapshot(line string) (Snapshot, error) {
	id, err := parseIdentity(line, SnapshotSeparator)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{id}, nil
}

// ParseBookmark parses one line of `zfs list -pH -o name,guid,createtxg -t bookmark`.
func ParseBookmark(line string) (Bookmark, error) {
	id, err := parseIdentity(line, BookmarkSeparator)
	if err != nil {
		return Bookmark{}, err
	}
	return Bookmark{id}, nil
}

func parseIdentity(line, sep string) (Identity, error) {
	parts := strings.Fields(line)
	if len(parts) < 3 {
		return Identity{}, fmt.Errorf("expected name, guid and createtxg in %q", line)
	}
	if !strings.Contains(parts[0], sep) {
		return Identity{}, fmt.Errorf("name %q has no %q separator", parts[0], sep)
	}
	txg, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid createtxg %q: %w", parts[2], err)
	}
	return Identity{FQN: parts[0], GUID: parts[1], CreateTXG: txg}, nil
}

func after(fqn, sep string) string {
	if _, name, ok := strings.Cut(fqn, sep); ok {
		return name
	}
	return ""
}

func before(fqn, sep string) string {
	path, _, _ := strings.Cut(fqn, sep)
	return path
}

// GUIDs returns the set of GUIDs of the given snapshots.
func GUIDs(snapshots []Snapshot) map[string]struct{} {
	set := make(map[string]struct{}, len(snapshots))
	for _, s := range snapshots {
		set[s.GUID] = struct{}{}
	}
	return set
}
