package testutil

import (
	"cmp"
	"context"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"math/rand"
	"slices"
	"strings"
	"sync"

	"github.com/arthur-debert/zreplica/pkg/logging"
	"github.com/arthur-debert/zreplica/pkg/pipeline"
	"github.com/arthur-debert/zreplica/pkg/types"
)

// DefaultStreamSize is what MemZFS reports for `zfs send -P -n -v`.
const DefaultStreamSize = 3711767360

// MemZFS simulates the zfs command line in memory. It implements
// pipeline.Runner, records every invocation and answers listings in a random
// order so callers can not depend on the order zfs prints.
//
// Datasets are identified by path only; an ssh prefix is stripped.
type MemZFS struct {
	mu       sync.Mutex
	datasets map[string]*MemDataset
	calls    []string
	failures map[string]error
	rng      *rand.Rand

	StreamSize uint64
}

// MemDataset is one simulated dataset.
type MemDataset struct {
	Path string
	// Token is reported as receive_resume_token when set
	Token string

	entries map[string]types.Identity
	txg     uint64
}

// NewMemZFS creates an empty simulated pool.
func NewMemZFS() *MemZFS {
	return &MemZFS{
		datasets:   make(map[string]*MemDataset),
		failures:   make(map[string]error),
		rng:        rand.New(rand.NewSource(1)),
		StreamSize: DefaultStreamSize,
	}
}

// Dataset returns the dataset at path, creating it when missing.
func (m *MemZFS) Dataset(path string) *MemDataset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dataset(path)
}

func (m *MemZFS) dataset(path string) *MemDataset {
	if d, ok := m.datasets[path]; ok {
		return d
	}
	// txgs of different pools are not comparable; start each dataset at an
	// arbitrary offset
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	d := &MemDataset{
		Path:    path,
		entries: make(map[string]types.Identity),
		txg:     uint64(h.Sum32() % 1000),
	}
	m.datasets[path] = d
	return d
}

// Has reports whether a dataset exists at path.
func (m *MemZFS) Has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.datasets[path]
	return ok
}

// Snapshot creates snapshots with GUID "guid:<fqn>", one txg apart.
func (d *MemDataset) Snapshot(names ...string) *MemDataset {
	for _, name := range names {
		fqn := d.Path + types.SnapshotSeparator + name
		d.add(fqn, "guid:"+fqn)
	}
	return d
}

// Bookmark bookmarks an existing snapshot under the same name.
func (d *MemDataset) Bookmark(snapshot string) *MemDataset {
	s, ok := d.entries[d.Path+types.SnapshotSeparator+snapshot]
	if !ok {
		panic(fmt.Sprintf("testutil: snapshot %s@%s does not exist", d.Path, snapshot))
	}
	fqn := d.Path + types.BookmarkSeparator + snapshot
	d.entries[fqn] = types.Identity{FQN: fqn, GUID: s.GUID, CreateTXG: s.CreateTXG}
	return d
}

// Receive inserts a snapshot carrying guid, as a receive would.
func (d *MemDataset) Receive(name, guid string) *MemDataset {
	d.add(d.Path+types.SnapshotSeparator+name, guid)
	return d
}

func (d *MemDataset) add(fqn, guid string) {
	d.txg++
	d.entries[fqn] = types.Identity{FQN: fqn, GUID: guid, CreateTXG: d.txg}
}

// Snapshots returns the snapshot names ascending by txg.
func (d *MemDataset) Snapshots() []string {
	return d.names(types.SnapshotSeparator)
}

// Bookmarks returns the bookmark names ascending by txg.
func (d *MemDataset) Bookmarks() []string {
	return d.names(types.BookmarkSeparator)
}

// GUID returns the GUID of path@name, or "" when absent.
func (d *MemDataset) GUID(name string) string {
	return d.entries[d.Path+types.SnapshotSeparator+name].GUID
}

func (d *MemDataset) names(sep string) []string {
	var ids []types.Identity
	for _, id := range d.entries {
		if strings.Contains(id.FQN, sep) {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, func(a, b types.Identity) int {
		return cmp.Compare(a.CreateTXG, b.CreateTXG)
	})
	names := make([]string, len(ids))
	for i, id := range ids {
		_, names[i], _ = strings.Cut(id.FQN, sep)
	}
	return names
}

func (d *MemDataset) listing(sep string, rng *rand.Rand) string {
	var lines []string
	for _, id := range d.entries {
		if strings.Contains(id.FQN, sep) {
			lines = append(lines, fmt.Sprintf("%s\t%s\t%d", id.FQN, id.GUID, id.CreateTXG))
		}
	}
	slices.Sort(lines)
	rng.Shuffle(len(lines), func(i, j int) { lines[i], lines[j] = lines[j], lines[i] })
	return strings.Join(lines, "\n")
}

// ResumeToken encodes a snapshot name the way MemZFS decodes `zfs send -t`.
func ResumeToken(fqn string) string {
	return hex.EncodeToString([]byte(fqn))
}

// FailOn makes every invocation whose command line contains substr fail
// with err.
func (m *MemZFS) FailOn(substr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[substr] = err
}

// Calls returns every recorded invocation formatted as `a | b | c`.
func (m *MemZFS) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CountCalls counts recorded invocations containing substr.
func (m *MemZFS) CountCalls(substr string) int {
	n := 0
	for _, c := range m.Calls() {
		if strings.Contains(c, substr) {
			n++
		}
	}
	return n
}

// Reset forgets the recorded invocations.
func (m *MemZFS) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Run implements pipeline.Runner.
func (m *MemZFS) Run(ctx context.Context, cmds ...[]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(cmds) == 0 {
		return "", fmt.Errorf("testutil: empty pipeline")
	}

	line := logging.FormatPipeline(cmds)
	m.calls = append(m.calls, line)
	for substr, err := range m.failures {
		if strings.Contains(line, substr) {
			return "", err
		}
	}

	first := stripRemote(cmds[0])
	if len(cmds) > 1 {
		return "", m.transfer(first, stripRemote(cmds[len(cmds)-1]))
	}

	switch {
	case hasPrefix(first, "zfs", "list"):
		d, err := m.existing(first)
		if err != nil {
			return "", err
		}
		if slices.Contains(first, "bookmark") {
			return d.listing(types.BookmarkSeparator, m.rng), nil
		}
		return d.listing(types.SnapshotSeparator, m.rng), nil

	case hasPrefix(first, "zfs", "get"):
		d, err := m.existing(first)
		if err != nil {
			return "", err
		}
		if d.Token == "" {
			return "-", nil
		}
		return d.Token, nil

	case hasPrefix(first, "zfs", "snapshot"):
		path, name, _ := strings.Cut(last(first), types.SnapshotSeparator)
		d, err := m.lookup(first, path)
		if err != nil {
			return "", err
		}
		if _, ok := d.entries[last(first)]; ok {
			return "", pipeline.Classify(first, fmt.Sprintf("cannot create snapshot '%s': dataset already exists", last(first)))
		}
		d.Snapshot(name)
		return "", nil

	case hasPrefix(first, "zfs", "bookmark"):
		path, name, _ := strings.Cut(first[len(first)-2], types.SnapshotSeparator)
		d, err := m.lookup(first, path)
		if err != nil {
			return "", err
		}
		if _, ok := d.entries[first[len(first)-2]]; !ok {
			return "", pipeline.Classify(first, fmt.Sprintf("cannot bookmark '%s': dataset does not exist", first[len(first)-2]))
		}
		d.Bookmark(name)
		return "", nil

	case hasPrefix(first, "zfs", "destroy"):
		path, names, _ := strings.Cut(last(first), types.SnapshotSeparator)
		d, err := m.lookup(first, path)
		if err != nil {
			return "", err
		}
		var out []string
		for _, name := range strings.Split(names, ",") {
			fqn := path + types.SnapshotSeparator + name
			if _, ok := d.entries[fqn]; !ok {
				return "", pipeline.Classify(first, fmt.Sprintf("could not find any snapshots to destroy; check snapshot names: %s", fqn))
			}
			out = append(out, "would destroy "+fqn)
			if !slices.Contains(first, "-n") {
				delete(d.entries, fqn)
			}
		}
		if slices.Contains(first, "-n") {
			return strings.Join(out, "\n"), nil
		}
		return "", nil

	case hasPrefix(first, "zfs", "send") && slices.Contains(first, "-P"):
		snap := first[len(first)-4]
		return fmt.Sprintf("full\t%s\t%d\nsize\t%d", snap, m.StreamSize, m.StreamSize), nil
	}

	return "", fmt.Errorf("testutil: unsupported command %q", line)
}

// transfer simulates `zfs send ... | filters... | zfs receive ...`.
func (m *MemZFS) transfer(send, receive []string) error {
	if !hasPrefix(send, "zfs", "send") || !hasPrefix(receive, "zfs", "receive") {
		return fmt.Errorf("testutil: unsupported pipeline %q | %q", send, receive)
	}

	fqn := last(send)
	if i := slices.Index(send, "-t"); i >= 0 {
		decoded, err := hex.DecodeString(send[i+1])
		if err != nil {
			return pipeline.Classify(send, "cannot resume send: kernel modules must be upgraded to receive this stream")
		}
		fqn = string(decoded)
	}

	srcPath, _, _ := strings.Cut(fqn, types.SnapshotSeparator)
	src, err := m.lookup(send, srcPath)
	if err != nil {
		return err
	}
	snap, ok := src.entries[fqn]
	if !ok {
		return pipeline.Classify(send, fmt.Sprintf("cannot open '%s': dataset does not exist", fqn))
	}

	dstPath := ""
	for _, arg := range receive[2:] {
		if !strings.HasPrefix(arg, "-") {
			dstPath = arg
		}
	}
	dryRun := slices.Contains(receive, "-n")

	dst, exists := m.datasets[dstPath]
	if i := slices.Index(send, "-i"); i >= 0 {
		base, ok := src.entries[send[i+1]]
		if !ok {
			return pipeline.Classify(send, fmt.Sprintf("cannot open '%s': dataset does not exist", send[i+1]))
		}
		if !exists || !dst.hasGUID(base.GUID) {
			return pipeline.Classify(receive, fmt.Sprintf("cannot receive incremental stream: most recent snapshot of %s does not match incremental source", dstPath))
		}
	} else if exists && !slices.Contains(send, "-t") && len(dst.Snapshots()) > 0 {
		return pipeline.Classify(receive, fmt.Sprintf("cannot receive new filesystem stream: destination '%s' exists\nmust specify -F to overwrite it", dstPath))
	}

	if dryRun {
		return nil
	}
	dst = m.dataset(dstPath)
	dst.Token = ""
	_, name, _ := strings.Cut(fqn, types.SnapshotSeparator)
	dst.Receive(name, snap.GUID)
	return nil
}

func (d *MemDataset) hasGUID(guid string) bool {
	for fqn, id := range d.entries {
		if strings.Contains(fqn, types.SnapshotSeparator) && id.GUID == guid {
			return true
		}
	}
	return false
}

func (m *MemZFS) existing(args []string) (*MemDataset, error) {
	return m.lookup(args, last(args))
}

func (m *MemZFS) lookup(args []string, path string) (*MemDataset, error) {
	d, ok := m.datasets[path]
	if !ok {
		return nil, pipeline.Classify(args, fmt.Sprintf("cannot open '%s': dataset does not exist", path))
	}
	return d, nil
}

func stripRemote(args []string) []string {
	if len(args) == 0 || args[0] != "ssh" {
		return args
	}
	if i := slices.Index(args, "--"); i >= 0 {
		return args[i+1:]
	}
	return args
}

func hasPrefix(args []string, prefix ...string) bool {
	return len(args) >= len(prefix) && slices.Equal(args[:len(prefix)], prefix)
}

func last(args []string) string {
	return args[len(args)-1]
}
