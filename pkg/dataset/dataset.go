// Package dataset provides a handle on a ZFS dataset, local or behind an ssh
// prefix. A handle lists and creates snapshots and bookmarks, builds send
// streams and receives them, and destroys snapshots.
//
// Listings and the resume token are cached per handle. Every mutating call
// drops the whole cache before it runs, so later reads reflect the new state.
package dataset

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/zreplica/pkg/errors"
	"github.com/arthur-debert/zreplica/pkg/logging"
	"github.com/arthur-debert/zreplica/pkg/pipeline"
	"github.com/arthur-debert/zreplica/pkg/remote"
	"github.com/arthur-debert/zreplica/pkg/types"
	"github.com/arthur-debert/zreplica/pkg/zfs"
)

// Options configures a Dataset handle
type Options struct {
	Path   string
	Remote *remote.Remote
	Runner pipeline.Runner
	Logger *zerolog.Logger
}

// Dataset is a cheap view on one dataset.
type Dataset struct {
	path   string
	remote *remote.Remote
	runner pipeline.Runner
	logger zerolog.Logger

	mu    sync.Mutex
	cache cache
}

type cache struct {
	snapshots       []types.Snapshot
	snapshotsLoaded bool
	bookmarks       []types.Bookmark
	bookmarksLoaded bool
	token           string
	hasToken        bool
	tokenLoaded     bool
}

// New creates a dataset handle
func New(opts Options) *Dataset {
	d := &Dataset{
		path:   opts.Path,
		remote: opts.Remote,
		runner: opts.Runner,
	}
	if opts.Logger != nil {
		d.logger = *opts.Logger
	} else {
		d.logger = logging.GetLogger("dataset")
	}
	d.logger = d.logger.With().Str("dataset", d.FQN()).Logger()
	return d
}

// FromLocation creates a handle for a parsed command line reference.
func FromLocation(loc remote.Location, runner pipeline.Runner) *Dataset {
	return New(Options{Path: loc.Path, Remote: loc.Remote, Runner: runner})
}

// Path is the dataset path on its own host.
func (d *Dataset) Path() string { return d.path }

// Remote is nil for local datasets.
func (d *Dataset) Remote() *remote.Remote { return d.remote }

// FQN is `host:path` for remote datasets and the path otherwise.
func (d *Dataset) FQN() string {
	return remote.Location{Remote: d.remote, Path: d.path}.FQN()
}

func (d *Dataset) String() string { return d.FQN() }

func (d *Dataset) run(ctx context.Context, args []string) (string, error) {
	return d.runner.Run(ctx, d.remote.Wrap(args...))
}

// Invalidate drops every cached listing and the resume token.
func (d *Dataset) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache = cache{}
}

func (d *Dataset) invalidateLocked() {
	d.cache = cache{}
}

// Snapshots lists the dataset's snapshots ascending by creation txg. A
// missing dataset is a NO_SUCH_DATASET error.
func (d *Dataset) Snapshots(ctx context.Context) ([]types.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.cache.snapshotsLoaded {
		d.logger.Debug().Msg("Retrieving snapshots")
		output, err := d.run(ctx, zfs.ListArgs(zfs.KindSnapshot, d.path))
		if err != nil {
			return nil, err
		}
		snapshots, err := zfs.ParseSnapshots(output)
		if err != nil {
			return nil, err
		}
		slices.SortStableFunc(snapshots, func(a, b types.Snapshot) int {
			return cmp.Compare(a.CreateTXG, b.CreateTXG)
		})
		d.cache.snapshots, d.cache.snapshotsLoaded = snapshots, true
	}
	return slices.Clone(d.cache.snapshots), nil
}

// Bookmarks lists the dataset's bookmarks ascending by creation txg.
func (d *Dataset) Bookmarks(ctx context.Context) ([]types.Bookmark, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.cache.bookmarksLoaded {
		d.logger.Debug().Msg("Retrieving bookmarks")
		output, err := d.run(ctx, zfs.ListArgs(zfs.KindBookmark, d.path))
		if err != nil {
			return nil, err
		}
		bookmarks, err := zfs.ParseBookmarks(output)
		if err != nil {
			return nil, err
		}
		slices.SortStableFunc(bookmarks, func(a, b types.Bookmark) int {
			return cmp.Compare(a.CreateTXG, b.CreateTXG)
		})
		d.cache.bookmarks, d.cache.bookmarksLoaded = bookmarks, true
	}
	return slices.Clone(d.cache.bookmarks), nil
}

// Find returns the snapshot with the given short name.
func (d *Dataset) Find(ctx context.Context, name string) (types.Snapshot, error) {
	d.logger.Debug().Str("snapshot", name).Msg("Finding snapshot")
	snapshots, err := d.Snapshots(ctx)
	if err != nil {
		return types.Snapshot{}, err
	}
	for _, s := range snapshots {
		if s.Name() == name {
			return s, nil
		}
	}
	return types.Snapshot{}, errors.Newf(errors.ErrNameNotFound, "no snapshot '%s' in '%s'", name, d.FQN()).
		WithDetail("dataset", d.FQN()).
		WithDetail("snapshot", name)
}

// Exists reports whether the dataset is present. Only NO_SUCH_DATASET means
// absent; other listing errors are returned.
func (d *Dataset) Exists(ctx context.Context) (bool, error) {
	_, err := d.Snapshots(ctx)
	if errors.IsErrorCode(err, errors.ErrNoSuchDataset) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ResumeToken returns the token of an interrupted receive, if any.
func (d *Dataset) ResumeToken(ctx context.Context) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.cache.tokenLoaded {
		d.logger.Debug().Msg("Looking for resume token")
		output, err := d.run(ctx, zfs.ResumeTokenArgs(d.path))
		if err != nil {
			return "", false, err
		}
		d.cache.token, d.cache.hasToken = zfs.ParseResumeToken(output)
		d.cache.tokenLoaded = true
	}
	return d.cache.token, d.cache.hasToken, nil
}

// CreateSnapshot creates path@name.
func (d *Dataset) CreateSnapshot(ctx context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Info().Str("snapshot", name).Msg("Creating snapshot")
	d.invalidateLocked()
	_, err := d.run(ctx, zfs.SnapshotArgs(d.path, name))
	return err
}

// CreateBookmark bookmarks path@snapshot as path#snapshot.
func (d *Dataset) CreateBookmark(ctx context.Context, snapshot string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Info().Str("bookmark", snapshot).Msg("Creating bookmark")
	d.invalidateLocked()
	_, err := d.run(ctx, zfs.BookmarkArgs(d.path, snapshot))
	return err
}

// Send builds, without running it, the send stream described by spec.
// options are extra `zfs send` flags.
func (d *Dataset) Send(spec SendSpec, options []string) *Stream {
	return &Stream{
		spec:   spec,
		args:   d.remote.Wrap(zfs.SendArgs(options, sendOperands(spec)...)...),
		runner: d.runner,
	}
}

// ReceiveOptions configures Receive
type ReceiveOptions struct {
	// Flags are extra `zfs receive` flags
	Flags []string
	// Pipes are filter stages run between send and receive
	Pipes  [][]string
	DryRun bool
}

// Receive runs `stream | pipes... | zfs receive <path>`. With DryRun the
// receive side only reports what it would do.
func (d *Dataset) Receive(ctx context.Context, stream *Stream, opts ReceiveOptions) error {
	d.Invalidate()

	pipes, err := stream.expandPipes(ctx, opts.Pipes)
	if err != nil {
		return err
	}

	cmds := make([][]string, 0, len(pipes)+2)
	cmds = append(cmds, stream.Args())
	cmds = append(cmds, pipes...)
	cmds = append(cmds, d.remote.Wrap(zfs.ReceiveArgs(d.path, opts.Flags, opts.DryRun)...))

	_, err = d.runner.Run(ctx, cmds...)
	d.Invalidate()
	return err
}

// Destroy destroys the named snapshots with a single command. Nothing runs
// for an empty list. Duplicate names are dropped.
func (d *Dataset) Destroy(ctx context.Context, names []string, dryRun bool) error {
	unique := dedupe(names)
	if len(unique) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Info().
		Strs("snapshots", unique).
		Bool("dryRun", dryRun).
		Msg("Destroying snapshots")
	d.invalidateLocked()
	_, err := d.run(ctx, zfs.DestroyArgs(d.path, unique, dryRun))
	return err
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
