package replication

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/arthur-debert/zreplica/pkg/dataset"
	"github.com/arthur-debert/zreplica/pkg/errors"
)

// DefaultTimeFormat renders snapshot timestamps as 2006-01-02_15:04:05.
const DefaultTimeFormat = "2006-01-02_15:04:05"

// characters zfs accepts in a snapshot name component
var validName = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

// SnapshotOptions configures CreateSnapshot
type SnapshotOptions struct {
	Prefix     string
	Tag        string
	Timestamp  bool
	TimeFormat string
	Bookmark   bool
	// Now defaults to time.Now
	Now func() time.Time
}

// SnapshotName builds `<prefix>[_<timestamp>][_<tag>]`.
func SnapshotName(opts SnapshotOptions) (string, error) {
	var parts []string
	if opts.Prefix != "" {
		parts = append(parts, opts.Prefix)
	}
	if opts.Timestamp {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		format := opts.TimeFormat
		if format == "" {
			format = DefaultTimeFormat
		}
		parts = append(parts, now().Format(format))
	}
	if opts.Tag != "" {
		parts = append(parts, opts.Tag)
	}

	name := strings.Join(parts, "_")
	if !validName.MatchString(name) {
		return "", errors.Newf(errors.ErrInvalidInput, "invalid snapshot name '%s'", name).
			WithDetail("name", name)
	}
	return name, nil
}

// CreateSnapshot snapshots ds under a generated name and, if asked, bookmarks
// the new snapshot so it can serve as an incremental base after it is
// pruned. It returns the snapshot name.
func CreateSnapshot(ctx context.Context, ds *dataset.Dataset, opts SnapshotOptions) (string, error) {
	name, err := SnapshotName(opts)
	if err != nil {
		return "", err
	}
	if err := ds.CreateSnapshot(ctx, name); err != nil {
		return "", err
	}
	if opts.Bookmark {
		if err := ds.CreateBookmark(ctx, name); err != nil {
			return "", err
		}
	}
	return name, nil
}
