// Package zfs translates dataset operations into `zfs` command lines and
// parses what those commands print.
//
// Nothing here runs a process; callers prepend a remote prefix if needed and
// hand the argv to a pipeline.Runner.
package zfs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/arthur-debert/zreplica/pkg/errors"
	"github.com/arthur-debert/zreplica/pkg/types"
)

// Kind selects snapshots or bookmarks in a listing.
type Kind string

const (
	KindSnapshot Kind = "snapshot"
	KindBookmark Kind = "bookmark"
)

// NoResumeToken is what `zfs get` prints when no receive was interrupted.
const NoResumeToken = "-"

// ListArgs lists the snapshots or bookmarks of path, one
// `name guid createtxg` line each, numbers unformatted.
func ListArgs(kind Kind, path string) []string {
	return []string{"zfs", "list", "-pHt", string(kind), "-o", "name,guid,createtxg", path}
}

// SnapshotArgs creates path@name.
func SnapshotArgs(path, name string) []string {
	return []string{"zfs", "snapshot", path + types.SnapshotSeparator + name}
}

// BookmarkArgs bookmarks path@snapshot as path#snapshot.
func BookmarkArgs(path, snapshot string) []string {
	return []string{
		"zfs", "bookmark",
		path + types.SnapshotSeparator + snapshot,
		path + types.BookmarkSeparator + snapshot,
	}
}

// SendArgs is `zfs send <options> <rest>`, rest being one of `-t token`,
// `-i ancestor snapshot` or `snapshot`.
func SendArgs(options []string, rest ...string) []string {
	args := append([]string{"zfs", "send"}, options...)
	return append(args, rest...)
}

// EstimateArgs turns a send command line into its dry run that only reports
// the stream size.
func EstimateArgs(send []string) []string {
	args := append([]string(nil), send...)
	return append(args, "-P", "-n", "-v")
}

// ReceiveArgs receives a stream into path.
func ReceiveArgs(path string, options []string, dryRun bool) []string {
	args := append([]string{"zfs", "receive"}, options...)
	args = append(args, path)
	if dryRun {
		args = append(args, "-n", "-v")
	}
	return args
}

// ResumeTokenArgs reads the receive_resume_token property of path.
func ResumeTokenArgs(path string) []string {
	return []string{"zfs", "get", "-H", "-o", "value", "receive_resume_token", path}
}

// DestroyArgs destroys several snapshots of path in one command:
// `zfs destroy path@a,b,c`.
func DestroyArgs(path string, names []string, dryRun bool) []string {
	args := []string{"zfs", "destroy"}
	if dryRun {
		args = append(args, "-n", "-v")
	}
	return append(args, path+types.SnapshotSeparator+strings.Join(names, ","))
}

// ParseSnapshots parses a snapshot listing. Empty output means no snapshots.
func ParseSnapshots(output string) ([]types.Snapshot, error) {
	var snapshots []types.Snapshot
	for _, line := range lines(output) {
		s, err := types.ParseSnapshot(line)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInvalidInput, "malformed snapshot listing").
				WithDetail("line", line)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, nil
}

// ParseBookmarks parses a bookmark listing. Empty output means no bookmarks.
func ParseBookmarks(output string) ([]types.Bookmark, error) {
	var bookmarks []types.Bookmark
	for _, line := range lines(output) {
		b, err := types.ParseBookmark(line)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInvalidInput, "malformed bookmark listing").
				WithDetail("line", line)
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, nil
}

var sizeLine = regexp.MustCompile(`^size\s*(\d+)$`)

// ParseSizeEstimate reads the byte count from the last line of
// `zfs send -P -n -v`. Output without it is an internal error: the stream
// size can not be known.
func ParseSizeEstimate(output string) (uint64, error) {
	all := strings.Split(strings.TrimSpace(output), "\n")
	last := strings.TrimSpace(all[len(all)-1])

	m := sizeLine.FindStringSubmatch(last)
	if m == nil {
		return 0, errors.Newf(errors.ErrInternal, "cannot parse size from output '%s'", last)
	}
	size, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrInternal, "cannot parse size from output '%s'", last)
	}
	return size, nil
}

// ParseResumeToken returns the token and whether one is present.
func ParseResumeToken(output string) (string, bool) {
	token := strings.TrimSpace(output)
	if token == "" || token == NoResumeToken {
		return "", false
	}
	return token, true
}

func lines(output string) []string {
	var out []string
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
