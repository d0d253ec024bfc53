// Package remote models datasets that live on another host and are reached
// through an ssh command prefix.
package remote

import (
	"regexp"
	"strings"

	"github.com/arthur-debert/zreplica/pkg/errors"
)

// Remote is an ssh destination such as `user@host`, plus options passed to
// ssh with -o.
type Remote struct {
	Host    string
	Options []string
}

// Prefix returns the argv that runs a command on the remote host:
// `ssh <host> [-o opt]... --`. A nil remote has no prefix.
func (r *Remote) Prefix() []string {
	if r == nil {
		return nil
	}
	prefix := []string{"ssh", r.Host}
	for _, o := range r.Options {
		prefix = append(prefix, "-o", o)
	}
	return append(prefix, "--")
}

// Wrap prepends the remote prefix to args.
func (r *Remote) Wrap(args ...string) []string {
	return append(r.Prefix(), args...)
}

func (r *Remote) String() string {
	if r == nil {
		return ""
	}
	return r.Host
}

// Location is a parsed command line reference to a dataset, and optionally
// to one of its snapshots.
type Location struct {
	Remote   *Remote
	Path     string
	Snapshot string
}

// FQN is `host:path` for remote datasets and the bare path otherwise.
func (l Location) FQN() string {
	if l.Remote == nil {
		return l.Path
	}
	return l.Remote.Host + ":" + l.Path
}

// WithSSHOptions returns a copy of l whose remote, if any, uses opts.
func (l Location) WithSSHOptions(opts []string) Location {
	if l.Remote == nil || len(opts) == 0 {
		return l
	}
	r := *l.Remote
	r.Options = append([]string(nil), opts...)
	l.Remote = &r
	return l
}

// a remote part is only recognised in the user@host: form so that dataset
// names containing a colon are not mistaken for hosts
var remotePrefix = regexp.MustCompile(`^[^/]+@[^:]+:`)

func splitRemote(value string) (*Remote, string) {
	if !remotePrefix.MatchString(value) {
		return nil, value
	}
	host, path, _ := strings.Cut(value, ":")
	return &Remote{Host: host}, path
}

// ParseDataset parses `[user@host:]pool/dataset`.
func ParseDataset(value string) (Location, error) {
	r, path := splitRemote(value)
	if path == "" || strings.Contains(path, "@") {
		return Location{}, errors.Newf(errors.ErrInvalidInput,
			"invalid dataset reference '%s', syntax is [user@host:]pool/dataset", value).
			WithDetail("value", value)
	}
	return Location{Remote: r, Path: path}, nil
}

// ParseSnapshot parses `[user@host:]pool/dataset@snapshot`.
func ParseSnapshot(value string) (Location, error) {
	r, rest := splitRemote(value)
	path, snap, ok := strings.Cut(rest, "@")
	if !ok || path == "" || snap == "" {
		return Location{}, errors.Newf(errors.ErrInvalidInput,
			"invalid snapshot reference '%s', syntax is [user@host:]pool/dataset@snapshot", value).
			WithDetail("value", value)
	}
	return Location{Remote: r, Path: path, Snapshot: snap}, nil
}
