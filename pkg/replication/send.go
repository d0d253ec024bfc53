package replication

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/zreplica/pkg/dataset"
	"github.com/arthur-debert/zreplica/pkg/errors"
	"github.com/arthur-debert/zreplica/pkg/logging"
	"github.com/arthur-debert/zreplica/pkg/types"
)

// ModeSkip is reported for snapshots already present on the target.
const ModeSkip = "skip"

// SendOptions configures a transfer
type SendOptions struct {
	// SendFlags are extra `zfs send` flags, e.g. -w
	SendFlags []string
	// ReceiveFlags are extra `zfs receive` flags, e.g. -u
	ReceiveFlags []string
	// Pipes are filter stages between send and receive; "{size}" in an
	// argument is replaced with the estimated stream size
	Pipes  [][]string
	DryRun bool
}

// Transfer describes what Send did for one snapshot.
type Transfer struct {
	Snapshot types.Snapshot
	// Mode is "skip", "resume", "incremental" or "full"
	Mode string
	// Base is the incremental base, nil unless Mode is "incremental"
	Base types.Ref
	Size uint64
}

func logger() zerolog.Logger {
	return logging.GetLogger("replication")
}

// Send transfers snapshot from source to target with the cheapest correct
// mode:
//
//  1. target missing: full
//  2. snapshot GUID already on target: skip, nothing runs
//  3. target has a resume token: resume
//  4. a common ancestor exists: incremental from it
//  5. otherwise: full
//
// The snapshot must be in the source listing, else NOT_FOUND.
func Send(ctx context.Context, snapshot types.Snapshot, source, target *dataset.Dataset, opts SendOptions) (Transfer, error) {
	log := logger()

	sourceSnapshots, err := source.Snapshots(ctx)
	if err != nil {
		return Transfer{}, err
	}
	if !containsGUID(sourceSnapshots, snapshot.GUID) {
		return Transfer{}, errors.Newf(errors.ErrNotFound, "snapshot '%s' not in source '%s'", snapshot.FQN, source.FQN()).
			WithDetail("snapshot", snapshot.FQN).
			WithDetail("source", source.FQN())
	}

	exists, err := target.Exists(ctx)
	if err != nil {
		return Transfer{}, err
	}
	if !exists {
		return transfer(ctx, snapshot, dataset.Full{Snapshot: snapshot}, source, target, opts)
	}

	targetSnapshots, err := target.Snapshots(ctx)
	if err != nil {
		return Transfer{}, err
	}
	if containsGUID(targetSnapshots, snapshot.GUID) {
		log.Info().
			Str("snapshot", snapshot.FQN).
			Str("target", target.FQN()).
			Msg("Snapshot already on target, skipping")
		return Transfer{Snapshot: snapshot, Mode: ModeSkip}, nil
	}

	token, ok, err := target.ResumeToken(ctx)
	if err != nil {
		return Transfer{}, err
	}
	if ok {
		return transfer(ctx, snapshot, dataset.ResumeBy{Token: token}, source, target, opts)
	}

	base, err := Ancestor(ctx, snapshot, source, target)
	if err != nil {
		return Transfer{}, err
	}
	if base != nil {
		return transfer(ctx, snapshot, dataset.IncrementalFrom{Snapshot: snapshot, Ancestor: base}, source, target, opts)
	}
	return transfer(ctx, snapshot, dataset.Full{Snapshot: snapshot}, source, target, opts)
}

func transfer(ctx context.Context, snapshot types.Snapshot, spec dataset.SendSpec, source, target *dataset.Dataset, opts SendOptions) (Transfer, error) {
	log := logger()

	stream := source.Send(spec, opts.SendFlags)
	size, err := stream.Size(ctx)
	if err != nil {
		return Transfer{}, err
	}

	result := Transfer{Snapshot: snapshot, Mode: spec.Mode(), Size: size}
	log.Info().
		Str("mode", spec.Mode()).
		Str("size", humanize.IBytes(size)).
		Str("snapshot", snapshot.FQN).
		Str("target", target.FQN()).
		Bool("dryRun", opts.DryRun).
		Msg("Sending snapshot")

	switch s := spec.(type) {
	case dataset.IncrementalFrom:
		result.Base = s.Ancestor
		log.Debug().Str("base", s.Ancestor.Ident().FQN).Msg("Incremental send")
	case dataset.ResumeBy:
		log.Debug().Str("token", s.Token).Msg("Resuming send")
	}

	err = target.Receive(ctx, stream, dataset.ReceiveOptions{
		Flags:  opts.ReceiveFlags,
		Pipes:  opts.Pipes,
		DryRun: opts.DryRun,
	})
	if err != nil {
		return Transfer{}, err
	}
	return result, nil
}

func containsGUID(snapshots []types.Snapshot, guid string) bool {
	for _, s := range snapshots {
		if s.GUID == guid {
			return true
		}
	}
	return false
}
