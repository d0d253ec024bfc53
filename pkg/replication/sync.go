package replication

import (
	"context"

	"github.com/arthur-debert/zreplica/pkg/dataset"
	"github.com/arthur-debert/zreplica/pkg/errors"
	"github.com/arthur-debert/zreplica/pkg/pattern"
	"github.com/arthur-debert/zreplica/pkg/types"
)

// Status classifies a source snapshot in a sync plan.
type Status string

const (
	StatusToSync        Status = "to-sync"
	StatusExcluded      Status = "excluded"
	StatusTooOld        Status = "too-old"
	StatusAlreadySynced Status = "already-synced"
)

// SyncOptions configures Sync
type SyncOptions struct {
	SendOptions
	// Filter selects snapshots by name; nil selects all
	Filter *pattern.Pattern
}

// PlanEntry is the status of one source snapshot.
type PlanEntry struct {
	Snapshot types.Snapshot `json:"snapshot" yaml:"snapshot"`
	Status   Status         `json:"status" yaml:"status"`
}

// Plan lists every source snapshot with its status, and the snapshots to
// send in the order they must be sent.
type Plan struct {
	Entries []PlanEntry
	ToSync  []types.Snapshot
}

// PlanSync computes which source snapshots the target is missing.
//
// An empty or missing target gets every source snapshot. Otherwise only
// snapshots newer than the source copy of the target's newest snapshot are
// sent; if the source has no copy of it the target was changed behind our
// back and INCONSISTENT_TARGET is returned.
func PlanSync(ctx context.Context, source, target *dataset.Dataset, filter *pattern.Pattern) (*Plan, error) {
	log := logger()

	sourceSnapshots, err := source.Snapshots(ctx)
	if err != nil {
		return nil, err
	}

	exists, err := target.Exists(ctx)
	if err != nil {
		return nil, err
	}
	var targetSnapshots []types.Snapshot
	if exists {
		if targetSnapshots, err = target.Snapshots(ctx); err != nil {
			return nil, err
		}
	}

	var missing, candidates []types.Snapshot
	if len(targetSnapshots) == 0 {
		missing = sourceSnapshots
		candidates = sourceSnapshots
	} else {
		onTarget := types.GUIDs(targetSnapshots)
		for _, s := range sourceSnapshots {
			if _, ok := onTarget[s.GUID]; !ok {
				missing = append(missing, s)
			}
		}

		newest := targetSnapshots[len(targetSnapshots)-1]
		latest, ok := findGUID(sourceSnapshots, newest.GUID)
		if !ok {
			return nil, errors.Newf(errors.ErrInconsistentTarget,
				"latest snapshot on target '%s' (guid %s) not found in source '%s'", newest.FQN, newest.GUID, source.FQN()).
				WithDetail("target", target.FQN()).
				WithDetail("guid", newest.GUID)
		}
		log.Debug().
			Str("snapshot", latest.FQN).
			Str("guid", latest.GUID).
			Uint64("createtxg", latest.CreateTXG).
			Msg("Latest snapshot on target")

		for _, s := range missing {
			if s.CreateTXG > latest.CreateTXG {
				candidates = append(candidates, s)
			}
		}
	}

	match := func(s types.Snapshot) bool { return filter == nil || filter.Match(s.Name()) }

	plan := &Plan{}
	for _, s := range candidates {
		if match(s) {
			plan.ToSync = append(plan.ToSync, s)
		}
	}

	toSync := types.GUIDs(plan.ToSync)
	notOnTarget := types.GUIDs(missing)
	for _, s := range sourceSnapshots {
		status := StatusAlreadySynced
		if _, ok := toSync[s.GUID]; ok {
			status = StatusToSync
		} else if !match(s) {
			status = StatusExcluded
		} else if _, ok := notOnTarget[s.GUID]; ok {
			status = StatusTooOld
		}
		plan.Entries = append(plan.Entries, PlanEntry{Snapshot: s, Status: status})
		log.Debug().Str("status", string(status)).Str("snapshot", s.Name()).Msg("Sync plan")
	}
	return plan, nil
}

// Sync sends every planned snapshot, oldest first, one at a time: each
// transfer may be the incremental base of the next. The first error stops
// the batch; snapshots sent before it stay on the target.
func Sync(ctx context.Context, source, target *dataset.Dataset, opts SyncOptions) ([]Transfer, error) {
	log := logger()
	log.Info().
		Str("source", source.FQN()).
		Str("target", target.FQN()).
		Msg("Syncing newer snapshots")

	plan, err := PlanSync(ctx, source, target, opts.Filter)
	if err != nil {
		return nil, err
	}
	log.Info().Int("count", len(plan.ToSync)).Msg("Snapshots need syncing")

	transfers := make([]Transfer, 0, len(plan.ToSync))
	for _, s := range plan.ToSync {
		t, err := Send(ctx, s, source, target, opts.SendOptions)
		if err != nil {
			return transfers, err
		}
		transfers = append(transfers, t)
	}
	return transfers, nil
}

func findGUID(snapshots []types.Snapshot, guid string) (types.Snapshot, bool) {
	for _, s := range snapshots {
		if s.GUID == guid {
			return s, true
		}
	}
	return types.Snapshot{}, false
}
