package replication

import (
	"cmp"
	"context"
	"slices"

	"github.com/arthur-debert/zreplica/pkg/dataset"
	"github.com/arthur-debert/zreplica/pkg/types"
)

// FindAncestor returns the newest candidate strictly older than snapshot
// whose GUID exists among the target snapshots, or nil. At equal txg a
// snapshot is preferred over a bookmark.
func FindAncestor(snapshot types.Snapshot, candidates []types.Ref, target []types.Snapshot) types.Ref {
	older := make([]types.Ref, 0, len(candidates))
	for _, c := range candidates {
		if c.Ident().CreateTXG < snapshot.CreateTXG {
			older = append(older, c)
		}
	}

	slices.SortStableFunc(older, func(a, b types.Ref) int {
		if c := cmp.Compare(a.Ident().CreateTXG, b.Ident().CreateTXG); c != 0 {
			return c
		}
		return cmp.Compare(rank(a), rank(b))
	})

	guids := types.GUIDs(target)
	for i := len(older) - 1; i >= 0; i-- {
		if _, ok := guids[older[i].Ident().GUID]; ok {
			return older[i]
		}
	}
	return nil
}

func rank(r types.Ref) int {
	if r.IsSnapshot() {
		return 1
	}
	return 0
}

// Ancestor lists source snapshots and bookmarks and the target snapshots and
// resolves the incremental base for snapshot.
func Ancestor(ctx context.Context, snapshot types.Snapshot, source, target *dataset.Dataset) (types.Ref, error) {
	snapshots, err := source.Snapshots(ctx)
	if err != nil {
		return nil, err
	}
	bookmarks, err := source.Bookmarks(ctx)
	if err != nil {
		return nil, err
	}
	targetSnapshots, err := target.Snapshots(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]types.Ref, 0, len(snapshots)+len(bookmarks))
	for _, s := range snapshots {
		candidates = append(candidates, s)
	}
	for _, b := range bookmarks {
		candidates = append(candidates, b)
	}
	return FindAncestor(snapshot, candidates, targetSnapshots), nil
}
