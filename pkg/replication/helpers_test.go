package replication

import (
	"context"

	"github.com/arthur-debert/zreplica/pkg/dataset"
	"github.com/arthur-debert/zreplica/pkg/testutil"
)

var ctx = context.Background()

func open(zfs *testutil.MemZFS, path string) *dataset.Dataset {
	return dataset.New(dataset.Options{Path: path, Runner: zfs})
}
