// pkg/dataset/dataset_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: testutil.MockRunner, testutil.MemZFS
// PURPOSE: Test dataset commands, caching and invalidation

package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/zreplica/pkg/errors"
	"github.com/arthur-debert/zreplica/pkg/remote"
	"github.com/arthur-debert/zreplica/pkg/testutil"
	"github.com/arthur-debert/zreplica/pkg/types"
)

var ctx = context.Background()

func listSnapshots(path string) [][]string {
	return [][]string{{"zfs", "list", "-pHt", "snapshot", "-o", "name,guid,createtxg", path}}
}

func TestSnapshots_SortedAndCached(t *testing.T) {
	runner := &testutil.MockRunner{}
	runner.On("Run", mock.Anything, listSnapshots("pool/A")).
		Return("pool/A@s3\t3\t30\npool/A@s1\t1\t10\npool/A@s2\t2\t20", nil).Once()

	d := New(Options{Path: "pool/A", Runner: runner})

	snapshots, err := d.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	assert.Equal(t, []string{"s1", "s2", "s3"}, names(snapshots))

	// second read served from cache
	again, err := d.Snapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, snapshots, again)
	runner.AssertExpectations(t)
}

func TestSnapshots_ReturnsCopy(t *testing.T) {
	zfs := testutil.NewMemZFS()
	zfs.Dataset("pool/A").Snapshot("s1", "s2")
	d := New(Options{Path: "pool/A", Runner: zfs})

	first, err := d.Snapshots(ctx)
	require.NoError(t, err)
	first[0] = types.Snapshot{}

	second, err := d.Snapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s1", second[0].Name())
}

func TestRemoteDataset_UsesSSHPrefix(t *testing.T) {
	runner := &testutil.MockRunner{}
	runner.On("Run", mock.Anything, [][]string{{
		"ssh", "user@nas", "-o", "BatchMode=yes", "--",
		"zfs", "list", "-pHt", "bookmark", "-o", "name,guid,createtxg", "tank/A",
	}}).Return("tank/A#s1\t1\t10", nil).Once()

	d := New(Options{
		Path:   "tank/A",
		Remote: &remote.Remote{Host: "user@nas", Options: []string{"BatchMode=yes"}},
		Runner: runner,
	})

	assert.Equal(t, "user@nas:tank/A", d.FQN())
	bookmarks, err := d.Bookmarks(ctx)
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, "tank/A#s1", bookmarks[0].FQN)
	runner.AssertExpectations(t)
}

func TestFind(t *testing.T) {
	zfs := testutil.NewMemZFS()
	zfs.Dataset("pool/A").Snapshot("s1", "s2")
	d := New(Options{Path: "pool/A", Runner: zfs})

	s, err := d.Find(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "pool/A@s2", s.FQN)

	_, err = d.Find(ctx, "s9")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNameNotFound))
}

func TestExists(t *testing.T) {
	zfs := testutil.NewMemZFS()
	zfs.Dataset("pool/A")

	exists, err := New(Options{Path: "pool/A", Runner: zfs}).Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = New(Options{Path: "pool/missing", Runner: zfs}).Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExists_OtherErrorsPropagate(t *testing.T) {
	runner := &testutil.MockRunner{}
	runner.On("Run", mock.Anything, listSnapshots("pool/A")).
		Return("", errors.New(errors.ErrStageFailure, "ssh: connection refused"))

	_, err := New(Options{Path: "pool/A", Runner: runner}).Exists(ctx)
	assert.True(t, errors.IsErrorCode(err, errors.ErrStageFailure))
}

func TestMutationsInvalidateCache(t *testing.T) {
	zfs := testutil.NewMemZFS()
	zfs.Dataset("pool/A").Snapshot("s1")
	d := New(Options{Path: "pool/A", Runner: zfs})

	before, err := d.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, before, 1)

	require.NoError(t, d.CreateSnapshot(ctx, "s2"))
	after, err := d.Snapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, names(after))

	require.NoError(t, d.CreateBookmark(ctx, "s2"))
	bookmarks, err := d.Bookmarks(ctx)
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, after[1].GUID, bookmarks[0].GUID)

	require.NoError(t, d.Destroy(ctx, []string{"s1"}, false))
	after, err = d.Snapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, names(after))
}

func TestResumeToken(t *testing.T) {
	zfs := testutil.NewMemZFS()
	zfs.Dataset("pool/B")
	d := New(Options{Path: "pool/B", Runner: zfs})

	_, ok, err := d.ResumeToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	zfs.Dataset("pool/B").Token = "1-abc"
	_, ok, err = d.ResumeToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "token is cached until invalidated")

	d.Invalidate()
	token, ok, err := d.ResumeToken(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1-abc", token)
}

func TestSend_Shapes(t *testing.T) {
	s1 := types.NewSnapshot("pool/A@s1", "1", 10)
	s2 := types.NewSnapshot("pool/A@s2", "2", 20)
	b1 := types.NewBookmark("pool/A#s1", "1", 10)

	tests := []struct {
		name string
		spec SendSpec
		mode string
		want []string
	}{
		{"resume", ResumeBy{Token: "1-abc"}, "resume", []string{"zfs", "send", "-w", "-t", "1-abc"}},
		{"incremental from snapshot", IncrementalFrom{Snapshot: s2, Ancestor: s1}, "incremental", []string{"zfs", "send", "-w", "-i", "pool/A@s1", "pool/A@s2"}},
		{"incremental from bookmark", IncrementalFrom{Snapshot: s2, Ancestor: b1}, "incremental", []string{"zfs", "send", "-w", "-i", "pool/A#s1", "pool/A@s2"}},
		{"full", Full{Snapshot: s1}, "full", []string{"zfs", "send", "-w", "pool/A@s1"}},
	}

	d := New(Options{Path: "pool/A", Runner: &testutil.MockRunner{}})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := d.Send(tt.spec, []string{"-w"})
			assert.Equal(t, tt.want, stream.Args())
			assert.Equal(t, tt.mode, stream.Spec().Mode())
		})
	}
}

func TestStreamSize_Cached(t *testing.T) {
	runner := &testutil.MockRunner{}
	runner.On("Run", mock.Anything, [][]string{{"zfs", "send", "pool/A@s1", "-P", "-n", "-v"}}).
		Return("full\tpool/A@s1\t4096\nsize\t4096", nil).Once()

	stream := New(Options{Path: "pool/A", Runner: runner}).Send(Full{Snapshot: types.NewSnapshot("pool/A@s1", "1", 1)}, nil)

	for i := 0; i < 2; i++ {
		size, err := stream.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(4096), size)
	}
	runner.AssertExpectations(t)
}

func TestStreamSize_UnparseableIsInternal(t *testing.T) {
	runner := &testutil.MockRunner{}
	runner.On("Run", mock.Anything, mock.Anything).Return("nothing useful", nil)

	stream := New(Options{Path: "pool/A", Runner: runner}).Send(ResumeBy{Token: "x"}, nil)
	_, err := stream.Size(ctx)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInternal))
}

func TestReceive_SubstitutesSize(t *testing.T) {
	runner := &testutil.MockRunner{}
	runner.On("Run", mock.Anything, [][]string{{"zfs", "send", "pool/A@s1", "-P", "-n", "-v"}}).
		Return("size\t1024", nil).Once()
	runner.On("Run", mock.Anything, [][]string{
		{"zfs", "send", "pool/A@s1"},
		{"pv", "-s", "1024"},
		{"ssh", "backup", "--", "zfs", "receive", "-u", "tank/A", "-n", "-v"},
	}).Return("", nil).Once()

	source := New(Options{Path: "pool/A", Runner: runner})
	target := New(Options{Path: "tank/A", Remote: &remote.Remote{Host: "backup"}, Runner: runner})

	stream := source.Send(Full{Snapshot: types.NewSnapshot("pool/A@s1", "1", 1)}, nil)
	err := target.Receive(ctx, stream, ReceiveOptions{
		Flags:  []string{"-u"},
		Pipes:  [][]string{{"pv", "-s", "{size}"}},
		DryRun: true,
	})

	require.NoError(t, err)
	runner.AssertExpectations(t)
}

func TestReceive_NoPlaceholderSkipsEstimate(t *testing.T) {
	runner := &testutil.MockRunner{}
	runner.On("Run", mock.Anything, [][]string{
		{"zfs", "send", "pool/A@s1"},
		{"gzip"},
		{"zfs", "receive", "pool/B"},
	}).Return("", nil).Once()

	source := New(Options{Path: "pool/A", Runner: runner})
	target := New(Options{Path: "pool/B", Runner: runner})

	stream := source.Send(Full{Snapshot: types.NewSnapshot("pool/A@s1", "1", 1)}, nil)
	require.NoError(t, target.Receive(ctx, stream, ReceiveOptions{Pipes: [][]string{{"gzip"}}}))
	runner.AssertExpectations(t)
}

func TestDestroy(t *testing.T) {
	t.Run("empty list runs nothing", func(t *testing.T) {
		runner := &testutil.MockRunner{}
		require.NoError(t, New(Options{Path: "pool/A", Runner: runner}).Destroy(ctx, nil, false))
		runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})

	t.Run("duplicates are dropped", func(t *testing.T) {
		runner := &testutil.MockRunner{}
		runner.On("Run", mock.Anything, [][]string{{"zfs", "destroy", "pool/A@s1,s2"}}).Return("", nil).Once()

		err := New(Options{Path: "pool/A", Runner: runner}).Destroy(ctx, []string{"s1", "s2", "s1"}, false)
		require.NoError(t, err)
		runner.AssertExpectations(t)
	})

	t.Run("dry run", func(t *testing.T) {
		runner := &testutil.MockRunner{}
		runner.On("Run", mock.Anything, [][]string{{"zfs", "destroy", "-n", "-v", "pool/A@s1"}}).Return("would destroy pool/A@s1", nil).Once()

		require.NoError(t, New(Options{Path: "pool/A", Runner: runner}).Destroy(ctx, []string{"s1"}, true))
		runner.AssertExpectations(t)
	})
}

func TestUnknownSendSpecPanics(t *testing.T) {
	assert.Panics(t, func() { sendOperands(nil) })
}

func names(snapshots []types.Snapshot) []string {
	out := make([]string, len(snapshots))
	for i, s := range snapshots {
		out[i] = s.Name()
	}
	return out
}
