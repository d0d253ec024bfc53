// cmd/zreplica/root_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: testutil.MemZFS, afero MemMapFs, temp XDG dirs
// PURPOSE: Test the commands end to end against a simulated zfs

package zreplica

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/zreplica/internal/cli"
	"github.com/arthur-debert/zreplica/pkg/errors"
	"github.com/arthur-debert/zreplica/pkg/output"
	"github.com/arthur-debert/zreplica/pkg/testutil"
)

type harness struct {
	*testutil.TestEnvironment
	zfs *testutil.MemZFS
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	env := testutil.NewTestEnvironment(t)
	return &harness{TestEnvironment: env, zfs: env.ZFS}
}

func (h *harness) run(args ...string) (string, error) {
	cmd := newRootCmd(&cli.Globals{Runner: h.zfs}, h.FS)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSend_Full(t *testing.T) {
	h := newHarness(t)
	h.zfs.Dataset("pool/A").Snapshot("s1")

	out, err := h.run("send", "pool/A@s1", "pool/B")
	require.NoError(t, err)

	assert.Contains(t, out, "sent full pool/A@s1")
	assert.Equal(t, []string{"s1"}, h.zfs.Dataset("pool/B").Snapshots())
	assert.Equal(t, 1, h.zfs.CountCalls("zfs send -w pool/A@s1 | zfs receive -s -u pool/B"))
}

func TestSend_Incremental(t *testing.T) {
	h := newHarness(t)
	a := h.zfs.Dataset("pool/A").Snapshot("s1", "s2")
	h.zfs.Dataset("pool/B").Receive("s1", a.GUID("s1"))

	out, err := h.run("send", "pool/A@s2", "pool/B")
	require.NoError(t, err)

	assert.Contains(t, out, "sent pool/A@s2 from pool/A@s1")
	assert.Equal(t, []string{"s1", "s2"}, h.zfs.Dataset("pool/B").Snapshots())
}

func TestSend_TransferFlags(t *testing.T) {
	h := newHarness(t)
	h.zfs.Dataset("pool/A").Snapshot("s1")

	_, err := h.run("send", "pool/A@s1", "user@backup:pool/B",
		"--bwlimit", "10M", "--pipe", "pv -q -s {size}", "--recv-opt", "-u", "--send-opt", "-c")
	require.NoError(t, err)

	assert.Equal(t, 1, h.zfs.CountCalls(
		"zfs send -c pool/A@s1 | mbuffer -q -s 128k -m 256M -r 10M | pv -q -s 3711767360 | ssh user@backup -- zfs receive -u pool/B"),
		"calls: %v", h.zfs.Calls())
}

func TestSend_DryRun(t *testing.T) {
	h := newHarness(t)
	h.zfs.Dataset("pool/A").Snapshot("s1")

	out, err := h.run("send", "-n", "pool/A@s1", "pool/B")
	require.NoError(t, err)

	assert.Contains(t, out, "would send full pool/A@s1")
	assert.False(t, h.zfs.Has("pool/B"))
}

func TestSend_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.ErrorCode
	}{
		{"unknown snapshot", []string{"send", "pool/A@nope", "pool/B"}, errors.ErrNameNotFound},
		{"source without snapshot", []string{"send", "pool/A", "pool/B"}, errors.ErrInvalidInput},
		{"bad bwlimit", []string{"send", "pool/A@s1", "pool/B", "--bwlimit", "fast"}, errors.ErrConfigValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.zfs.Dataset("pool/A").Snapshot("s1")

			_, err := h.run(tt.args...)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, tt.code), "got %v", err)
		})
	}
}

func TestSync(t *testing.T) {
	h := newHarness(t)
	h.zfs.Dataset("pool/A").Snapshot("zreplica_1", "manual", "zreplica_2")

	out, err := h.run("sync", "pool/A", "pool/B")
	require.NoError(t, err)
	assert.Contains(t, out, "sent full pool/A@zreplica_1")
	assert.Contains(t, out, "sent pool/A@zreplica_2 from pool/A@zreplica_1")
	assert.Equal(t, []string{"zreplica_1", "zreplica_2"}, h.zfs.Dataset("pool/B").Snapshots())

	out, err = h.run("sync", "pool/A", "pool/B")
	require.NoError(t, err)
	assert.Contains(t, out, "pool/B is up to date with pool/A")
}

func TestSync_PlanAndFilter(t *testing.T) {
	h := newHarness(t)
	h.zfs.Dataset("pool/A").Snapshot("auto_1", "manual", "auto_2")

	out, err := h.run("sync", "--plan", "--filter", "auto_*", "--dry-run", "pool/A", "pool/B")
	require.NoError(t, err)

	assert.Contains(t, out, "to-sync")
	assert.Contains(t, out, "excluded")
	assert.Contains(t, out, "would send full pool/A@auto_1")
	assert.False(t, h.zfs.Has("pool/B"))
}

func TestSync_InconsistentTarget(t *testing.T) {
	h := newHarness(t)
	h.zfs.Dataset("pool/A").Snapshot("zreplica_1")
	h.zfs.Dataset("pool/B").Snapshot("zreplica_local")

	_, err := h.run("sync", "pool/A", "pool/B")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInconsistentTarget))
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t)
	h.zfs.Dataset("pool/A")

	out, err := h.run("snapshot", "pool/A", "--name", "auto", "--no-timestamp", "--tag", "hourly")
	require.NoError(t, err)

	assert.Contains(t, out, "created pool/A@auto_hourly")
	assert.Equal(t, []string{"auto_hourly"}, h.zfs.Dataset("pool/A").Snapshots())
	assert.Equal(t, []string{"auto_hourly"}, h.zfs.Dataset("pool/A").Bookmarks())
}

func TestSnapshot_NoBookmarkAndDryRun(t *testing.T) {
	h := newHarness(t)
	h.zfs.Dataset("pool/A")

	_, err := h.run("snapshot", "pool/A", "--no-timestamp", "--no-bookmark")
	require.NoError(t, err)
	assert.Equal(t, []string{"zreplica"}, h.zfs.Dataset("pool/A").Snapshots())
	assert.Empty(t, h.zfs.Dataset("pool/A").Bookmarks())

	out, err := h.run("snapshot", "-n", "pool/A", "--name", "dry", "--no-timestamp")
	require.NoError(t, err)
	assert.Contains(t, out, "would create pool/A@dry")
	assert.Equal(t, []string{"zreplica"}, h.zfs.Dataset("pool/A").Snapshots())
}

func TestList(t *testing.T) {
	h := newHarness(t)
	h.zfs.Dataset("pool/A").Snapshot("zreplica_1", "manual", "zreplica_2").Bookmark("zreplica_1")

	out, err := h.run("list", "pool/A")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "pool/A@zreplica_1")
	assert.Contains(t, lines[1], "pool/A@zreplica_2")

	out, err = h.run("list", "pool/A", "--filter", "*", "--bookmarks", "--format", "json")
	require.NoError(t, err)
	var entries []output.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 4)
	assert.Equal(t, "bookmark", entries[3].Kind)
	assert.Equal(t, "pool/A#zreplica_1", entries[3].FQN)
}

func TestList_BadFormat(t *testing.T) {
	h := newHarness(t)
	h.zfs.Dataset("pool/A")

	_, err := h.run("list", "pool/A", "--format", "xml")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestPrune_KeepFlags(t *testing.T) {
	h := newHarness(t)
	h.zfs.Dataset("pool/A").Snapshot("w1_weekly", "d1_daily", "w2_weekly", "w3_weekly")

	out, err := h.run("prune", "pool/A", "--keep", "1:*_weekly")
	require.NoError(t, err)

	assert.Contains(t, out, "destroyed 2 snapshot(s)")
	assert.Equal(t, []string{"d1_daily", "w3_weekly"}, h.zfs.Dataset("pool/A").Snapshots())
	assert.Equal(t, 1, h.zfs.CountCalls("zfs destroy"))
}

func TestPrune_PolicyFileAndDryRun(t *testing.T) {
	h := newHarness(t)
	h.zfs.Dataset("pool/A").Snapshot("h1_hourly", "h2_hourly", "h3_hourly")
	h.WriteMemFile("/etc/zreplica/policy.yaml", "keep:\n  \"*_hourly\": 2\n")

	out, err := h.run("prune", "--dry-run", "pool/A", "--policy-file", "/etc/zreplica/policy.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "would destroy h1_hourly")
	assert.Equal(t, []string{"h1_hourly", "h2_hourly", "h3_hourly"}, h.zfs.Dataset("pool/A").Snapshots())
}

func TestPrune_NoRules(t *testing.T) {
	h := newHarness(t)
	h.zfs.Dataset("pool/A").Snapshot("s1")

	_, err := h.run("prune", "pool/A")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	assert.Equal(t, 0, h.zfs.CountCalls("zfs"))
}

func TestConfigShow(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "stderr_policy")
	assert.Contains(t, out, "zreplica*")

	out, err = h.run("config", "path")
	require.NoError(t, err)
	assert.Equal(t, h.ConfigFile(), strings.TrimSpace(out))
}

func TestVersion(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "zreplica version dev")
}

func TestCompletion(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "zreplica")

	_, err = h.run("completion", "tcsh")
	assert.Error(t, err)
}
