// pkg/output/output_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test listing formats and result rendering without colour

package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/zreplica/pkg/errors"
	"github.com/arthur-debert/zreplica/pkg/replication"
	"github.com/arthur-debert/zreplica/pkg/types"
)

func plain(buf *bytes.Buffer) Styles {
	return NewStyles(buf, false)
}

func sampleEntries() []Entry {
	return []Entry{
		NewEntry(types.NewSnapshot("pool/A@zreplica_1", "111", 10)),
		NewEntry(types.NewBookmark("pool/A#zreplica_1", "111", 10)),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"TABLE", FormatTable, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColorEnabled_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorEnabled(nil))
}

func TestNewEntry(t *testing.T) {
	entries := sampleEntries()

	assert.Equal(t, Entry{Kind: "snapshot", Name: "zreplica_1", FQN: "pool/A@zreplica_1", GUID: "111", CreateTXG: 10}, entries[0])
	assert.Equal(t, "bookmark", entries[1].Kind)
	assert.Equal(t, "pool/A#zreplica_1", entries[1].FQN)
}

func TestRenderList_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderList(&buf, FormatText, sampleEntries(), plain(&buf)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"111", "pool/A@zreplica_1"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"111", "pool/A#zreplica_1"}, strings.Fields(lines[1]))
}

func TestRenderList_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderList(&buf, FormatTable, sampleEntries(), plain(&buf)))

	out := buf.String()
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "pool/A@zreplica_1")
	assert.Contains(t, out, "bookmark")
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderList_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderList(&buf, FormatJSON, sampleEntries(), plain(&buf)))

	var got []Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleEntries(), got)
}

func TestRenderList_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderList(&buf, FormatYAML, sampleEntries(), plain(&buf)))

	var got []Entry
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleEntries(), got)
}

func TestRenderList_EmptyJSONIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderList(&buf, FormatJSON, nil, plain(&buf)))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestRenderPlan(t *testing.T) {
	plan := &replication.Plan{Entries: []replication.PlanEntry{
		{Snapshot: types.NewSnapshot("pool/A@s1", "1", 1), Status: replication.StatusAlreadySynced},
		{Snapshot: types.NewSnapshot("pool/A@manual", "2", 2), Status: replication.StatusExcluded},
		{Snapshot: types.NewSnapshot("pool/A@s2", "3", 3), Status: replication.StatusToSync},
	}}

	var buf bytes.Buffer
	require.NoError(t, RenderPlan(&buf, plan, plain(&buf)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"already-synced", "pool/A@s1"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"excluded", "pool/A@manual"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"to-sync", "pool/A@s2"}, strings.Fields(lines[2]))
}

func TestRenderTransfers(t *testing.T) {
	s1 := types.NewSnapshot("pool/A@s1", "1", 1)
	s2 := types.NewSnapshot("pool/A@s2", "2", 2)
	transfers := []replication.Transfer{
		{Snapshot: s1, Mode: replication.ModeSkip},
		{Snapshot: s2, Mode: "incremental", Base: s1, Size: 2048},
		{Snapshot: s1, Mode: "full", Size: 1 << 20},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderTransfers(&buf, transfers, false, plain(&buf)))
	out := buf.String()
	assert.Contains(t, out, "skipped pool/A@s1")
	assert.Contains(t, out, "sent pool/A@s2 from pool/A@s1 (2.0 KiB)")
	assert.Contains(t, out, "sent full pool/A@s1 (1.0 MiB)")

	buf.Reset()
	require.NoError(t, RenderTransfers(&buf, transfers[2:], true, plain(&buf)))
	assert.Contains(t, buf.String(), "would send full")
}

func TestRenderPrune(t *testing.T) {
	result := &replication.PruneResult{
		Rules: []replication.RuleResult{{
			Rule:      replication.Rule{Pattern: "*_weekly", Keep: 1},
			Matched:   []string{"w1", "w2"},
			Kept:      []string{"w2"},
			Destroyed: []string{"w1"},
		}},
		Destroyed: []string{"w1"},
		DryRun:    true,
	}

	var buf bytes.Buffer
	require.NoError(t, RenderPrune(&buf, result, plain(&buf)))
	out := buf.String()
	assert.Contains(t, out, "*_weekly keep 1: 2 matched")
	assert.Contains(t, out, "kept w2")
	assert.Contains(t, out, "would destroy w1")
	assert.Contains(t, out, "would destroy 1 snapshot(s)")
}

func TestRenderError(t *testing.T) {
	var buf bytes.Buffer
	err := errors.New(errors.ErrInconsistentTarget, "target pool/B diverged")
	RenderError(&buf, err, plain(&buf))

	out := buf.String()
	assert.Contains(t, out, "Error: [INCONSISTENT_TARGET] target pool/B diverged")
	assert.Contains(t, out, "resolve it manually")

	buf.Reset()
	RenderError(&buf, fmt.Errorf("plain failure"), plain(&buf))
	assert.Equal(t, "Error: plain failure\n", buf.String())
}
