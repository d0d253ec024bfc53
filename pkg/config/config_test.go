// pkg/config/config_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test derived replication options

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/zreplica/pkg/pipeline"
	"github.com/arthur-debert/zreplica/pkg/replication"
)

func TestConfig_TransferPipes(t *testing.T) {
	tests := []struct {
		name     string
		transfer Transfer
		want     [][]string
	}{
		{
			name:     "nothing configured",
			transfer: Transfer{Buffer: "256M"},
			want:     nil,
		},
		{
			name:     "bandwidth limit",
			transfer: Transfer{BWLimit: "10M", Buffer: "256M"},
			want:     [][]string{{"mbuffer", "-q", "-s", "128k", "-m", "256M", "-r", "10M"}},
		},
		{
			name:     "limit before pipes, pipes shell split",
			transfer: Transfer{BWLimit: "1M", Buffer: "64M", Pipes: []string{"pv -q", `gzip -c --name "a b"`}},
			want: [][]string{
				{"mbuffer", "-q", "-s", "128k", "-m", "64M", "-r", "1M"},
				{"pv", "-q"},
				{"gzip", "-c", "--name", "a b"},
			},
		},
		{
			name:     "blank pipe skipped",
			transfer: Transfer{Pipes: []string{"  ", "pv"}},
			want:     [][]string{{"pv"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Transfer: tt.transfer}
			got, err := cfg.TransferPipes()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_SendOptions(t *testing.T) {
	cfg := &Config{
		Send:     Options{Options: []string{"-w"}},
		Receive:  Options{Options: []string{"-s", "-u"}},
		Transfer: Transfer{Pipes: []string{"pv"}},
	}

	opts, err := cfg.SendOptions(true)
	require.NoError(t, err)
	assert.Equal(t, replication.SendOptions{
		SendFlags:    []string{"-w"},
		ReceiveFlags: []string{"-s", "-u"},
		Pipes:        [][]string{{"pv"}},
		DryRun:       true,
	}, opts)
}

func TestConfig_SnapshotOptions(t *testing.T) {
	cfg := &Config{Snapshot: Snapshot{Prefix: "zreplica", Timestamp: true, TimeFormat: "2006", Bookmark: true}}

	opts := cfg.SnapshotOptions("hourly")
	assert.Equal(t, "zreplica", opts.Prefix)
	assert.Equal(t, "hourly", opts.Tag)
	assert.True(t, opts.Timestamp)
	assert.Equal(t, "2006", opts.TimeFormat)
	assert.True(t, opts.Bookmark)
}

func TestConfig_StderrPolicyFallsBackToStrict(t *testing.T) {
	assert.Equal(t, pipeline.StderrStrict, (&Config{}).StderrPolicy())
	assert.Equal(t, pipeline.StderrStrict, (&Config{Pipeline: Pipeline{StderrPolicy: "bogus"}}).StderrPolicy())
}
