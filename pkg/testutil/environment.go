// pkg/testutil/environment.go
// DEPENDENCIES: None (base test utilities)
// PURPOSE: Isolated environments for command and config tests

package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
)

// TestEnvironment isolates a test from the user's configuration and state
// and provides a simulated zfs and an in-memory filesystem.
type TestEnvironment struct {
	ConfigHome string
	StateHome  string

	ZFS *MemZFS
	FS  afero.Fs

	t *testing.T
}

// NewTestEnvironment points the XDG directories at a temp dir, clears
// ZREPLICA_* variables and restores everything when the test ends.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	dir := t.TempDir()
	env := &TestEnvironment{
		ConfigHome: filepath.Join(dir, "config"),
		StateHome:  filepath.Join(dir, "state"),
		ZFS:        NewMemZFS(),
		FS:         afero.NewMemMapFs(),
		t:          t,
	}

	t.Setenv("XDG_CONFIG_HOME", env.ConfigHome)
	t.Setenv("XDG_STATE_HOME", env.StateHome)
	t.Setenv("NO_COLOR", "1")
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "ZREPLICA_") {
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	return env
}

// ConfigFile is where the loader looks for the user config.
func (env *TestEnvironment) ConfigFile() string {
	return filepath.Join(env.ConfigHome, "zreplica", "config.toml")
}

// WriteConfig writes content to the user config file.
func (env *TestEnvironment) WriteConfig(content string) string {
	env.t.Helper()
	return env.WriteFile(env.ConfigFile(), content)
}

// WriteFile writes content to a real file, creating parent directories.
func (env *TestEnvironment) WriteFile(path, content string) string {
	env.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		env.t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		env.t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// WriteMemFile writes content to the in-memory filesystem.
func (env *TestEnvironment) WriteMemFile(path, content string) string {
	env.t.Helper()
	if err := afero.WriteFile(env.FS, path, []byte(content), 0o644); err != nil {
		env.t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}
