package command

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-parking-backend/config"
)

func TestFixConfigPath(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "/etc/parkingd.yaml")
		cfgPath = "from-flag.yaml"
		t.Cleanup(func() { cfgPath = "" })

		fixConfigPath()
		assert.Equal(t, "from-flag.yaml", cfgPath)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "/etc/parkingd.yaml")
		cfgPath = ""
		t.Cleanup(func() { cfgPath = "" })

		fixConfigPath()
		assert.Equal(t, "/etc/parkingd.yaml", cfgPath)
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "")
		os.Unsetenv("CONFIG_PATH")
		cfgPath = ""
		t.Cleanup(func() { cfgPath = "" })

		fixConfigPath()
		assert.Equal(t, "./config/config.yaml", cfgPath)
	})
}

func TestNewLogger(t *testing.T) {
	assert.NotNil(t, newLogger(config.LogConfig{Level: "debug", Format: "json"}))
	// Unknown levels fall back to info.
	l := newLogger(config.LogConfig{Level: "loud", Format: "text"})
	assert.False(t, l.Handler().Enabled(t.Context(), -4))
	assert.True(t, l.Handler().Enabled(t.Context(), 0))
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		cfgPath = ""
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestSeedAndReconcileCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := fmt.Sprintf(`
database:
  driver: sqlite
  dsn: "file:%s"
  log_level: silent
reconcile:
  grace_seconds: 120
seed:
  zones: [A, B]
  slots_per_zone: 3
`, filepath.Join(dir, "parking.db"))
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	assert.Equal(t, "inserted 6 slots\n", runCommand(t, "seed", "-c", path))
	// Seeding is idempotent.
	assert.Equal(t, "inserted 0 slots\n", runCommand(t, "seed", "-c", path))

	out := runCommand(t, "reconcile", "-c", path)
	assert.Contains(t, out, "released: []")
	assert.Contains(t, out, "skipped: 0 failed: 0")
}
