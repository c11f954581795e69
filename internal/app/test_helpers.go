package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/pinpatch/internal/testutil"
	"github.com/stretchr/testify/require"
)

// SetupAppTest creates an app over an in-memory store and the shared test
// catalog. Fields already set on cfg win over the defaults.
func SetupAppTest(t *testing.T, cfg Config) (*App, *testutil.SafeBuffer) {
	t.Helper()

	if cfg.CatalogPath == "" {
		cfg.CatalogPath = filepath.Join(t.TempDir(), "catalog.hcl")
		require.NoError(t, os.WriteFile(cfg.CatalogPath, []byte(testutil.Manifest), 0o600))
	}
	cfg.LogLevel = "debug"
	validated, err := NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &testutil.SafeBuffer{}
	testApp := NewApp(logBuffer, validated)

	t.Cleanup(func() {
		require.NoError(t, testApp.Close())
		if os.Getenv(testutil.LogsEnv) == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return testApp, logBuffer
}
