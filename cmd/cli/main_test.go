package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/pinpatch/internal/cli"
	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A catalog manifest with a syntax error makes app.NewApp panic while
	// loading definitions.
	invalidHCL := `
		function "Math.AddInt" {
			input "A" {
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	catalogPath := filepath.Join(tempDir, "catalog.hcl")
	require.NoError(t, os.WriteFile(catalogPath, []byte(invalidHCL), 0o600), "failed to set up catalog file")
	specPath := filepath.Join(tempDir, "spec.json")
	require.NoError(t, os.WriteFile(specPath, []byte(`{"target": {"asset_path": "/Game/BP", "name": "F"}}`), 0o600))

	args := []string{"apply", "-f", specPath, "--catalog-path", catalogPath}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, out, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	require.Contains(t, runErr.Error(), "application startup panicked")
	require.Contains(t, runErr.Error(), "failed to parse")
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"--help"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error for --help")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
	require.Contains(t, out.String(), "replace-node")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"apply", "--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, cli.ExitUsage, exitErr.Code)
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}
