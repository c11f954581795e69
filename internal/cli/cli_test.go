package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/pinpatch/internal/report"
	"github.com/specialistvlad/pinpatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const healSpec = `
target:
  asset_path: /Game/BP_Player
  name: Heal
  create_if_missing: true
  inputs:
    - {name: Amount, type: int}
nodes:
  - {id: A, node_kind: adder, node_id: n1}
links:
  - {from_node_id: Entry, from_pin: then, to_node_id: A, to_pin: execute}
`

// workspace writes the shared catalog and a spec file and returns the
// global flags pointing at them plus a badger data dir.
func workspace(t *testing.T) (dir string, flags []string) {
	t.Helper()
	dir = t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.hcl")
	require.NoError(t, os.WriteFile(catalogPath, []byte(testutil.Manifest), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "heal.yaml"), []byte(healSpec), 0o600))
	return dir, []string{
		"--catalog-path", catalogPath,
		"--store", "badger",
		"--data-dir", filepath.Join(dir, "data"),
		"--log-level", "debug",
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestApplyThenDeleteAcrossInvocations(t *testing.T) {
	// --- Arrange ---
	dir, flags := workspace(t)
	specPath := filepath.Join(dir, "heal.yaml")

	// --- Act ---
	out, logs, err := execute(t, append([]string{"apply", "-f", specPath}, flags...)...)

	// --- Assert ---
	require.NoError(t, err, logs)
	var res report.ApplyResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Equal(t, []string{"n1"}, res.CreatedNodeIDs)
	assert.Contains(t, logs, "Apply finished.")

	// The second process sees the first one's graph.
	out, _, err = execute(t, append([]string{"apply", "-f", specPath}, flags...)...)
	require.NoError(t, err)
	res = report.ApplyResult{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Empty(t, res.CreatedNodeIDs)

	out, _, err = execute(t, append([]string{"delete-node", "--asset", "/Game/BP_Player", "--container", "Heal", "--node-id", "n1"}, flags...)...)
	require.NoError(t, err)
	var edit report.EditResult
	require.NoError(t, json.Unmarshal([]byte(out), &edit))
	assert.True(t, edit.Success)

	_, _, err = execute(t, append([]string{"delete-node", "--asset", "/Game/BP_Player", "--container", "Heal", "--node-id", "n1"}, flags...)...)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitFailure, exitErr.Code)
	assert.Contains(t, exitErr.Message, string(report.CodeNodeNotFound))
}

func TestEditCommands(t *testing.T) {
	dir, flags := workspace(t)
	_, logs, err := execute(t, append([]string{"apply", "-f", filepath.Join(dir, "heal.yaml")}, flags...)...)
	require.NoError(t, err, logs)

	nodePath := filepath.Join(dir, "node.json")
	require.NoError(t, os.WriteFile(nodePath, []byte(`{"id": "B", "node_kind": "adder"}`), 0o600))

	out, logs, err := execute(t, append([]string{
		"replace-node", "--asset", "/Game/BP_Player", "--container", "FUNCTION.Heal",
		"--node-id", "n1", "-f", nodePath, "--remap", "execute=execute",
	}, flags...)...)
	require.NoError(t, err, logs)
	var edit report.EditResult
	require.NoError(t, json.Unmarshal([]byte(out), &edit))
	assert.True(t, edit.Success)
	assert.Len(t, edit.Relinked, 1)

	_, _, err = execute(t, append([]string{
		"delete-link", "--asset", "/Game/BP_Player", "--container", "Heal",
		"--from", "n1.ReturnValue", "--to", "n1.A",
	}, flags...)...)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitFailure, exitErr.Code)
	assert.Contains(t, exitErr.Message, string(report.CodeLinkNotFound))
}

func TestCanonicalize(t *testing.T) {
	dir, flags := workspace(t)

	out, _, err := execute(t, append([]string{"canonicalize", "-f", filepath.Join(dir, "heal.yaml")}, flags...)...)
	require.NoError(t, err)

	var res struct {
		Spec struct {
			SpecVersion int `json:"spec_version"`
			Target      struct {
				TargetType string `json:"target_type"`
			} `json:"target"`
		} `json:"canonical_spec"`
		Hash string `json:"canonical_hash"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Spec.SpecVersion)
	assert.Equal(t, "FUNCTION", res.Spec.Target.TargetType)
	assert.NotEmpty(t, res.Hash)
}

func TestCatalogList(t *testing.T) {
	_, flags := workspace(t)

	out, _, err := execute(t, append([]string{"catalog", "list"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "function Math.AddInt(A int, B int) -> (ReturnValue int)")
	assert.Contains(t, out, "function Conv.IntToFloat(")
	assert.Contains(t, out, "variable BP_Player:Health float")
}

func TestUsageErrors(t *testing.T) {
	dir, flags := workspace(t)
	specPath := filepath.Join(dir, "heal.yaml")

	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "unknown flag", args: []string{"apply", "--nope"}, wantMsg: "unknown flag"},
		{name: "unknown command", args: []string{"frobnicate"}, wantMsg: "unknown command"},
		{name: "missing file flag", args: []string{"apply"}, wantMsg: "-f is required"},
		{name: "missing required flag", args: []string{"delete-node", "--asset", "/Game/X"}, wantMsg: "required flag(s)"},
		{name: "bad store", args: []string{"apply", "-f", specPath, "--store", "redis"}, wantMsg: "invalid store"},
		{name: "badger without dir", args: []string{"apply", "-f", specPath, "--store", "badger"}, wantMsg: "DataDir"},
		{name: "bad log level", args: []string{"apply", "-f", specPath, "--log-level", "loud"}, wantMsg: "log-level"},
		{
			name:    "bad endpoint",
			args:    append([]string{"delete-link", "--asset", "/Game/X", "--container", "Heal", "--from", "nopin", "--to", "b.c"}, flags...),
			wantMsg: "--from must be node.pin",
		},
		{name: "stray argument", args: []string{"serve", "extra"}, wantMsg: "unknown command"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, ExitUsage, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}

func TestApplyFailureExitCode(t *testing.T) {
	dir, flags := workspace(t)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"target": {"asset_path": "/Game/Missing", "name": "Heal"}}`), 0o600))

	out, _, err := execute(t, append([]string{"apply", "-f", bad}, flags...)...)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitFailure, exitErr.Code)
	assert.Contains(t, exitErr.Message, string(report.CodeTargetNotFound))
	assert.Contains(t, out, `"success": false`)
}

func TestSplitEndpoint(t *testing.T) {
	node, pin, err := splitEndpoint("from", "Math.AddInt_0.ReturnValue")
	require.NoError(t, err)
	assert.Equal(t, "Math.AddInt_0", node)
	assert.Equal(t, "ReturnValue", pin)

	for _, bad := range []string{"", "nodot", ".pin", "node."} {
		_, _, err := splitEndpoint("from", bad)
		assert.Error(t, err, bad)
	}
}
