package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/pinpatch/internal/canon"
	"github.com/specialistvlad/pinpatch/internal/report"
	"github.com/specialistvlad/pinpatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adderSpec = `{
	"target": {
		"asset_path": "/Game/BP_Player",
		"name": "Heal",
		"create_if_missing": true,
		"inputs": [{"name": "Amount", "type": "int"}]
	},
	"nodes": [{"id": "A", "node_kind": "adder", "node_id": "n1"}],
	"links": [
		{"from_node_id": "Entry", "from_pin": "then", "to_node_id": "A", "to_pin": "execute"},
		{"from_node_id": "Entry", "from_pin": "Amount", "to_node_id": "A", "to_pin": "A"}
	]
}`

func post(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		in      Config
		wantErr string
	}{
		{name: "defaults", in: Config{}},
		{name: "badger needs dir", in: Config{Store: StoreBadger}, wantErr: "DataDir"},
		{name: "unknown store", in: Config{Store: "redis"}, wantErr: "invalid store"},
		{name: "bad level", in: Config{LogLevel: "loud"}, wantErr: "log-level"},
		{name: "bad format", in: Config{LogFormat: "xml"}, wantErr: "log-format"},
		{name: "negative timeout", in: Config{Timeout: -time.Second}, wantErr: "Timeout"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.in)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StoreMemory, cfg.Store)
			assert.Equal(t, "text", cfg.LogFormat)
			assert.Equal(t, "info", cfg.LogLevel)
			assert.Equal(t, DefaultListen, cfg.Listen)
		})
	}
}

func TestNewApp_PanicsOnBadCatalog(t *testing.T) {
	cfg, err := NewConfig(Config{CatalogPath: t.TempDir() + "/missing.hcl"})
	require.NoError(t, err)

	assert.Panics(t, func() {
		NewApp(&testutil.SafeBuffer{}, cfg)
	})
}

func TestServer_ApplyThenEdit(t *testing.T) {
	// --- Arrange ---
	a, logs := SetupAppTest(t, Config{})
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	// --- Act ---
	resp, body := post(t, srv, "/v1/apply", adderSpec)

	// --- Assert ---
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var res report.ApplyResult
	require.NoError(t, json.Unmarshal(body, &res))
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, []string{"n1"}, res.CreatedNodeIDs)
	assert.Equal(t, 2, res.ConnectedLinks)

	// Applying again changes nothing.
	_, body = post(t, srv, "/v1/apply", adderSpec)
	var again report.ApplyResult
	require.NoError(t, json.Unmarshal(body, &again))
	assert.Empty(t, again.CreatedNodeIDs)
	assert.Equal(t, res.CanonicalHash, again.CanonicalHash)

	resp, body = post(t, srv, "/v1/nodes/delete", `{"asset_path": "/Game/BP_Player", "container": "Heal", "node_id": "n1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var edit report.EditResult
	require.NoError(t, json.Unmarshal(body, &edit))
	assert.True(t, edit.Success, "errors: %v", edit.Errors)

	resp, body = post(t, srv, "/v1/nodes/delete", `{"asset_path": "/Game/BP_Player", "container": "Heal", "node_id": "n1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edit = report.EditResult{}
	require.NoError(t, json.Unmarshal(body, &edit))
	assert.False(t, edit.Success)
	testutil.AssertCodes(t, edit.ErrorCodes, report.CodeNodeNotFound)

	testutil.AssertLogContains(t, logs, "Apply finished.", "request_id=")
}

func TestServer_EditRoutes(t *testing.T) {
	a, _ := SetupAppTest(t, Config{})
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	resp, _ := post(t, srv, "/v1/apply", adderSpec)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	testCases := []struct {
		name        string
		path        string
		body        string
		wantSuccess bool
		wantCodes   []report.Code
	}{
		{
			name:      "delete missing link",
			path:      "/v1/links/delete",
			body:      `{"asset_path": "/Game/BP_Player", "container": "Heal", "from_node_id": "n1", "from_pin": "then", "to_node_id": "ghost", "to_pin": "execute"}`,
			wantCodes: []report.Code{report.CodeNodeNotFound},
		},
		{
			name:        "replace keeps stable id",
			path:        "/v1/nodes/replace",
			body:        `{"asset_path": "/Game/BP_Player", "container": "FUNCTION.Heal", "existing_node_id": "n1", "new_node": {"id": "B", "node_kind": "adder"}}`,
			wantSuccess: true,
		},
		{
			name:      "missing container",
			path:      "/v1/nodes/delete",
			body:      `{"asset_path": "/Game/BP_Player", "container": "Nope", "node_id": "n1"}`,
			wantCodes: []report.Code{report.CodeTargetNotFound},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := post(t, srv, tc.path, tc.body)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			var res report.EditResult
			require.NoError(t, json.Unmarshal(body, &res))
			assert.Equal(t, tc.wantSuccess, res.Success, "errors: %v", res.Errors)
			testutil.AssertCodes(t, res.ErrorCodes, tc.wantCodes...)
		})
	}
}

func TestServer_Canonicalize(t *testing.T) {
	a, _ := SetupAppTest(t, Config{})
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	body, err := json.Marshal(CanonicalizeRequest{Spec: json.RawMessage(adderSpec)})
	require.NoError(t, err)

	resp, out := post(t, srv, "/v1/canonicalize", string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(out))

	var res canon.Result
	require.NoError(t, json.Unmarshal(out, &res))
	assert.Equal(t, canon.CurrentVersion, res.Spec.SpecVersion)
	assert.Equal(t, "FUNCTION", res.Spec.Target.TargetType)
	assert.NotEmpty(t, res.Hash)

	resp, _ = post(t, srv, "/v1/canonicalize", `{"spec": "not a spec"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_BadRequests(t *testing.T) {
	a, _ := SetupAppTest(t, Config{})
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	for _, path := range []string{"/v1/canonicalize", "/v1/nodes/delete", "/v1/links/delete", "/v1/nodes/replace"} {
		t.Run(path, func(t *testing.T) {
			resp, body := post(t, srv, path, `{not json`)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, string(body), `"error"`)
		})
	}

	// A malformed spec is still a report, not a transport error.
	resp, body := post(t, srv, "/v1/apply", `{not json`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res report.ApplyResult
	require.NoError(t, json.Unmarshal(body, &res))
	testutil.AssertCodes(t, res.ErrorCodes, report.CodeSpecParseFailed)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	a, _ := SetupAppTest(t, Config{})
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	resp, _ := post(t, srv, "/v1/apply", adderSpec)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `pinpatch_calls_total{operation="apply",success="true"} 1`)
}

func TestApp_YAMLSpec(t *testing.T) {
	a, _ := SetupAppTest(t, Config{})
	yamlSpec := `
target:
  asset_path: /Game/BP_Player
  name: Heal
  create_if_missing: true
nodes:
  - id: A
    node_kind: adder
    node_id: n1
`
	res, err := a.Apply(context.Background(), []byte(yamlSpec))
	require.NoError(t, err)
	assert.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, []string{"n1"}, res.CreatedNodeIDs)

	cres, err := a.Canonicalize(context.Background(), CanonicalizeRequest{Spec: []byte(yamlSpec)})
	require.NoError(t, err)
	assert.Equal(t, "Heal", cres.Spec.Target.Name)
}

func TestApp_ClosedQueue(t *testing.T) {
	a, _ := SetupAppTest(t, Config{})
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	a.queue.Close()

	resp, body := post(t, srv, "/v1/apply", adderSpec)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, string(body))
}
