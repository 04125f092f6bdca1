package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/memgraph/memgraph/app"
	"github.com/memgraph/memgraph/httpapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestServer(t *testing.T) *httpapi.Server {
	t.Helper()
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.yaml", `
nodes:
  - label: Service
    properties:
      name: {kind: string, required: true}
edges: []
`)
	cfgPath := writeFile(t, dir, "config.yaml", `
schema: `+schemaPath+`
storageConnection: memory
docs:
  outputDir: `+dir+`
sync:
  conflictStrategy: fail
`)

	a, err := app.Build(context.Background(), cfgPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return httpapi.New(a)
}

func doJSON(t *testing.T, s *httpapi.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(b))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestUpsertThenQueryByID(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/v1/upsert", map[string]any{
		"label": "Service",
		"id":    "svc-1",
		"props": map[string]any{"name": "checkout"},
		"actor": "tester",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var upserted map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upserted))
	assert.Equal(t, "svc-1", upserted["id"])
	assert.EqualValues(t, 1, upserted["version"])
	assert.Equal(t, true, upserted["created"])

	w = doJSON(t, s, http.MethodGet, "/v1/query?id=svc-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/v1/resources/entity/svc-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpsertRejectsUnknownLabel(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/v1/upsert", map[string]any{
		"label": "NotARealLabel",
		"props": map[string]any{},
		"actor": "tester",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpsertRejectsInvalidProperties(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/v1/upsert", map[string]any{
		"label": "Service",
		"props": map[string]any{},
		"actor": "tester",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation", body["error"])
}

func TestQueryMissingEntityReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/v1/resources/entity/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResourceSchemaReturnsCompiledDef(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/v1/resources/schema", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var def map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &def))
	assert.NotEmpty(t, def["nodes"])
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	s := newTestServer(t)
	r := httptest.NewRequest(http.MethodPost, "/v1/upsert", bytes.NewReader(
		[]byte(`{"label":"Service","props":{"name":"x"},"actor":"t","bogus":true}`)))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
