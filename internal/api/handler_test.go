package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/kycguard/internal/config"
	"github.com/gyaneshwarpardhi/kycguard/internal/engine"
	"github.com/gyaneshwarpardhi/kycguard/internal/pipeline"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
	"github.com/gyaneshwarpardhi/kycguard/internal/store"
)

const baseConfig = `version: v1
pipeline:
  today: "2025-04-13"
  ocr_names: true
`

type fixture struct {
	srv     *httptest.Server
	cfgPath string
	store   *store.MemoryStore
}

func setup(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfgPath := filepath.Join(t.TempDir(), "kyc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(baseConfig), 0o600))
	loader, err := config.NewLoader(cfgPath, logger)
	require.NoError(t, err)

	build := func(c *config.Config) (*pipeline.Pipeline, error) { return pipeline.Compose(c, nil, logger) }
	p, err := build(loader.Config())
	require.NoError(t, err)

	eng := engine.New(context.Background(), p, loader.Config().Engine)
	t.Cleanup(eng.Shutdown)

	st := store.NewMemoryStore(0)
	srv := httptest.NewServer(New(Deps{Engine: eng, Loader: loader, Store: st, Build: build, Logger: logger}))
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, cfgPath: cfgPath, store: st}
}

func input(t *testing.T, name string) record.Input {
	t.Helper()
	rec, err := record.LoadDir("../../testdata/clients/" + name)
	require.NoError(t, err)
	return record.Input{
		ID:          rec.ID,
		AccountForm: rec.AccountForm,
		Profile:     rec.Profile,
		Description: rec.Description,
		Passport:    rec.Passport,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestEvaluate(t *testing.T) {
	f := setup(t)

	resp, body := f.do(t, http.MethodPost, "/v1/evaluate", input(t, "anna_mueller"))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	decision := body["decision"].(map[string]any)
	assert.Equal(t, true, decision["accept"])
	assert.Equal(t, "anna_mueller", decision["record_id"])
	assert.NotEmpty(t, body["decision_id"])

	resp, body = f.do(t, http.MethodPost, "/v1/evaluate", input(t, "anna_mueller_typo"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decision = body["decision"].(map[string]any)
	assert.Equal(t, false, decision["accept"])
	assert.Equal(t, "passport", decision["failing_rule"])
	assert.Equal(t, "passport_number_mismatch", decision["code"])
}

func TestEvaluateInvalidRecord(t *testing.T) {
	f := setup(t)
	in := input(t, "anna_mueller")
	in.ID = ""
	in.Passport.Surname = ""

	resp, body := f.do(t, http.MethodPost, "/v1/evaluate", in)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decision := body["decision"].(map[string]any)
	assert.Equal(t, "invalid_record", decision["code"])
	assert.NotEmpty(t, decision["record_id"], "a missing id is generated")
	assert.Contains(t, body["problems"], "passport.surname is required")
}

func TestEvaluateBadJSON(t *testing.T) {
	f := setup(t)
	resp, body := f.do(t, http.MethodPost, "/v1/evaluate", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "invalid JSON")
}

func TestTrace(t *testing.T) {
	f := setup(t)
	resp, body := f.do(t, http.MethodPost, "/v1/evaluate/trace", input(t, "anna_mueller_typo"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	trace := body["trace"].([]any)
	assert.Len(t, trace, 13)
	assert.Equal(t, "passport", body["decision"].(map[string]any)["failing_rule"])
}

func TestEvaluateBatch(t *testing.T) {
	f := setup(t)
	batch := []record.Input{input(t, "anna_mueller"), input(t, "anna_mueller_typo"), input(t, "anna_mueller")}
	batch[2].ID = "third"

	resp, body := f.do(t, http.MethodPost, "/v1/evaluate/batch", batch)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 2, body["accepted"])
	results := body["results"].([]any)
	var ids []string
	for _, r := range results {
		ids = append(ids, r.(map[string]any)["record_id"].(string))
	}
	assert.Equal(t, []string{"anna_mueller", "anna_mueller_typo", "third"}, ids)

	resp, _ = f.do(t, http.MethodPost, "/v1/evaluate/batch", []record.Input{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = f.do(t, http.MethodPost, "/v1/evaluate/batch", make([]record.Input, maxBatchSize+1))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "exceeds max")
}

func TestDecisions(t *testing.T) {
	f := setup(t)
	_, body := f.do(t, http.MethodPost, "/v1/evaluate", input(t, "anna_mueller"))
	id := body["decision_id"].(string)
	f.do(t, http.MethodPost, "/v1/evaluate", input(t, "anna_mueller_typo"))

	resp, body := f.do(t, http.MethodGet, "/v1/decisions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["decisions"], 2)

	resp, body = f.do(t, http.MethodGet, "/v1/decisions?record_id=anna_mueller&limit=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["decisions"], 1)

	resp, body = f.do(t, http.MethodGet, "/v1/decisions/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "anna_mueller", body["record_id"])

	resp, _ = f.do(t, http.MethodGet, "/v1/decisions/0b0c2c53-8d67-4c94-9d4a-1b7f6b0b3c11", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/v1/decisions/nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/v1/decisions?limit=-3", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRulesAndReload(t *testing.T) {
	f := setup(t)

	resp, body := f.do(t, http.MethodGet, "/v1/rules", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "v1", body["version"])
	assert.Len(t, body["rules"], 13)

	reloaded := baseConfig + `  disabled: [narrative]
policies:
  - name: commercial
    enabled: true
    expression: profile.commercial
`
	require.NoError(t, os.WriteFile(f.cfgPath, []byte(reloaded), 0o600))
	resp, body = f.do(t, http.MethodPost, "/v1/rules/reload", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 13, body["rules_count"])

	require.NoError(t, os.WriteFile(f.cfgPath, []byte("version: v1\npipeline: {order: [nope]}\n"), 0o600))
	resp, _ = f.do(t, http.MethodPost, "/v1/rules/reload", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	_, body = f.do(t, http.MethodGet, "/v1/rules", nil)
	assert.Len(t, body["rules"], 13, "a rejected reload keeps the running pipeline")
}

func TestProbes(t *testing.T) {
	f := setup(t)
	resp, body := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, body = f.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body["status"])
}
