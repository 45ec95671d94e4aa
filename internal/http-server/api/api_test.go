package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"phonereuse/entity"
	"phonereuse/impl/auth"
	"phonereuse/impl/core"
	"phonereuse/internal/config"
	"phonereuse/internal/registry"
	"phonereuse/internal/storage/filestore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const token = "test-token"

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func newTestServer(t *testing.T) (*httptest.Server, *fixedClock) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := &fixedClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

	store := filestore.New(filepath.Join(t.TempDir(), "phone_numbers.json"), log)
	reg := registry.New(context.Background(), store, clk, registry.Options{}, log)
	c := core.New(reg, clk, "go", log)
	c.SetAuthService(auth.New([]entity.Client{{Name: "signup-bot", Token: token}}))

	conf := &config.Config{}
	conf.Api.Timeout = 5 * time.Second

	srv := httptest.NewServer(NewRouter(conf, log, c))
	t.Cleanup(srv.Close)
	return srv, clk
}

func call(t *testing.T, srv *httptest.Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var res map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return resp.StatusCode, res
}

func TestReuseFlow(t *testing.T) {
	srv, clk := newTestServer(t)

	status, _ := call(t, srv, http.MethodPost, "/v1/numbers", `{"phone_number":"447700900123","country_code":"16","activation_id":"a1"}`)
	require.Equal(t, http.StatusOK, status)

	clk.now = clk.now.Add(time.Minute)
	status, res := call(t, srv, http.MethodPost, "/v1/numbers/acquire", `{"service":"tg"}`)
	require.Equal(t, http.StatusOK, status)
	data := res["data"].(map[string]any)
	assert.Equal(t, "447700900123", data["phone_number"])
	assert.Equal(t, "GB", data["region"])
	assert.EqualValues(t, 2, data["times_used"])
	assert.ElementsMatch(t, []any{"go", "tg"}, data["services"])

	status, res = call(t, srv, http.MethodPost, "/v1/numbers/447700900123/use", `{"service":"tg"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, res["data"].(map[string]any)["marked"])

	status, res = call(t, srv, http.MethodPost, "/v1/numbers/acquire", `{"service":"tg"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, res["data"])

	status, res = call(t, srv, http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, status)
	stats := res["data"].(map[string]any)
	assert.EqualValues(t, 1, stats["total_numbers"])
	assert.EqualValues(t, 3, stats["total_uses"])
	assert.EqualValues(t, 2, stats["estimated_savings"])

	clk.now = clk.now.Add(30 * time.Minute)
	status, res = call(t, srv, http.MethodGet, "/v1/numbers", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, res["data"])
}

func TestPlusPrefixedNumberInPath(t *testing.T) {
	srv, _ := newTestServer(t)

	status, _ := call(t, srv, http.MethodPost, "/v1/numbers", `{"phone_number":"+447700900123"}`)
	require.Equal(t, http.StatusOK, status)

	status, res := call(t, srv, http.MethodPost, "/v1/numbers/%2B447700900123/use", `{"service":"wa"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, res["data"].(map[string]any)["marked"])

	status, res = call(t, srv, http.MethodGet, "/v1/numbers?q=%2B4477", "")
	require.Equal(t, http.StatusOK, status)
	list := res["data"].([]any)
	require.Len(t, list, 1)
	number := list[0].(map[string]any)
	assert.EqualValues(t, 2, number["times_used"])
	assert.ElementsMatch(t, []any{"go", "wa"}, number["services"])

	status, _ = call(t, srv, http.MethodDelete, "/v1/numbers/%2B447700900123", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestRequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/numbers/acquire", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestInvalidPhoneRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	status, res := call(t, srv, http.MethodPost, "/v1/numbers", `{"phone_number":"12"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, res["success"])
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/nowhere")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	call(t, srv, http.MethodPost, "/v1/numbers/acquire", "")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "phonereuse_registry_operations_total")
}
