package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockhand/dockhand/internal/compose"
	"github.com/dockhand/dockhand/internal/config"
	"github.com/dockhand/dockhand/internal/jobs"
	"github.com/dockhand/dockhand/internal/log"
	"github.com/dockhand/dockhand/internal/status"
)

type fakeRunner struct {
	up   func(ctx context.Context, path string) (compose.Result, error)
	down func(ctx context.Context, path string) (compose.Result, error)
}

func (f *fakeRunner) Up(ctx context.Context, path string) (compose.Result, error) {
	if f.up != nil {
		return f.up(ctx, path)
	}
	return compose.Result{Output: "started"}, nil
}

func (f *fakeRunner) Down(ctx context.Context, path string) (compose.Result, error) {
	if f.down != nil {
		return f.down(ctx, path)
	}
	return compose.Result{Output: "stopped"}, nil
}

type fakeSnapshots struct {
	snaps map[string]status.Snapshot
}

func (f *fakeSnapshots) Snapshot(ctx context.Context) map[string]status.Snapshot {
	return f.snaps
}

type testEnv struct {
	srv      *httptest.Server
	table    *config.Table
	registry *jobs.Registry
}

func newTestEnv(t *testing.T, runner *fakeRunner, snaps map[string]status.Snapshot) *testEnv {
	t.Helper()
	dir := t.TempDir()
	services := []config.Service{
		{Name: "home-assistant", Compose: "ha.yml", URL: "http://ha.local:8123", Controls: true},
		{Name: "pihole", Compose: "pihole.yml"},
	}
	data, err := json.Marshal(services)
	require.NoError(t, err)
	svcPath := filepath.Join(dir, "services.json")
	require.NoError(t, os.WriteFile(svcPath, data, 0o644))

	table, err := config.NewTable(svcPath, dir, nil)
	require.NoError(t, err)

	registry := jobs.NewRegistry(nil, nil)
	scheduler := jobs.NewScheduler(t.Context(), registry, runner, table, 4, nil)

	s := New(Options{}, table, scheduler, registry, &fakeSnapshots{snaps: snaps}, log.Discard())
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, table: table, registry: registry}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestStartAndPollJob(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{}, nil)

	resp := postJSON(t, env.srv.URL+"/api/start", map[string]string{"name": "home-assistant"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	op := decodeBody[operationResponse](t, resp)
	require.True(t, op.OK)
	require.NotEmpty(t, op.JobID)

	var job jobs.Job
	require.Eventually(t, func() bool {
		r, err := http.Get(env.srv.URL + "/api/job/" + op.JobID)
		require.NoError(t, err)
		if r.StatusCode != http.StatusOK {
			r.Body.Close()
			return false
		}
		jr := decodeBody[jobResponse](t, r)
		require.NotNil(t, jr.Job)
		job = *jr.Job
		return job.Status.Terminal()
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, jobs.StatusDone, job.Status)
	assert.Equal(t, "home-assistant", job.Name)
	assert.Equal(t, jobs.ActionStart, job.Action)
	assert.Equal(t, "started", job.Result)
}

func TestStopReportsFailure(t *testing.T) {
	runner := &fakeRunner{
		down: func(ctx context.Context, path string) (compose.Result, error) {
			return compose.Result{ExitCode: 1, Output: "network in use"}, nil
		},
	}
	env := newTestEnv(t, runner, nil)

	resp := postJSON(t, env.srv.URL+"/api/stop", map[string]string{"name": "pihole"})
	op := decodeBody[operationResponse](t, resp)
	require.True(t, op.OK, "submission succeeds even when the job will fail")

	require.Eventually(t, func() bool {
		job, ok := env.registry.Get(op.JobID)
		return ok && job.Status == jobs.StatusFailed && job.Result == "network in use"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStartUnknownService(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{}, nil)

	resp := postJSON(t, env.srv.URL+"/api/start", map[string]string{"name": "ghost"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeBody[errorResponse](t, resp)
	assert.False(t, body.OK)
	assert.Equal(t, "service not found", body.Error)
}

func TestStartValidation(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{}, nil)

	resp := postJSON(t, env.srv.URL+"/api/start", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	r, err := http.Post(env.srv.URL+"/api/start", "application/json", bytes.NewReader([]byte("{broken")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	r.Body.Close()
}

func TestStartAll(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{}, nil)

	resp := postJSON(t, env.srv.URL+"/api/start_all", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bulk := decodeBody[bulkOperationResponse](t, resp)
	require.True(t, bulk.OK)
	require.Len(t, bulk.Jobs, 2)

	names := map[string]bool{}
	for _, sub := range bulk.Jobs {
		names[sub.Name] = true
		require.NotEmpty(t, sub.JobID)
		require.Eventually(t, func() bool {
			job, ok := env.registry.Get(sub.JobID)
			return ok && job.Status.Terminal()
		}, 5*time.Second, 20*time.Millisecond)
	}
	assert.True(t, names["home-assistant"])
	assert.True(t, names["pihole"])
}

func TestJobNotFound(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{}, nil)

	for _, path := range []string{"/api/job/unknown-id", "/api/job/"} {
		resp, err := http.Get(env.srv.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "path %s", path)
		body := decodeBody[errorResponse](t, resp)
		assert.Equal(t, "job not found", body.Error)
	}
}

func TestServicesEndpoint(t *testing.T) {
	snaps := map[string]status.Snapshot{
		"home-assistant": {Status: status.StateRunning, KumaStatus: "UP", KumaColor: "green"},
		"pihole":         {Status: status.StateStopped},
	}
	env := newTestEnv(t, &fakeRunner{}, snaps)

	resp, err := http.Get(env.srv.URL + "/api/services")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	views := decodeBody[[]serviceView](t, resp)
	require.Len(t, views, 2)

	assert.Equal(t, "home-assistant", views[0].Name)
	assert.Equal(t, status.StateRunning, views[0].Status)
	assert.Equal(t, "UP", views[0].KumaStatus)
	assert.Equal(t, "green", views[0].KumaColor)
	assert.True(t, views[0].Controls)

	assert.Equal(t, status.StateStopped, views[1].Status)
	assert.Empty(t, views[1].KumaStatus)
}

func TestServicesDefaultsToUnknown(t *testing.T) {
	// A snapshot that is missing a service still yields an entry for it.
	env := newTestEnv(t, &fakeRunner{}, map[string]status.Snapshot{})

	resp, err := http.Get(env.srv.URL + "/api/services")
	require.NoError(t, err)
	views := decodeBody[[]serviceView](t, resp)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, status.StateUnknown, v.Status)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{}, nil)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/start"},
		{http.MethodGet, "/api/stop_all"},
		{http.MethodPost, "/api/services"},
		{http.MethodPost, "/api/job/some-id"},
		{http.MethodDelete, "/api/stop"},
	}
	for _, tc := range cases {
		req, err := http.NewRequest(tc.method, env.srv.URL+tc.path, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, "%s %s", tc.method, tc.path)
		resp.Body.Close()
	}
}

func TestCORSAndPreflight(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{}, nil)

	resp, err := http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodOptions, env.srv.URL+"/api/start", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	resp.Body.Close()
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{}, nil)

	resp, err := http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
	_, hasUptime := body["uptime"]
	assert.True(t, hasUptime)
}
