package status

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlerig/bundlerig/internal/metrics"
	"github.com/bundlerig/bundlerig/internal/store"
)

// testApp creates a Fiber app backed by a seeded history store.
func testApp(t *testing.T) *fiber.App {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.StartRun(&store.BuildRun{
		ID:        "run-1",
		Workspace: "/ws",
		Mode:      "development",
		Watch:     true,
	}))
	require.NoError(t, st.RecordResult(&store.BuildResult{
		RunID:      "run-1",
		Project:    "shop",
		Kind:       "app",
		Status:     store.ResultSucceeded,
		DurationMS: 1200,
	}))
	require.NoError(t, st.RecordResult(&store.BuildResult{
		RunID:   "run-1",
		Project: "shop",
		Kind:    "app",
		Vendor:  true,
		Status:  store.ResultSkipped,
	}))

	srv := New(":0", st, metrics.New(), zerolog.Nop())
	return srv.App()
}

func TestServer_Healthz(t *testing.T) {
	app := testApp(t)

	req, _ := http.NewRequest("GET", "/healthz", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body HealthResponse
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "ok", body.Status)
	assert.Greater(t, body.DBSizeBytes, int64(0))
}

func TestServer_ListRuns(t *testing.T) {
	app := testApp(t)

	req, _ := http.NewRequest("GET", "/api/v1/runs", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body RunListResponse
	json.NewDecoder(resp.Body).Decode(&body)
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "run-1", body.Runs[0].ID)
	assert.True(t, body.Runs[0].Watch)
	assert.Equal(t, "running", body.Runs[0].Status)
}

func TestServer_GetRun(t *testing.T) {
	app := testApp(t)

	req, _ := http.NewRequest("GET", "/api/v1/runs/run-1", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body RunDetailResponse
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "run-1", body.Run.ID)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "shop", body.Results[0].Project)
	assert.False(t, body.Results[0].Vendor)
	assert.True(t, body.Results[1].Vendor)
}

func TestServer_GetRun_NotFound(t *testing.T) {
	app := testApp(t)

	req, _ := http.NewRequest("GET", "/api/v1/runs/nope", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var problem ProblemDetail
	json.NewDecoder(resp.Body).Decode(&problem)
	assert.Equal(t, "run_not_found", problem.Type)
}

func TestServer_ProjectHistory(t *testing.T) {
	app := testApp(t)

	req, _ := http.NewRequest("GET", "/api/v1/projects/shop/history", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body HistoryResponse
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "shop", body.Project)
	require.Len(t, body.Results, 2)
	// Newest first
	assert.True(t, body.Results[0].Vendor)
}

func TestServer_CurrentStatus(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.StartRun(&store.BuildRun{
		ID:        "run-1",
		Workspace: "/ws",
		Mode:      "development",
		Watch:     true,
	}))
	require.NoError(t, st.RecordResult(&store.BuildResult{
		RunID: "run-1", Project: "shop", Kind: "app", Vendor: true,
		Status: store.ResultSkipped,
	}))
	require.NoError(t, st.RecordResult(&store.BuildResult{
		RunID: "run-1", Project: "shop", Kind: "app",
		Status: store.ResultFailed, Errors: 1,
	}))
	require.NoError(t, st.RecordResult(&store.BuildResult{
		RunID: "run-1", Project: "shop", Kind: "app",
		Status: store.ResultSucceeded,
	}))

	app := New(":0", st, nil, zerolog.Nop()).App()

	req, _ := http.NewRequest("GET", "/status", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body StatusResponse
	json.NewDecoder(resp.Body).Decode(&body)
	require.NotNil(t, body.Run)
	assert.Equal(t, "run-1", body.Run.ID)

	// One row per project/vendor pair; the rebuild outcome replaces the
	// earlier failure.
	require.Len(t, body.Projects, 2)
	assert.True(t, body.Projects[0].Vendor)
	assert.Equal(t, store.ResultSkipped, body.Projects[0].Status)
	assert.False(t, body.Projects[1].Vendor)
	assert.Equal(t, store.ResultSucceeded, body.Projects[1].Status)
}

func TestServer_CurrentStatus_NoRuns(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	app := New(":0", st, nil, zerolog.Nop()).App()

	req, _ := http.NewRequest("GET", "/status", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body StatusResponse
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Nil(t, body.Run)
	assert.Empty(t, body.Projects)
}

func TestServer_Metrics(t *testing.T) {
	app := testApp(t)

	req, _ := http.NewRequest("GET", "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_WithoutStore(t *testing.T) {
	srv := New(":0", nil, nil, zerolog.Nop())
	app := srv.App()

	req, _ := http.NewRequest("GET", "/api/v1/runs", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	req, _ = http.NewRequest("GET", "/status", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	req, _ = http.NewRequest("GET", "/healthz", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
