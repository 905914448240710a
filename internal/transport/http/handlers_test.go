package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orrery/internal/publish"
	"orrery/internal/state"
	"orrery/pkg/platform/sentinel"
)

type fakeController struct {
	pauseErr  error
	resumeErr error
	paused    bool
}

func (f *fakeController) Pause() error {
	if f.pauseErr != nil {
		return f.pauseErr
	}
	f.paused = true
	return nil
}

func (f *fakeController) Resume() error {
	if f.resumeErr != nil {
		return f.resumeErr
	}
	f.paused = false
	return nil
}

type failingHealth struct{}

func (failingHealth) Health(context.Context) error { return sentinel.ErrUnavailable }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestServer(t *testing.T, store StateReader, ctrl Controller) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(NewHandler(store, ctrl, discardLogger())))
	t.Cleanup(srv.Close)
	return srv
}

func seedStore(t *testing.T) *state.MemoryStore {
	t.Helper()
	store := state.NewMemoryStore()
	for _, u := range []publish.PositionUpdate{
		{SchemaVersion: publish.SchemaVersion, ID: "earth", Kind: "planet", Position: [3]float64{90, 0, 0}, Timestamp: 1000},
		{SchemaVersion: publish.SchemaVersion, ID: "falcon", Kind: "ship", Position: [3]float64{0, 0, 450}, Timestamp: 1000},
	} {
		require.NoError(t, store.SetLatest(context.Background(), u))
	}
	return store
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out))
	}
	return resp.StatusCode
}

func postStatus(t *testing.T, url string) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, seedStore(t), &fakeController{})

	var payload map[string]string
	code := getJSON(t, srv.URL+"/healthz", &payload)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", payload["status"])
}

func TestHealthz_DegradedWhenDependencyDown(t *testing.T) {
	h := NewHandler(seedStore(t), &fakeController{}, discardLogger()).WithHealthChecker(failingHealth{})
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)

	var payload map[string]string
	code := getJSON(t, srv.URL+"/healthz", &payload)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", payload["status"])
}

func TestListBodies(t *testing.T) {
	srv := newTestServer(t, seedStore(t), &fakeController{})

	var payload struct {
		Bodies []publish.PositionUpdate `json:"bodies"`
	}
	code := getJSON(t, srv.URL+"/v1/bodies", &payload)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, payload.Bodies, 2)

	// MemoryStore lists in id order.
	assert.Equal(t, "earth", payload.Bodies[0].ID)
	assert.Equal(t, "falcon", payload.Bodies[1].ID)
}

func TestGetBody(t *testing.T) {
	srv := newTestServer(t, seedStore(t), &fakeController{})

	var update publish.PositionUpdate
	code := getJSON(t, srv.URL+"/v1/bodies/earth", &update)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "earth", update.ID)
	assert.Equal(t, [3]float64{90, 0, 0}, update.Position)
	assert.Equal(t, uint64(1000), update.Timestamp)
}

func TestGetBody_Unknown(t *testing.T) {
	srv := newTestServer(t, seedStore(t), &fakeController{})

	code := getJSON(t, srv.URL+"/v1/bodies/pluto", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPauseResume(t *testing.T) {
	ctrl := &fakeController{}
	srv := newTestServer(t, seedStore(t), ctrl)

	assert.Equal(t, http.StatusOK, postStatus(t, srv.URL+"/v1/sim/pause"))
	assert.True(t, ctrl.paused)

	assert.Equal(t, http.StatusOK, postStatus(t, srv.URL+"/v1/sim/resume"))
	assert.False(t, ctrl.paused)
}

func TestPause_Conflict(t *testing.T) {
	ctrl := &fakeController{pauseErr: sentinel.ErrInvalidState}
	srv := newTestServer(t, seedStore(t), ctrl)

	assert.Equal(t, http.StatusConflict, postStatus(t, srv.URL+"/v1/sim/pause"))
}

func TestResume_Conflict(t *testing.T) {
	ctrl := &fakeController{resumeErr: sentinel.ErrInvalidState}
	srv := newTestServer(t, seedStore(t), ctrl)

	assert.Equal(t, http.StatusConflict, postStatus(t, srv.URL+"/v1/sim/resume"))
}

func TestControlEndpointsRejectGet(t *testing.T) {
	srv := newTestServer(t, seedStore(t), &fakeController{})

	code := getJSON(t, srv.URL+"/v1/sim/pause", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}
