package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/coordsim/internal/event"
	"github.com/roach88/coordsim/internal/store"
)

func newTestRouter(t *testing.T) (http.Handler, string, string) {
	t.Helper()
	db, gateID, roomID := seedStore(t)
	st, err := store.Open(db)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewRouter(st), gateID, roomID
}

// Make a test request
func makeTestRequest(t *testing.T, router http.Handler, request *http.Request) *httptest.ResponseRecorder {
	responseRecorder := httptest.NewRecorder()
	router.ServeHTTP(responseRecorder, request)
	t.Logf("test(%v) = %v", request.URL, responseRecorder.Code)
	return responseRecorder
}

func TestServe_ListRuns(t *testing.T) {
	router, gateID, roomID := newTestRouter(t)

	rec := makeTestRequest(t, router, httptest.NewRequest(http.MethodGet, "/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var runs []store.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 2)
	ids := []string{runs[0].ID, runs[1].ID}
	assert.ElementsMatch(t, []string{gateID, roomID}, ids)
}

func TestServe_GetRun(t *testing.T) {
	router, _, roomID := newTestRouter(t)

	rec := makeTestRequest(t, router, httptest.NewRequest(http.MethodGet, "/runs/"+roomID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var result TraceResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, roomID, result.Run.ID)
	assert.Equal(t, event.EngineWaitingRoom, result.Run.Engine)
	assert.Equal(t, 3, result.Summary.Arrivals)
	assert.Empty(t, result.Events)
	assert.Empty(t, result.Violations)
}

func TestServe_GetEvents(t *testing.T) {
	router, gateID, _ := newTestRouter(t)

	rec := makeTestRequest(t, router, httptest.NewRequest(http.MethodGet, "/runs/"+gateID+"/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var events []event.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.NotEmpty(t, events)
	for i, e := range events {
		assert.Equal(t, int64(i+1), e.Seq)
		assert.Equal(t, event.EngineGate, e.Engine)
	}
}

func TestServe_UnknownRun(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for _, path := range []string{"/runs/missing", "/runs/missing/events"} {
		rec := makeTestRequest(t, router, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Run.NotFound", resp.ErrorType)
	}
}

// Verify that unsupported methods are rejected
func TestServe_ReadOnly(t *testing.T) {
	router, gateID, _ := newTestRouter(t)

	rec := makeTestRequest(t, router, httptest.NewRequest(http.MethodDelete, "/runs/"+gateID, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServe_PageNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := makeTestRequest(t, router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeCommand_MissingDatabase(t *testing.T) {
	_, _, err := execute(t, "serve", "--db", "/nonexistent/runs.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
