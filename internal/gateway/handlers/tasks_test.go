package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainbox/internal/storage"
)

func newTaskRouter(t *testing.T) (*mux.Router, *storage.DB, *int) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	changes := 0
	r := mux.NewRouter()
	NewTaskHandler(db, func() { changes++ }).Register(r)
	return r, db, &changes
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTaskHandler_CRUD(t *testing.T) {
	r, _, changes := newTaskRouter(t)

	w := do(r, http.MethodPost, "/tasks", `{"text":"Buy milk","priority":2}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created storage.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Buy milk", created.Text)
	assert.Equal(t, 2, created.Priority)

	w = do(r, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list TaskListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Tasks, 1)

	w = do(r, http.MethodPatch, "/tasks/"+created.ID, `{"done":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	var updated storage.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.True(t, updated.Done)

	w = do(r, http.MethodDelete, "/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 3, *changes)

	w = do(r, http.MethodGet, "/tasks", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Tasks)
}

func TestTaskHandler_Errors(t *testing.T) {
	r, _, changes := newTaskRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/tasks", `{"text":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/tasks", `{"text":"x","priority":9}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/tasks", `not json`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPatch, "/tasks/missing", `{"done":true}`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/tasks/missing", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(r, http.MethodPut, "/tasks", "").Code)
	assert.Zero(t, *changes)
}
