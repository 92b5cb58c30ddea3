package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"brainbox/internal/storage"
)

// TaskStore is the task storage used by the task endpoints.
type TaskStore interface {
	ListTasks(ctx context.Context) ([]*storage.Task, error)
	CreateTask(ctx context.Context, in storage.NewTask) (*storage.Task, error)
	UpdateTask(ctx context.Context, id string, upd storage.TaskUpdate) (*storage.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// TaskListResponse is the body of GET /tasks.
type TaskListResponse struct {
	Tasks []*storage.Task `json:"tasks"`
}

// TaskHandler serves task CRUD. onChange, if set, is called after every
// successful mutation.
type TaskHandler struct {
	store    TaskStore
	onChange func()
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(store TaskStore, onChange func()) *TaskHandler {
	return &TaskHandler{store: store, onChange: onChange}
}

// Register mounts the task routes on r.
func (h *TaskHandler) Register(r *mux.Router) {
	r.HandleFunc("/tasks", h.List).Methods(http.MethodGet)
	r.HandleFunc("/tasks", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}", h.Update).Methods(http.MethodPatch)
	r.HandleFunc("/tasks/{id}", h.Delete).Methods(http.MethodDelete)
}

// List handles GET /tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.ListTasks(r.Context())
	if err != nil {
		sendStoreError(w, err)
		return
	}
	SendJSON(w, http.StatusOK, TaskListResponse{Tasks: tasks})
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in storage.NewTask
	if err := decodeJSON(w, r, &in); err != nil {
		SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body: "+err.Error())
		return
	}
	task, err := h.store.CreateTask(r.Context(), in)
	if err != nil {
		sendStoreError(w, err)
		return
	}
	h.changed()
	SendJSON(w, http.StatusCreated, task)
}

// Update handles PATCH /tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var upd storage.TaskUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body: "+err.Error())
		return
	}
	task, err := h.store.UpdateTask(r.Context(), mux.Vars(r)["id"], upd)
	if err != nil {
		sendStoreError(w, err)
		return
	}
	h.changed()
	SendJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTask(r.Context(), mux.Vars(r)["id"]); err != nil {
		sendStoreError(w, err)
		return
	}
	h.changed()
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) changed() {
	if h.onChange != nil {
		h.onChange()
	}
}

func sendStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		SendError(w, http.StatusNotFound, ErrCodeNotFound, "task not found")
	case errors.Is(err, storage.ErrEmptyText),
		errors.Is(err, storage.ErrInvalidPriority),
		errors.Is(err, storage.ErrInvalidEstimate):
		SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	default:
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
	}
}
