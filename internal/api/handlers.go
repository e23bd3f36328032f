package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/flowboard/internal/checksum"
	"github.com/starford/flowboard/internal/models"
	"github.com/starford/flowboard/internal/projects"
)

// Handler holds API route handlers.
type Handler struct {
	svc *projects.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *projects.Service) *Handler {
	return &Handler{svc: svc}
}

func projectName(r *http.Request) string {
	return chi.URLParam(r, "name")
}

// filePath extracts the file path from the URL (everything after /files/).
// Supports encoded slashes from OpenAPI clients (e.g. docs%2Fplan.md).
func filePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// GetStatus handles GET /api/status.
//
//	@Summary		Get the active project
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	name, err := h.svc.ActiveProject(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{ActiveProject: activeProject(name)})
}

// PutStatus handles PUT /api/status.
//
//	@Summary		Switch the active project
//	@Tags			status
//	@Accept			json
//	@Produce		json
//	@Param			body	body		StatusRequest	true	"Project to activate, null to clear"
//	@Success		200		{object}	StatusResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/status [put]
func (h *Handler) PutStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decode(w, r, &req) {
		return
	}
	name := req.name()
	if err := h.svc.SetActiveProject(r.Context(), name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{OK: true, ActiveProject: activeProject(name)})
}

// ListProjects handles GET /api/projects.
//
//	@Summary		List projects with task counts
//	@Tags			projects
//	@Produce		json
//	@Success		200	{object}	ProjectsResponse
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	active, err := h.svc.ActiveProject(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.svc.Projects(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProjectsResponse{ActiveProject: activeProject(active), Projects: list})
}

// ListTasks handles GET /api/projects/{name}/tasks.
//
//	@Summary		Get the task board of a project
//	@Tags			tasks
//	@Produce		json
//	@Param			name	path		string	true	"Project name"
//	@Success		200		{object}	models.TaskFile
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{name}/tasks [get]
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tf, err := h.svc.Tasks(r.Context(), projectName(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tf)
}

// CreateTask handles POST /api/projects/{name}/tasks.
//
//	@Summary		Create a task
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string				true	"Project name"
//	@Param			body	body		CreateTaskRequest	true	"Task to create"
//	@Success		201		{object}	TaskResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{name}/tasks [post]
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	task, err := h.svc.CreateTask(r.Context(), projectName(r), models.TaskInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, TaskResponse{OK: true, Task: task})
}

// UpdateTask handles PUT /api/projects/{name}/tasks/{id}.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	task, err := h.svc.UpdateTask(r.Context(), projectName(r), chi.URLParam(r, "id"), models.TaskPatch(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TaskResponse{OK: true, Task: task})
}

// DeleteTask handles DELETE /api/projects/{name}/tasks/{id}.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTask(r.Context(), projectName(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// FileTree handles GET /api/projects/{name}/files.
func (h *Handler) FileTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.FileTree(r.Context(), projectName(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// ReadFile handles GET /api/projects/{name}/files/*.
//
//	@Summary		Read a project file
//	@Tags			files
//	@Produce		json
//	@Param			name	path		string	true	"Project name"
//	@Param			path	path		string	true	"File path inside the project"
//	@Success		200		{object}	models.FileContent
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{name}/files/{path} [get]
func (h *Handler) ReadFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	f, err := h.svc.ReadFile(r.Context(), projectName(r), path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(f.Checksum))
	writeJSON(w, http.StatusOK, f)
}

// WriteFile handles PUT /api/projects/{name}/files/*.
//
//	@Summary		Write a project file with optimistic concurrency
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			name		path		string				true	"Project name"
//	@Param			path		path		string				true	"File path inside the project"
//	@Param			If-Match	header		string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		WriteFileRequest	true	"New content"
//	@Success		200			{object}	models.FileContent
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{name}/files/{path} [put]
func (h *Handler) WriteFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req WriteFileRequest
	if !decode(w, r, &req) {
		return
	}

	ifMatch := checksum.FromETag(r.Header.Get("If-Match"))
	f, err := h.svc.WriteFile(r.Context(), projectName(r), path, []byte(req.Content), ifMatch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(f.Checksum))
	writeJSON(w, http.StatusOK, f)
}

// Search handles GET /api/search and GET /api/projects/{name}/search.
//
//	@Summary		Search tasks, canvas notes and documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), projectName(r), q, limit)
	if err != nil {
		slog.Debug("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
