package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/flowboard/internal/models"
)

// GetCanvas handles GET /api/projects/{name}/canvas.
//
//	@Summary		Get the canvas of a project
//	@Tags			canvas
//	@Produce		json
//	@Param			name	path		string	true	"Project name"
//	@Success		200		{object}	models.Canvas
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{name}/canvas [get]
func (h *Handler) GetCanvas(w http.ResponseWriter, r *http.Request) {
	cv, err := h.svc.Canvas(r.Context(), projectName(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cv)
}

// CreateNote handles POST /api/projects/{name}/canvas/notes.
//
//	@Summary		Create a canvas note
//	@Tags			canvas
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string				true	"Project name"
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{name}/canvas/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decode(w, r, &req) {
		return
	}
	note, err := h.svc.CreateNote(r.Context(), projectName(r), models.NoteInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, NoteResponse{OK: true, Note: note})
}

// UpdateNote handles PUT /api/projects/{name}/canvas/notes/{id}.
// Only the fields present in the body change.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decode(w, r, &req) {
		return
	}
	note, err := h.svc.UpdateNote(r.Context(), projectName(r), chi.URLParam(r, "id"), models.NotePatch(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NoteResponse{OK: true, Note: note})
}

// DeleteNote handles DELETE /api/projects/{name}/canvas/notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), projectName(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Connect handles POST /api/projects/{name}/canvas/connections.
// Linking an already linked pair succeeds with duplicate set.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectionRequest
	if !decode(w, r, &req) {
		return
	}
	dup, err := h.svc.Connect(r.Context(), projectName(r), models.Connection(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ConnectResponse{OK: true, Duplicate: dup})
}

// Disconnect handles DELETE /api/projects/{name}/canvas/connections.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectionRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.Disconnect(r.Context(), projectName(r), models.Connection(req)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Promote handles POST /api/projects/{name}/canvas/promote.
//
//	@Summary		Turn canvas notes into a task
//	@Tags			canvas
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string			true	"Project name"
//	@Param			body	body		PromoteRequest	true	"Notes, title and priority"
//	@Success		200		{object}	PromoteResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{name}/canvas/promote [post]
func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	var req PromoteRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Promote(r.Context(), projectName(r), models.PromoteRequest(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PromoteResponse{OK: true, Task: res.Task, DeletedNotes: res.DeletedNotes})
}
