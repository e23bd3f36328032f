package api

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/flowboard/internal/index"
	"github.com/starford/flowboard/internal/models"
)

const maxNoteText = 20000

func colorRule() validation.Rule {
	in := make([]any, len(models.Colors))
	for i, c := range models.Colors {
		in[i] = c
	}
	return validation.In(in...).Error("must be one of yellow, blue, green, red, teal")
}

func priorityRule() validation.Rule {
	in := make([]any, len(models.Priorities))
	for i, p := range models.Priorities {
		in[i] = p
	}
	return validation.In(in...).Error("must be one of low, medium, high")
}

func statusRule() validation.Rule {
	in := make([]any, len(models.Statuses))
	for i, s := range models.Statuses {
		in[i] = s
	}
	return validation.In(in...).Error("must be one of open, in-progress, review, done")
}

// StatusRequest is the request body of PUT /status. A null or empty
// project clears the active project.
type StatusRequest struct {
	Project *string `json:"project"`
}

func (r *StatusRequest) Validate() error { return nil }

func (r *StatusRequest) name() string {
	if r.Project == nil {
		return ""
	}
	return strings.TrimSpace(*r.Project)
}

// StatusResponse reports the active project (null when none).
type StatusResponse struct {
	OK            bool    `json:"ok,omitempty"`
	ActiveProject *string `json:"activeProject"`
}

func activeProject(name string) *string {
	if name == "" {
		return nil
	}
	return &name
}

// ProjectsResponse wraps the project list.
type ProjectsResponse struct {
	ActiveProject *string          `json:"activeProject"`
	Projects      []models.Project `json:"projects"`
}

// CreateTaskRequest is the request body for creating a task.
type CreateTaskRequest models.TaskInput

func (r *CreateTaskRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Priority, priorityRule()),
	)
}

// UpdateTaskRequest is the request body for updating a task.
type UpdateTaskRequest models.TaskPatch

func (r *UpdateTaskRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Status, validation.NilOrNotEmpty, statusRule()),
		validation.Field(&r.Priority, validation.NilOrNotEmpty, priorityRule()),
	)
}

// TaskResponse wraps a created or updated task.
type TaskResponse struct {
	OK   bool        `json:"ok"`
	Task models.Task `json:"task"`
}

// CreateNoteRequest is the request body for creating a canvas note.
type CreateNoteRequest models.NoteInput

func (r *CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, validation.RuneLength(0, maxNoteText)),
		validation.Field(&r.Color, colorRule()),
	)
}

// UpdateNoteRequest is a partial note update.
type UpdateNoteRequest models.NotePatch

func (r *UpdateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, validation.RuneLength(0, maxNoteText)),
		validation.Field(&r.Color, validation.NilOrNotEmpty, colorRule()),
	)
}

// NoteResponse wraps a created or updated note.
type NoteResponse struct {
	OK   bool        `json:"ok"`
	Note models.Note `json:"note"`
}

// ConnectionRequest names the two endpoints of a link.
type ConnectionRequest models.Connection

func (r *ConnectionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.From, validation.Required),
		validation.Field(&r.To, validation.Required, validation.NotIn(r.From).Error("cannot link a note to itself")),
	)
}

// ConnectResponse reports whether the link already existed.
type ConnectResponse struct {
	OK        bool `json:"ok"`
	Duplicate bool `json:"duplicate,omitempty"`
}

// PromoteRequest turns notes into a task.
type PromoteRequest models.PromoteRequest

func (r *PromoteRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	return validation.ValidateStruct(r,
		validation.Field(&r.NoteIDs, validation.Required.Error("noteIds required")),
		validation.Field(&r.Title, validation.Required.Error("Title required")),
		validation.Field(&r.Priority, priorityRule()),
	)
}

// PromoteResponse is the outcome of a promotion.
type PromoteResponse struct {
	OK           bool        `json:"ok"`
	Task         models.Task `json:"task"`
	DeletedNotes []string    `json:"deletedNotes"`
}

// WriteFileRequest is the request body for writing a project file.
type WriteFileRequest struct {
	Content string `json:"content"`
}

func (r *WriteFileRequest) Validate() error { return nil }

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}
