package projects

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/flowboard/internal/apperr"
	"github.com/starford/flowboard/internal/models"
)

var errNoteNotFound = apperr.Wrap(apperr.ErrNotFound, "Note not found")

// Canvas returns the stored canvas of a project. A project without a
// canvas file has an empty canvas.
func (s *Service) Canvas(_ context.Context, project string) (models.Canvas, error) {
	dir, err := s.existingProject(project)
	if err != nil {
		return models.Canvas{}, err
	}
	return s.loadCanvas(dir)
}

func (s *Service) loadCanvas(dir string) (models.Canvas, error) {
	var cv models.Canvas
	if err := s.readJSON(dir+"/canvas.json", &cv); err != nil && !isNotExist(err) {
		return models.Canvas{}, err
	}
	if cv.Notes == nil {
		cv.Notes = []models.Note{}
	}
	if cv.Connections == nil {
		cv.Connections = []models.Connection{}
	}
	return cv, nil
}

// editCanvas runs fn on the canvas under the project lock and stores the
// result when fn succeeds.
func (s *Service) editCanvas(project string, fn func(*models.Canvas) error) error {
	dir, err := s.existingProject(project)
	if err != nil {
		return err
	}
	defer s.lock(project)()

	cv, err := s.loadCanvas(dir)
	if err != nil {
		return err
	}
	if err := fn(&cv); err != nil {
		return err
	}
	return s.writeJSON(dir+"/canvas.json", cv)
}

func noteIndex(notes []models.Note, id string) int {
	return slices.IndexFunc(notes, func(n models.Note) bool { return n.ID == id })
}

func validColor(c models.Color) error {
	if c != "" && !c.Valid() {
		return apperr.Validation("Invalid color")
	}
	return nil
}

// CreateNote stores a new note with a fresh id.
func (s *Service) CreateNote(_ context.Context, project string, in models.NoteInput) (models.Note, error) {
	if err := validColor(in.Color); err != nil {
		return models.Note{}, err
	}
	if in.Color == "" {
		in.Color = models.DefaultColor
	}
	note := models.Note{
		ID:      s.newID(),
		X:       in.X,
		Y:       in.Y,
		Text:    in.Text,
		Color:   in.Color,
		Created: s.now().UTC().Format(time.RFC3339),
	}
	err := s.editCanvas(project, func(cv *models.Canvas) error {
		cv.Notes = append(cv.Notes, note)
		return nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

// UpdateNote applies a partial update to a note.
func (s *Service) UpdateNote(_ context.Context, project, id string, patch models.NotePatch) (models.Note, error) {
	if patch.Color != nil {
		if err := validColor(*patch.Color); err != nil {
			return models.Note{}, err
		}
	}
	var out models.Note
	err := s.editCanvas(project, func(cv *models.Canvas) error {
		i := noteIndex(cv.Notes, id)
		if i < 0 {
			return errNoteNotFound
		}
		cv.Notes[i] = patch.Apply(cv.Notes[i])
		out = cv.Notes[i]
		return nil
	})
	return out, err
}

// DeleteNote removes a note and every connection touching it.
func (s *Service) DeleteNote(_ context.Context, project, id string) error {
	return s.editCanvas(project, func(cv *models.Canvas) error {
		i := noteIndex(cv.Notes, id)
		if i < 0 {
			return errNoteNotFound
		}
		cv.Notes = slices.Delete(cv.Notes, i, i+1)
		cv.Connections = slices.DeleteFunc(cv.Connections, func(c models.Connection) bool { return c.Touches(id) })
		return nil
	})
}

// Connect links two notes. It reports duplicate when the pair is already
// linked in either direction, in which case nothing is written.
func (s *Service) Connect(_ context.Context, project string, conn models.Connection) (bool, error) {
	if conn.From == "" || conn.To == "" {
		return false, apperr.Validation("from and to required")
	}
	if conn.From == conn.To {
		return false, apperr.Validation("Cannot connect a note to itself")
	}
	dir, err := s.existingProject(project)
	if err != nil {
		return false, err
	}
	defer s.lock(project)()

	cv, err := s.loadCanvas(dir)
	if err != nil {
		return false, err
	}
	if noteIndex(cv.Notes, conn.From) < 0 || noteIndex(cv.Notes, conn.To) < 0 {
		return false, errNoteNotFound
	}
	if slices.ContainsFunc(cv.Connections, conn.SamePair) {
		return true, nil
	}
	cv.Connections = append(cv.Connections, conn)
	return false, s.writeJSON(dir+"/canvas.json", cv)
}

// Disconnect removes the link between two notes in either direction.
// Removing a link that does not exist succeeds.
func (s *Service) Disconnect(_ context.Context, project string, conn models.Connection) error {
	return s.editCanvas(project, func(cv *models.Canvas) error {
		cv.Connections = slices.DeleteFunc(cv.Connections, conn.SamePair)
		return nil
	})
}

// Promote turns notes into one open task. The notes and their connections
// are removed from the canvas; ids that do not exist are ignored.
func (s *Service) Promote(_ context.Context, project string, req models.PromoteRequest) (models.PromoteResult, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	err := validation.ValidateStruct(&req,
		validation.Field(&req.NoteIDs, validation.Required.Error("noteIds required")),
		validation.Field(&req.Title, validation.Required.Error("Title required")),
		validation.Field(&req.Priority, validation.In(priorities()...)),
	)
	if err != nil {
		return models.PromoteResult{}, apperr.Validation(err.Error())
	}
	dir, err := s.existingProject(project)
	if err != nil {
		return models.PromoteResult{}, err
	}
	defer s.lock(project)()

	cv, err := s.loadCanvas(dir)
	if err != nil {
		return models.PromoteResult{}, err
	}
	var found []models.Note
	for _, id := range req.NoteIDs {
		if i := noteIndex(cv.Notes, id); i >= 0 && !slices.ContainsFunc(found, func(n models.Note) bool { return n.ID == id }) {
			found = append(found, cv.Notes[i])
		}
	}
	if len(found) == 0 {
		return models.PromoteResult{}, apperr.Validation("No notes found")
	}

	var tf models.TaskFile
	if err := s.readJSON(dir+"/tasks.json", &tf); err != nil && !isNotExist(err) {
		return models.PromoteResult{}, err
	}
	if tf.Tasks == nil {
		tf.Tasks = []models.Task{}
	}
	task := s.newTask(tf.Tasks, models.TaskInput{
		Title:       req.Title,
		Priority:    req.Priority,
		Description: describe(found),
	})
	tf.Tasks = append(tf.Tasks, task)

	deleted := make([]string, len(found))
	for i, n := range found {
		deleted[i] = n.ID
	}
	next := cv
	next.Notes = slices.DeleteFunc(slices.Clone(cv.Notes), func(n models.Note) bool { return slices.Contains(deleted, n.ID) })
	next.Connections = slices.DeleteFunc(slices.Clone(cv.Connections), func(c models.Connection) bool {
		return slices.Contains(deleted, c.From) || slices.Contains(deleted, c.To)
	})

	// The canvas goes first and is put back when the task cannot be stored.
	if err := s.writeJSON(dir+"/canvas.json", next); err != nil {
		return models.PromoteResult{}, err
	}
	if err := s.writeJSON(dir+"/tasks.json", tf); err != nil {
		if rerr := s.writeJSON(dir+"/canvas.json", cv); rerr != nil {
			s.logger.Error("projects: restore canvas failed",
				slog.String("project", project),
				slog.String("error", rerr.Error()))
		}
		return models.PromoteResult{}, err
	}
	return models.PromoteResult{Task: task, DeletedNotes: deleted}, nil
}

// describe lists note texts as a markdown bullet list.
func describe(notes []models.Note) string {
	var b strings.Builder
	for _, n := range notes {
		text := strings.TrimSpace(n.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(strings.ReplaceAll(text, "\n", "\n  "))
	}
	return b.String()
}
