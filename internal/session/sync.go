package session

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/starford/flowboard/internal/apperr"
	"github.com/starford/flowboard/internal/canvas"
	"github.com/starford/flowboard/internal/models"
	"github.com/starford/flowboard/pkg/geometry"
)

// ErrNoConnection is returned when disconnecting notes that are not linked.
var ErrNoConnection = apperr.Wrap(apperr.ErrNotFound, "connection not found")

// positionWriter serializes position writes of one note: at most one
// request is in flight and only the newest waiting position is kept.
type positionWriter struct {
	inFlight bool
	queued   *geometry.Point
}

func (s *Session) execute(intents []canvas.Intent) {
	for _, in := range intents {
		switch it := in.(type) {
		case canvas.CreateNote:
			s.createNote(it)
		case canvas.SaveText:
			s.saveText(it.NoteID, it.Text)
		case canvas.SchedulePosition:
			s.schedulePosition(it.NoteID)
		case canvas.ConnectNotes:
			if err := s.connect(it.From, it.To); err != nil {
				s.logger.Debug("connect ignored",
					slog.String("from", it.From),
					slog.String("to", it.To),
					slog.String("reason", err.Error()))
			}
		}
	}
}

func (s *Session) createNote(it canvas.CreateNote) {
	in := models.NoteInput{
		X:     math.Round(it.At.X),
		Y:     math.Round(it.At.Y),
		Color: it.Color,
	}
	s.call(func(ctx context.Context, r Remote) func() {
		n, err := r.CreateNote(ctx, in)
		return func() {
			if err != nil {
				s.logger.Warn("create note failed", slog.String("error", err.Error()))
				s.notify(LevelError, "Failed to create note")
				return
			}
			if err := s.scene.Insert(n); err != nil {
				s.logger.Warn("created note rejected",
					slog.String("id", n.ID),
					slog.String("error", err.Error()))
				return
			}
			s.execute(s.ctrl.BeginEdit(s.scene, n.ID))
		}
	})
}

// fireAndForget sends a patch whose failure is only logged.
func (s *Session) fireAndForget(id string, patch models.NotePatch) {
	s.call(func(ctx context.Context, r Remote) func() {
		err := r.UpdateNote(ctx, id, patch)
		if err == nil {
			return nil
		}
		return func() {
			s.logger.Debug("note update dropped",
				slog.String("id", id),
				slog.String("error", err.Error()))
		}
	})
}

func (s *Session) saveText(id, text string) {
	s.fireAndForget(id, models.NotePatch{Text: &text})
}

func (s *Session) schedulePosition(id string) {
	s.timers.schedule(id, func() { s.flushPosition(id) })
}

func (s *Session) flushPosition(id string) {
	n, ok := s.scene.Note(id)
	if !ok || s.scene.IsPending(id) {
		return
	}
	pos := geometry.Pt(math.Round(n.X), math.Round(n.Y))

	w, ok := s.writers[id]
	if !ok {
		w = &positionWriter{}
		s.writers[id] = w
	}
	if w.inFlight {
		w.queued = &pos
		return
	}
	s.sendPosition(id, w, pos)
}

func (s *Session) sendPosition(id string, w *positionWriter, pos geometry.Point) {
	w.inFlight = true
	patch := models.NotePatch{X: &pos.X, Y: &pos.Y}
	s.call(func(ctx context.Context, r Remote) func() {
		err := r.UpdateNote(ctx, id, patch)
		return func() {
			if err != nil {
				s.logger.Debug("position write dropped",
					slog.String("id", id),
					slog.String("error", err.Error()))
			}
			if s.writers[id] != w {
				return
			}
			w.inFlight = false
			if w.queued != nil && s.scene.Has(id) {
				next := *w.queued
				w.queued = nil
				s.sendPosition(id, w, next)
				return
			}
			delete(s.writers, id)
		}
	})
}

// cancelPosition drops a scheduled or queued position write. It reports
// whether anything was dropped.
func (s *Session) cancelPosition(id string) bool {
	dropped := s.timers.cancel(id)
	if w, ok := s.writers[id]; ok && w.queued != nil {
		w.queued = nil
		dropped = true
	}
	return dropped
}

// moved reports whether a note's rounded position changed.
func moved(a, b models.Note) bool {
	return math.Round(a.X) != math.Round(b.X) || math.Round(a.Y) != math.Round(b.Y)
}

// SetColor recolors a note locally and stores the change without waiting.
func (s *Session) SetColor(id string, c models.Color) error {
	var err error
	s.do(func() {
		if err = s.scene.SetColor(id, c); err != nil {
			return
		}
		s.fireAndForget(id, models.NotePatch{Color: &c})
	})
	return err
}

// DeleteNote disables a note and asks the store to delete it. The note and
// its connections leave the scene once the store confirms.
func (s *Session) DeleteNote(id string) error {
	var err error
	s.do(func() {
		if !s.scene.Has(id) {
			err = canvas.ErrUnknownNote
			return
		}
		if s.scene.IsPending(id) {
			return
		}
		s.scene.MarkPending(id)
		hadPosition := s.cancelPosition(id)
		start, _ := s.scene.Note(id)

		s.call(func(ctx context.Context, r Remote) func() {
			err := r.DeleteNote(ctx, id)
			return func() {
				if err != nil && !errors.Is(err, apperr.ErrNotFound) {
					s.logger.Warn("delete note failed",
						slog.String("id", id),
						slog.String("error", err.Error()))
					s.scene.ClearPending(id)
					if n, ok := s.scene.Note(id); ok && (hadPosition || moved(start, n)) {
						s.schedulePosition(id)
					}
					s.notify(LevelError, "Failed to delete note")
					return
				}
				s.cancelPosition(id)
				s.scene.Remove(id)
			}
		})
	})
	return err
}

// Connect links two notes locally and stores the link. Linking an already
// linked pair is a no-op.
func (s *Session) Connect(from, to string) error {
	var err error
	s.do(func() { err = s.connect(from, to) })
	return err
}

func (s *Session) connect(from, to string) error {
	if err := s.scene.Connect(from, to); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return nil
		}
		return err
	}

	conn := models.Connection{From: from, To: to}
	s.call(func(ctx context.Context, r Remote) func() {
		duplicate, err := r.Connect(ctx, conn)
		return func() {
			if err != nil {
				s.logger.Warn("save connection failed",
					slog.String("from", from),
					slog.String("to", to),
					slog.String("error", err.Error()))
				s.notify(LevelError, "Failed to save connection")
				return
			}
			if duplicate {
				return
			}
			s.inheritColor(from, to)
		}
	})
	return nil
}

// inheritColor gives a default-colored target the color of its source.
func (s *Session) inheritColor(from, to string) {
	src, ok := s.scene.Note(from)
	if !ok {
		return
	}
	dst, ok := s.scene.Note(to)
	if !ok {
		return
	}
	if !dst.Color.IsDefault() || src.Color.IsDefault() {
		return
	}
	c := src.Color
	if err := s.scene.SetColor(to, c); err != nil {
		return
	}
	s.fireAndForget(to, models.NotePatch{Color: &c})
}

// Disconnect removes a link locally and from the store.
func (s *Session) Disconnect(a, b string) error {
	var err error
	s.do(func() {
		if !s.scene.Disconnect(a, b) {
			err = ErrNoConnection
			return
		}
		conn := models.Connection{From: a, To: b}
		s.call(func(ctx context.Context, r Remote) func() {
			err := r.Disconnect(ctx, conn)
			if err == nil {
				return nil
			}
			return func() {
				s.logger.Warn("delete connection failed",
					slog.String("from", a),
					slog.String("to", b),
					slog.String("error", err.Error()))
				s.notify(LevelError, "Failed to delete connection")
			}
		})
	})
	return err
}
