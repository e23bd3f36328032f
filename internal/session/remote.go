package session

import (
	"context"
	"errors"

	"github.com/starford/flowboard/internal/apperr"
	"github.com/starford/flowboard/internal/canvas"
	"github.com/starford/flowboard/internal/models"
)

// Remote is the canvas store of one project.
type Remote interface {
	Canvas(ctx context.Context) (models.Canvas, error)
	CreateNote(ctx context.Context, in models.NoteInput) (models.Note, error)
	UpdateNote(ctx context.Context, id string, patch models.NotePatch) error
	DeleteNote(ctx context.Context, id string) error
	// Connect stores a link. duplicate is true when the pair already existed.
	Connect(ctx context.Context, c models.Connection) (duplicate bool, err error)
	Disconnect(ctx context.Context, c models.Connection) error
	Promote(ctx context.Context, req models.PromoteRequest) (models.PromoteResult, error)
}

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Notification is a transient message for the user.
type Notification struct {
	Level   Level
	Message string
}

// Notifier receives notifications. It is called from the session goroutine
// and must not call back into the session synchronously.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// TaskSink receives tasks created by promotion.
type TaskSink interface {
	AppendTask(t models.Task)
}

// TaskSinkFunc adapts a function to TaskSink.
type TaskSinkFunc func(models.Task)

func (f TaskSinkFunc) AppendTask(t models.Task) { f(t) }

// Renderer receives a fresh frame after every change processed by the session.
type Renderer interface {
	Render(f canvas.Frame)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}

type nopTaskSink struct{}

func (nopTaskSink) AppendTask(models.Task) {}

// serverReason returns the message reported by the store, or fallback when
// the failure carried none (transport errors included).
func serverReason(err error, fallback string) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Reason != "" && !errors.Is(err, apperr.ErrNetwork) {
		return e.Reason
	}
	return fallback
}
