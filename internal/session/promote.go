package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/flowboard/internal/apperr"
	"github.com/starford/flowboard/internal/models"
)

func validatePromotion(req models.PromoteRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.NoteIDs, validation.Required),
		validation.Field(&req.Title, validation.Required),
		validation.Field(&req.Priority, validation.In(
			models.PriorityLow, models.PriorityMedium, models.PriorityHigh)),
	)
}

// Promote turns notes into one task. An empty title is rejected before
// anything is sent; an empty priority means medium. The outcome is reported
// through the notifier and, on success, the task sink.
func (s *Session) Promote(ids []string, title string, priority models.Priority) error {
	if priority == "" {
		priority = models.PriorityMedium
	}
	req := models.PromoteRequest{
		NoteIDs:  slices.Clone(ids),
		Title:    strings.TrimSpace(title),
		Priority: priority,
	}
	if err := validatePromotion(req); err != nil {
		if req.Title == "" {
			s.do(func() { s.notify(LevelWarn, "Task title required") })
		}
		return apperr.Validation(err.Error())
	}

	if !s.do(func() { s.promote(req) }) {
		return fmt.Errorf("session: closed")
	}
	return nil
}

func (s *Session) promote(req models.PromoteRequest) {
	s.call(func(ctx context.Context, r Remote) func() {
		res, err := r.Promote(ctx, req)
		return func() {
			if err != nil {
				s.logger.Warn("promote failed", slog.String("error", err.Error()))
				s.notify(LevelError, serverReason(err, "Promote failed"))
				return
			}

			removed := res.DeletedNotes
			if removed == nil {
				removed = req.NoteIDs
			}
			for _, id := range removed {
				s.cancelPosition(id)
			}
			s.scene.RemoveAll(removed)
			s.scene.ClearSelection()

			s.tasks.AppendTask(res.Task)
			s.notify(LevelSuccess, fmt.Sprintf("Task %s created", res.Task.ID))
		}
	})
}
