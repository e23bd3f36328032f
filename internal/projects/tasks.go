package projects

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/flowboard/internal/apperr"
	"github.com/starford/flowboard/internal/models"
)

var taskIDRe = regexp.MustCompile(`T-(\d+)`)

// Tasks returns the task file of a project.
func (s *Service) Tasks(_ context.Context, project string) (models.TaskFile, error) {
	dir, err := s.projectDir(project)
	if err != nil {
		return models.TaskFile{}, err
	}
	return s.loadTasks(dir)
}

func (s *Service) loadTasks(dir string) (models.TaskFile, error) {
	var tf models.TaskFile
	if err := s.readJSON(dir+"/tasks.json", &tf); err != nil {
		if isNotExist(err) {
			return models.TaskFile{}, errProjectNotFound
		}
		return models.TaskFile{}, err
	}
	if tf.Tasks == nil {
		tf.Tasks = []models.Task{}
	}
	return tf, nil
}

// CreateTask appends a new open task.
func (s *Service) CreateTask(_ context.Context, project string, in models.TaskInput) (models.Task, error) {
	dir, err := s.projectDir(project)
	if err != nil {
		return models.Task{}, err
	}
	defer s.lock(project)()

	tf, err := s.loadTasks(dir)
	if err != nil {
		return models.Task{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return models.Task{}, apperr.Validation("Title required")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if err := validation.Validate(in.Priority, validation.In(priorities()...)); err != nil {
		return models.Task{}, apperr.Validation("priority: " + err.Error())
	}

	task := s.newTask(tf.Tasks, in)
	tf.Tasks = append(tf.Tasks, task)
	if err := s.writeJSON(dir+"/tasks.json", tf); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *Service) newTask(existing []models.Task, in models.TaskInput) models.Task {
	return models.Task{
		ID:          nextTaskID(existing),
		Title:       in.Title,
		Status:      models.StatusOpen,
		Priority:    in.Priority,
		Created:     s.today(),
		Description: in.Description,
	}
}

// UpdateTask applies a partial update. Moving a task to done stamps its
// completion date; moving it off done clears it.
func (s *Service) UpdateTask(_ context.Context, project, id string, patch models.TaskPatch) (models.Task, error) {
	dir, err := s.projectDir(project)
	if err != nil {
		return models.Task{}, err
	}
	err = validation.ValidateStruct(&patch,
		validation.Field(&patch.Status, validation.NilOrNotEmpty, validation.In(statuses()...)),
		validation.Field(&patch.Priority, validation.NilOrNotEmpty, validation.In(priorities()...)),
	)
	if err != nil {
		return models.Task{}, apperr.Validation(err.Error())
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return models.Task{}, apperr.Validation("Title required")
	}
	defer s.lock(project)()

	tf, err := s.loadTasks(dir)
	if err != nil {
		return models.Task{}, err
	}
	i := taskIndex(tf.Tasks, id)
	if i < 0 {
		return models.Task{}, apperr.Wrap(apperr.ErrNotFound, "Task not found")
	}

	t := tf.Tasks[i]
	if patch.Status != nil {
		switch {
		case *patch.Status == models.StatusDone && t.Status != models.StatusDone:
			today := s.today()
			t.Completed = &today
		case *patch.Status != models.StatusDone && t.Status == models.StatusDone:
			t.Completed = nil
		}
		t.Status = *patch.Status
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.SpecFile != nil {
		t.SpecFile = patch.SpecFile
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	tf.Tasks[i] = t

	if err := s.writeJSON(dir+"/tasks.json", tf); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(_ context.Context, project, id string) error {
	dir, err := s.projectDir(project)
	if err != nil {
		return err
	}
	defer s.lock(project)()

	tf, err := s.loadTasks(dir)
	if err != nil {
		return err
	}
	i := taskIndex(tf.Tasks, id)
	if i < 0 {
		return apperr.Wrap(apperr.ErrNotFound, "Task not found")
	}
	tf.Tasks = append(tf.Tasks[:i], tf.Tasks[i+1:]...)
	return s.writeJSON(dir+"/tasks.json", tf)
}

func taskIndex(tasks []models.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// nextTaskID returns T-NNN one above the highest existing number.
func nextTaskID(tasks []models.Task) string {
	highest := 0
	for _, t := range tasks {
		m := taskIDRe.FindStringSubmatch(t.ID)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("T-%03d", highest+1)
}

func priorities() []any {
	out := make([]any, len(models.Priorities))
	for i, p := range models.Priorities {
		out[i] = p
	}
	return out
}

func statuses() []any {
	out := make([]any, len(models.Statuses))
	for i, st := range models.Statuses {
		out[i] = st
	}
	return out
}
