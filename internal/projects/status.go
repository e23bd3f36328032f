package projects

import (
	"context"

	"github.com/starford/flowboard/internal/models"
	"github.com/starford/flowboard/internal/parser"
)

// ActiveProject returns the project named in ACTIVE-PROJECT.md, or "" when
// none is set or the file is missing.
func (s *Service) ActiveProject(_ context.Context) (string, error) {
	data, err := s.store.Read(ActiveProjectFile)
	if err != nil {
		if isNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return parser.ParseActiveProject(data), nil
}

// SetActiveProject rewrites ACTIVE-PROJECT.md. An empty name clears it.
func (s *Service) SetActiveProject(_ context.Context, name string) error {
	if name != "" {
		if _, err := s.projectDir(name); err != nil {
			return err
		}
	}
	return s.store.Write(ActiveProjectFile, parser.FormatActiveProject(name, s.now()))
}

// Projects lists the projects of projects/_index.md with their task counts.
// A missing index yields an empty list.
func (s *Service) Projects(_ context.Context) ([]models.Project, error) {
	out := []models.Project{}
	data, err := s.store.Read(IndexFile)
	if err != nil {
		if isNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	for _, row := range parser.ParseProjectIndex(data) {
		out = append(out, models.Project{
			Name:        row.Name,
			Status:      row.Status,
			Description: row.Description,
			TaskCounts:  s.taskCounts(row.Name),
		})
	}
	return out, nil
}

func (s *Service) taskCounts(name string) map[models.TaskStatus]int {
	counts := make(map[models.TaskStatus]int, len(models.Statuses))
	for _, st := range models.Statuses {
		counts[st] = 0
	}
	dir, err := s.projectDir(name)
	if err != nil {
		return counts
	}
	var tf models.TaskFile
	if err := s.readJSON(dir+"/tasks.json", &tf); err != nil {
		return counts
	}
	for _, t := range tf.Tasks {
		if _, ok := counts[t.Status]; ok {
			counts[t.Status]++
		}
	}
	return counts
}
