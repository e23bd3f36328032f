package projects

import (
	"context"
	"fmt"
	"strings"
)

// Bootstrap renders the agent context of the active project: the shared
// project rules followed by the project's PROJECT.md. It returns ok=false
// when neither file exists. With no active project the context is empty.
func (s *Service) Bootstrap(ctx context.Context) (content string, ok bool, err error) {
	name, err := s.ActiveProject(ctx)
	if err != nil {
		return "", false, err
	}
	if name == "" {
		return "", true, nil
	}
	dir, err := s.projectDir(name)
	if err != nil {
		return "", false, err
	}

	rules, err := s.readOptional(RulesFile)
	if err != nil {
		return "", false, err
	}
	project, err := s.readOptional(dir + "/PROJECT.md")
	if err != nil {
		return "", false, err
	}
	if rules == "" && project == "" {
		return "", false, nil
	}

	sections := []string{fmt.Sprintf("# Active Project: %s\n", name)}
	if rules != "" {
		sections = append(sections, fmt.Sprintf("## Project Rules\n\n%s\n", rules))
	}
	if project != "" {
		sections = append(sections, fmt.Sprintf("## Project: %s\n\n%s\n", name, project))
	}
	return strings.Join(sections, "\n"), true, nil
}

// WriteBootstrap stores the agent context in BOOTSTRAP.md. It reports
// whether the file was written.
func (s *Service) WriteBootstrap(ctx context.Context) (bool, error) {
	content, ok, err := s.Bootstrap(ctx)
	if err != nil || !ok {
		return false, err
	}
	if err := s.store.Write(BootstrapFile, []byte(content)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) readOptional(p string) (string, error) {
	data, err := s.store.Read(p)
	if err != nil {
		if isNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}
