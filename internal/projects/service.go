// Package projects implements the dashboard store: the active project,
// the project list, task boards, canvases and project files of a
// workspace directory.
package projects

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/flowboard/internal/apperr"
	"github.com/starford/flowboard/internal/index"
	"github.com/starford/flowboard/internal/storage"
)

// Workspace layout.
const (
	ActiveProjectFile = "ACTIVE-PROJECT.md"
	BootstrapFile     = "BOOTSTRAP.md"
	ProjectsDir       = "projects"
	IndexFile         = ProjectsDir + "/_index.md"
	RulesFile         = ProjectsDir + "/PROJECT-RULES.md"
)

var nameRe = regexp.MustCompile(`^\w[\w-]*$`)

var errProjectNotFound = apperr.Wrap(apperr.ErrNotFound, "Project not found")

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs replaces the note id generator.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithLogger sets the logger used for index failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service coordinates storage and index operations.
type Service struct {
	store  storage.Provider
	idx    index.Index
	now    func() time.Time
	newID  func() string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a new project service. idx may be nil, in which case
// search returns nothing.
func NewService(store storage.Provider, idx index.Index, opts ...Option) *Service {
	s := &Service{
		store:  store,
		idx:    idx,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lock serializes read-modify-write cycles on one project.
func (s *Service) lock(project string) func() {
	s.mu.Lock()
	l, ok := s.locks[project]
	if !ok {
		l = &sync.Mutex{}
		s.locks[project] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// projectDir validates name and returns projects/<name>.
func (s *Service) projectDir(name string) (string, error) {
	if !nameRe.MatchString(name) {
		return "", apperr.Validation("Invalid project name")
	}
	return ProjectsDir + "/" + name, nil
}

// existingProject is projectDir plus a check that the directory exists.
func (s *Service) existingProject(name string) (string, error) {
	dir, err := s.projectDir(name)
	if err != nil {
		return "", err
	}
	if !s.store.IsDir(dir) {
		return "", errProjectNotFound
	}
	return dir, nil
}

func (s *Service) today() string {
	return s.now().Format(time.DateOnly)
}

// readJSON decodes path into v. A missing file is reported as fs.ErrNotExist.
func (s *Service) readJSON(path string, v any) error {
	data, err := s.store.Read(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("projects: decode %s: %w", path, err)
	}
	return nil
}

// writeJSON stores v with two-space indentation and updates the index.
func (s *Service) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("projects: encode %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := s.store.Write(path, data); err != nil {
		return err
	}
	s.reindex(path, data)
	return nil
}

// reindex refreshes the index entry of path. The watcher reconciles
// anything missed here, so failures are only logged.
func (s *Service) reindex(path string, data []byte) {
	if s.idx == nil || !index.Indexable(path) {
		return
	}
	if err := index.IndexFile(s.idx, path, data); err != nil {
		s.logger.Warn("projects: index failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
