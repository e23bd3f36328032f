package projects

import (
	"context"
	"path"
	"strings"

	"github.com/starford/flowboard/internal/apperr"
	"github.com/starford/flowboard/internal/checksum"
	"github.com/starford/flowboard/internal/index"
	"github.com/starford/flowboard/internal/models"
	"github.com/starford/flowboard/internal/parser"
)

// FileTree returns the directory tree of a project.
func (s *Service) FileTree(_ context.Context, project string) (*models.FileNode, error) {
	dir, err := s.existingProject(project)
	if err != nil {
		return nil, err
	}
	return s.store.Tree(dir)
}

// filePath resolves rel inside the project directory. Paths leaving the
// project are rejected.
func (s *Service) filePath(project, rel string) (string, error) {
	dir, err := s.existingProject(project)
	if err != nil {
		return "", err
	}
	cleaned := path.Clean("/" + strings.TrimSpace(rel))
	if cleaned == "/" {
		return "", apperr.Validation("path required")
	}
	return dir + cleaned, nil
}

// ReadFile returns a project file. Markdown files carry their parsed title
// and frontmatter.
func (s *Service) ReadFile(_ context.Context, project, rel string) (*models.FileContent, error) {
	p, err := s.filePath(project, rel)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(p)
	if err != nil {
		if isNotExist(err) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "File not found")
		}
		return nil, err
	}
	meta, err := s.store.Stat(p)
	if err != nil {
		return nil, err
	}
	return fileContent(project, p, data, meta), nil
}

// WriteFile stores a project file. A non-empty ifMatch must equal the
// checksum of the current content.
func (s *Service) WriteFile(_ context.Context, project, rel string, content []byte, ifMatch string) (*models.FileContent, error) {
	p, err := s.filePath(project, rel)
	if err != nil {
		return nil, err
	}
	defer s.lock(project)()

	if ifMatch != "" {
		existing, err := s.store.Read(p)
		if err != nil && !isNotExist(err) {
			return nil, err
		}
		if ifMatch != checksum.Sum(existing) {
			return nil, apperr.Wrap(apperr.ErrConflict, "File changed since it was read")
		}
	}
	if err := s.store.Write(p, content); err != nil {
		return nil, err
	}
	s.reindex(p, content)
	meta, err := s.store.Stat(p)
	if err != nil {
		return nil, err
	}
	return fileContent(project, p, content, meta), nil
}

func fileContent(project, p string, data []byte, meta models.FileMetadata) *models.FileContent {
	out := &models.FileContent{
		Path:      strings.TrimPrefix(p, ProjectsDir+"/"+project+"/"),
		Content:   string(data),
		Size:      meta.Size,
		Checksum:  meta.Checksum,
		UpdatedAt: meta.UpdatedAt,
	}
	if strings.HasSuffix(p, ".md") {
		doc := parser.ParseDocument(data)
		out.Title = doc.Title
		out.Frontmatter = doc.Frontmatter
	}
	return out
}

// Search finds tasks, notes and documents of a project. An empty project
// searches the whole workspace.
func (s *Service) Search(_ context.Context, project, query string, limit int) ([]index.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Validation("query required")
	}
	if project != "" {
		if _, err := s.projectDir(project); err != nil {
			return nil, err
		}
	}
	if s.idx == nil {
		return []index.SearchResult{}, nil
	}
	res, err := s.idx.Search(project, query, limit)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = []index.SearchResult{}
	}
	return res, nil
}
