// Package client talks to the flowboard REST store over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/flowboard/internal/apperr"
	"github.com/starford/flowboard/internal/models"
)

// Option configures a Client.
type Option func(*Client)

// WithToken sends a bearer token with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// Client is a REST client for one store.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New returns a client for the store at baseURL (for example
// "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the union of every response body the store sends.
type envelope struct {
	OK            bool             `json:"ok"`
	Error         string           `json:"error"`
	Note          *models.Note     `json:"note"`
	Task          *models.Task     `json:"task"`
	Duplicate     bool             `json:"duplicate"`
	DeletedNotes  []string         `json:"deletedNotes"`
	ActiveProject *string          `json:"activeProject"`
	Projects      []models.Project `json:"projects"`
	Tasks         []models.Task    `json:"tasks"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("client: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.ErrNetwork, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return apperr.Wrap(apperr.ErrNetwork, err.Error())
	}

	if resp.StatusCode >= 400 {
		var e envelope
		_ = json.Unmarshal(raw, &e)
		return statusError(resp.StatusCode, e.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}

func statusError(code int, reason string) error {
	if reason == "" {
		reason = http.StatusText(code)
	}
	switch {
	case code == http.StatusNotFound:
		return apperr.Wrap(apperr.ErrNotFound, reason)
	case code == http.StatusConflict:
		return apperr.Wrap(apperr.ErrConflict, reason)
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return apperr.Wrap(apperr.ErrValidation, reason)
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return apperr.Wrap(apperr.ErrValidation, reason)
	default:
		return apperr.Wrap(apperr.ErrNetwork, fmt.Sprintf("HTTP %d: %s", code, reason))
	}
}

// failed turns a 2xx body carrying {ok:false} into an error.
func (e envelope) failed() error {
	if e.OK || e.Error == "" {
		return nil
	}
	return apperr.Wrap(apperr.ErrValidation, e.Error)
}

// ActiveProject returns the active project, or "" when none is set.
func (c *Client) ActiveProject(ctx context.Context) (string, error) {
	var e envelope
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &e); err != nil {
		return "", err
	}
	if e.ActiveProject == nil {
		return "", nil
	}
	return *e.ActiveProject, nil
}

// SetActiveProject switches the active project. An empty name clears it.
func (c *Client) SetActiveProject(ctx context.Context, name string) error {
	body := map[string]any{"project": nil}
	if name != "" {
		body["project"] = name
	}
	var e envelope
	if err := c.do(ctx, http.MethodPut, "/api/status", body, &e); err != nil {
		return err
	}
	return e.failed()
}

// Projects lists the projects of the workspace.
func (c *Client) Projects(ctx context.Context) ([]models.Project, error) {
	var e envelope
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &e); err != nil {
		return nil, err
	}
	return e.Projects, nil
}

// Project returns the canvas and task client of one project.
func (c *Client) Project(name string) *Project {
	return &Project{c: c, prefix: "/api/projects/" + url.PathEscape(name)}
}

// Project is the client of one project. It implements the session store.
type Project struct {
	c      *Client
	prefix string
}

// Tasks returns the task list of the project.
func (p *Project) Tasks(ctx context.Context) ([]models.Task, error) {
	var tf models.TaskFile
	if err := p.c.do(ctx, http.MethodGet, p.prefix+"/tasks", nil, &tf); err != nil {
		return nil, err
	}
	return tf.Tasks, nil
}

// Canvas returns the stored canvas.
func (p *Project) Canvas(ctx context.Context) (models.Canvas, error) {
	var cv models.Canvas
	if err := p.c.do(ctx, http.MethodGet, p.prefix+"/canvas", nil, &cv); err != nil {
		return models.Canvas{}, err
	}
	return cv, nil
}

// CreateNote stores a new note and returns it with its id.
func (p *Project) CreateNote(ctx context.Context, in models.NoteInput) (models.Note, error) {
	var e envelope
	if err := p.c.do(ctx, http.MethodPost, p.prefix+"/canvas/notes", in, &e); err != nil {
		return models.Note{}, err
	}
	if err := e.failed(); err != nil {
		return models.Note{}, err
	}
	if e.Note == nil || e.Note.ID == "" {
		return models.Note{}, errors.New("client: create note: response without note")
	}
	return *e.Note, nil
}

// UpdateNote applies a partial update.
func (p *Project) UpdateNote(ctx context.Context, id string, patch models.NotePatch) error {
	var e envelope
	if err := p.c.do(ctx, http.MethodPut, p.notePath(id), patch, &e); err != nil {
		return err
	}
	return e.failed()
}

// DeleteNote removes a note and its connections.
func (p *Project) DeleteNote(ctx context.Context, id string) error {
	var e envelope
	if err := p.c.do(ctx, http.MethodDelete, p.notePath(id), nil, &e); err != nil {
		return err
	}
	return e.failed()
}

func (p *Project) notePath(id string) string {
	return p.prefix + "/canvas/notes/" + url.PathEscape(id)
}

// Connect stores a link between two notes.
func (p *Project) Connect(ctx context.Context, conn models.Connection) (bool, error) {
	var e envelope
	if err := p.c.do(ctx, http.MethodPost, p.prefix+"/canvas/connections", conn, &e); err != nil {
		return false, err
	}
	if err := e.failed(); err != nil {
		return false, err
	}
	return e.Duplicate, nil
}

// Disconnect removes a link in either direction.
func (p *Project) Disconnect(ctx context.Context, conn models.Connection) error {
	var e envelope
	if err := p.c.do(ctx, http.MethodDelete, p.prefix+"/canvas/connections", conn, &e); err != nil {
		return err
	}
	return e.failed()
}

// Promote turns notes into a task.
func (p *Project) Promote(ctx context.Context, req models.PromoteRequest) (models.PromoteResult, error) {
	var e envelope
	if err := p.c.do(ctx, http.MethodPost, p.prefix+"/canvas/promote", req, &e); err != nil {
		return models.PromoteResult{}, err
	}
	if !e.OK || e.Task == nil {
		reason := e.Error
		if reason == "" {
			reason = "Promote failed"
		}
		return models.PromoteResult{}, apperr.Wrap(apperr.ErrValidation, reason)
	}
	return models.PromoteResult{Task: *e.Task, DeletedNotes: e.DeletedNotes}, nil
}
