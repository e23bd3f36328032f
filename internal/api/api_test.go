package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/flowboard/internal/apperr"
	"github.com/starford/flowboard/internal/client"
	"github.com/starford/flowboard/internal/index"
	"github.com/starford/flowboard/internal/models"
	"github.com/starford/flowboard/internal/projects"
	"github.com/starford/flowboard/internal/testutil"
)

// testEnv sets up a temp workspace, SQLite DB, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*projects.Service, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (*projects.Service, http.Handler) {
	t.Helper()
	_, store := testutil.TestWorkspace(t, testutil.Workspace)
	db := testutil.TestDB(t)
	if err := index.Sync(db, store, slogDiscard()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	svc := projects.NewService(store, db, projects.WithLogger(slogDiscard()))
	return svc, NewRouter(svc, authEnabled, token, sseHandler)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestStatus(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/status", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"activeProject":"alpha"`) {
		t.Fatalf("get status = %d %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPut, "/status", map[string]any{"project": nil})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"activeProject":null`) {
		t.Fatalf("clear status = %d %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPut, "/status", map[string]any{"project": "beta"})
	resp := decodeBody[StatusResponse](t, w)
	if !resp.OK || resp.ActiveProject == nil || *resp.ActiveProject != "beta" {
		t.Errorf("set status = %s", w.Body.String())
	}
}

func TestListProjects(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/projects", nil)
	resp := decodeBody[ProjectsResponse](t, w)
	if len(resp.Projects) != 2 || resp.Projects[0].TaskCounts[models.StatusDone] != 1 {
		t.Errorf("projects = %+v", resp.Projects)
	}
}

func TestTasksCRUD(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/projects/gamma/tasks", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "Project not found") {
		t.Errorf("missing project = %d %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPost, "/projects/alpha/tasks", map[string]string{})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Title required") {
		t.Errorf("no title = %d %s", w.Code, w.Body.String())
	}
	w = do(t, router, http.MethodPost, "/projects/alpha/tasks", map[string]string{"title": "x", "priority": "asap"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad priority = %d", w.Code)
	}

	w = do(t, router, http.MethodPost, "/projects/alpha/tasks", map[string]string{"title": "Polish"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	created := decodeBody[TaskResponse](t, w)
	if created.Task.ID != "T-003" || created.Task.Priority != models.PriorityMedium {
		t.Errorf("task = %+v", created.Task)
	}

	w = do(t, router, http.MethodPut, "/projects/alpha/tasks/T-003", map[string]string{"status": "done"})
	updated := decodeBody[TaskResponse](t, w)
	if updated.Task.Completed == nil {
		t.Errorf("done task has no completion date: %s", w.Body.String())
	}

	w = do(t, router, http.MethodDelete, "/projects/alpha/tasks/T-003", nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete = %d", w.Code)
	}
	w = do(t, router, http.MethodDelete, "/projects/alpha/tasks/T-003", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestCanvasRoutes(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/projects/beta/canvas/notes", map[string]any{"text": "", "x": 12, "y": 34, "color": "teal"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	note := decodeBody[NoteResponse](t, w).Note
	if note.ID == "" || note.Color != models.ColorTeal {
		t.Errorf("note = %+v", note)
	}

	w = do(t, router, http.MethodPost, "/projects/beta/canvas/notes", map[string]any{"color": "purple"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad color = %d", w.Code)
	}

	w = do(t, router, http.MethodPut, "/projects/beta/canvas/notes/"+note.ID, map[string]any{"x": 100})
	if got := decodeBody[NoteResponse](t, w).Note; got.X != 100 || got.Y != 34 {
		t.Errorf("patched = %+v", got)
	}

	w = do(t, router, http.MethodGet, "/projects/beta/canvas", nil)
	cv := decodeBody[models.Canvas](t, w)
	if len(cv.Notes) != 1 || cv.Connections == nil {
		t.Errorf("canvas = %s", w.Body.String())
	}

	w = do(t, router, http.MethodDelete, "/projects/beta/canvas/notes/"+note.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete = %d", w.Code)
	}
	w = do(t, router, http.MethodDelete, "/projects/beta/canvas/notes/"+note.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestConnectionRoutes(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/projects/alpha/canvas/connections", map[string]string{"from": "n2", "to": "n1"})
	if !decodeBody[ConnectResponse](t, w).Duplicate {
		t.Errorf("reverse pair should be a duplicate: %s", w.Body.String())
	}
	w = do(t, router, http.MethodPost, "/projects/alpha/canvas/connections", map[string]string{"from": "n1", "to": "n1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("self link = %d", w.Code)
	}
	w = do(t, router, http.MethodPost, "/projects/alpha/canvas/connections", map[string]string{"from": "n3", "to": "n2"})
	if resp := decodeBody[ConnectResponse](t, w); !resp.OK || resp.Duplicate {
		t.Errorf("new link = %s", w.Body.String())
	}
	w = do(t, router, http.MethodDelete, "/projects/alpha/canvas/connections", map[string]string{"from": "n1", "to": "n2"})
	if w.Code != http.StatusOK {
		t.Errorf("disconnect = %d", w.Code)
	}

	w = do(t, router, http.MethodGet, "/projects/alpha/canvas", nil)
	cv := decodeBody[models.Canvas](t, w)
	if len(cv.Connections) != 1 || !cv.Connections[0].SamePair(models.Connection{From: "n2", To: "n3"}) {
		t.Errorf("connections = %+v", cv.Connections)
	}
}

func TestPromoteRoute(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/projects/alpha/canvas/promote", map[string]any{"noteIds": []string{"ghost"}, "title": "x"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown notes = %d", w.Code)
	}
	fail := decodeBody[errResponse](t, w)
	if fail.OK || fail.Error != "No notes found" {
		t.Errorf("failure body = %s", w.Body.String())
	}

	w = do(t, router, http.MethodPost, "/projects/alpha/canvas/promote", map[string]any{"noteIds": []string{"n1", "n2"}, "title": "Ship it", "priority": "high"})
	resp := decodeBody[PromoteResponse](t, w)
	if !resp.OK || resp.Task.Priority != models.PriorityHigh || len(resp.DeletedNotes) != 2 {
		t.Errorf("promote = %s", w.Body.String())
	}
}

func TestFileRoutes(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/projects/alpha/files", nil)
	tree := decodeBody[models.FileNode](t, w)
	if len(tree.Children) != 3 {
		t.Errorf("tree = %s", w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/projects/alpha/files/PROJECT.md", nil)
	f := decodeBody[models.FileContent](t, w)
	if f.Title != "Alpha" || w.Header().Get("ETag") != `"`+f.Checksum+`"` {
		t.Errorf("file = %+v etag %q", f, w.Header().Get("ETag"))
	}

	body, _ := json.Marshal(WriteFileRequest{Content: "# Changed"})
	req := httptest.NewRequest(http.MethodPut, "/projects/alpha/files/PROJECT.md", bytes.NewReader(body))
	req.Header.Set("If-Match", `"stale"`)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("stale write = %d, want 409", w.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/projects/alpha/files/docs%2Fnew.md", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || decodeBody[models.FileContent](t, w).Title != "Changed" {
		t.Errorf("write = %d %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/projects/alpha/files/missing.md", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing file = %d", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/projects/alpha/search?q=Zoom", nil)
	resp := decodeBody[SearchResponse](t, w)
	if len(resp.Results) != 1 || resp.Results[0].Ref != "n3" {
		t.Errorf("results = %s", w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, router := testEnv(t, "secret")

	w := do(t, router, http.MethodOptions, "/projects/alpha/canvas/notes", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing allow-origin header")
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/projects", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// SSE endpoint auth tests.

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "secret", blockingSSE)

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// TestClientAgainstRouter runs the REST client the canvas session uses
// against the real routes.
func TestClientAgainstRouter(t *testing.T) {
	_, router := testEnv(t, "tok")
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", router))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	c := client.New(srv.URL, client.WithToken("tok"))
	p := c.Project("alpha")

	name, err := c.ActiveProject(ctx)
	if err != nil || name != "alpha" {
		t.Fatalf("ActiveProject = %q, %v", name, err)
	}
	list, err := c.Projects(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("Projects = %v, %v", list, err)
	}

	n, err := p.CreateNote(ctx, models.NoteInput{X: 1, Y: 2, Color: models.ColorRed})
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	text := "hello"
	if err := p.UpdateNote(ctx, n.ID, models.NotePatch{Text: &text}); err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	dup, err := p.Connect(ctx, models.Connection{From: n.ID, To: "n3"})
	if err != nil || dup {
		t.Fatalf("Connect = %v, %v", dup, err)
	}
	if err := p.Disconnect(ctx, models.Connection{From: "n3", To: n.ID}); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	res, err := p.Promote(ctx, models.PromoteRequest{NoteIDs: []string{n.ID, "n3"}, Title: "From client", Priority: models.PriorityLow})
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if res.Task.Description != "- hello\n- Zoom" || len(res.DeletedNotes) != 2 {
		t.Errorf("promote = %+v", res)
	}

	if err := p.DeleteNote(ctx, n.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("delete promoted note: err = %v", err)
	}
	_, err = p.Promote(ctx, models.PromoteRequest{NoteIDs: []string{"ghost"}, Title: "x"})
	if apperr.Reason(err) != "No notes found" {
		t.Errorf("promote reason = %q", apperr.Reason(err))
	}

	cv, err := p.Canvas(ctx)
	if err != nil || len(cv.Notes) != 2 {
		t.Errorf("canvas = %+v, %v", cv, err)
	}
	tasks, err := p.Tasks(ctx)
	if err != nil || len(tasks) != 3 {
		t.Errorf("tasks = %d, %v", len(tasks), err)
	}

	if _, err := client.New(srv.URL).Projects(ctx); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("no token: err = %v", err)
	}
}

func TestSSEEvents_QueryToken(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=tok", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with query token should not 401")
	}
}

func TestAuthMiddleware_QueryTokenOnlyForEvents(t *testing.T) {
	_, router := testEnv(t, "tok")
	w := do(t, router, http.MethodGet, "/projects?access_token=tok", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("query token on /projects = %d, want 401", w.Code)
	}
}
