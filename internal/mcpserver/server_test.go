package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/flowboard/internal/index"
	"github.com/starford/flowboard/internal/models"
	"github.com/starford/flowboard/internal/projects"
	"github.com/starford/flowboard/internal/testutil"
)

func testServer(t *testing.T) (*Server, *projects.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, store := testutil.TestWorkspace(t, testutil.Workspace)
	db := testutil.TestDB(t)
	if err := index.Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	svc := projects.NewService(store, db, projects.WithLogger(logger))
	return New(svc, "test"), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_projects":        srv.listProjects,
		"get_active_project":   srv.getActiveProject,
		"set_active_project":   srv.setActiveProject,
		"list_tasks":           srv.listTasks,
		"create_task":          srv.createTask,
		"update_task_status":   srv.updateTaskStatus,
		"read_canvas":          srv.readCanvas,
		"add_canvas_note":      srv.addCanvasNote,
		"connect_notes":        srv.connectNotes,
		"promote_notes":        srv.promoteNotes,
		"search":               srv.search,
		"get_workspace_format": srv.getWorkspaceFormat,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decodeResult[T any](t *testing.T, r *mcp.CallToolResult) T {
	t.Helper()
	var v T
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	if err := json.Unmarshal([]byte(resultText(r)), &v); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	return v
}

func TestActiveProjectTools(t *testing.T) {
	srv, svc := testServer(t)

	if got := resultText(callTool(t, srv, "get_active_project", nil)); got != "alpha" {
		t.Fatalf("active = %q", got)
	}

	r := callTool(t, srv, "set_active_project", map[string]any{"project": "beta"})
	if r.IsError {
		t.Fatalf("set: %s", resultText(r))
	}
	name, _ := svc.ActiveProject(context.Background())
	if name != "beta" {
		t.Fatalf("active after set = %q", name)
	}

	r = callTool(t, srv, "set_active_project", map[string]any{"project": "../etc"})
	if !r.IsError {
		t.Fatal("expected error for invalid name")
	}
}

func TestListProjects(t *testing.T) {
	srv, _ := testServer(t)

	list := decodeResult[[]models.Project](t, callTool(t, srv, "list_projects", nil))
	if len(list) != 2 || list[0].Name != "alpha" {
		t.Fatalf("projects = %+v", list)
	}
	if list[0].TaskCounts[models.StatusDone] != 1 {
		t.Errorf("alpha counts = %v", list[0].TaskCounts)
	}
}

func TestTaskToolsDefaultToActiveProject(t *testing.T) {
	srv, _ := testServer(t)

	task := decodeResult[models.Task](t, callTool(t, srv, "create_task", map[string]any{
		"title":    "Add minimap",
		"priority": "high",
	}))
	if task.ID != "T-003" || task.Priority != models.PriorityHigh || task.Status != models.StatusOpen {
		t.Fatalf("task = %+v", task)
	}

	moved := decodeResult[models.Task](t, callTool(t, srv, "update_task_status", map[string]any{
		"id":     "T-003",
		"status": "done",
	}))
	if moved.Completed == nil {
		t.Fatalf("completed not stamped: %+v", moved)
	}

	tasks := decodeResult[[]models.Task](t, callTool(t, srv, "list_tasks", nil))
	if len(tasks) != 3 {
		t.Fatalf("tasks = %d, want 3", len(tasks))
	}

	beta := decodeResult[[]models.Task](t, callTool(t, srv, "list_tasks", map[string]any{"project": "beta"}))
	if len(beta) != 0 {
		t.Fatalf("beta tasks = %+v", beta)
	}
}

func TestTaskToolsErrors(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_task", map[string]any{})
	if !r.IsError {
		t.Error("expected error without title")
	}

	r = callTool(t, srv, "update_task_status", map[string]any{"id": "T-999", "status": "done"})
	if !r.IsError || resultText(r) != "Task not found" {
		t.Errorf("missing task = %q", resultText(r))
	}

	r = callTool(t, srv, "list_tasks", map[string]any{"project": "ghost"})
	if !r.IsError || resultText(r) != "Project not found" {
		t.Errorf("missing project = %q", resultText(r))
	}
}

func TestNoActiveProject(t *testing.T) {
	srv, svc := testServer(t)
	if err := svc.SetActiveProject(context.Background(), ""); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "list_tasks", nil)
	if !r.IsError || !strings.Contains(resultText(r), "no active project") {
		t.Fatalf("result = %q", resultText(r))
	}
}

func TestReadCanvasReportsClusters(t *testing.T) {
	srv, _ := testServer(t)

	view := decodeResult[canvasView](t, callTool(t, srv, "read_canvas", nil))
	if len(view.Notes) != 3 || len(view.Connections) != 1 {
		t.Fatalf("canvas = %+v", view)
	}
	if len(view.Clusters) != 1 || strings.Join(view.Clusters[0], ",") != "n1,n2" {
		t.Fatalf("clusters = %v", view.Clusters)
	}
}

func TestCanvasNoteTools(t *testing.T) {
	srv, svc := testServer(t)

	note := decodeResult[models.Note](t, callTool(t, srv, "add_canvas_note", map[string]any{
		"text":  "Pan",
		"x":     float64(400),
		"y":     float64(40),
		"color": "green",
	}))
	if note.ID == "" || note.X != 400 || note.Color != models.ColorGreen {
		t.Fatalf("note = %+v", note)
	}

	r := callTool(t, srv, "connect_notes", map[string]any{"from": "n3", "to": note.ID})
	if r.IsError || !strings.HasPrefix(resultText(r), "linked") {
		t.Fatalf("connect = %q", resultText(r))
	}
	r = callTool(t, srv, "connect_notes", map[string]any{"from": note.ID, "to": "n3"})
	if r.IsError || !strings.HasPrefix(resultText(r), "already linked") {
		t.Fatalf("reverse connect = %q", resultText(r))
	}

	cv, err := svc.Canvas(context.Background(), "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if len(cv.Notes) != 4 || len(cv.Connections) != 2 {
		t.Fatalf("canvas = %+v", cv)
	}

	r = callTool(t, srv, "connect_notes", map[string]any{"from": "n1", "to": "n1"})
	if !r.IsError {
		t.Error("expected error linking a note to itself")
	}
}

func TestPromoteNotes(t *testing.T) {
	srv, svc := testServer(t)

	res := decodeResult[models.PromoteResult](t, callTool(t, srv, "promote_notes", map[string]any{
		"note_ids": []any{"n1", "n2"},
		"title":    "Drag and drop",
	}))
	if res.Task.ID != "T-003" || res.Task.Description != "- Drag\n- Drop" {
		t.Fatalf("task = %+v", res.Task)
	}

	cv, _ := svc.Canvas(context.Background(), "alpha")
	if len(cv.Notes) != 1 || len(cv.Connections) != 0 {
		t.Fatalf("canvas after promote = %+v", cv)
	}

	r := callTool(t, srv, "promote_notes", map[string]any{
		"note_ids": []any{"gone"},
		"title":    "Nothing",
	})
	if !r.IsError || resultText(r) != "No notes found" {
		t.Fatalf("result = %q", resultText(r))
	}
}

func TestSearch(t *testing.T) {
	srv, _ := testServer(t)

	results := decodeResult[[]index.SearchResult](t, callTool(t, srv, "search", map[string]any{"query": "Zoom"}))
	if len(results) == 0 || results[0].Ref != "n3" {
		t.Fatalf("results = %+v", results)
	}

	r := callTool(t, srv, "search", map[string]any{})
	if !r.IsError {
		t.Error("expected error without query")
	}
}

func TestWorkspaceFormat(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_workspace_format", nil))
	if !strings.Contains(text, "canvas.json") || !strings.Contains(text, "T-NNN") {
		t.Error("format missing sections")
	}

	contents, err := srv.readWorkspaceFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
}

func TestToolsRegistered(t *testing.T) {
	srv, _ := testServer(t)
	if srv.MCPServer() == nil {
		t.Fatal("MCPServer() returned nil")
	}
}
