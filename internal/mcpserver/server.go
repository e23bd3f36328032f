// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes FlowBoard tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/flowboard/internal/apperr"
	"github.com/starford/flowboard/internal/canvas"
	"github.com/starford/flowboard/internal/models"
	"github.com/starford/flowboard/internal/projects"
)

const formatURI = "flowboard://workspace-format"

// Server wraps the MCP server with FlowBoard tools.
type Server struct {
	mcp *server.MCPServer
	svc *projects.Service
}

// New creates a new MCP server with all FlowBoard tools registered.
func New(svc *projects.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"FlowBoard",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	projectArg := mcp.WithString("project", mcp.Description("Project name (defaults to the active project)"))

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List the projects of the workspace with their task counts per status."),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("get_active_project",
		mcp.WithDescription("Return the name of the active project, or an empty string when none is set."),
	), s.getActiveProject)

	s.mcp.AddTool(mcp.NewTool("set_active_project",
		mcp.WithDescription("Switch the active project. An empty name clears it."),
		mcp.WithString("project", mcp.Description("Project name")),
	), s.setActiveProject)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List the tasks of a project."),
		projectArg,
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create an open task. Ids are assigned as T-NNN."),
		projectArg,
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("priority", mcp.Description("low, medium (default) or high"), mcp.Enum("low", "medium", "high")),
		mcp.WithString("description", mcp.Description("Optional markdown description")),
	), s.createTask)

	s.mcp.AddTool(mcp.NewTool("update_task_status",
		mcp.WithDescription("Move a task to another column. Moving to done records the completion date."),
		projectArg,
		mcp.WithString("id", mcp.Required(), mcp.Description("Task id, e.g. T-004")),
		mcp.WithString("status", mcp.Required(), mcp.Enum("open", "in-progress", "review", "done")),
	), s.updateTaskStatus)

	s.mcp.AddTool(mcp.NewTool("read_canvas",
		mcp.WithDescription("Read the sticky-note canvas of a project: notes, connections and "+
			"clusters (groups of two or more connected notes)."),
		projectArg,
	), s.readCanvas)

	s.mcp.AddTool(mcp.NewTool("add_canvas_note",
		mcp.WithDescription("Add a sticky note to a project canvas."),
		projectArg,
		mcp.WithString("text", mcp.Required(), mcp.Description("Note text (markdown-lite)")),
		mcp.WithNumber("x", mcp.Description("Canvas x coordinate")),
		mcp.WithNumber("y", mcp.Description("Canvas y coordinate")),
		mcp.WithString("color", mcp.Enum("yellow", "blue", "green", "red", "teal")),
	), s.addCanvasNote)

	s.mcp.AddTool(mcp.NewTool("connect_notes",
		mcp.WithDescription("Link two canvas notes. Linking an already linked pair is a no-op."),
		projectArg,
		mcp.WithString("from", mcp.Required()),
		mcp.WithString("to", mcp.Required()),
	), s.connectNotes)

	s.mcp.AddTool(mcp.NewTool("promote_notes",
		mcp.WithDescription("Turn canvas notes into one task. The notes and their connections are removed "+
			"and their texts become the task description."),
		projectArg,
		mcp.WithArray("note_ids", mcp.Required(), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("title", mcp.Required()),
		mcp.WithString("priority", mcp.Enum("low", "medium", "high")),
	), s.promoteNotes)

	s.mcp.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Full-text search through tasks, canvas notes and project documents."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("project", mcp.Description("Restrict to one project (empty for all)")),
	), s.search)

	s.mcp.AddTool(mcp.NewTool("get_workspace_format",
		mcp.WithDescription("Returns the on-disk workspace format. Call this before editing "+
			"tasks.json or canvas.json directly."),
	), s.getWorkspaceFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Workspace Format",
			mcp.WithResourceDescription("Layout of the workspace directory and its JSON files."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readWorkspaceFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func errResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(apperr.Reason(err))
}

// project returns the project argument or the active project.
func (s *Server) project(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	if p := req.GetString("project", ""); p != "" {
		return p, nil
	}
	active, err := s.svc.ActiveProject(ctx)
	if err != nil {
		return "", err
	}
	if active == "" {
		return "", apperr.Validation("no project given and no active project set")
	}
	return active, nil
}

func (s *Server) listProjects(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Projects(ctx)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(list), nil
}

func (s *Server) getActiveProject(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := s.svc.ActiveProject(ctx)
	if err != nil {
		return errResult(err), nil
	}
	return mcp.NewToolResultText(name), nil
}

func (s *Server) setActiveProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("project", "")
	if err := s.svc.SetActiveProject(ctx, name); err != nil {
		return errResult(err), nil
	}
	if _, err := s.svc.WriteBootstrap(ctx); err != nil {
		return errResult(err), nil
	}
	if name == "" {
		return mcp.NewToolResultText("active project cleared"), nil
	}
	return mcp.NewToolResultText("active project: " + name), nil
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.project(ctx, req)
	if err != nil {
		return errResult(err), nil
	}
	tf, err := s.svc.Tasks(ctx, p)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(tf.Tasks), nil
}

func (s *Server) createTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.project(ctx, req)
	if err != nil {
		return errResult(err), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, err := s.svc.CreateTask(ctx, p, models.TaskInput{
		Title:       title,
		Priority:    models.Priority(req.GetString("priority", "")),
		Description: req.GetString("description", ""),
	})
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(task), nil
}

func (s *Server) updateTaskStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.project(ctx, req)
	if err != nil {
		return errResult(err), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st := models.TaskStatus(status)
	task, err := s.svc.UpdateTask(ctx, p, id, models.TaskPatch{Status: &st})
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(task), nil
}

type canvasView struct {
	Notes       []models.Note       `json:"notes"`
	Connections []models.Connection `json:"connections"`
	Clusters    [][]string          `json:"clusters"`
}

func (s *Server) readCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.project(ctx, req)
	if err != nil {
		return errResult(err), nil
	}
	cv, err := s.svc.Canvas(ctx, p)
	if err != nil {
		return errResult(err), nil
	}
	scene := canvas.NewScene()
	scene.Load(cv)
	clusters := canvas.Clusters(scene)
	if clusters == nil {
		clusters = [][]string{}
	}
	return jsonResult(canvasView{Notes: cv.Notes, Connections: cv.Connections, Clusters: clusters}), nil
}

func (s *Server) addCanvasNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.project(ctx, req)
	if err != nil {
		return errResult(err), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.CreateNote(ctx, p, models.NoteInput{
		Text:  text,
		X:     req.GetFloat("x", 0),
		Y:     req.GetFloat("y", 0),
		Color: models.Color(req.GetString("color", "")),
	})
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(note), nil
}

func (s *Server) connectNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.project(ctx, req)
	if err != nil {
		return errResult(err), nil
	}
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dup, err := s.svc.Connect(ctx, p, models.Connection{From: from, To: to})
	if err != nil {
		return errResult(err), nil
	}
	if dup {
		return mcp.NewToolResultText(fmt.Sprintf("already linked: %s - %s", from, to)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("linked: %s - %s", from, to)), nil
}

func (s *Server) promoteNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.project(ctx, req)
	if err != nil {
		return errResult(err), nil
	}
	ids, err := req.RequireStringSlice("note_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Promote(ctx, p, models.PromoteRequest{
		NoteIDs:  ids,
		Title:    title,
		Priority: models.Priority(req.GetString("priority", "")),
	})
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, req.GetString("project", ""), query, 20)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(results), nil
}

func (s *Server) getWorkspaceFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(WorkspaceFormat), nil
}

func (s *Server) readWorkspaceFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     WorkspaceFormat,
		},
	}, nil
}
