package mcpserver

// WorkspaceFormat describes the on-disk layout that tools and agents
// must keep intact when they edit workspace files directly.
const WorkspaceFormat = `# FlowBoard Workspace Format

The workspace is a plain directory. The dashboard and the MCP tools only
ever read and rewrite the files below; anything else is left alone.

## Layout

` + "```" + `
ACTIVE-PROJECT.md            name of the active project (one line, may be empty)
BOOTSTRAP.md                 generated session context, do not edit
projects/_index.md           markdown table: | Project | Status | Description |
projects/PROJECT-RULES.md    free-form rules shared by every project
projects/<name>/PROJECT.md   project overview
projects/<name>/tasks.json   task board
projects/<name>/canvas.json  sticky-note canvas
projects/<name>/**/*.md      project documents
` + "```" + `

Project names match ` + "`^\\w[\\w-]*$`" + `.

## tasks.json

` + "```" + `json
{
  "tasks": [
    {
      "id": "T-001",
      "title": "Sketch board",
      "status": "open",
      "priority": "medium",
      "specFile": null,
      "created": "2026-01-05",
      "completed": null,
      "description": "optional markdown"
    }
  ]
}
` + "```" + `

- **id**: ` + "`T-NNN`" + `, one more than the highest existing number.
- **status**: open, in-progress, review or done.
- **priority**: low, medium or high.
- **completed**: set to the date a task moved to done, null otherwise.

## canvas.json

` + "```" + `json
{
  "notes": [
    {"id": "…", "x": 0, "y": 0, "text": "Drag", "color": "yellow", "created": "2026-01-05T09:00:00Z"}
  ],
  "connections": [
    {"from": "<note id>", "to": "<note id>"}
  ]
}
` + "```" + `

- **x, y**: canvas coordinates of the top-left corner of a note.
- **color**: yellow (default), blue, green, red or teal.
- **connections** are undirected. A pair is stored at most once in
  either direction and never links a note to itself.
- Deleting a note removes every connection that touches it.

## Promotion

Promoting notes creates one open task whose description lists the note
texts as a bullet list. The notes and their connections are removed.
`
