package internal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/flowboard/internal/client"
	"github.com/starford/flowboard/internal/models"
	"github.com/starford/flowboard/internal/render"
	"github.com/starford/flowboard/internal/session"
)

// ExportOptions select the canvas to export and where the image goes.
type ExportOptions struct {
	ServerURL string
	Token     string
	// Project defaults to the active project of the server.
	Project string
	// Output is the PNG path. No image is written when it is empty.
	Output string
	Render render.Options
	Logger *slog.Logger
}

// Export loads a project canvas from a running server, writes its PNG
// rendering and prints a summary to w.
func Export(ctx context.Context, opts ExportOptions, w io.Writer) error {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	c := client.New(opts.ServerURL, client.WithToken(opts.Token))

	name := opts.Project
	if name == "" {
		active, err := c.ActiveProject(ctx)
		if err != nil {
			return fmt.Errorf("export: active project: %w", err)
		}
		if active == "" {
			return fmt.Errorf("export: no project given and no active project set")
		}
		name = active
	}

	sess := session.New(c.Project(name), session.WithLogger(opts.Logger))
	defer sess.Close()
	if err := sess.Load(ctx); err != nil {
		return fmt.Errorf("export: load %s: %w", name, err)
	}

	if opts.Output != "" {
		var buf bytes.Buffer
		if err := render.PNG(&buf, sess.Frame(), opts.Render); err != nil {
			return err
		}
		if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		opts.Logger.Info("canvas exported",
			slog.String("project", name),
			slog.String("output", opts.Output))
	}

	snap := sess.Snapshot()
	_, err := fmt.Fprintln(w, render.Summary(name, models.Canvas{
		Notes:       snap.Notes,
		Connections: snap.Connections,
	}))
	return err
}
