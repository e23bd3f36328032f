package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/flowboard/internal"
	"github.com/starford/flowboard/internal/render"
	pkgconfig "github.com/starford/flowboard/pkg/config"
)

var version = "dev"

// loadConfig reads the config file. A missing file means defaults.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	path := cmd.String("config")
	cfg := internal.NewDefaultConfig()
	read, err := pkgconfig.LoadOptional(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !read {
		slog.Info("config file not found, using defaults", slog.String("path", path))
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func bootstrap(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ok, err := internal.WriteBootstrap(ctx, internal.WithConfig(cfg))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("nothing to write: the active project has no rules or PROJECT.md")
		return nil
	}
	fmt.Println("wrote BOOTSTRAP.md")
	return nil
}

func export(ctx context.Context, cmd *cli.Command) error {
	opts := render.DefaultOptions()
	opts.Scale = cmd.Float("scale")
	return internal.Export(ctx, internal.ExportOptions{
		ServerURL: cmd.String("server"),
		Token:     cmd.String("token"),
		Project:   cmd.String("project"),
		Output:    cmd.String("output"),
		Render:    opts,
		Logger:    slog.Default(),
	}, os.Stdout)
}

func main() {
	cmd := &cli.Command{
		Name:    "flowboard",
		Usage:   "Project dashboard with task boards and an infinite sticky-note canvas",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, event stream and workspace watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the agent tools over stdio (Model Context Protocol)",
				Action: mcp,
			},
			{
				Name:   "bootstrap",
				Usage:  "Write BOOTSTRAP.md for the active project",
				Action: bootstrap,
			},
			{
				Name:   "export",
				Usage:  "Render a project canvas from a running server to PNG and print a summary",
				Action: export,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "server",
						Usage:   "Base URL of the server",
						Value:   "http://localhost:8080",
						Sources: cli.EnvVars("FLOWBOARD_SERVER"),
					},
					&cli.StringFlag{
						Name:    "token",
						Usage:   "Bearer token when auth mode is token",
						Sources: cli.EnvVars("FLOWBOARD_TOKEN"),
					},
					&cli.StringFlag{
						Name:    "project",
						Aliases: []string{"p"},
						Usage:   "Project name (defaults to the active project)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "PNG file to write (summary only when empty)",
					},
					&cli.FloatFlag{
						Name:  "scale",
						Usage: "Pixels per canvas unit",
						Value: 2,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
