package internal

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/flowboard/internal/api"
	"github.com/starford/flowboard/internal/index"
	"github.com/starford/flowboard/internal/projects"
	"github.com/starford/flowboard/internal/render"
	"github.com/starford/flowboard/internal/testutil"
)

func exportServer(t *testing.T) string {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, store := testutil.TestWorkspace(t, testutil.Workspace)
	db := testutil.TestDB(t)
	if err := index.Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	svc := projects.NewService(store, db, projects.WithLogger(logger))

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", api.NewRouter(svc, true, "tok", nil)))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestExportActiveProject(t *testing.T) {
	url := exportServer(t)
	out := filepath.Join(t.TempDir(), "alpha.png")

	var buf bytes.Buffer
	err := Export(context.Background(), ExportOptions{
		ServerURL: url,
		Token:     "tok",
		Output:    out,
		Render:    render.DefaultOptions(),
	}, &buf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	summary := buf.String()
	if !strings.Contains(summary, "alpha") || !strings.Contains(summary, "3 notes") {
		t.Errorf("summary = %q", summary)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Fatalf("decode png: %v", err)
	}
}

func TestExportEmptyCanvasHasNoImage(t *testing.T) {
	url := exportServer(t)
	out := filepath.Join(t.TempDir(), "beta.png")
	err := Export(context.Background(), ExportOptions{
		ServerURL: url,
		Token:     "tok",
		Project:   "beta",
		Output:    out,
		Render:    render.DefaultOptions(),
	}, io.Discard)
	if !errors.Is(err, render.ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("image written for empty canvas: %v", err)
	}
}

func TestExportSummaryOnly(t *testing.T) {
	url := exportServer(t)
	var buf bytes.Buffer
	err := Export(context.Background(), ExportOptions{ServerURL: url, Token: "tok", Project: "beta"}, &buf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(buf.String(), "empty canvas") {
		t.Errorf("summary = %q", buf.String())
	}
}

func TestExportWrongToken(t *testing.T) {
	url := exportServer(t)
	err := Export(context.Background(), ExportOptions{ServerURL: url, Token: "nope"}, io.Discard)
	if err == nil {
		t.Fatal("expected auth failure")
	}
}
