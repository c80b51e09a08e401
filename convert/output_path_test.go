package convert

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"ebh/config"
	"ebh/state"
)

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func TestBuildOutputPath_Default(t *testing.T) {
	_, env := setupTestEnv(t)
	env.Cfg.Document.RemoveSourceExt = false
	env.Cfg.Document.TitleAsFileName = false

	got := buildOutputPath("book.epub", "/out", "Ignored Title", env)
	if want := filepath.Join("/out", "book.epub.html"); got != want {
		t.Errorf("buildOutputPath = %q, want %q", got, want)
	}
}

func TestBuildOutputPath_RemoveSourceExt(t *testing.T) {
	_, env := setupTestEnv(t)
	env.Cfg.Document.RemoveSourceExt = true

	got := buildOutputPath("book.epub", "/out", "", env)
	if want := filepath.Join("/out", "book.html"); got != want {
		t.Errorf("buildOutputPath = %q, want %q", got, want)
	}

	// unknown extensions stay in place even when removal is requested
	got = buildOutputPath("notes.backup", "/out", "", env)
	if want := filepath.Join("/out", "notes.backup.html"); got != want {
		t.Errorf("buildOutputPath = %q, want %q", got, want)
	}
}

func TestBuildOutputPath_TitleAsFileName(t *testing.T) {
	_, env := setupTestEnv(t)
	env.Cfg.Document.TitleAsFileName = true

	got := buildOutputPath("book.epub", "/out", "A Very Good Book", env)
	if want := filepath.Join("/out", "a-very-good-book.html"); got != want {
		t.Errorf("buildOutputPath = %q, want %q", got, want)
	}

	// empty title falls back to the source name
	got = buildOutputPath("book.epub", "/out", "  ", env)
	if want := filepath.Join("/out", "book.epub.html"); got != want {
		t.Errorf("buildOutputPath = %q, want %q", got, want)
	}
}

func TestBuildOutputPath_Dirs(t *testing.T) {
	_, env := setupTestEnv(t)

	got := buildOutputPath(filepath.Join("series", "book.epub"), "/out", "", env)
	if want := filepath.Join("/out", "series", "book.epub.html"); got != want {
		t.Errorf("with dirs = %q, want %q", got, want)
	}

	env.NoDirs = true
	got = buildOutputPath(filepath.Join("series", "book.epub"), "/out", "", env)
	if want := filepath.Join("/out", "book.epub.html"); got != want {
		t.Errorf("with nodirs = %q, want %q", got, want)
	}
}
