package convert

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProcess_MissingSource(t *testing.T) {
	ctx, env := setupTestEnv(t)
	err := process(ctx, filepath.Join(t.TempDir(), "no-such-book.epub"), t.TempDir(), env.Log)
	if err == nil || !strings.Contains(err.Error(), "was not found") {
		t.Errorf("err = %v, want missing-source error", err)
	}
}

func TestProcess_UnrecognizedInput(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := writeTempFile(t, "notes.md", []byte("# notes"))
	err := process(ctx, src, t.TempDir(), env.Log)
	if err == nil || !strings.Contains(err.Error(), "not recognized") {
		t.Errorf("err = %v, want not-recognized error", err)
	}
}

func TestProcessDir_SkipsNonBooks(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "readme.md"), []byte("# hi"), 0644); err != nil {
		t.Fatal(err)
	}
	// an empty directory tree with no books is not an error
	if err := processDir(ctx, dir, t.TempDir(), env.Log); err != nil {
		t.Errorf("processDir = %v, want nil", err)
	}
}

func TestCheckOutputPath(t *testing.T) {
	_, env := setupTestEnv(t)
	log := env.Log

	path := filepath.Join(t.TempDir(), "book.html")
	if err := checkOutputPath(path, env, log); err != nil {
		t.Errorf("fresh path: %v", err)
	}

	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := checkOutputPath(path, env, log); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("existing path without overwrite: err = %v", err)
	}

	env.Overwrite = true
	if err := checkOutputPath(path, env, log); err != nil {
		t.Errorf("existing path with overwrite: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("existing file should have been removed for overwrite")
	}
}
