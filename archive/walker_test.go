package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeArchive(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.htmlz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for name, content := range entries {
		e, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := e.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWalk(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"index.html":     "<html></html>",
		"text/ch1.html":  "<html></html>",
		"text/ch2.html":  "<html></html>",
		"images/pic.png": "not really a png",
		"style.css":      "p { margin: 0 }",
		"metadata.opf":   "<package/>",
		"text/notes/":    "",
		"text/extra.css": "q { margin: 0 }",
	})

	t.Run("prefix match", func(t *testing.T) {
		var visited []string
		err := Walk(path, "text/", func(arc string, f *zip.File) error {
			if arc != path {
				t.Errorf("archive = %s, want %s", arc, path)
			}
			visited = append(visited, f.Name)
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		sort.Strings(visited)
		want := []string{"text/ch1.html", "text/ch2.html", "text/extra.css"}
		if len(visited) != len(want) {
			t.Fatalf("visited %v, want %v", visited, want)
		}
		for i := range want {
			if visited[i] != want[i] {
				t.Errorf("visited[%d] = %s, want %s", i, visited[i], want[i])
			}
		}
	})

	t.Run("empty prefix visits every file", func(t *testing.T) {
		count := 0
		err := Walk(path, "", func(_ string, f *zip.File) error {
			if f.FileInfo().IsDir() {
				t.Errorf("directory entry %q should not be visited", f.Name)
			}
			count++
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		if count != 7 {
			t.Errorf("visited %d files, want 7", count)
		}
	})

	t.Run("callback error stops the walk", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := Walk(path, "", func(string, *zip.File) error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("Walk() error = %v, want %v", err, boom)
		}
		if calls != 1 {
			t.Errorf("callback ran %d times after an error, want 1", calls)
		}
	})
}

func TestWalk_MissingArchive(t *testing.T) {
	err := Walk(filepath.Join(t.TempDir(), "absent.htmlz"), "", func(string, *zip.File) error {
		t.Error("callback must not run")
		return nil
	})
	if err == nil {
		t.Error("Walk() on a missing archive must fail")
	}
}

func TestWalk_UnsafeEntries(t *testing.T) {
	for _, name := range []string{"../escape.html", "a/../../escape.html", "/etc/escape.html"} {
		path := filepath.Join(t.TempDir(), "evil.zip")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		w := zip.NewWriter(f)
		// zip.Writer rejects such names, write the header directly
		if _, err := w.CreateRaw(&zip.FileHeader{Name: name, Method: zip.Store}); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		if err := f.Close(); err != nil {
			t.Fatal(err)
		}

		err = Walk(path, "", func(string, *zip.File) error { return nil })
		if err == nil {
			t.Errorf("Walk() accepted unsafe entry %q", name)
		}
	}
}
