package walk

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFilesLexicalDepthFirst(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "inner.txt"))
	writeFile(t, filepath.Join(root, "a", "z.txt"))
	writeFile(t, filepath.Join(root, "a", "a.txt"))
	writeFile(t, filepath.Join(root, "top.txt"))

	var got []string
	visited, err := Files(root, Options{}, func(path string, _ fs.DirEntry) error {
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			t.Fatalf("rel: %v", relErr)
		}
		got = append(got, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if visited != 3 {
		t.Fatalf("visited %d directories, want 3", visited)
	}
	want := []string{"a/a.txt", "a/z.txt", "b/inner.txt", "top.txt"}
	if len(got) != len(want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("files = %v, want %v", got, want)
		}
	}
}

func TestFilesPrunesExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Isolated_Orphans", "moved.tst"))
	writeFile(t, filepath.Join(root, "keep", "Isolated_Orphans", "also.tst"))
	writeFile(t, filepath.Join(root, "keep", "ok.txt"))

	var got []string
	_, err := Files(root, Options{ExcludeDirs: []string{"Isolated_Orphans"}}, func(path string, _ fs.DirEntry) error {
		got = append(got, filepath.Base(path))
		return nil
	})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(got) != 1 || got[0] != "ok.txt" {
		t.Fatalf("files = %v, want only ok.txt", got)
	}
}

func TestFilesMissingRoot(t *testing.T) {
	if _, err := Files(filepath.Join(t.TempDir(), "absent"), Options{}, nil); err == nil {
		t.Fatal("expected error for unreadable root")
	}
}

func TestFilesCallbackErrorStopsWalk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"))
	writeFile(t, filepath.Join(root, "b.txt"))

	calls := 0
	_, err := Files(root, Options{}, func(string, fs.DirEntry) error {
		calls++
		return os.ErrClosed
	})
	if err != os.ErrClosed {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	if calls != 1 {
		t.Fatalf("callback ran %d times, want 1", calls)
	}
}
