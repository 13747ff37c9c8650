package walker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codegraph/internal/core/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func supportedGo(path string) bool {
	return strings.HasSuffix(path, ".go") || strings.HasSuffix(path, ".py")
}

func TestWalkCollectsSupportedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "util.py"), "def f(): pass")
	writeFile(t, filepath.Join(root, "readme.md"), "# doc")
	writeFile(t, filepath.Join(root, "sub", "lib.go"), "package sub")

	w, err := New(nil, nil, supportedGo, 0)
	if err != nil {
		t.Fatal(err)
	}
	files, skipped, err := w.Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %+v, want none", skipped)
	}
	if len(files) != 3 {
		t.Fatalf("files = %v, want 3 entries", files)
	}
	// Lexical order is stable across runs.
	if filepath.Base(files[0]) != "main.go" {
		t.Errorf("first file = %s, want main.go", files[0])
	}
}

func TestWalkExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "node_modules", "dep.go"), "package dep")
	writeFile(t, filepath.Join(root, "main_gen.go"), "package main")

	w, err := New([]string{"node_modules"}, []string{"*_gen.go"}, supportedGo, 0)
	if err != nil {
		t.Fatal(err)
	}
	files, _, err := w.Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "main.go" {
		t.Errorf("files = %v, want only main.go", files)
	}
}

func TestWalkRepeatedExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "vendor", "dep.go"), "package dep")

	w, err := New([]string{"vendor", "vendor"}, []string{"*_gen.go", "*_gen.go"}, supportedGo, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(w.excludeDirs); got != 1 {
		t.Errorf("compiled dir globs = %d, want 1", got)
	}
	if got := len(w.excludeFiles); got != 1 {
		t.Errorf("compiled file globs = %d, want 1", got)
	}
	files, _, err := w.Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "main.go" {
		t.Errorf("files = %v, want only main.go", files)
	}
}

func TestWalkMissingRoot(t *testing.T) {
	w, err := New(nil, nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = w.Walk(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	if !errors.IsCode(err, errors.CodeIO) {
		t.Errorf("error code = %v, want CodeIO", err)
	}
}

func TestWalkRootIsFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	writeFile(t, path, "package main")

	w, err := New(nil, nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = w.Walk(path)
	if !errors.IsCode(err, errors.CodeIO) {
		t.Errorf("error = %v, want CodeIO", err)
	}
}

func TestWalkMaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "small.go"), "package a")
	writeFile(t, filepath.Join(root, "big.go"), strings.Repeat("x", 128))

	w, err := New(nil, nil, supportedGo, 64)
	if err != nil {
		t.Fatal(err)
	}
	files, skipped, err := w.Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "small.go" {
		t.Errorf("files = %v, want only small.go", files)
	}
	if len(skipped) != 1 || skipped[0].Reason != "exceeds max file size" {
		t.Errorf("skipped = %+v, want size skip for big.go", skipped)
	}
}

func TestWalkInvalidPattern(t *testing.T) {
	if _, err := New([]string{"[unclosed"}, nil, nil, 0); err == nil {
		t.Fatal("expected error for invalid glob pattern")
	}
}
