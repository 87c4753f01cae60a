package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompileGlobs(t *testing.T) {
	t.Parallel()

	globs, err := CompileGlobs([]string{".git", "build*", "*_pb2.py"}, "exclude")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	cases := []struct {
		name     string
		expected bool
	}{
		{name: ".git", expected: true},
		{name: "build-output", expected: true},
		{name: "api_pb2.py", expected: true},
		{name: "analysis.py", expected: false},
	}
	for _, tc := range cases {
		if got := MatchAny(globs, tc.name); got != tc.expected {
			t.Fatalf("MatchAny(%q): expected %v, got %v", tc.name, tc.expected, got)
		}
	}

	_, err = CompileGlobs([]string{"["}, "exclude dir")
	if err == nil || !strings.Contains(err.Error(), "invalid exclude dir pattern") {
		t.Fatalf("expected labelled pattern error, got %v", err)
	}
}

func TestUniqueScanRoots(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	roots := UniqueScanRoots([]string{filepath.Join(dir, "b"), filepath.Join(dir, "a"), filepath.Join(dir, "b", "..", "b")})
	if len(roots) != 2 {
		t.Fatalf("expected 2 unique roots, got %v", roots)
	}
	if roots[0] != filepath.Join(dir, "a") || roots[1] != filepath.Join(dir, "b") {
		t.Fatalf("expected sorted absolute roots, got %v", roots)
	}
}

func TestSortedStringKeys(t *testing.T) {
	t.Parallel()

	m := map[string]int{"b": 2, "a": 1, "c": 3}
	keys := SortedStringKeys(m)
	expected := []string{"a", "b", "c"}
	if len(keys) != len(expected) {
		t.Fatalf("expected %d keys, got %d", len(expected), len(keys))
	}
	for i, key := range expected {
		if keys[i] != key {
			t.Fatalf("expected %q at %d, got %q", key, i, keys[i])
		}
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "environment.lock.yml")
	content := []byte("name: troll-analysis\n")

	if err := WriteFileWithDirs(path, content, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("expected %q, got %q", string(content), string(got))
	}
}

func TestHeapAllocBytes(t *testing.T) {
	if HeapAllocBytes() == 0 {
		t.Fatal("expected a non-zero heap")
	}
}
