package config

import (
	"path/filepath"
	"testing"
)

func TestResolvePaths_DefaultLayout(t *testing.T) {
	root := t.TempDir()
	cfg := Default()

	got, err := ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectRoot != filepath.Clean(root) {
		t.Fatalf("expected project root %q, got %q", root, got.ProjectRoot)
	}
	if got.Manifest != filepath.Join(root, "environment.yml") {
		t.Fatalf("unexpected manifest path: %q", got.Manifest)
	}
	if got.HistoryDB != filepath.Join(root, ".envscan", "history.db") {
		t.Fatalf("unexpected history path: %q", got.HistoryDB)
	}
	if got.StdlibDir != "" || got.ExportPath != "" {
		t.Fatalf("expected optional paths to stay empty, got %+v", got)
	}
}

func TestResolvePaths_AbsoluteOverrides(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	cfg := Default()
	cfg.ProjectRoot = "project"
	cfg.Manifest = filepath.Join(other, "env.yml")
	cfg.Stdlib.DataDir = "listings"
	cfg.Environment.ExportPath = "locked.yml"

	got, err := ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	project := filepath.Join(root, "project")
	if got.ProjectRoot != project {
		t.Fatalf("expected project root %q, got %q", project, got.ProjectRoot)
	}
	if got.Manifest != filepath.Join(other, "env.yml") {
		t.Fatalf("expected absolute manifest to be kept, got %q", got.Manifest)
	}
	if got.StdlibDir != filepath.Join(project, "listings") {
		t.Fatalf("unexpected stdlib dir: %q", got.StdlibDir)
	}
	if got.ExportPath != filepath.Join(project, "locked.yml") {
		t.Fatalf("unexpected export path: %q", got.ExportPath)
	}
}

func TestResolvePaths_RejectsEmptyCwd(t *testing.T) {
	if _, err := ResolvePaths(Default(), " "); err == nil {
		t.Fatal("expected error for empty cwd")
	}
}
