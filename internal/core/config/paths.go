package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectRoot string
	Manifest    string
	HistoryDB   string
	StdlibDir   string
	ExportPath  string
}

// ResolvePaths makes every configured path absolute. The project root is
// resolved against cwd; everything else against the project root.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	root := ResolveRelative(cwd, cfg.ProjectRoot)
	resolved := ResolvedPaths{
		ProjectRoot: root,
		Manifest:    ResolveRelative(root, cfg.Manifest),
		HistoryDB:   ResolveRelative(root, cfg.History.Path),
	}
	if dir := strings.TrimSpace(cfg.Stdlib.DataDir); dir != "" {
		resolved.StdlibDir = ResolveRelative(root, dir)
	}
	if export := strings.TrimSpace(cfg.Environment.ExportPath); export != "" {
		resolved.ExportPath = ResolveRelative(root, export)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
