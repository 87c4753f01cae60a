// Package conda drives the conda (or mamba) executable to build and export
// environments from a manifest.
package conda

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/ports"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/engine/manifest"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/shared/observability"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/shared/util"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Runner executes name with args and returns stdout. Stderr is folded into
// the error on failure.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
		}
		return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
	}
	return stdout.Bytes(), nil
}

type Manager struct {
	executable string
	runner     Runner
	exportPath string
}

var _ ports.EnvironmentManager = (*Manager)(nil)

// New returns a Manager for executable ("conda" or "mamba"). A nil runner
// uses ExecRunner. When exportPath is set, ExportEnvironment also writes the
// exported YAML there.
func New(executable string, runner Runner, exportPath string) *Manager {
	if strings.TrimSpace(executable) == "" {
		executable = "conda"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Manager{executable: executable, runner: runner, exportPath: exportPath}
}

func (m *Manager) CreateEnvironment(ctx context.Context, spec ports.EnvironmentSpec) (ports.EnvironmentHandle, error) {
	ctx, span := observability.Tracer.Start(ctx, "conda.CreateEnvironment", trace.WithAttributes(
		attribute.String("env.name", spec.Name),
	))
	defer span.End()

	if strings.TrimSpace(spec.Name) == "" {
		return ports.EnvironmentHandle{}, fmt.Errorf("environment name must not be empty")
	}
	if strings.TrimSpace(spec.ManifestPath) == "" {
		return ports.EnvironmentHandle{}, fmt.Errorf("manifest path must not be empty")
	}

	slog.Info("creating environment", "name", spec.Name, "manifest", spec.ManifestPath, "manager", m.executable)
	if _, err := m.runner.Run(ctx, m.executable, "env", "create", "-f", spec.ManifestPath, "-n", spec.Name); err != nil {
		span.RecordError(err)
		return ports.EnvironmentHandle{}, fmt.Errorf("create environment %q: %w", spec.Name, err)
	}
	return ports.EnvironmentHandle{Name: spec.Name}, nil
}

func (m *Manager) ExportEnvironment(ctx context.Context, handle ports.EnvironmentHandle) (manifest.Document, []byte, error) {
	ctx, span := observability.Tracer.Start(ctx, "conda.ExportEnvironment", trace.WithAttributes(
		attribute.String("env.name", handle.Name),
	))
	defer span.End()

	out, err := m.runner.Run(ctx, m.executable, "env", "export", "-n", handle.Name, "--no-builds")
	if err != nil {
		span.RecordError(err)
		return manifest.Document{}, nil, fmt.Errorf("export environment %q: %w", handle.Name, err)
	}
	doc, err := manifest.Parse(out)
	if err != nil {
		return manifest.Document{}, nil, fmt.Errorf("parse export of %q: %w", handle.Name, err)
	}
	if m.exportPath != "" {
		if err := util.WriteFileWithDirs(m.exportPath, out, 0o644); err != nil {
			return manifest.Document{}, nil, fmt.Errorf("write export %q: %w", m.exportPath, err)
		}
		slog.Info("exported environment", "name", handle.Name, "path", m.exportPath)
	}
	return doc, out, nil
}

// RemoveEnvironment treats an environment that does not exist as removed.
func (m *Manager) RemoveEnvironment(ctx context.Context, handle ports.EnvironmentHandle) error {
	_, err := m.runner.Run(ctx, m.executable, "env", "remove", "-n", handle.Name, "-y")
	if err == nil {
		return nil
	}
	if isMissingEnv(err) {
		slog.Debug("environment not present, nothing to remove", "name", handle.Name)
		return nil
	}
	return fmt.Errorf("remove environment %q: %w", handle.Name, err)
}

func isMissingEnv(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "environmentlocationnotfound") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "could not find conda environment")
}
