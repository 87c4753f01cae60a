package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/config"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/errors"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/ports"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/data/history"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/engine/conda"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/engine/manifest"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/engine/stdlib"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/shared/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ ports.HistoryStore = (*history.Store)(nil)

type App struct {
	Config       *config.Config
	Paths        config.ResolvedPaths
	Scanner      *Scanner
	History      ports.HistoryStore
	Environments ports.EnvironmentManager

	store *history.Store
}

// New wires the scanner, the optional history store and the environment
// manager from cfg. paths must come from config.ResolvePaths.
func New(cfg *config.Config, paths config.ResolvedPaths) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var source stdlib.Source
	if paths.StdlibDir != "" {
		source = stdlib.NewDirSource(paths.StdlibDir)
	} else {
		embedded, err := stdlib.NewEmbeddedSource()
		if err != nil {
			return nil, err
		}
		source = embedded
	}

	scanner, err := NewScanner(stdlib.NewClassifier(source), OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:       cfg,
		Paths:        paths,
		Scanner:      scanner,
		Environments: conda.New(cfg.Environment.Manager, nil, paths.ExportPath),
	}
	if cfg.History.Enabled {
		store, err := history.Open(paths.HistoryDB)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxOperation, "open_history")
		}
		a.store = store
		a.History = store
	}
	return a, nil
}

func (a *App) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Run discovers, scans and, unless req.DryRun, appends the additions to the
// manifest in a single write. The manifest is never touched when any step
// before the append fails.
func (a *App) Run(ctx context.Context, req ports.ScanRequest) (Result, error) {
	version := firstNonEmpty(req.RuntimeVersion, a.Config.RuntimeVersion)
	manifestPath := firstNonEmpty(req.ManifestPath, a.Paths.Manifest)
	roots := req.Roots
	if len(roots) == 0 {
		roots = []string{a.Paths.ProjectRoot}
	}

	ctx, span := observability.Tracer.Start(ctx, "App.Run", trace.WithAttributes(
		attribute.String("runtime.version", version),
		attribute.Bool("dry_run", req.DryRun),
	))
	defer span.End()

	start := time.Now()
	if err := a.Scanner.CheckVersion(version); err != nil {
		span.RecordError(err)
		return Result{}, err
	}
	if !req.DryRun {
		if err := checkManifest(manifestPath); err != nil {
			return Result{}, err
		}
	}

	files, skipped, err := a.Scanner.Discover(ctx, roots)
	if err != nil {
		return Result{}, errors.AddContext(err, errors.CtxOperation, "discover")
	}
	result, err := a.Scanner.Scan(ctx, files, version)
	if err != nil {
		return Result{}, err
	}
	result.RunID = uuid.NewString()
	result.Unreadable = append(skipped, result.Unreadable...)
	sortUnreadable(result.Unreadable)

	if !req.DryRun && len(result.Additions) > 0 {
		if err := manifest.Append(manifestPath, result.Additions); err != nil {
			return Result{}, errors.AddContext(err, errors.CtxPath, manifestPath)
		}
		result.Appended = true
		observability.PackagesAddedTotal.Add(float64(len(result.Additions)))
		slog.Info("manifest updated", "path", manifestPath, "added", len(result.Additions))
	}
	result.Duration = time.Since(start)

	mode := "append"
	if req.DryRun {
		mode = "dry_run"
	}
	observability.ScanDuration.WithLabelValues(mode).Observe(result.Duration.Seconds())
	a.record(ctx, result, req.DryRun)
	return result, nil
}

func checkManifest(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			de := errors.Wrap(err, errors.CodeNotFound, "manifest not found; run init first")
			return errors.AddContext(de, errors.CtxPath, path)
		}
		return errors.AddContext(err, errors.CtxPath, path)
	}
	if info.IsDir() {
		return errors.AddContext(errors.New(errors.CodeValidationError, "manifest path is a directory"), errors.CtxPath, path)
	}
	return nil
}

// record stores the run when history is enabled. Failures are logged only;
// the manifest write has already happened.
func (a *App) record(ctx context.Context, result Result, dryRun bool) {
	if a.History == nil {
		return
	}
	run := history.Run{
		ID:              result.RunID,
		ProjectKey:      a.Config.Environment.Name,
		Timestamp:       time.Now().UTC(),
		RuntimeVersion:  result.RuntimeVersion,
		FilesScanned:    result.Files,
		UnreadableCount: len(result.Unreadable),
		DiscoveredCount: result.Discovered.Len(),
		Additions:       result.Additions,
		DryRun:          dryRun,
		DurationMillis:  result.Duration.Milliseconds(),
		CommitHash:      history.ResolveCommit(ctx, a.Paths.ProjectRoot),
	}
	if err := a.History.SaveRun(run); err != nil {
		slog.Warn("failed to record scan history", "run_id", run.ID, "error", err)
	}
}

// InitManifest writes a fresh manifest header. Without force an existing
// manifest is left alone and manifest.ErrExists is returned.
func (a *App) InitManifest(force bool) error {
	header := manifest.Header{
		Name:     a.Config.Environment.Name,
		Channels: a.Config.Environment.Channels,
		Python:   a.Config.RuntimeVersion,
	}
	if err := manifest.Create(a.Paths.Manifest, header, force); err != nil {
		return err
	}
	slog.Info("manifest initialized", "path", a.Paths.Manifest, "python", header.Python)
	return nil
}

func (a *App) ShowManifest() (manifest.Document, error) {
	return manifest.Load(a.Paths.Manifest)
}

func (a *App) LoadHistory(since time.Time) ([]history.Run, error) {
	if a.History == nil {
		return nil, errors.New(errors.CodeValidationError, "history is disabled; set [history] enabled = true")
	}
	return a.History.LoadRuns(a.Config.Environment.Name, since)
}

type ProvisionResult struct {
	Scan     Result
	Handle   ports.EnvironmentHandle
	Exported manifest.Document
}

// Provision rebuilds the environment from scratch: remove the old one,
// rewrite the manifest header, scan and append, create, then export.
func (a *App) Provision(ctx context.Context, roots []string) (ProvisionResult, error) {
	if a.Environments == nil {
		return ProvisionResult{}, fmt.Errorf("environment manager is not configured")
	}
	ctx, span := observability.Tracer.Start(ctx, "App.Provision")
	defer span.End()

	// Check before removing anything so a bad version leaves the old
	// environment and manifest in place.
	if err := a.Scanner.CheckVersion(a.Config.RuntimeVersion); err != nil {
		return ProvisionResult{}, err
	}

	handle := ports.EnvironmentHandle{Name: a.Config.Environment.Name}
	if err := a.Environments.RemoveEnvironment(ctx, handle); err != nil {
		return ProvisionResult{}, err
	}
	if err := a.InitManifest(true); err != nil {
		return ProvisionResult{}, err
	}
	scan, err := a.Run(ctx, ports.ScanRequest{Roots: roots})
	if err != nil {
		return ProvisionResult{}, err
	}

	handle, err = a.Environments.CreateEnvironment(ctx, ports.EnvironmentSpec{
		Name:         a.Config.Environment.Name,
		ManifestPath: a.Paths.Manifest,
	})
	if err != nil {
		return ProvisionResult{Scan: scan}, err
	}
	doc, _, err := a.Environments.ExportEnvironment(ctx, handle)
	if err != nil {
		return ProvisionResult{Scan: scan, Handle: handle}, err
	}
	return ProvisionResult{Scan: scan, Handle: handle, Exported: doc}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
