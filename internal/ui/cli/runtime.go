package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	coreapp "github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/app"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/config"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/shared/observability"
)

type runtime struct {
	cfg     *config.Config
	app     *coreapp.App
	cleanup []func()
}

// loadRuntime reads the config (an absent default file means defaults),
// resolves paths against the working directory and wires the app.
func loadRuntime(ctx context.Context, opts *rootOptions) (*runtime, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("detect working directory: %w", err)
	}

	path, allowMissing := opts.configPath, false
	if path == "" {
		path, allowMissing = filepath.Join(cwd, config.DefaultFileName), true
	}
	cfg, err := config.LoadOrDefault(path, allowMissing)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}

	a, err := coreapp.New(cfg, paths)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, app: a}
	rt.cleanup = append(rt.cleanup, func() {
		if err := a.Close(); err != nil {
			slog.Warn("failed to close app", "error", err)
		}
	})

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Endpoint:       cfg.Observability.OTLPEndpoint,
		Insecure:       cfg.Observability.Insecure(),
		ServiceVersion: version,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.cleanup = append(rt.cleanup, func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	})

	slog.Debug("runtime ready",
		"config", path,
		"project_root", paths.ProjectRoot,
		"manifest", paths.Manifest,
		"runtime_version", cfg.RuntimeVersion,
	)
	return rt, nil
}

// serveMetrics starts /metrics and /health when observability.metrics_addr
// is set.
func (r *runtime) serveMetrics() error {
	addr := r.cfg.Observability.MetricsAddr
	if addr == "" {
		return nil
	}
	srv := observability.NewServer(addr, r.app.Health)
	if err := srv.Start(); err != nil {
		return err
	}
	r.cleanup = append(r.cleanup, func() {
		if err := srv.Stop(context.Background()); err != nil {
			slog.Warn("failed to stop observability server", "error", err)
		}
	})
	return nil
}

func (r *runtime) Close() {
	for i := len(r.cleanup) - 1; i >= 0; i-- {
		r.cleanup[i]()
	}
	r.cleanup = nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
