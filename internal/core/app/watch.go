package app

import (
	"context"
	"log/slog"

	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/ports"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/watcher"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/shared/util"
)

// Watch runs a dry-run scan now and after every debounced batch of changes
// until ctx is cancelled. Rescans are throttled to
// watch.max_rescans_per_minute; changes arriving while a rescan waits are
// folded into it. Watch never appends, so the manifest cannot accumulate
// duplicates.
func (a *App) Watch(ctx context.Context, roots []string, onResult func(Result, error)) error {
	if len(roots) == 0 {
		roots = []string{a.Paths.ProjectRoot}
	}
	req := ports.ScanRequest{Roots: roots, DryRun: true}

	rescan := make(chan struct{}, 1)
	w, err := watcher.New(watcher.Options{
		Debounce:     a.Config.Watch.Debounce,
		ExcludeDirs:  a.Config.Exclude.Dirs,
		ExcludeFiles: a.Config.Exclude.Files,
		Extensions:   a.Config.Scan.Extensions,

		Extensionless: hasPythonShebang,
	}, func(paths []string) {
		slog.Debug("source changes detected", "count", len(paths))
		select {
		case rescan <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch(roots); err != nil {
		return err
	}

	initial, err := a.Run(ctx, req)
	if err != nil {
		return err
	}
	onResult(initial, nil)

	limiter := util.NewPerMinute(a.Config.Watch.MaxRescansPerMinute)
	limiter.Allow() // the initial scan spends the first token
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-rescan:
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			result, err := a.Run(ctx, req)
			if err != nil {
				slog.Warn("rescan failed", "error", err)
			}
			onResult(result, err)
		}
	}
}
