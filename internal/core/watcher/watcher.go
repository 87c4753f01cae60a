package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/shared/observability"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/shared/util"
	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

type Options struct {
	Debounce     time.Duration
	ExcludeDirs  []string
	ExcludeFiles []string
	// Extensions that count as source.
	Extensions []string
	// Extensionless decides whether a file without an extension is source,
	// e.g. a shebang script. Nil lets every extensionless file through.
	Extensionless func(path string) bool
}

// Watcher batches file system events under a project tree and hands the
// changed paths to onChange once the tree has been quiet for Debounce.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debounce     time.Duration
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	extFilters   map[string]bool
	onChange     func([]string)
	callbackMu   sync.Mutex

	extensionless func(string) bool
	// scripts remembers accepted extensionless files so their removal,
	// when the content can no longer be checked, still counts.
	scripts   map[string]struct{}
	scriptsMu sync.Mutex

	pending   map[string]struct{}
	pendingMu sync.Mutex
	timer     *time.Timer
}

func New(opts Options, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	dirs, err := util.CompileGlobs(opts.ExcludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	files, err := util.CompileGlobs(opts.ExcludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}

	extFilters := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized != "" {
			extFilters[normalized] = true
		}
	}
	if len(extFilters) == 0 {
		extFilters[".py"] = true
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher:    fsw,
		debounce:     opts.Debounce,
		excludeDirs:  dirs,
		excludeFiles: files,
		extFilters:   extFilters,
		onChange:     onChange,
		pending:      make(map[string]struct{}),

		extensionless: opts.Extensionless,
		scripts:       make(map[string]struct{}),
	}, nil
}

func (w *Watcher) Watch(roots []string) error {
	for _, root := range roots {
		if err := w.watchRecursive(root); err != nil {
			return err
		}
	}
	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if w.extensionless != nil && filepath.Ext(path) == "" {
				w.accepts(path, false)
			}
			return nil
		}
		if path != root && w.shouldExcludeDir(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.shouldExcludeDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			gone := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
			if !gone && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.accepts(event.Name, gone) {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	return util.MatchAny(w.excludeDirs, filepath.Base(path))
}

// accepts reports whether a change to path concerns a source file. gone
// marks paths that were removed or renamed away.
func (w *Watcher) accepts(path string, gone bool) bool {
	base := filepath.Base(path)
	if util.MatchAny(w.excludeFiles, base) {
		return false
	}
	if ext := strings.ToLower(filepath.Ext(base)); ext != "" {
		return w.extFilters[ext]
	}
	if w.extensionless == nil {
		return true
	}

	isScript := !gone && w.extensionless(path)
	w.scriptsMu.Lock()
	defer w.scriptsMu.Unlock()
	_, known := w.scripts[path]
	if isScript {
		w.scripts[path] = struct{}{}
		return true
	}
	// A known script that vanished or lost its shebang still changes the scan.
	delete(w.scripts, path)
	return known
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if w.accepts(path, false) {
			w.scheduleChange(path)
		}
		return nil
	})
}
