package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/config"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/errors"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/engine/imports"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/engine/stdlib"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/shared/observability"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/shared/util"
	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
	"github.com/src-d/enry/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const shebangProbeBytes = 512

type Options struct {
	Extensions   []string
	ExcludeDirs  []string
	ExcludeFiles []string
	Workers      int
	// MaxFileSize in bytes; 0 means unlimited.
	MaxFileSize  uint64
	SkipVendored bool
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Extensions:   cfg.Scan.Extensions,
		ExcludeDirs:  cfg.Exclude.Dirs,
		ExcludeFiles: cfg.Exclude.Files,
		Workers:      cfg.Scan.Workers,
		MaxFileSize:  cfg.Scan.MaxFileSizeBytes(),
		SkipVendored: cfg.Scan.SkipsVendored(),
	}
}

// UnreadableFile records a source that was skipped. Err carries
// errors.CodeUnreadable.
type UnreadableFile struct {
	Path string
	Err  error
}

type Result struct {
	RunID          string
	RuntimeVersion string
	Files          int
	Bytes          int64
	Unreadable     []UnreadableFile
	Discovered     *imports.PackageSet
	Breakdown
	// Additions are the names written (or, on a dry run, that would be written).
	Additions []string
	Appended  bool
	Duration  time.Duration
}

type Scanner struct {
	opts       Options
	classifier *stdlib.Classifier
	exclusions ExclusionSet
	extensions map[string]bool
	dirGlobs   []glob.Glob
	fileGlobs  []glob.Glob
}

func NewScanner(classifier *stdlib.Classifier, opts Options) (*Scanner, error) {
	if classifier == nil {
		return nil, fmt.Errorf("stdlib classifier is required")
	}
	dirGlobs, err := util.CompileGlobs(opts.ExcludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	fileGlobs, err := util.CompileGlobs(opts.ExcludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	extensions := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		extensions[strings.ToLower(ext)] = true
	}
	if len(extensions) == 0 {
		extensions[".py"] = true
	}
	return &Scanner{
		opts:       opts,
		classifier: classifier,
		exclusions: DefaultExclusions(),
		extensions: extensions,
		dirGlobs:   dirGlobs,
		fileGlobs:  fileGlobs,
	}, nil
}

// CheckVersion resolves the stdlib set for version without scanning.
func (s *Scanner) CheckVersion(version string) error {
	_, err := s.classifier.Set(version)
	return err
}

// Discover walks roots and returns the sorted source files to scan. Entries
// the walk cannot read are returned as unreadable instead of failing.
func (s *Scanner) Discover(ctx context.Context, roots []string) ([]string, []UnreadableFile, error) {
	var (
		files   []string
		skipped []UnreadableFile
	)
	for _, root := range util.UniqueScanRoots(roots) {
		info, err := os.Stat(root)
		if err != nil {
			return nil, nil, fmt.Errorf("scan root %q: %w", root, err)
		}
		if !info.IsDir() {
			if s.accepts(root) {
				files = append(files, root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				if path == root {
					return walkErr
				}
				slog.Warn("skipping unreadable path", "path", path, "error", walkErr)
				skipped = append(skipped, UnreadableFile{Path: path, Err: errors.Unreadable(path, walkErr)})
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path == root {
					return nil
				}
				if s.skipDir(root, path, d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if s.accepts(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
	}

	sort.Strings(files)
	return dedupeSorted(files), skipped, nil
}

func (s *Scanner) skipDir(root, path, name string) bool {
	if util.MatchAny(s.dirGlobs, name) {
		return true
	}
	if !s.opts.SkipVendored {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if enry.IsVendor(filepath.ToSlash(rel) + "/") {
		slog.Debug("skipping vendored directory", "path", path)
		return true
	}
	return false
}

func (s *Scanner) accepts(path string) bool {
	base := filepath.Base(path)
	if util.MatchAny(s.fileGlobs, base) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	if ext != "" {
		return s.extensions[ext]
	}
	return hasPythonShebang(path)
}

// hasPythonShebang catches extensionless scripts such as bin/run_analysis.
func hasPythonShebang(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, shebangProbeBytes)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false
	}
	head = head[:n]
	if !bytes.HasPrefix(head, []byte("#!")) {
		return false
	}
	lang, _ := enry.GetLanguageByShebang(head)
	return lang == "Python"
}

func dedupeSorted(in []string) []string {
	if len(in) < 2 {
		return in
	}
	out := in[:1]
	for _, v := range in[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

type fileOutcome struct {
	bytes int64
	err   error
}

// Scan extracts imports from files and filters them against the stdlib of
// version. An unsupported version fails before any file is opened.
func (s *Scanner) Scan(ctx context.Context, files []string, version string) (Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "Scanner.Scan", trace.WithAttributes(
		attribute.String("runtime.version", version),
		attribute.Int("files", len(files)),
	))
	defer span.End()

	start := time.Now()
	std, err := s.classifier.Set(version)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	outcomes := make([]fileOutcome, len(files))
	discovered, err := s.extractAll(ctx, files, outcomes)
	if err != nil {
		return Result{}, err
	}

	result := Result{RuntimeVersion: version, Discovered: discovered}
	for i, outcome := range outcomes {
		if outcome.err != nil {
			slog.Warn("skipping unreadable source file", "path", files[i], "error", outcome.err)
			result.Unreadable = append(result.Unreadable, UnreadableFile{Path: files[i], Err: outcome.err})
			continue
		}
		result.Files++
		result.Bytes += outcome.bytes
	}

	result.Breakdown = Filter(discovered, std, s.exclusions)
	result.Additions = result.ThirdParty
	result.Duration = time.Since(start)

	observability.FilesScannedTotal.Add(float64(result.Files))
	observability.FilesUnreadableTotal.Add(float64(len(result.Unreadable)))
	observability.PackagesDiscovered.Set(float64(discovered.Len()))
	span.SetAttributes(
		attribute.Int("packages.discovered", discovered.Len()),
		attribute.Int("packages.additions", len(result.Additions)),
	)
	slog.Debug("scan complete",
		"files", result.Files,
		"unreadable", len(result.Unreadable),
		"read", humanize.Bytes(uint64(result.Bytes)),
		"discovered", discovered.Len(),
		"heap", humanize.Bytes(util.HeapAllocBytes()),
	)
	return result, nil
}

// extractAll fills one PackageSet per worker and merges them once every
// worker is done. A file contributes names only if it was read completely.
func (s *Scanner) extractAll(ctx context.Context, files []string, outcomes []fileOutcome) (*imports.PackageSet, error) {
	workers := s.opts.Workers
	if workers > len(files) {
		workers = len(files)
	}
	if workers <= 1 {
		set := imports.NewPackageSet()
		for i, path := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = s.extractFile(path, set)
		}
		return set, nil
	}

	jobs := make(chan int)
	sets := make([]*imports.PackageSet, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		sets[w] = imports.NewPackageSet()
		wg.Add(1)
		go func(set *imports.PackageSet) {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = s.extractFile(files[i], set)
			}
		}(sets[w])
	}

	var cancelled error
	for i := range files {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if cancelled != nil {
		return nil, cancelled
	}

	merged := imports.NewPackageSet()
	for _, set := range sets {
		merged.Merge(set)
	}
	return merged, nil
}

func (s *Scanner) extractFile(path string, into *imports.PackageSet) fileOutcome {
	src, err := s.readSource(path)
	if err != nil {
		return fileOutcome{err: err}
	}
	local := imports.NewPackageSet()
	if _, err := imports.ScanSource(src, local); err != nil {
		return fileOutcome{err: errors.Unreadable(path, err)}
	}
	into.Merge(local)
	return fileOutcome{bytes: int64(len(src.Content))}
}

func (s *Scanner) readSource(path string) (imports.SourceFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return imports.SourceFile{}, errors.Unreadable(path, err)
	}
	if limit := s.opts.MaxFileSize; limit > 0 && uint64(info.Size()) > limit {
		return imports.SourceFile{}, errors.Unreadable(path, fmt.Errorf("file is %s, limit is %s",
			humanize.Bytes(uint64(info.Size())), humanize.Bytes(limit)))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return imports.SourceFile{}, errors.Unreadable(path, err)
	}
	if !utf8.Valid(content) {
		return imports.SourceFile{}, errors.Unreadable(path, fmt.Errorf("content is not valid UTF-8"))
	}
	return imports.SourceFile{Path: path, Content: content}, nil
}

func sortUnreadable(files []UnreadableFile) {
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}
