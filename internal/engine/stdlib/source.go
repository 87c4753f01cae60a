package stdlib

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

//go:embed data/python.txt
var pythonListing string

// ErrUnknownVersion is returned by a Source that has no listing for a version.
var ErrUnknownVersion = errors.New("no standard library listing for version")

// Source provides the canonical module listing for a runtime version.
type Source interface {
	Versions() []string
	Load(version string) ([]string, error)
}

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)$`)

type version struct {
	major int
	minor int
}

func parseVersion(raw string) (version, bool) {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return version{}, false
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return version{}, false
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return version{}, false
	}
	return version{major: major, minor: minor}, true
}

func (v version) less(o version) bool {
	if v.major != o.major {
		return v.major < o.major
	}
	return v.minor < o.minor
}

func (v version) String() string {
	return fmt.Sprintf("%d.%d", v.major, v.minor)
}

// ValidVersion reports whether raw has the major.minor shape listings are keyed by.
func ValidVersion(raw string) bool {
	_, ok := parseVersion(raw)
	return ok
}

type listingEntry struct {
	name    string
	since   version
	removed version
}

func (e listingEntry) availableIn(v version) bool {
	if e.since.major != 0 && v.less(e.since) {
		return false
	}
	if e.removed.major != 0 && !v.less(e.removed) {
		return false
	}
	return true
}

// EmbeddedSource serves the annotated CPython listing compiled into the binary.
type EmbeddedSource struct {
	entries   []listingEntry
	supported []version
}

var embeddedVersions = []version{
	{3, 8}, {3, 9}, {3, 10}, {3, 11}, {3, 12}, {3, 13},
}

func NewEmbeddedSource() (*EmbeddedSource, error) {
	entries, err := parseListing(pythonListing)
	if err != nil {
		return nil, err
	}
	return &EmbeddedSource{entries: entries, supported: embeddedVersions}, nil
}

func parseListing(data string) ([]listingEntry, error) {
	var entries []listingEntry
	for i, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		entry := listingEntry{name: fields[0]}
		for _, marker := range fields[1:] {
			if len(marker) < 2 {
				return nil, fmt.Errorf("listing line %d: bad marker %q", i+1, marker)
			}
			v, ok := parseVersion(marker[1:])
			if !ok {
				return nil, fmt.Errorf("listing line %d: bad version in marker %q", i+1, marker)
			}
			switch marker[0] {
			case '+':
				entry.since = v
			case '-':
				entry.removed = v
			default:
				return nil, fmt.Errorf("listing line %d: unknown marker %q", i+1, marker)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *EmbeddedSource) Versions() []string {
	out := make([]string, 0, len(s.supported))
	for _, v := range s.supported {
		out = append(out, v.String())
	}
	return out
}

func (s *EmbeddedSource) Load(raw string) ([]string, error) {
	v, ok := parseVersion(raw)
	if !ok || !s.supports(v) {
		return nil, fmt.Errorf("%w %q", ErrUnknownVersion, raw)
	}
	names := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		if e.availableIn(v) {
			names = append(names, e.name)
		}
	}
	return names, nil
}

func (s *EmbeddedSource) supports(v version) bool {
	for _, known := range s.supported {
		if known == v {
			return true
		}
	}
	return false
}

// DirSource reads <version>.txt listings from a directory, one module per line.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Versions() []string {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.txt"))
	if err != nil {
		return nil
	}
	var parsed []version
	for _, m := range matches {
		if v, ok := parseVersion(strings.TrimSuffix(filepath.Base(m), ".txt")); ok {
			parsed = append(parsed, v)
		}
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].less(parsed[j]) })
	out := make([]string, 0, len(parsed))
	for _, v := range parsed {
		out = append(out, v.String())
	}
	return out
}

func (s *DirSource) Load(raw string) ([]string, error) {
	v, ok := parseVersion(raw)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownVersion, raw)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, v.String()+".txt"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w %q in %s", ErrUnknownVersion, raw, s.dir)
		}
		return nil, fmt.Errorf("read listing for %s: %w", raw, err)
	}
	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names, nil
}
