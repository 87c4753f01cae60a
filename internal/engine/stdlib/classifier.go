// Package stdlib answers whether a top-level Python package ships with a
// given interpreter version.
package stdlib

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	domainerrors "github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/errors"
)

// Set is the immutable membership set for one runtime version.
type Set map[string]struct{}

func (s Set) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// Classifier loads a listing once per version and caches it for its lifetime.
type Classifier struct {
	source Source

	mu    sync.Mutex
	cache map[string]Set
}

func NewClassifier(source Source) *Classifier {
	return &Classifier{
		source: source,
		cache:  make(map[string]Set),
	}
}

// Set returns the standard library set for version. Unknown versions fail
// with a CONFIGURATION_ERROR rather than an empty set.
func (c *Classifier) Set(version string) (Set, error) {
	version = strings.TrimSpace(version)

	c.mu.Lock()
	defer c.mu.Unlock()

	if set, ok := c.cache[version]; ok {
		return set, nil
	}

	if !ValidVersion(version) {
		return nil, domainerrors.Configuration(version, ErrUnknownVersion)
	}

	names, err := c.source.Load(version)
	if err != nil {
		if errors.Is(err, ErrUnknownVersion) {
			return nil, domainerrors.Configuration(version, err)
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load standard library listing")
	}
	if len(names) == 0 {
		return nil, domainerrors.Configuration(version, errors.New("standard library listing is empty"))
	}

	set := make(Set, len(names))
	for _, name := range names {
		set[name] = struct{}{}
		// urllib.parse -> urllib
		if top, _, found := strings.Cut(name, "."); found && top != "" {
			set[top] = struct{}{}
		}
	}
	c.cache[version] = set
	slog.Debug("loaded standard library listing", "version", version, "modules", len(set))
	return set, nil
}

func (c *Classifier) IsStdlib(name, version string) (bool, error) {
	set, err := c.Set(version)
	if err != nil {
		return false, err
	}
	return set.Contains(name), nil
}

// Versions lists the runtime versions the underlying source can serve.
func (c *Classifier) Versions() []string {
	return c.source.Versions()
}
