package app

import (
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/engine/imports"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/engine/stdlib"
)

// ExclusionSet holds the scanning tool's own runtime dependencies. They are
// never written to a manifest even when a scanned project imports them.
type ExclusionSet map[string]struct{}

var toolDependencies = []string{"pip", "pkg_resources", "setuptools", "stdlib_list", "wheel"}

func DefaultExclusions() ExclusionSet {
	set := make(ExclusionSet, len(toolDependencies))
	for _, name := range toolDependencies {
		set[name] = struct{}{}
	}
	return set
}

func (e ExclusionSet) Contains(name string) bool {
	_, ok := e[name]
	return ok
}

// Breakdown sorts every discovered name into exactly one bucket.
type Breakdown struct {
	ThirdParty []string
	Stdlib     []string
	Excluded   []string
}

// Filter removes stdlib names first and tool dependencies second. Only
// ThirdParty is ever appended.
func Filter(discovered *imports.PackageSet, std stdlib.Set, excluded ExclusionSet) Breakdown {
	b := Breakdown{ThirdParty: discovered.Without(std.Contains, excluded.Contains)}
	for _, name := range discovered.Sorted() {
		switch {
		case std.Contains(name):
			b.Stdlib = append(b.Stdlib, name)
		case excluded.Contains(name):
			b.Excluded = append(b.Excluded, name)
		}
	}
	return b
}
