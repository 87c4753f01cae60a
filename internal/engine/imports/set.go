package imports

import "sort"

// PackageSet accumulates the unique package names found during one scan.
// It is owned by a single goroutine; concurrent scans fill separate sets and
// Merge them.
type PackageSet struct {
	names map[string]struct{}
}

func NewPackageSet() *PackageSet {
	return &PackageSet{names: make(map[string]struct{})}
}

func (s *PackageSet) Add(name string) {
	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	s.names[name] = struct{}{}
}

func (s *PackageSet) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

func (s *PackageSet) Len() int {
	return len(s.names)
}

func (s *PackageSet) Merge(other *PackageSet) {
	if other == nil {
		return
	}
	for name := range other.names {
		s.Add(name)
	}
}

// Sorted returns the names in lexicographic order.
func (s *PackageSet) Sorted() []string {
	out := make([]string, 0, len(s.names))
	for name := range s.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Without returns the sorted names that none of the predicates match.
// The set itself is left unchanged.
func (s *PackageSet) Without(excluded ...func(string) bool) []string {
	out := make([]string, 0, len(s.names))
	for _, name := range s.Sorted() {
		skip := false
		for _, match := range excluded {
			if match(name) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, name)
		}
	}
	return out
}
