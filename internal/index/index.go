package index

import (
	"sort"
	"strings"
)

// Index is the whole-project registry of modules and their public symbols.
//
// An Index is immutable once built; the surrounding service rebuilds it
// whenever the project recompiles and hands it read-only to each request.
type Index struct {
	modules []*Module
	byName  map[string]*Module
}

// New builds an Index over the given modules, ordered by module name.
func New(modules []*Module) *Index {
	sorted := make([]*Module, len(modules))
	copy(sorted, modules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	byName := make(map[string]*Module, len(sorted))
	for _, m := range sorted {
		byName[m.Name] = m
	}
	return &Index{modules: sorted, byName: byName}
}

// Modules returns every indexed module in the index's natural order.
// Do not modify the returned slice.
func (x *Index) Modules() []*Module {
	return x.modules
}

// Lookup returns the module with the exact given name.
func (x *Index) Lookup(name string) (*Module, bool) {
	m, ok := x.byName[name]
	return m, ok
}

// MatchSuffix returns every module whose full slash-separated name ends with
// the given path fragment.
func (x *Index) MatchSuffix(fragment string) []*Module {
	var matches []*Module
	for _, m := range x.modules {
		if strings.HasSuffix(m.Name, fragment) {
			matches = append(matches, m)
		}
	}
	return matches
}

// Len returns the number of indexed modules.
func (x *Index) Len() int {
	return len(x.modules)
}
