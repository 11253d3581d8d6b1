package index

// ImportSymbol is one name inside the braces group of a use clause.
type ImportSymbol struct {
	Name   string
	Offset int // byte offset of the symbol name in the document
}

// Import is one `use` clause of a module.
//
// Offsets reference the original document so that downstream consumers
// (unused-import payloads, import-removal edits) can address the clause
// without re-parsing.
type Import struct {
	Path    string
	Alias   string
	Symbols []ImportSymbol
	Start   int // byte offset of the "use" keyword
	End     int // byte offset just past the clause line, including the newline
	PathEnd int // byte offset just past the module path
	// GroupEnd is the byte offset of the closing '}' of the symbol group,
	// or -1 when the clause has no group.
	GroupEnd int
}

// Qualifier returns the name the import binds in the module's scope.
func (im Import) Qualifier() string {
	if im.Alias != "" {
		return im.Alias
	}
	path := im.Path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

// Value is a public function of a module.
type Value struct {
	Name      string
	Signature string
	Doc       string
}

// Constant is a public module constant.
type Constant struct {
	Name       string
	Definition string
	Doc        string
}

// Constructor is one variant of a public type.
type Constructor struct {
	Name       string
	Definition string
	Doc        string
}

// Type is a public type declaration (data type or alias).
type Type struct {
	Name         string
	Definition   string
	Doc          string
	Constructors []Constructor
}

// Module is the indexed public surface of one source file.
type Module struct {
	Name      string
	Docs      string
	Imports   []Import
	Values    []Value
	Constants []Constant
	Types     []Type
}

// HasDefinition reports whether the module publicly defines a value, constant
// or type with the given name.
func (m *Module) HasDefinition(name string) bool {
	for i := range m.Values {
		if m.Values[i].Name == name {
			return true
		}
	}
	for i := range m.Constants {
		if m.Constants[i].Name == name {
			return true
		}
	}
	for i := range m.Types {
		if m.Types[i].Name == name {
			return true
		}
	}
	return false
}

// HasConstructor reports whether any public type of the module declares a
// constructor with the given name.
func (m *Module) HasConstructor(name string) bool {
	for i := range m.Types {
		for j := range m.Types[i].Constructors {
			if m.Types[i].Constructors[j].Name == name {
				return true
			}
		}
	}
	return false
}

// IsEmpty reports whether the module exposes no public declarations.
func (m *Module) IsEmpty() bool {
	return len(m.Values) == 0 && len(m.Constants) == 0 && len(m.Types) == 0
}
