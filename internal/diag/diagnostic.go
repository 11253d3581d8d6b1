package diag

// Span is a half-open byte range [Start, End) into one document.
type Span struct {
	Start int
	End   int
}

// Diagnostic is a single reported issue within one document.
//
// Data carries an optional machine-readable payload whose encoding is
// category-specific and shared bit-exact with the quickfix engine:
// unknown-identifier/constructor diagnostics carry the raw missing name,
// unknown-module diagnostics carry the module path, and unused-import
// diagnostics carry a "<bool>,<offset>" removal instruction.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Span
	Data     string
}
