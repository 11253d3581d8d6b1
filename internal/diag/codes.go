package diag

// Code identifies the condition a diagnostic reports. Codes are stable strings
// shared between the checker and every downstream consumer (CLI output, the
// language server, quickfix synthesis); renaming one is a breaking change.
type Code string

const (
	// Checker errors.
	CodeUnknownVariable    Code = "reef::check::unknown::variable"
	CodeUnknownType        Code = "reef::check::unknown::type"
	CodeUnknownConstructor Code = "reef::check::unknown::type_constructor"
	CodeUnknownModule      Code = "reef::check::unknown::module"

	// Checker warnings.
	CodeUnusedImportValue  Code = "reef::check::unused::import::value"
	CodeUnusedImportModule Code = "reef::check::unused::import::module"

	// Scanner-level problems.
	CodeMalformedImport Code = "reef::scan::malformed::import"
)

func (c Code) String() string {
	return string(c)
}
