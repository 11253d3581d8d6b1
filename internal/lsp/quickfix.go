package lsp

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"reef/internal/index"
)

// Diagnostic codes the server can synthesize a quickfix for. They must stay
// bit-exact with the checker's codes in internal/diag.
const (
	codeUnknownVariable    = "reef::check::unknown::variable"
	codeUnknownType        = "reef::check::unknown::type"
	codeUnknownConstructor = "reef::check::unknown::type_constructor"
	codeUnknownModule      = "reef::check::unknown::module"
	codeUnusedImportValue  = "reef::check::unused::import::value"
	codeUnusedImportModule = "reef::check::unused::import::module"
)

// errMalformedFixData marks an unused-import payload the engine cannot
// decode. It aborts the whole code-action request: the checker and the
// engine have drifted out of sync, and a partially-decoded batch could
// delete the wrong import range.
var errMalformedFixData = errors.New("malformed unused-import fix payload")

// fixCategory is the closed set of diagnostic conditions with an automated fix.
type fixCategory uint8

const (
	fixUnknownIdentifier fixCategory = iota
	fixUnknownConstructor
	fixUnknownModule
	fixUnusedImports
)

// combined reports whether every candidate of the category folds into a
// single code action. Candidates of the unknown-* categories are mutually
// exclusive alternatives; unused-import removals are cumulative.
func (c fixCategory) combined() bool {
	return c == fixUnusedImports
}

// quickfixTable maps (code, severity) pairs to fix categories. Diagnostics
// often come in two severities for the same condition, a blocking error plus
// an advisory hint, so both fields must match: acting on the hint twin would
// offer the same fix twice.
var quickfixTable = []struct {
	code     string
	severity int
	category fixCategory
}{
	{codeUnknownVariable, severityError, fixUnknownIdentifier},
	{codeUnknownType, severityError, fixUnknownIdentifier},
	{codeUnknownConstructor, severityError, fixUnknownConstructor},
	{codeUnknownModule, severityError, fixUnknownModule},
	{codeUnusedImportValue, severityWarning, fixUnusedImports},
	{codeUnusedImportModule, severityWarning, fixUnusedImports},
}

// classifyQuickfix maps one diagnostic to at most one fix category.
func classifyQuickfix(d lspDiagnostic) (fixCategory, bool) {
	for _, row := range quickfixTable {
		if d.Code == row.code && d.Severity == row.severity {
			return row.category, true
		}
	}
	return 0, false
}

// quickfixBatch groups the diagnostics resolved by one generation pass.
// The unknown-* categories carry exactly one diagnostic; fixUnusedImports
// carries every unused-import diagnostic of the request, in arrival order.
type quickfixBatch struct {
	category    fixCategory
	diagnostics []lspDiagnostic
}

// groupQuickfixes classifies a request's diagnostics and batches the
// unused-import ones so a single action later fixes them all.
func groupQuickfixes(diags []lspDiagnostic) []quickfixBatch {
	var batches []quickfixBatch
	unused := -1
	for _, d := range diags {
		category, ok := classifyQuickfix(d)
		if !ok {
			continue
		}
		if category.combined() {
			if unused < 0 {
				unused = len(batches)
				batches = append(batches, quickfixBatch{category: category})
			}
			batches[unused].diagnostics = append(batches[unused].diagnostics, d)
			continue
		}
		batches = append(batches, quickfixBatch{
			category:    category,
			diagnostics: []lspDiagnostic{d},
		})
	}
	return batches
}

// buildQuickfixActions runs generation and assembly for every batch.
// A nil parsed document yields no actions: the editor may request actions
// for a state the scanner cannot read, and that is not an error.
func buildQuickfixActions(idx *index.Index, doc *parsedDocument, uri string, batches []quickfixBatch) ([]codeAction, error) {
	if doc == nil || idx == nil {
		return nil, nil
	}

	actions := make([]codeAction, 0, len(batches))
	for _, batch := range batches {
		switch batch.category {
		case fixUnknownIdentifier:
			d := batch.diagnostics[0]
			edits := importCandidates(idx, doc, d, (*index.Module).HasDefinition)
			actions = append(actions, eachAsDistinctAction(uri, d, edits)...)
		case fixUnknownConstructor:
			d := batch.diagnostics[0]
			edits := importCandidates(idx, doc, d, (*index.Module).HasConstructor)
			actions = append(actions, eachAsDistinctAction(uri, d, edits)...)
		case fixUnknownModule:
			d := batch.diagnostics[0]
			edits := unknownModuleCandidates(idx, doc, d)
			actions = append(actions, eachAsDistinctAction(uri, d, edits)...)
		case fixUnusedImports:
			edits, err := unusedImportCandidates(doc, batch.diagnostics)
			if err != nil {
				return nil, err
			}
			actions = append(actions, asSingleAction(uri, batch.diagnostics, "Remove redundant imports", edits))
		}
	}
	return actions, nil
}

// importCandidates yields one candidate per module whose public surface
// defines the missing name. Two modules defining the same name yield two
// independent candidates; the engine never guesses which one the user meant.
func importCandidates(idx *index.Index, doc *parsedDocument, d lspDiagnostic, defines func(*index.Module, string) bool) []annotatedEdit {
	name, ok := decodeStringData(d.Data)
	if !ok {
		return nil
	}
	var edits []annotatedEdit
	for _, mod := range idx.Modules() {
		if !defines(mod, name) {
			continue
		}
		if edit, ok := doc.importEdit(mod.Name, name); ok {
			edits = append(edits, edit)
		}
	}
	return edits
}

// unknownModuleCandidates yields one whole-module import per index module
// whose full name ends with the payload path.
func unknownModuleCandidates(idx *index.Index, doc *parsedDocument, d lspDiagnostic) []annotatedEdit {
	fragment, ok := decodeStringData(d.Data)
	if !ok {
		return nil
	}
	var edits []annotatedEdit
	for _, mod := range idx.MatchSuffix(fragment) {
		if edit, ok := doc.importEdit(mod.Name, ""); ok {
			edits = append(edits, edit)
		}
	}
	return edits
}

// unusedImportCandidates decodes each diagnostic's removal instruction and
// turns it into an edit. Instructions are processed in reverse arrival order
// because removal edits reference fixed offsets into the original document;
// the resulting edit order is part of the engine's contract.
func unusedImportCandidates(doc *parsedDocument, diags []lspDiagnostic) ([]annotatedEdit, error) {
	var edits []annotatedEdit
	for i := len(diags) - 1; i >= 0; i-- {
		payload, ok := decodeStringData(diags[i].Data)
		if !ok {
			continue
		}
		qualified, offset, err := decodeRemoveInstruction(payload)
		if err != nil {
			return nil, err
		}
		if edit, ok := doc.removeImportEdit(offset, qualified); ok {
			edits = append(edits, edit)
		}
	}
	return edits, nil
}

// decodeRemoveInstruction parses the "<bool>,<offset>" payload of an
// unused-import diagnostic. Decoding is strict: the payload is produced by
// the checker, and any mismatch is a contract violation, not user input.
func decodeRemoveInstruction(payload string) (qualified bool, offset int, err error) {
	fields := strings.Split(payload, ",")
	if len(fields) != 2 {
		return false, 0, errMalformedFixData
	}
	qualified, err = strconv.ParseBool(fields[0])
	if err != nil {
		return false, 0, errMalformedFixData
	}
	raw, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return false, 0, errMalformedFixData
	}
	offset, err = safecast.Conv[int](raw)
	if err != nil {
		return false, 0, errMalformedFixData
	}
	return qualified, offset, nil
}

// decodeStringData extracts the string payload of a diagnostic's data field.
func decodeStringData(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// eachAsDistinctAction wraps every candidate in its own code action: the
// candidates are alternatives and the user picks exactly one.
func eachAsDistinctAction(uri string, d lspDiagnostic, edits []annotatedEdit) []codeAction {
	actions := make([]codeAction, 0, len(edits))
	for _, e := range edits {
		actions = append(actions, codeAction{
			Title:       e.title,
			Kind:        codeActionKindQuickfix,
			Diagnostics: []lspDiagnostic{d},
			IsPreferred: true,
			Edit: &workspaceEdit{
				Changes: map[string][]textEdit{
					uri: {e.edit},
				},
			},
		})
	}
	return actions
}

// asSingleAction folds every candidate into one code action applied as a
// whole, resolving all the carried diagnostics at once.
func asSingleAction(uri string, diags []lspDiagnostic, title string, edits []annotatedEdit) codeAction {
	changes := make([]textEdit, 0, len(edits))
	for _, e := range edits {
		changes = append(changes, e.edit)
	}
	return codeAction{
		Title:       title,
		Kind:        codeActionKindQuickfix,
		Diagnostics: diags,
		IsPreferred: true,
		Edit: &workspaceEdit{
			Changes: map[string][]textEdit{
				uri: changes,
			},
		},
	}
}
