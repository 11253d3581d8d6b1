// Package analysis produces import-related diagnostics for one document.
//
// It is the light half of the Reef checker: it resolves use clauses against
// the project index and reports unknown module references and unused imports.
// Name-level diagnostics (unknown variables, types, constructors) are the
// full type checker's job and arrive from it with the same payload contract.
package analysis

import (
	"fmt"

	"reef/internal/diag"
	"reef/internal/index"
)

// Options configures one analysis pass.
type Options struct {
	// MaxDiagnostics bounds the number of reported diagnostics; <= 0 uses
	// the diag.Bag default.
	MaxDiagnostics int
}

type qualifierRef struct {
	name string
	span diag.Span
}

// Analyze checks one document against the project index.
//
// Payloads attached to the produced diagnostics follow the quickfix contract:
// unknown-module diagnostics carry the referenced module name, unused-import
// diagnostics carry a "<bool>,<offset>" removal instruction.
func Analyze(moduleName, text string, idx *index.Index, opts Options) *diag.Bag {
	bag := diag.NewBag(opts.MaxDiagnostics)

	mod, err := index.ScanSource(moduleName, text)
	if err != nil {
		bag.Add(diag.NewError(diag.CodeMalformedImport, diag.Span{}, err.Error()))
		return bag
	}

	refs, words := collectReferences(text, mod.Imports)

	bound := make(map[string]bool, len(mod.Imports))
	for _, imp := range mod.Imports {
		bound[imp.Qualifier()] = true
	}

	reportUnknownModules(bag, refs, bound)
	reportUnusedImports(bag, mod.Imports, words)

	bag.Sort()
	return bag
}

func reportUnknownModules(bag *diag.Bag, refs []qualifierRef, bound map[string]bool) {
	seen := make(map[string]bool)
	for _, ref := range refs {
		if bound[ref.name] || seen[ref.name] {
			continue
		}
		// Uppercase qualifiers are type member accesses, not module paths.
		if ref.name[0] >= 'A' && ref.name[0] <= 'Z' {
			continue
		}
		seen[ref.name] = true
		msg := fmt.Sprintf("unknown module '%s'", ref.name)
		bag.Add(diag.NewError(diag.CodeUnknownModule, ref.span, msg).WithData(ref.name))
		// Advisory twin at hint severity; only the error is fixable.
		bag.Add(diag.NewHint(diag.CodeUnknownModule, ref.span, msg).WithData(ref.name))
	}
}

func reportUnusedImports(bag *diag.Bag, imports []index.Import, words map[string]bool) {
	for _, imp := range imports {
		if len(imp.Symbols) == 0 {
			if words[imp.Qualifier()] {
				continue
			}
			span := diag.Span{Start: imp.Start, End: imp.End}
			bag.Add(diag.NewWarning(
				diag.CodeUnusedImportModule,
				span,
				fmt.Sprintf("unused import '%s'", imp.Path),
			).WithData(fmt.Sprintf("false,%d", imp.Start)))
			continue
		}
		for _, sym := range imp.Symbols {
			if words[sym.Name] {
				continue
			}
			span := diag.Span{Start: sym.Offset, End: sym.Offset + len(sym.Name)}
			bag.Add(diag.NewWarning(
				diag.CodeUnusedImportValue,
				span,
				fmt.Sprintf("unused imported value '%s'", sym.Name),
			).WithData(fmt.Sprintf("true,%d", sym.Offset)))
		}
	}
}

// collectReferences scans the document body (everything outside use clauses
// and comments) for identifier words and qualified references like "mod.item".
func collectReferences(text string, imports []index.Import) ([]qualifierRef, map[string]bool) {
	skip := make([]diag.Span, 0, len(imports))
	for _, imp := range imports {
		skip = append(skip, diag.Span{Start: imp.Start, End: imp.End})
	}

	var refs []qualifierRef
	words := make(map[string]bool)

	i := 0
	for i < len(text) {
		if inSpans(skip, i) {
			i++
			continue
		}
		b := text[i]
		if b == '/' && i+1 < len(text) && text[i+1] == '/' {
			for i < len(text) && text[i] != '\n' {
				i++
			}
			continue
		}
		if !isIdentStart(b) {
			i++
			continue
		}
		start := i
		for i < len(text) && isIdentByte(text[i]) {
			i++
		}
		word := text[start:i]
		words[word] = true
		if i+1 < len(text) && text[i] == '.' && isIdentStart(text[i+1]) {
			refs = append(refs, qualifierRef{
				name: word,
				span: diag.Span{Start: start, End: i},
			})
		}
	}
	return refs, words
}

func inSpans(spans []diag.Span, pos int) bool {
	for _, s := range spans {
		if pos >= s.Start && pos < s.End {
			return true
		}
	}
	return false
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}
