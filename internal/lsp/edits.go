package lsp

import (
	"fmt"

	"reef/internal/index"
)

// annotatedEdit is one candidate fix: a human-readable title plus the text
// edit realizing it.
type annotatedEdit struct {
	title string
	edit  textEdit
}

// parsedDocument is the edit provider's view of one document: its text plus
// the scanned use clauses.
type parsedDocument struct {
	text    string
	imports []index.Import
}

// parseDocument scans a document's import section. It returns nil when the
// document cannot be parsed; callers treat that as "no actions available"
// rather than an error, since editors routinely request actions for
// transient, partially-edited states.
func parseDocument(text string) *parsedDocument {
	mod, err := index.ScanSource("", text)
	if err != nil {
		return nil
	}
	return &parsedDocument{text: text, imports: mod.Imports}
}

func (d *parsedDocument) findImport(path string) *index.Import {
	for i := range d.imports {
		if d.imports[i].Path == path {
			return &d.imports[i]
		}
	}
	return nil
}

// insertOffset is where a brand-new use clause goes: right after the last
// existing import, or at the very top of the document.
func (d *parsedDocument) insertOffset() int {
	offset := 0
	for _, imp := range d.imports {
		if imp.End > offset {
			offset = imp.End
		}
	}
	return offset
}

func (d *parsedDocument) insertAt(offset int, newText string) textEdit {
	return textEdit{
		Range:   rangeForSpan(d.text, offset, offset),
		NewText: newText,
	}
}

func (d *parsedDocument) deleteSpan(start, end int) textEdit {
	return textEdit{
		Range:   rangeForSpan(d.text, start, end),
		NewText: "",
	}
}

// importEdit produces an edit importing module, optionally qualified to one
// symbol. It reports false when no sensible edit exists (already imported),
// in which case the candidate is silently dropped.
func (d *parsedDocument) importEdit(module, symbol string) (annotatedEdit, bool) {
	existing := d.findImport(module)

	if symbol == "" {
		if existing != nil {
			return annotatedEdit{}, false
		}
		return annotatedEdit{
			title: fmt.Sprintf("Import '%s'", module),
			edit:  d.insertAt(d.insertOffset(), fmt.Sprintf("use %s\n", module)),
		}, true
	}

	title := fmt.Sprintf("Use '%s' from '%s'", symbol, module)

	if existing == nil {
		return annotatedEdit{
			title: title,
			edit:  d.insertAt(d.insertOffset(), fmt.Sprintf("use %s.{%s}\n", module, symbol)),
		}, true
	}

	if existing.GroupEnd < 0 {
		return annotatedEdit{
			title: title,
			edit:  d.insertAt(existing.PathEnd, fmt.Sprintf(".{%s}", symbol)),
		}, true
	}

	for _, sym := range existing.Symbols {
		if sym.Name == symbol {
			return annotatedEdit{}, false
		}
	}
	newText := ", " + symbol
	if len(existing.Symbols) == 0 {
		newText = symbol
	}
	return annotatedEdit{
		title: title,
		edit:  d.insertAt(existing.GroupEnd, newText),
	}, true
}

// removeImportEdit produces an edit deleting the import clause identified by
// a byte offset: the whole clause when qualified is false, or the single
// qualified symbol at that offset when qualified is true.
func (d *parsedDocument) removeImportEdit(offset int, qualified bool) (annotatedEdit, bool) {
	if !qualified {
		for i := range d.imports {
			imp := &d.imports[i]
			if imp.Start != offset {
				continue
			}
			return annotatedEdit{
				title: fmt.Sprintf("Remove unused import '%s'", imp.Path),
				edit:  d.deleteSpan(imp.Start, imp.End),
			}, true
		}
		return annotatedEdit{}, false
	}

	for i := range d.imports {
		imp := &d.imports[i]
		for j, sym := range imp.Symbols {
			if sym.Offset != offset {
				continue
			}
			start, end := symbolDeletionSpan(imp, j)
			return annotatedEdit{
				title: fmt.Sprintf("Remove unused symbol '%s'", sym.Name),
				edit:  d.deleteSpan(start, end),
			}, true
		}
	}
	return annotatedEdit{}, false
}

// symbolDeletionSpan covers the j-th symbol of a group together with its
// separator, so the surviving group stays well-formed.
func symbolDeletionSpan(imp *index.Import, j int) (int, int) {
	sym := imp.Symbols[j]
	symEnd := sym.Offset + len(sym.Name)

	if len(imp.Symbols) == 1 {
		// Sole symbol: drop the whole ".{sym}" suffix.
		return imp.PathEnd, imp.GroupEnd + 1
	}
	if j == len(imp.Symbols)-1 {
		prev := imp.Symbols[j-1]
		return prev.Offset + len(prev.Name), symEnd
	}
	next := imp.Symbols[j+1]
	return sym.Offset, next.Offset
}
