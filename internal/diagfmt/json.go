package diagfmt

import (
	"encoding/json"
	"io"
	"strings"

	"reef/internal/diag"
)

// Entry pairs one document with its diagnostics.
type Entry struct {
	Path string
	Text string
	Bag  *diag.Bag
}

type jsonDiagnostic struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Data     string `json:"data,omitempty"`
}

// JSON writes one document's bag as a JSON array, one object per diagnostic.
func JSON(w io.Writer, path, text string, bag *diag.Bag) error {
	return JSONAll(w, []Entry{{Path: path, Text: text, Bag: bag}})
}

// JSONAll writes the diagnostics of a whole check run as a single JSON array,
// for machine consumers of `reef check --format json`.
func JSONAll(w io.Writer, entries []Entry) error {
	list := make([]jsonDiagnostic, 0)
	for _, e := range entries {
		if e.Bag == nil {
			continue
		}
		for _, d := range e.Bag.Items() {
			line, col := lineCol(e.Text, d.Primary.Start)
			list = append(list, jsonDiagnostic{
				Path:     e.Path,
				Line:     line,
				Col:      col,
				Severity: strings.ToLower(d.Severity.String()),
				Code:     d.Code.String(),
				Message:  d.Message,
				Data:     d.Data,
			})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}
