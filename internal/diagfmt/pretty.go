// Package diagfmt renders checker diagnostics for the command line.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"reef/internal/diag"
)

// PrettyOpts configures human-readable diagnostic output.
type PrettyOpts struct {
	// Color enables ANSI colors on severity labels and carets.
	Color bool
	// Context prints the offending source line under each diagnostic.
	Context bool
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	adviceColor  = color.New(color.FgCyan)
)

// Pretty writes one line per diagnostic:
//
//	<path>:<line>:<col>: <SEVERITY> <code>: <message>
//
// followed, when Context is set, by the source line and a caret underline
// covering the primary span. Call bag.Sort() first for deterministic output.
func Pretty(w io.Writer, path, text string, bag *diag.Bag, opts PrettyOpts) {
	if bag == nil {
		return
	}
	for _, d := range bag.Items() {
		line, col := lineCol(text, d.Primary.Start)
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			path, line, col,
			severityLabel(d.Severity, opts.Color),
			d.Code, d.Message)
		if opts.Context {
			printContext(w, text, d.Primary, col, opts.Color)
		}
	}
}

func severityLabel(sev diag.Severity, colorize bool) string {
	label := sev.String()
	if !colorize {
		return label
	}
	switch sev {
	case diag.SevError:
		return errorColor.Sprint(label)
	case diag.SevWarning:
		return warningColor.Sprint(label)
	default:
		return adviceColor.Sprint(label)
	}
}

func printContext(w io.Writer, text string, span diag.Span, col int, colorize bool) {
	lineText, lineStart := lineAt(text, span.Start)
	if lineText == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", lineText)

	width := span.End - span.Start
	if avail := lineStart + len(lineText) - span.Start; width > avail {
		width = avail
	}
	if width < 1 {
		width = 1
	}
	caret := "^" + strings.Repeat("~", width-1)
	if colorize {
		caret = errorColor.Sprint(caret)
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", col-1), caret)
}

// lineCol converts a byte offset into 1-based line and column numbers.
func lineCol(text string, offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	line, col := 1, 1
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// lineAt returns the full source line containing offset and its start offset.
func lineAt(text string, offset int) (string, int) {
	if offset < 0 || offset > len(text) {
		return "", 0
	}
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := strings.IndexByte(text[offset:], '\n')
	if end < 0 {
		end = len(text)
	} else {
		end += offset
	}
	return text[start:end], start
}
