package index

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrMalformedImport marks a use clause the scanner cannot understand.
var ErrMalformedImport = errors.New("malformed use clause")

// ScanSource builds the indexed surface of one module from its source text.
//
// The scanner is deliberately shallow: it reads use clauses and top-level
// declaration headers and never looks inside expression bodies. Full syntax
// and type errors are the checker's business, not the index's.
func ScanSource(name, src string) (*Module, error) {
	m := &Module{Name: name}

	var moduleDoc []string
	var pendingDoc []string
	var openType *Type

	offset := 0
	for offset <= len(src) {
		lineEnd := strings.IndexByte(src[offset:], '\n')
		var line string
		var next int
		if lineEnd < 0 {
			line = src[offset:]
			next = len(src) + 1
		} else {
			line = src[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		}
		if offset == len(src) && line == "" {
			break
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case openType != nil:
			scanTypeBlockLine(m, &openType, &pendingDoc, trimmed)
		case strings.HasPrefix(trimmed, "////"):
			moduleDoc = append(moduleDoc, strings.TrimSpace(trimmed[4:]))
		case strings.HasPrefix(trimmed, "///"):
			pendingDoc = append(pendingDoc, strings.TrimSpace(trimmed[3:]))
		case strings.HasPrefix(trimmed, "use ") || trimmed == "use":
			imp, err := parseUse(src, offset, line, next)
			if err != nil {
				return nil, err
			}
			m.Imports = append(m.Imports, imp)
			pendingDoc = nil
		case strings.HasPrefix(trimmed, "pub fn "):
			name := identAfter(trimmed, "pub fn ")
			if name != "" {
				m.Values = append(m.Values, Value{
					Name:      name,
					Signature: strings.TrimSuffix(strings.TrimSpace(strings.TrimSuffix(trimmed, "{")), " "),
					Doc:       takeDoc(&pendingDoc),
				})
			}
		case strings.HasPrefix(trimmed, "pub const "):
			name := identAfter(trimmed, "pub const ")
			if name != "" {
				m.Constants = append(m.Constants, Constant{
					Name:       name,
					Definition: trimmed,
					Doc:        takeDoc(&pendingDoc),
				})
			}
		case strings.HasPrefix(trimmed, "pub type "):
			name := identAfter(trimmed, "pub type ")
			if name == "" {
				pendingDoc = nil
				break
			}
			t := Type{
				Name: name,
				Doc:  takeDoc(&pendingDoc),
			}
			if strings.HasSuffix(trimmed, "{") {
				t.Definition = strings.TrimSpace(strings.TrimSuffix(trimmed, "{"))
				m.Types = append(m.Types, t)
				openType = &m.Types[len(m.Types)-1]
			} else {
				t.Definition = trimmed
				m.Types = append(m.Types, t)
			}
		default:
			pendingDoc = nil
		}

		offset = next
	}

	m.Docs = strings.Join(moduleDoc, "\n")
	return m, nil
}

func scanTypeBlockLine(m *Module, openType **Type, pendingDoc *[]string, trimmed string) {
	switch {
	case trimmed == "}":
		*openType = nil
		*pendingDoc = nil
	case strings.HasPrefix(trimmed, "///"):
		*pendingDoc = append(*pendingDoc, strings.TrimSpace(trimmed[3:]))
	default:
		r, _ := utf8.DecodeRuneInString(trimmed)
		if !unicode.IsUpper(r) {
			*pendingDoc = nil
			return
		}
		name := leadingIdent(trimmed)
		(*openType).Constructors = append((*openType).Constructors, Constructor{
			Name:       name,
			Definition: strings.TrimSuffix(trimmed, ","),
			Doc:        takeDoc(pendingDoc),
		})
	}
}

// parseUse parses one `use` clause. Grammar:
//
//	use path/to/module
//	use path/to/module.{a, b}
//	use path/to/module as alias
func parseUse(src string, lineStart int, line string, lineNext int) (Import, error) {
	indent := len(line) - len(strings.TrimLeft(line, " \t"))
	start := lineStart + indent

	rest := strings.TrimLeft(line, " \t")
	body := strings.TrimPrefix(rest, "use")
	bodyStart := start + len("use")

	i := 0
	for i < len(body) && (body[i] == ' ' || body[i] == '\t') {
		i++
	}
	pathStart := i
	for i < len(body) && isPathByte(body[i]) {
		i++
	}
	path := body[pathStart:i]
	if path == "" {
		return Import{}, fmt.Errorf("%w: missing module path", ErrMalformedImport)
	}

	imp := Import{
		Path:     path,
		Start:    start,
		PathEnd:  bodyStart + i,
		GroupEnd: -1,
	}
	if lineNext > len(src) {
		imp.End = len(src)
	} else {
		imp.End = lineNext
	}

	// Optional symbol group: .{a, b}
	if strings.HasPrefix(body[i:], ".{") {
		i += 2
		for {
			for i < len(body) && (body[i] == ' ' || body[i] == '\t' || body[i] == ',') {
				i++
			}
			if i >= len(body) {
				return Import{}, fmt.Errorf("%w: unterminated symbol group", ErrMalformedImport)
			}
			if body[i] == '}' {
				imp.GroupEnd = bodyStart + i
				i++
				break
			}
			symStart := i
			for i < len(body) && isIdentByte(body[i]) {
				i++
			}
			if i == symStart {
				return Import{}, fmt.Errorf("%w: bad symbol in group", ErrMalformedImport)
			}
			imp.Symbols = append(imp.Symbols, ImportSymbol{
				Name:   body[symStart:i],
				Offset: bodyStart + symStart,
			})
		}
	}

	// Optional alias: as name
	tail := strings.TrimSpace(body[i:])
	if tail != "" {
		alias, ok := strings.CutPrefix(tail, "as ")
		alias = strings.TrimSpace(alias)
		if !ok || alias == "" || leadingIdent(alias) != alias {
			return Import{}, fmt.Errorf("%w: trailing %q", ErrMalformedImport, tail)
		}
		imp.Alias = alias
	}

	return imp, nil
}

func takeDoc(pending *[]string) string {
	doc := strings.Join(*pending, "\n")
	*pending = nil
	return doc
}

func identAfter(line, prefix string) string {
	return leadingIdent(strings.TrimSpace(strings.TrimPrefix(line, prefix)))
}

func leadingIdent(s string) string {
	i := 0
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	return s[:i]
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func isPathByte(b byte) bool {
	return b == '/' || isIdentByte(b)
}
