package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"reef/internal/diag"
)

const testSource = "use reef/list\n\npub fn main() {\n  foo()\n}\n"

func testBag() *diag.Bag {
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(
		diag.CodeUnknownVariable,
		diag.Span{Start: 33, End: 36}, // "foo"
		"unknown variable 'foo'",
	).WithData("foo"))
	bag.Add(diag.NewWarning(
		diag.CodeUnusedImportModule,
		diag.Span{Start: 0, End: 14},
		"unused import 'reef/list'",
	).WithData("false,0"))
	bag.Sort()
	return bag
}

func TestPretty(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, "src/main.rf", testSource, testBag(), PrettyOpts{})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), buf.String())
	}
	want0 := "src/main.rf:1:1: WARNING reef::check::unused::import::module: unused import 'reef/list'"
	if lines[0] != want0 {
		t.Errorf("line 0 = %q\nwant     %q", lines[0], want0)
	}
	want1 := "src/main.rf:4:3: ERROR reef::check::unknown::variable: unknown variable 'foo'"
	if lines[1] != want1 {
		t.Errorf("line 1 = %q\nwant     %q", lines[1], want1)
	}
}

func TestPrettyContext(t *testing.T) {
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(
		diag.CodeUnknownVariable,
		diag.Span{Start: 33, End: 36},
		"unknown variable 'foo'",
	))

	var buf bytes.Buffer
	Pretty(&buf, "src/main.rf", testSource, bag, PrettyOpts{Context: true})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, source and caret lines, got %d", len(lines))
	}
	if lines[1] != "    foo()" {
		t.Errorf("context line = %q", lines[1])
	}
	if lines[2] != "    ^~~" {
		t.Errorf("caret line = %q", lines[2])
	}
}

func TestLineCol(t *testing.T) {
	cases := []struct {
		offset, line, col int
	}{
		{0, 1, 1},
		{13, 1, 14},
		{14, 2, 1},
		{33, 4, 3},
		{999, 6, 1}, // clamps to end of text
	}
	for _, tc := range cases {
		line, col := lineCol(testSource, tc.offset)
		if line != tc.line || col != tc.col {
			t.Errorf("lineCol(%d) = %d:%d, want %d:%d", tc.offset, line, col, tc.line, tc.col)
		}
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, "src/main.rf", testSource, testBag()); err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var list []jsonDiagnostic
	if err := json.Unmarshal(buf.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(list))
	}
	first := list[0]
	if first.Severity != "warning" || first.Code != "reef::check::unused::import::module" {
		t.Errorf("unexpected first diagnostic: %+v", first)
	}
	if first.Data != "false,0" {
		t.Errorf("payload must survive JSON output, got %q", first.Data)
	}
	if list[1].Line != 4 || list[1].Col != 3 {
		t.Errorf("position = %d:%d, want 4:3", list[1].Line, list[1].Col)
	}
}
