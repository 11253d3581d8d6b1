package lsp

import (
	"testing"
)

func applyAnnotated(t *testing.T, text string, e annotatedEdit) string {
	t.Helper()
	return applyTextEdits(text, []textEdit{e.edit})
}

func TestImportEditNewClause(t *testing.T) {
	text := "use a/one\n\npub fn main() {\n}\n"
	doc := parseDocument(text)
	if doc == nil {
		t.Fatal("parseDocument failed")
	}

	edit, ok := doc.importEdit("b/two", "")
	if !ok {
		t.Fatal("expected an edit")
	}
	if edit.title != "Import 'b/two'" {
		t.Errorf("title = %q", edit.title)
	}
	got := applyAnnotated(t, text, edit)
	want := "use a/one\nuse b/two\n\npub fn main() {\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestImportEditNewClauseAtTopOfFile(t *testing.T) {
	text := "pub fn main() {\n}\n"
	doc := parseDocument(text)

	edit, ok := doc.importEdit("a/one", "foo")
	if !ok {
		t.Fatal("expected an edit")
	}
	if edit.title != "Use 'foo' from 'a/one'" {
		t.Errorf("title = %q", edit.title)
	}
	got := applyAnnotated(t, text, edit)
	want := "use a/one.{foo}\npub fn main() {\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestImportEditAddsGroupToPlainImport(t *testing.T) {
	text := "use a/one\n\npub fn main() {\n}\n"
	doc := parseDocument(text)

	edit, ok := doc.importEdit("a/one", "foo")
	if !ok {
		t.Fatal("expected an edit")
	}
	got := applyAnnotated(t, text, edit)
	want := "use a/one.{foo}\n\npub fn main() {\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestImportEditExtendsGroup(t *testing.T) {
	text := "use a/one.{foo}\n\npub fn main() {\n}\n"
	doc := parseDocument(text)

	edit, ok := doc.importEdit("a/one", "bar")
	if !ok {
		t.Fatal("expected an edit")
	}
	got := applyAnnotated(t, text, edit)
	want := "use a/one.{foo, bar}\n\npub fn main() {\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestImportEditFillsEmptyGroup(t *testing.T) {
	text := "use a/one.{}\n"
	doc := parseDocument(text)
	if doc == nil {
		t.Fatal("parseDocument failed")
	}

	edit, ok := doc.importEdit("a/one", "foo")
	if !ok {
		t.Fatal("expected an edit")
	}
	got := applyAnnotated(t, text, edit)
	want := "use a/one.{foo}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestImportEditAlreadyImported(t *testing.T) {
	doc := parseDocument("use a/one.{foo}\n")

	if _, ok := doc.importEdit("a/one", ""); ok {
		t.Error("whole-module import already present, expected no edit")
	}
	if _, ok := doc.importEdit("a/one", "foo"); ok {
		t.Error("symbol already imported, expected no edit")
	}
}

func TestRemoveImportEditWholeClause(t *testing.T) {
	text := "use a/one\nuse b/two\n\npub fn main() {\n}\n"
	doc := parseDocument(text)

	edit, ok := doc.removeImportEdit(10, false) // offset of "use b/two"
	if !ok {
		t.Fatal("expected an edit")
	}
	if edit.title != "Remove unused import 'b/two'" {
		t.Errorf("title = %q", edit.title)
	}
	got := applyAnnotated(t, text, edit)
	want := "use a/one\n\npub fn main() {\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRemoveImportEditSymbols(t *testing.T) {
	text := "use m.{a, b, c}\n"
	offA, offB, offC := 7, 10, 13

	cases := []struct {
		name   string
		offset int
		want   string
	}{
		{"first symbol", offA, "use m.{b, c}\n"},
		{"middle symbol", offB, "use m.{a, c}\n"},
		{"last symbol", offC, "use m.{a, b}\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := parseDocument(text)
			edit, ok := doc.removeImportEdit(tc.offset, true)
			if !ok {
				t.Fatal("expected an edit")
			}
			if got := applyAnnotated(t, text, edit); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRemoveImportEditSoleSymbolDropsGroup(t *testing.T) {
	text := "use m.{a}\n"
	doc := parseDocument(text)

	edit, ok := doc.removeImportEdit(7, true)
	if !ok {
		t.Fatal("expected an edit")
	}
	if edit.title != "Remove unused symbol 'a'" {
		t.Errorf("title = %q", edit.title)
	}
	got := applyAnnotated(t, text, edit)
	want := "use m\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRemoveImportEditUnknownOffset(t *testing.T) {
	doc := parseDocument("use m.{a}\n")

	if _, ok := doc.removeImportEdit(99, false); ok {
		t.Error("expected no edit for an offset matching no import")
	}
	if _, ok := doc.removeImportEdit(99, true); ok {
		t.Error("expected no edit for an offset matching no symbol")
	}
}
