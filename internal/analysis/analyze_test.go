package analysis

import (
	"fmt"
	"strings"
	"testing"

	"reef/internal/diag"
	"reef/internal/index"
)

func testIndex(t *testing.T) *index.Index {
	t.Helper()
	list, err := index.ScanSource("reef/list", "pub fn map(xs, f) {\n}\n")
	if err != nil {
		t.Fatalf("ScanSource: %v", err)
	}
	opt, err := index.ScanSource("reef/option", "pub type Option {\n  Some(x)\n  None\n}\n")
	if err != nil {
		t.Fatalf("ScanSource: %v", err)
	}
	return index.New([]*index.Module{list, opt})
}

func diagnosticsByCode(bag *diag.Bag, code diag.Code, sev diag.Severity) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range bag.Items() {
		if d.Code == code && d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

func TestAnalyzeCleanDocument(t *testing.T) {
	src := "use reef/list\n\npub fn double(xs) {\n  list.map(xs, id)\n}\n"
	bag := Analyze("demo", src, testIndex(t), Options{})
	if bag.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %d: %+v", bag.Len(), bag.Items())
	}
}

func TestAnalyzeUnknownModule(t *testing.T) {
	src := "pub fn double(xs) {\n  list.map(xs, id)\n}\n"
	bag := Analyze("demo", src, testIndex(t), Options{})

	errs := diagnosticsByCode(bag, diag.CodeUnknownModule, diag.SevError)
	if len(errs) != 1 {
		t.Fatalf("expected 1 unknown module error, got %d", len(errs))
	}
	d := errs[0]
	if d.Data != "list" {
		t.Errorf("expected payload 'list', got %q", d.Data)
	}
	if got := src[d.Primary.Start:d.Primary.End]; got != "list" {
		t.Errorf("expected span over 'list', got %q", got)
	}

	hints := diagnosticsByCode(bag, diag.CodeUnknownModule, diag.SevHint)
	if len(hints) != 1 {
		t.Fatalf("expected the advisory hint twin, got %d", len(hints))
	}
	if hints[0].Primary != d.Primary || hints[0].Data != d.Data {
		t.Error("hint twin should mirror the error's span and payload")
	}
}

func TestAnalyzeUnknownModuleReportedOnce(t *testing.T) {
	src := "pub fn f() {\n  dict.get(d, k)\n  dict.put(d, k, v)\n}\n"
	bag := Analyze("demo", src, testIndex(t), Options{})
	errs := diagnosticsByCode(bag, diag.CodeUnknownModule, diag.SevError)
	if len(errs) != 1 {
		t.Fatalf("expected a single error for repeated references, got %d", len(errs))
	}
}

func TestAnalyzeUnusedModuleImport(t *testing.T) {
	src := "use reef/list\n\npub fn id(x) {\n  x\n}\n"
	bag := Analyze("demo", src, testIndex(t), Options{})

	warns := diagnosticsByCode(bag, diag.CodeUnusedImportModule, diag.SevWarning)
	if len(warns) != 1 {
		t.Fatalf("expected 1 unused import warning, got %d", len(warns))
	}
	if warns[0].Data != "false,0" {
		t.Errorf("expected payload 'false,0', got %q", warns[0].Data)
	}
}

func TestAnalyzeUnusedImportedValue(t *testing.T) {
	src := "use reef/option.{Some, None}\n\npub fn f(x) {\n  Some(x)\n}\n"
	bag := Analyze("demo", src, testIndex(t), Options{})

	warns := diagnosticsByCode(bag, diag.CodeUnusedImportValue, diag.SevWarning)
	if len(warns) != 1 {
		t.Fatalf("expected 1 unused value warning, got %d", len(warns))
	}
	d := warns[0]
	offset := strings.Index(src, "None")
	if want := fmt.Sprintf("true,%d", offset); d.Data != want {
		t.Errorf("expected payload %q, got %q", want, d.Data)
	}
	if got := src[d.Primary.Start:d.Primary.End]; got != "None" {
		t.Errorf("expected span over 'None', got %q", got)
	}
}

func TestAnalyzeTypeMemberAccessIsNotAModule(t *testing.T) {
	src := "pub fn f() {\n  Option.default\n}\n"
	bag := Analyze("demo", src, testIndex(t), Options{})
	if errs := diagnosticsByCode(bag, diag.CodeUnknownModule, diag.SevError); len(errs) != 0 {
		t.Fatalf("uppercase qualifiers must not be reported, got %+v", errs)
	}
}

func TestAnalyzeMalformedImport(t *testing.T) {
	bag := Analyze("demo", "use broken.{oops\n", testIndex(t), Options{})
	if bag.Len() != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d", bag.Len())
	}
	d := bag.Items()[0]
	if d.Code != diag.CodeMalformedImport || d.Severity != diag.SevError {
		t.Errorf("unexpected diagnostic %+v", d)
	}
}

func TestAnalyzeAliasCountsAsUse(t *testing.T) {
	src := "use reef/list as l\n\npub fn f(xs) {\n  l.map(xs, id)\n}\n"
	bag := Analyze("demo", src, testIndex(t), Options{})
	if bag.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %+v", bag.Items())
	}
}
