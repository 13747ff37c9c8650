package facts

import (
	"testing"

	"codegraph/internal/core/config"
	"codegraph/internal/engine/graph"
	"codegraph/internal/engine/parser"
)

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	return NewExtractor("/repo", config.Default().Tests)
}

func TestNormalizeAssignsQualifiedIDs(t *testing.T) {
	e := newExtractor(t)
	rec := e.Normalize(&parser.FileFacts{
		Path:     "/repo/internal/auth/session.go",
		Language: "go",
		Mode:     parser.ModeAST,
		Declarations: []parser.Declaration{
			{Name: "Session", Kind: parser.KindType, StartLine: 5, EndLine: 8},
			{Name: "Refresh", Kind: parser.KindMethod, Scope: []string{"Session"}, StartLine: 10, EndLine: 14},
		},
	})

	if rec.Package != "internal/auth" {
		t.Errorf("package = %q, want internal/auth", rec.Package)
	}
	if rec.Path != "internal/auth/session.go" {
		t.Errorf("path = %q, want root-relative", rec.Path)
	}
	if len(rec.Symbols) != 2 {
		t.Fatalf("symbols = %d, want 2", len(rec.Symbols))
	}
	if got := rec.Symbols[1].ID; got != "internal/auth::Session.Refresh" {
		t.Errorf("method ID = %q, want internal/auth::Session.Refresh", got)
	}
	if rec.Symbols[1].Origin != graph.OriginDeclared {
		t.Errorf("origin = %s, want declared", rec.Symbols[1].Origin)
	}
}

func TestNormalizeSameFileResolution(t *testing.T) {
	e := newExtractor(t)
	rec := e.Normalize(&parser.FileFacts{
		Path:     "/repo/auth.py",
		Language: "python",
		Mode:     parser.ModeAST,
		Declarations: []parser.Declaration{
			{Name: "login", Kind: parser.KindFunction, StartLine: 1, EndLine: 4},
			{Name: "handler", Kind: parser.KindFunction, StartLine: 6, EndLine: 9},
		},
		References: []parser.ReferenceFact{
			{Name: "login", Scope: []string{"handler"}, Line: 7, Confidence: 0.9},
		},
	})

	if len(rec.Calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(rec.Calls))
	}
	call := rec.Calls[0]
	if call.FromID != "::handler" && call.FromID != "handler" {
		t.Errorf("FromID = %q, want handler symbol", call.FromID)
	}
	if call.ToID == "" {
		t.Error("same-file reference should resolve immediately")
	}
	if call.ToID != rec.Symbols[0].ID {
		t.Errorf("ToID = %q, want %q", call.ToID, rec.Symbols[0].ID)
	}
}

func TestNormalizeQualifiedReferenceUsesImportModule(t *testing.T) {
	e := newExtractor(t)
	rec := e.Normalize(&parser.FileFacts{
		Path:     "/repo/cmd/main.go",
		Language: "go",
		Mode:     parser.ModeAST,
		Declarations: []parser.Declaration{
			{Name: "main", Kind: parser.KindFunction, StartLine: 5, EndLine: 9},
		},
		Imports: []parser.ImportFact{
			{Module: "example.com/app/internal/auth", Line: 3, Confidence: 0.95},
		},
		References: []parser.ReferenceFact{
			{Name: "auth.Login", Scope: []string{"main"}, Line: 6, Confidence: 0.9},
		},
	})

	if len(rec.Calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(rec.Calls))
	}
	call := rec.Calls[0]
	if call.ToID != "" {
		t.Error("cross-file reference must stay unresolved here")
	}
	if call.Name != "Login" {
		t.Errorf("call name = %q, want Login", call.Name)
	}
	if call.Module != "example.com/app/internal/auth" {
		t.Errorf("call module = %q, want import path", call.Module)
	}
}

func TestNormalizeFromImportItemBindsModule(t *testing.T) {
	e := newExtractor(t)
	rec := e.Normalize(&parser.FileFacts{
		Path:     "/repo/api.py",
		Language: "python",
		Mode:     parser.ModeAST,
		Imports: []parser.ImportFact{
			{Module: "auth.utils", Items: []string{"login"}, Line: 1},
		},
		References: []parser.ReferenceFact{
			{Name: "login", Line: 4, Confidence: 0.9},
		},
	})

	// An unqualified name is resolved same-file first; with no local
	// declaration it stays textual and the builder consults imports.
	if rec.Calls[0].ToID != "" {
		t.Error("imported name must not resolve same-file")
	}
	if rec.Calls[0].Name != "login" {
		t.Errorf("name = %q, want login", rec.Calls[0].Name)
	}
	if rec.Calls[0].Module != "auth.utils" {
		t.Errorf("module = %q, want auth.utils", rec.Calls[0].Module)
	}
}

func TestIsTestFile(t *testing.T) {
	e := newExtractor(t)
	cases := map[string]bool{
		"internal/auth/session_test.go": true,
		"src/app.test.js":               true,
		"tests/test_login.py":           true,
		"internal/auth/session.go":      false,
		"src/app.js":                    false,
	}
	for path, want := range cases {
		if got := e.IsTestFile(path); got != want {
			t.Errorf("IsTestFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestIsTestSymbol(t *testing.T) {
	e := newExtractor(t)
	if !e.IsTestSymbol("TestLogin") || !e.IsTestSymbol("test_login") {
		t.Error("test name prefixes not recognized")
	}
	if e.IsTestSymbol("login") {
		t.Error("plain name misclassified as test")
	}
}
