package parser

import "testing"

func TestHeuristicExtractorPython(t *testing.T) {
	source := `import os
from auth import login

class Account:
    def refresh(self):
        login(self.token)

def main():
    validate()
`
	facts, err := NewHeuristicExtractor().ExtractRaw([]byte(source), "account.py", "python")
	if err != nil {
		t.Fatalf("ExtractRaw failed: %v", err)
	}

	if facts.Mode != ModeHeuristic {
		t.Errorf("Mode = %s, want heuristic", facts.Mode)
	}

	if d := findDecl(facts, "Account"); d == nil || d.Kind != KindClass {
		t.Error("class Account not found")
	}
	refresh := findDecl(facts, "refresh")
	if refresh == nil {
		t.Fatal("def refresh not found")
	}
	if refresh.Confidence != ConfidenceHeuristic {
		t.Errorf("refresh confidence = %v, want %v", refresh.Confidence, ConfidenceHeuristic)
	}
	if len(refresh.Scope) != 1 || refresh.Scope[0] != "Account" {
		t.Errorf("refresh scope = %v, want [Account]", refresh.Scope)
	}

	if len(facts.Imports) != 2 {
		t.Errorf("imports = %+v, want 2 entries", facts.Imports)
	}

	if !hasRef(facts, "login") {
		t.Error("reference login not found")
	}
	if !hasRef(facts, "validate") {
		t.Error("reference validate not found")
	}
	for _, ref := range facts.References {
		if ref.Confidence != ConfidenceHeuristic {
			t.Errorf("reference %s confidence = %v, want %v", ref.Name, ref.Confidence, ConfidenceHeuristic)
		}
	}
}

func TestHeuristicExtractorGo(t *testing.T) {
	source := `package auth

import "fmt"

func Login(user string) error {
	return fmt.Errorf("no session for %s", user)
}
`
	facts, err := NewHeuristicExtractor().ExtractRaw([]byte(source), "auth.go", "go")
	if err != nil {
		t.Fatalf("ExtractRaw failed: %v", err)
	}

	if findDecl(facts, "Login") == nil {
		t.Error("func Login not found")
	}
	if len(facts.Imports) != 1 || facts.Imports[0].Module != "fmt" {
		t.Errorf("imports = %+v, want [fmt]", facts.Imports)
	}
	if !hasRef(facts, "fmt.Errorf") {
		t.Error("reference fmt.Errorf not found")
	}
}

func TestHeuristicExtractorUnknownLanguage(t *testing.T) {
	source := `import helpers
def greet(name)
  helpers.wave(name)
end
`
	facts, err := NewHeuristicExtractor().ExtractRaw([]byte(source), "greet.rb", "ruby")
	if err != nil {
		t.Fatalf("ExtractRaw failed: %v", err)
	}

	if findDecl(facts, "greet") == nil {
		t.Error("def greet not matched by fallback rules")
	}
	if len(facts.Imports) != 1 || facts.Imports[0].Module != "helpers" {
		t.Errorf("imports = %+v, want [helpers]", facts.Imports)
	}
	if !hasRef(facts, "helpers.wave") {
		t.Error("reference helpers.wave not found")
	}
}

func TestHeuristicKeywordFiltering(t *testing.T) {
	source := `def run():
    if (ready):
        while (waiting):
            step()
`
	facts, err := NewHeuristicExtractor().ExtractRaw([]byte(source), "run.py", "python")
	if err != nil {
		t.Fatalf("ExtractRaw failed: %v", err)
	}

	if hasRef(facts, "if") || hasRef(facts, "while") {
		t.Error("control-flow keywords leaked into references")
	}
	if !hasRef(facts, "step") {
		t.Error("reference step not found")
	}
}
