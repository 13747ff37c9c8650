package query

import (
	"codegraph/internal/engine/graph"
	"codegraph/internal/engine/parser"
)

type Kind string

const (
	KindCallers      Kind = "callers"
	KindCallees      Kind = "callees"
	KindTestsFor     Kind = "tests-for"
	KindSearch       Kind = "search"
	KindDependencies Kind = "dependencies"
	KindOrphans      Kind = "orphans"
	KindImpact       Kind = "impact"
)

// Request is one structured query against a ScanResult.
type Request struct {
	Kind    Kind
	Target  string          // symbol reference for callers/callees/tests/deps/impact
	Pattern string          // name pattern for search
	Filter  parser.DeclKind // optional kind filter for search
	Package string          // optional package restriction for search
	Depth   int             // 0 = configured default
	Limit   int             // 0 = configured default
}

// SymbolSummary is the read-only projection queries return.
type SymbolSummary struct {
	ID         string
	Name       string
	Kind       parser.DeclKind
	Package    string
	File       string
	StartLine  int
	EndLine    int
	Language   string
	Origin     graph.Origin
	Confidence float64
}

// Result is an ordered list of symbol summaries. Truncated marks a
// partial answer cut off by depth, limit, or timeout.
type Result struct {
	Kind      Kind
	Target    string
	Symbols   []SymbolSummary
	Truncated bool
}

func summarize(sym *graph.Symbol) SymbolSummary {
	s := SymbolSummary{
		ID:         sym.ID,
		Name:       sym.Name,
		Kind:       sym.Kind,
		Package:    sym.Package,
		Language:   sym.Language,
		Origin:     sym.Origin,
		Confidence: sym.Confidence,
	}
	if len(sym.Spans) > 0 {
		s.File = sym.Spans[0].File
		s.StartLine = sym.Spans[0].StartLine
		s.EndLine = sym.Spans[0].EndLine
	}
	return s
}

func summarizeAll(symbols []*graph.Symbol) []SymbolSummary {
	out := make([]SymbolSummary, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, summarize(sym))
	}
	return out
}
