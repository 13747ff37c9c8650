package audit

import (
	"sort"

	"codegraph/internal/engine/graph"
	"codegraph/internal/engine/parser"
)

const defaultHotspots = 10

// Report is the read-only health summary of one scan. Computing it never
// mutates the graph.
type Report struct {
	ScanID         string
	Orphans        []*graph.Symbol
	CallCycles     [][]string
	ImportCycles   [][]string
	Hotspots       []*graph.Symbol
	SymbolCount    int
	HeuristicShare float64 // fraction of declared symbols extracted heuristically
}

// Auditor post-processes scan results into health reports.
type Auditor struct {
	hotspots int
}

func NewAuditor(hotspots int) *Auditor {
	if hotspots <= 0 {
		hotspots = defaultHotspots
	}
	return &Auditor{hotspots: hotspots}
}

// Audit computes orphaned symbols, cyclic call and import clusters,
// the top complexity hotspots, and the heuristic-confidence share.
func (a *Auditor) Audit(scan *graph.ScanResult) *Report {
	g := scan.Graph
	report := &Report{
		ScanID:       scan.ID,
		CallCycles:   g.CallCycles(),
		ImportCycles: g.ImportCycles(),
	}

	report.Orphans = g.Search(func(sym *graph.Symbol) bool {
		if !callable(sym.Kind) || entryPoint(sym.Name) {
			return false
		}
		return len(g.EdgesTo(sym.ID)) == 0
	})

	// Synthesized package symbols are bookkeeping, not source symbols,
	// so the share denominator skips them.
	heuristic := 0
	for _, sym := range g.Symbols() {
		if sym.Origin != graph.OriginDeclared || sym.Kind == parser.KindPackage {
			continue
		}
		report.SymbolCount++
		if sym.Confidence <= parser.ConfidenceHeuristic {
			heuristic++
		}
	}
	if report.SymbolCount > 0 {
		report.HeuristicShare = float64(heuristic) / float64(report.SymbolCount)
	}

	report.Hotspots = hotspots(g, a.hotspots)
	return report
}

// hotspots ranks declared callables by complexity, highest first, ties
// broken by ID for stable output.
func hotspots(g *graph.Graph, n int) []*graph.Symbol {
	ranked := g.Search(func(sym *graph.Symbol) bool {
		return callable(sym.Kind) && sym.Complexity > 0
	})
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Complexity != ranked[j].Complexity {
			return ranked[i].Complexity > ranked[j].Complexity
		}
		return ranked[i].ID < ranked[j].ID
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func callable(kind parser.DeclKind) bool {
	switch kind {
	case parser.KindFunction, parser.KindMethod, parser.KindComponent, parser.KindHook:
		return true
	}
	return false
}

func entryPoint(name string) bool {
	switch name {
	case "main", "init", "ServeHTTP", "__init__", "__main__":
		return true
	}
	return false
}
