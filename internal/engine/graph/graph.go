package graph

import (
	"sort"
	"strings"
)

// Graph holds the symbols and edges for one scanned root. It is built
// once by the Builder and read-only afterwards, so concurrent queries
// need no locking.
type Graph struct {
	symbols map[string]*Symbol
	edges   []Edge
	out     map[string][]int
	in      map[string][]int

	// name index over declared symbols, for pattern search and
	// candidate resolution
	byName map[string][]string
}

func newGraph() *Graph {
	return &Graph{
		symbols: make(map[string]*Symbol),
		out:     make(map[string][]int),
		in:      make(map[string][]int),
		byName:  make(map[string][]string),
	}
}

func (g *Graph) addSymbol(sym *Symbol) {
	existing, ok := g.symbols[sym.ID]
	if !ok {
		g.symbols[sym.ID] = sym
		if sym.Origin == OriginDeclared {
			g.byName[sym.Name] = append(g.byName[sym.Name], sym.ID)
		}
		return
	}

	// Same identifier declared again: one record, all spans.
	existing.Spans = append(existing.Spans, sym.Spans...)
	if sym.Confidence > existing.Confidence {
		existing.Confidence = sym.Confidence
	}
	if sym.Complexity > existing.Complexity {
		existing.Complexity = sym.Complexity
	}
	if existing.Origin != OriginDeclared && sym.Origin == OriginDeclared {
		existing.Origin = OriginDeclared
		existing.Kind = sym.Kind
		existing.Language = sym.Language
		g.byName[sym.Name] = append(g.byName[sym.Name], sym.ID)
	}
}

func (g *Graph) addEdge(edge Edge) {
	idx := len(g.edges)
	g.edges = append(g.edges, edge)
	g.out[edge.From] = append(g.out[edge.From], idx)
	g.in[edge.To] = append(g.in[edge.To], idx)
	for _, cand := range edge.Candidates {
		if cand != edge.To {
			g.in[cand] = append(g.in[cand], idx)
		}
	}
}

// Symbol returns the symbol with the given identifier.
func (g *Graph) Symbol(id string) (*Symbol, bool) {
	sym, ok := g.symbols[id]
	return sym, ok
}

// Symbols returns all symbols sorted by identifier.
func (g *Graph) Symbols() []*Symbol {
	out := make([]*Symbol, 0, len(g.symbols))
	for _, sym := range g.symbols {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns a copy of all edges.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// EdgesFrom returns outgoing edges of a symbol, optionally filtered by kind.
func (g *Graph) EdgesFrom(id string, kinds ...EdgeKind) []Edge {
	return g.selectEdges(g.out[id], kinds)
}

// EdgesTo returns incoming edges of a symbol, optionally filtered by
// kind. Ambiguous edges appear for every candidate target.
func (g *Graph) EdgesTo(id string, kinds ...EdgeKind) []Edge {
	return g.selectEdges(g.in[id], kinds)
}

func (g *Graph) selectEdges(indexes []int, kinds []EdgeKind) []Edge {
	var out []Edge
	for _, idx := range indexes {
		edge := g.edges[idx]
		if len(kinds) == 0 {
			out = append(out, edge)
			continue
		}
		for _, kind := range kinds {
			if edge.Kind == kind {
				out = append(out, edge)
				break
			}
		}
	}
	return out
}

// Callers returns the distinct symbols with call edges into id.
func (g *Graph) Callers(id string) []*Symbol {
	return g.endpoints(g.EdgesTo(id, EdgeCalls), func(e Edge) string { return e.From })
}

// Callees returns the distinct symbols id has call edges to.
func (g *Graph) Callees(id string) []*Symbol {
	return g.endpoints(g.EdgesFrom(id, EdgeCalls), func(e Edge) string { return e.To })
}

func (g *Graph) endpoints(edges []Edge, pick func(Edge) string) []*Symbol {
	seen := make(map[string]bool, len(edges))
	var out []*Symbol
	for _, edge := range edges {
		id := pick(edge)
		if seen[id] {
			continue
		}
		seen[id] = true
		if sym, ok := g.symbols[id]; ok {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindByName returns the declared symbols matching a name. A qualified
// name (Scope.Name or pkg::Scope.Name) narrows the match; a bare name
// returns the full candidate set.
func (g *Graph) FindByName(name string) []*Symbol {
	if sym, ok := g.symbols[name]; ok && sym.Origin == OriginDeclared {
		return []*Symbol{sym}
	}

	pkg, scoped := SplitSymbolID(name)
	last := scoped
	if idx := strings.LastIndexByte(scoped, '.'); idx >= 0 {
		last = scoped[idx+1:]
	}

	var out []*Symbol
	for _, id := range g.byName[last] {
		sym := g.symbols[id]
		if pkg != "" && sym.Package != pkg {
			continue
		}
		if scoped != last && !strings.HasSuffix(id, "::"+scoped) && id != scoped {
			continue
		}
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Search returns declared symbols whose name matches the predicate, in
// identifier order.
func (g *Graph) Search(match func(*Symbol) bool) []*Symbol {
	var out []*Symbol
	for _, sym := range g.symbols {
		if sym.Origin == OriginDeclared && match(sym) {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeclaredCount returns the number of symbols declared in scanned source.
func (g *Graph) DeclaredCount() int {
	count := 0
	for _, sym := range g.symbols {
		if sym.Origin == OriginDeclared {
			count++
		}
	}
	return count
}

// EdgeCount returns the total number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Restore rebuilds a graph from previously persisted symbols and edges.
// The builder's resolution already happened, so rows go straight into
// the indexes.
func Restore(symbols []*Symbol, edges []Edge) *Graph {
	g := newGraph()
	for _, sym := range symbols {
		g.addSymbol(sym)
	}
	for _, edge := range edges {
		g.addEdge(edge)
	}
	return g
}
