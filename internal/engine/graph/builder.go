package graph

import (
	"path"
	"sort"
	"strings"

	"codegraph/internal/engine/parser"
)

// Call is a normalized call site. ToID is set when it resolved within its
// own file; otherwise Name (and Module, when an import binds one) carry
// the textual target.
type Call struct {
	FromID     string
	Name       string
	Module     string
	ToID       string
	File       string
	Line       int
	Confidence float64
}

// Import is a file-level import attributed to the file's package.
type Import struct {
	Module     string
	Line       int
	Confidence float64
}

// FileInput is one file's normalized facts, ready for graph building.
type FileInput struct {
	Path     string
	Package  string
	Language string
	Mode     parser.Mode
	IsTest   bool
	Symbols  []*Symbol
	Calls    []Call
	Imports  []Import
}

// Builder accumulates file inputs and produces an immutable Graph.
// Cross-file references resolve here; ambiguity is preserved as a
// candidate set, never collapsed to a silent best guess.
type Builder struct {
	files      []*FileInput
	isTestName func(string) bool
}

func NewBuilder(isTestName func(string) bool) *Builder {
	if isTestName == nil {
		isTestName = func(string) bool { return false }
	}
	return &Builder{isTestName: isTestName}
}

func (b *Builder) Add(file *FileInput) {
	b.files = append(b.files, file)
}

// Build assembles the graph in two passes: symbols first, then edges, so
// every declared symbol is visible to resolution regardless of file order.
func (b *Builder) Build() *Graph {
	g := newGraph()

	pkgSet := make(map[string]bool)
	for _, file := range b.files {
		pkgSet[file.Package] = true
		g.addSymbol(packageSymbol(file.Package))
		for _, sym := range file.Symbols {
			g.addSymbol(sym)
		}
	}

	for _, file := range b.files {
		b.buildCallEdges(g, pkgSet, file)
		b.buildImportEdges(g, pkgSet, file)
	}

	return g
}

func (b *Builder) buildCallEdges(g *Graph, pkgSet map[string]bool, file *FileInput) {
	for _, call := range file.Calls {
		from := call.FromID
		if from == "" {
			// Module-level call, attributed to the package.
			from = packageSymbolID(file.Package)
		}

		edge := Edge{
			Kind:       EdgeCalls,
			From:       from,
			File:       file.Path,
			Line:       call.Line,
			Confidence: call.Confidence,
		}

		switch {
		case call.ToID != "":
			edge.To = call.ToID
			edge.Resolution = ResolutionResolved

		case call.Module != "":
			pkg, ok := resolvePackage(pkgSet, call.Module)
			if !ok {
				edge.To = b.externalStub(g, call.Module, call.Name)
				edge.Resolution = ResolutionExternal
				break
			}
			candidates := symbolsInPackage(g, call.Name, pkg)
			b.bindCandidates(g, &edge, candidates, call.Name)

		default:
			candidates := declaredByName(g, call.Name)
			// Without an import hint, several same-named declarations
			// tie-break toward the caller's own top-level package.
			if len(candidates) > 1 {
				if same := filterTopLevel(g, candidates, file.Package); len(same) == 1 {
					candidates = same
				}
			}
			b.bindCandidates(g, &edge, candidates, call.Name)
		}

		g.addEdge(edge)

		fromTest := file.IsTest || b.isTestName(symbolName(g, from))
		if fromTest && edge.Resolution != ResolutionExternal {
			tests := edge
			tests.Kind = EdgeTests
			g.addEdge(tests)
		}
	}
}

// bindCandidates sets the edge target from a candidate set: one match
// resolves, several stay ambiguous with the full set attached, none
// produces an unresolved stub.
func (b *Builder) bindCandidates(g *Graph, edge *Edge, candidates []string, name string) {
	switch len(candidates) {
	case 0:
		// No declaration anywhere in the scan: keep the edge with an
		// unresolved stub rather than dropping it.
		edge.To = b.unresolvedStub(g, name)
		edge.Resolution = ResolutionExternal
	case 1:
		edge.To = candidates[0]
		edge.Resolution = ResolutionResolved
	default:
		sort.Strings(candidates)
		edge.To = candidates[0]
		edge.Candidates = candidates
		edge.Resolution = ResolutionAmbiguous
	}
}

func (b *Builder) buildImportEdges(g *Graph, pkgSet map[string]bool, file *FileInput) {
	from := packageSymbolID(file.Package)
	seen := make(map[string]bool)

	for _, imp := range file.Imports {
		var to string
		resolution := ResolutionExternal

		if pkg, ok := resolvePackage(pkgSet, imp.Module); ok {
			to = packageSymbolID(pkg)
			resolution = ResolutionResolved
		} else {
			stub := &Symbol{
				ID:      "extern::" + imp.Module,
				Name:    lastSegment(imp.Module),
				Kind:    parser.KindPackage,
				Package: imp.Module,
				Origin:  OriginExternal,
			}
			g.addSymbol(stub)
			to = stub.ID
		}

		if to == from || seen[to] {
			continue
		}
		seen[to] = true

		g.addEdge(Edge{
			Kind:       EdgeImports,
			From:       from,
			To:         to,
			Resolution: resolution,
			Confidence: imp.Confidence,
			File:       file.Path,
			Line:       imp.Line,
		})
	}
}

func (b *Builder) externalStub(g *Graph, module, name string) string {
	id := "extern::" + module + "." + name
	g.addSymbol(&Symbol{
		ID:      id,
		Name:    name,
		Kind:    parser.KindFunction,
		Package: module,
		Origin:  OriginExternal,
	})
	return id
}

func (b *Builder) unresolvedStub(g *Graph, name string) string {
	id := "unresolved::" + name
	g.addSymbol(&Symbol{
		ID:     id,
		Name:   name,
		Kind:   parser.KindFunction,
		Origin: OriginUnresolved,
	})
	return id
}

func packageSymbolID(pkg string) string {
	if pkg == "" {
		return "(root)"
	}
	return pkg
}

func packageSymbol(pkg string) *Symbol {
	return &Symbol{
		ID:      packageSymbolID(pkg),
		Name:    lastSegment(packageSymbolID(pkg)),
		Kind:    parser.KindPackage,
		Package: pkg,
		Origin:  OriginDeclared,
	}
}

func symbolName(g *Graph, id string) string {
	if sym, ok := g.Symbol(id); ok {
		return sym.Name
	}
	return ""
}

// resolvePackage maps an import module string to a scanned package path.
// Dotted module paths are normalized to slashes; a module may point at a
// file inside a package, so its parent directory is tried too.
func resolvePackage(pkgSet map[string]bool, module string) (string, bool) {
	norm := strings.ReplaceAll(module, ".", "/")
	norm = strings.Trim(norm, "/")

	if pkgSet[norm] {
		return norm, true
	}
	if dir := path.Dir(norm); dir != "." && pkgSet[dir] {
		return dir, true
	}

	// Absolute module paths (example.com/app/internal/auth) trail-match
	// the root-relative package path.
	var matches []string
	for pkg := range pkgSet {
		if pkg == "" {
			continue
		}
		if strings.HasSuffix(norm, "/"+pkg) || pkg == norm {
			matches = append(matches, pkg)
		}
	}
	if len(matches) == 1 {
		return matches[0], true
	}
	return "", false
}

func symbolsInPackage(g *Graph, name, pkg string) []string {
	var out []string
	for _, id := range g.byName[name] {
		if sym := g.symbols[id]; sym.Package == pkg {
			out = append(out, id)
		}
	}
	return out
}

func filterTopLevel(g *Graph, candidates []string, pkg string) []string {
	top := pkg
	if idx := strings.IndexByte(top, '/'); idx >= 0 {
		top = top[:idx]
	}
	var out []string
	for _, id := range candidates {
		if sym := g.symbols[id]; sym.TopLevelPackage() == top {
			out = append(out, id)
		}
	}
	return out
}

func declaredByName(g *Graph, name string) []string {
	return append([]string(nil), g.byName[name]...)
}

func lastSegment(s string) string {
	s = strings.Trim(s, "/")
	if idx := strings.LastIndexAny(s, "/."); idx >= 0 {
		return s[idx+1:]
	}
	return s
}
