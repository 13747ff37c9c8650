package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"codegraph/internal/core/config"
	"codegraph/internal/core/errors"
	"codegraph/internal/engine/graph"
	"codegraph/internal/engine/parser"
	"codegraph/internal/shared/observability"

	"github.com/gobwas/glob"
)

// Service answers structured queries against immutable scan results.
// Queries are pure reads; any number may run concurrently.
type Service struct {
	cfg config.Query
}

func NewService(cfg config.Query) *Service {
	return &Service{cfg: cfg}
}

// Do dispatches one request. Ambiguous symbol references fail with the
// candidate set attached to the result; the caller disambiguates.
func (s *Service) Do(ctx context.Context, scan *graph.ScanResult, req Request) (*Result, error) {
	start := time.Now()
	defer func() {
		observability.QueryDuration.WithLabelValues(string(req.Kind)).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var result *Result
	var err error
	switch req.Kind {
	case KindCallers:
		result, err = s.callers(scan, req)
	case KindCallees:
		result, err = s.callees(scan, req)
	case KindTestsFor:
		result, err = s.testsFor(ctx, scan, req)
	case KindSearch:
		result, err = s.search(scan, req)
	case KindDependencies:
		result, err = s.dependencies(ctx, scan, req)
	case KindOrphans:
		result, err = s.orphans(scan, req)
	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown query kind %q", req.Kind))
	}
	if err != nil {
		return result, err
	}
	if result.Truncated {
		observability.QueryTruncatedTotal.Inc()
	}
	return result, nil
}

// Resolve binds a symbol reference to exactly one declared symbol. No
// match is CodeNotFound; several matches return the candidates with
// CodeAmbiguous so the caller can qualify the reference.
func (s *Service) Resolve(scan *graph.ScanResult, ref string) (*graph.Symbol, []SymbolSummary, error) {
	matches := scan.Graph.FindByName(ref)
	switch len(matches) {
	case 0:
		return nil, nil, errors.AddContext(
			errors.New(errors.CodeNotFound, "symbol not found"), errors.CtxSymbol, ref)
	case 1:
		return matches[0], nil, nil
	default:
		return nil, summarizeAll(matches), errors.AddContext(
			errors.New(errors.CodeAmbiguous, fmt.Sprintf("%d symbols match, qualify the reference", len(matches))),
			errors.CtxSymbol, ref)
	}
}

func (s *Service) callers(scan *graph.ScanResult, req Request) (*Result, error) {
	sym, candidates, err := s.Resolve(scan, req.Target)
	if err != nil {
		return &Result{Kind: req.Kind, Target: req.Target, Symbols: candidates}, err
	}
	return &Result{
		Kind:    req.Kind,
		Target:  sym.ID,
		Symbols: summarizeAll(scan.Graph.Callers(sym.ID)),
	}, nil
}

func (s *Service) callees(scan *graph.ScanResult, req Request) (*Result, error) {
	sym, candidates, err := s.Resolve(scan, req.Target)
	if err != nil {
		return &Result{Kind: req.Kind, Target: req.Target, Symbols: candidates}, err
	}
	return &Result{
		Kind:    req.Kind,
		Target:  sym.ID,
		Symbols: summarizeAll(scan.Graph.Callees(sym.ID)),
	}, nil
}

// testsFor walks the caller graph upward from the target, depth-bounded,
// and keeps every visited symbol that owns tests edges.
func (s *Service) testsFor(ctx context.Context, scan *graph.ScanResult, req Request) (*Result, error) {
	sym, candidates, err := s.Resolve(scan, req.Target)
	if err != nil {
		return &Result{Kind: req.Kind, Target: req.Target, Symbols: candidates}, err
	}

	depth := req.Depth
	if depth <= 0 {
		depth = s.cfg.TestDepth
	}

	result := &Result{Kind: req.Kind, Target: sym.ID}
	g := scan.Graph

	visited := map[string]bool{sym.ID: true}
	frontier := []string{sym.ID}
	var tests []*graph.Symbol

	for level := 0; level < depth && len(frontier) > 0; level++ {
		if ctx.Err() != nil {
			result.Truncated = true
			break
		}
		var next []string
		for _, id := range frontier {
			for _, caller := range g.Callers(id) {
				if visited[caller.ID] {
					continue
				}
				visited[caller.ID] = true
				next = append(next, caller.ID)
				if len(g.EdgesFrom(caller.ID, graph.EdgeTests)) > 0 {
					tests = append(tests, caller)
				}
			}
		}
		frontier = next
	}

	sort.Slice(tests, func(i, j int) bool { return tests[i].ID < tests[j].ID })
	result.Symbols = summarizeAll(tests)
	return result, nil
}

// search matches declared symbols by case-insensitive substring, or by
// glob when the pattern carries wildcard metacharacters.
func (s *Service) search(scan *graph.ScanResult, req Request) (*Result, error) {
	if req.Pattern == "" {
		return nil, errors.New(errors.CodeValidation, "empty search pattern")
	}

	match, err := namePredicate(req.Pattern)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.MaxResults
	}

	symbols := scan.Graph.Search(func(sym *graph.Symbol) bool {
		if sym.Kind == parser.KindPackage {
			return false
		}
		if req.Filter != "" && sym.Kind != req.Filter {
			return false
		}
		if req.Package != "" && sym.Package != req.Package && sym.TopLevelPackage() != req.Package {
			return false
		}
		return match(sym.Name)
	})

	result := &Result{Kind: req.Kind, Target: req.Pattern}
	if len(symbols) > limit {
		symbols = symbols[:limit]
		result.Truncated = true
	}
	result.Symbols = summarizeAll(symbols)
	return result, nil
}

func namePredicate(pattern string) (func(string) bool, error) {
	if strings.ContainsAny(pattern, "*?[{") {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidation, "invalid search glob")
		}
		return func(name string) bool { return g.Match(strings.ToLower(name)) }, nil
	}
	needle := strings.ToLower(pattern)
	return func(name string) bool { return strings.Contains(strings.ToLower(name), needle) }, nil
}

// dependencies returns the closure of import edges reachable from the
// target symbol's declaring package.
func (s *Service) dependencies(ctx context.Context, scan *graph.ScanResult, req Request) (*Result, error) {
	sym, candidates, err := s.Resolve(scan, req.Target)
	if err != nil {
		return &Result{Kind: req.Kind, Target: req.Target, Symbols: candidates}, err
	}

	g := scan.Graph
	start := sym.Package
	if start == "" {
		start = "(root)"
	}

	result := &Result{Kind: req.Kind, Target: sym.ID}
	visited := map[string]bool{start: true}
	frontier := []string{start}
	var deps []*graph.Symbol

	for len(frontier) > 0 {
		if ctx.Err() != nil {
			result.Truncated = true
			break
		}
		var next []string
		for _, id := range frontier {
			for _, edge := range g.EdgesFrom(id, graph.EdgeImports) {
				if visited[edge.To] {
					continue
				}
				visited[edge.To] = true
				next = append(next, edge.To)
				if dep, ok := g.Symbol(edge.To); ok {
					deps = append(deps, dep)
				}
			}
		}
		frontier = next
	}

	sort.Slice(deps, func(i, j int) bool { return deps[i].ID < deps[j].ID })
	result.Symbols = summarizeAll(deps)
	return result, nil
}

// orphans lists callable symbols nothing points at. Exported entry
// points (main, init, handlers named ServeHTTP) stay out of the list.
func (s *Service) orphans(scan *graph.ScanResult, req Request) (*Result, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.MaxResults
	}

	g := scan.Graph
	symbols := g.Search(func(sym *graph.Symbol) bool {
		switch sym.Kind {
		case parser.KindFunction, parser.KindMethod, parser.KindComponent, parser.KindHook:
		default:
			return false
		}
		if isEntryPoint(sym.Name) {
			return false
		}
		return len(g.EdgesTo(sym.ID)) == 0
	})

	result := &Result{Kind: req.Kind}
	if len(symbols) > limit {
		symbols = symbols[:limit]
		result.Truncated = true
	}
	result.Symbols = summarizeAll(symbols)
	return result, nil
}

func isEntryPoint(name string) bool {
	switch name {
	case "main", "init", "ServeHTTP", "__init__", "__main__":
		return true
	}
	return false
}
