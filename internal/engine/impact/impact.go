package impact

import (
	"context"
	"sort"
	"time"

	"codegraph/internal/core/config"
	"codegraph/internal/engine/graph"
	"codegraph/internal/shared/observability"
)

// Risk is the three-level classification of a change's blast radius.
type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

// Report is computed on demand from a ScanResult and a target symbol; it
// is never stored. The same scan and thresholds always produce the same
// report.
type Report struct {
	Target        *graph.Symbol
	Reachable     []*graph.Symbol // transitive callers, the blast radius
	DirectCallers int
	TestedCallers int
	Coverage      float64
	Packages      []string // top-level packages the radius crosses
	Risk          Risk
	Truncated     bool
	Elapsed       time.Duration
}

// Analyzer computes impact reports. Traversal is bounded by depth and by
// a wall-clock timeout; hitting either bound yields a partial report
// flagged as truncated instead of blocking.
type Analyzer struct {
	cfg config.Impact
}

func NewAnalyzer(cfg config.Impact) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze walks the caller graph upward from target. A visited set keeps
// mutually recursive call clusters from looping.
func (a *Analyzer) Analyze(ctx context.Context, scan *graph.ScanResult, target *graph.Symbol) *Report {
	start := time.Now()
	defer func() {
		observability.ImpactDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	g := scan.Graph
	report := &Report{Target: target}

	visited := map[string]bool{target.ID: true}
	frontier := []string{target.ID}

	for depth := 0; depth < a.cfg.MaxDepth && len(frontier) > 0; depth++ {
		if ctx.Err() != nil {
			report.Truncated = true
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
				report.Reachable = append(report.Reachable, caller)
			}
		}
		frontier = next
	}
	if len(frontier) > 0 && !report.Truncated {
		report.Truncated = true
	}

	sort.Slice(report.Reachable, func(i, j int) bool {
		return report.Reachable[i].ID < report.Reachable[j].ID
	})

	direct := g.Callers(target.ID)
	report.DirectCallers = len(direct)
	for _, caller := range direct {
		if isTested(g, caller.ID) {
			report.TestedCallers++
		}
	}

	// An uncalled symbol has nothing to break: full coverage by
	// definition, so small blast radii classify LOW.
	if report.DirectCallers == 0 {
		report.Coverage = 1.0
	} else {
		report.Coverage = float64(report.TestedCallers) / float64(report.DirectCallers)
	}

	packages := map[string]bool{target.TopLevelPackage(): true}
	for _, sym := range report.Reachable {
		if sym.Origin == graph.OriginDeclared {
			packages[sym.TopLevelPackage()] = true
		}
	}
	for pkg := range packages {
		report.Packages = append(report.Packages, pkg)
	}
	sort.Strings(report.Packages)

	report.Risk = a.classify(report)
	report.Elapsed = time.Since(start)
	return report
}

// classify applies the thresholds in order: a radius that is both small
// and covered is LOW even when it crosses packages.
func (a *Analyzer) classify(report *Report) Risk {
	if len(report.Reachable) < a.cfg.MaxReach && report.Coverage >= a.cfg.MinCoverage {
		return RiskLow
	}
	if len(report.Packages) > 1 || report.Coverage == 0 {
		return RiskHigh
	}
	return RiskMedium
}

// isTested reports whether a symbol has a tests edge pointing at it or
// is itself a test.
func isTested(g *graph.Graph, id string) bool {
	if len(g.EdgesTo(id, graph.EdgeTests)) > 0 {
		return true
	}
	return len(g.EdgesFrom(id, graph.EdgeTests)) > 0
}
