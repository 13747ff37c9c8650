package main

import (
	"fmt"
	"strings"

	"codegraph/internal/engine/audit"
	"codegraph/internal/engine/graph"
	"codegraph/internal/engine/impact"
	"codegraph/internal/query"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	riskHighStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	riskMediumStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	riskLowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))
)

// Reporter renders engine output for the terminal. Styling can be
// switched off for piped output.
type Reporter struct {
	styled bool
}

func NewReporter(styled bool) *Reporter {
	return &Reporter{styled: styled}
}

func (r *Reporter) title(s string) string {
	if r.styled {
		return titleStyle.Render(s)
	}
	return s
}

func (r *Reporter) muted(s string) string {
	if r.styled {
		return mutedStyle.Render(s)
	}
	return s
}

func (r *Reporter) risk(risk impact.Risk) string {
	if !r.styled {
		return string(risk)
	}
	switch risk {
	case impact.RiskHigh:
		return riskHighStyle.Render(string(risk))
	case impact.RiskMedium:
		return riskMediumStyle.Render(string(risk))
	default:
		return riskLowStyle.Render(string(risk))
	}
}

func (r *Reporter) Scan(scan *graph.ScanResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.title("Scan"), scan.ID)
	fmt.Fprintf(&b, "Root: %s\n", scan.Root)
	fmt.Fprintf(&b, "Mode: %s  Languages: %s\n", scan.Mode, strings.Join(scan.Languages, ", "))
	fmt.Fprintf(&b, "Files: %d  Symbols: %d  Edges: %d  Elapsed: %s\n",
		scan.FileCount, scan.SymbolCount, scan.EdgeCount, scan.Elapsed)

	if len(scan.Diagnostics) > 0 {
		fmt.Fprintf(&b, "\nUnparsed files (%d)\n", len(scan.Diagnostics))
		for _, d := range scan.Diagnostics {
			fmt.Fprintf(&b, "- %s: %s\n", d.Path, r.muted(d.Reason))
		}
	}
	b.WriteString("\n")
	return b.String()
}

func (r *Reporter) Result(result *query.Result) string {
	var b strings.Builder
	header := string(result.Kind)
	if result.Target != "" {
		header += " " + result.Target
	}
	fmt.Fprintf(&b, "%s (%d)\n", r.title(header), len(result.Symbols))
	for _, sym := range result.Symbols {
		b.WriteString(r.summaryLine(sym))
	}
	if result.Truncated {
		b.WriteString(r.muted("(truncated)") + "\n")
	}
	return b.String()
}

func (r *Reporter) summaryLine(sym query.SymbolSummary) string {
	location := ""
	if sym.File != "" {
		location = fmt.Sprintf("  %s:%d", sym.File, sym.StartLine)
	}
	qualifier := ""
	if sym.Origin != graph.OriginDeclared {
		qualifier = "  [" + string(sym.Origin) + "]"
	} else if sym.Confidence < 1.0 {
		qualifier = fmt.Sprintf("  (confidence %.2f)", sym.Confidence)
	}
	return fmt.Sprintf("- %s (%s)%s%s\n", sym.ID, sym.Kind, r.muted(location), qualifier)
}

func (r *Reporter) Translation(req query.Request) string {
	parts := []string{"kind=" + string(req.Kind)}
	if req.Target != "" {
		parts = append(parts, "target="+req.Target)
	}
	if req.Pattern != "" {
		parts = append(parts, "pattern="+req.Pattern)
	}
	if req.Filter != "" {
		parts = append(parts, "filter="+string(req.Filter))
	}
	if req.Package != "" {
		parts = append(parts, "package="+req.Package)
	}
	return r.muted("resolved query: "+strings.Join(parts, " ")) + "\n"
}

func (r *Reporter) Ambiguous(ref string, candidates []query.SymbolSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d symbols match, qualify the reference\n", r.title(ref), len(candidates))
	for _, sym := range candidates {
		b.WriteString(r.summaryLine(sym))
	}
	return b.String()
}

func (r *Reporter) Impact(report *impact.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.title("Impact of"), report.Target.ID)
	fmt.Fprintf(&b, "Risk: %s\n", r.risk(report.Risk))
	fmt.Fprintf(&b, "Direct callers: %d (%d tested, coverage %.2f)\n",
		report.DirectCallers, report.TestedCallers, report.Coverage)
	fmt.Fprintf(&b, "Packages touched: %s\n", strings.Join(report.Packages, ", "))

	fmt.Fprintf(&b, "\nBlast radius (%d)\n", len(report.Reachable))
	for _, sym := range report.Reachable {
		fmt.Fprintf(&b, "- %s%s\n", sym.ID, r.muted("  "+sym.File()))
	}
	if report.Truncated {
		b.WriteString(r.muted("(truncated by depth or timeout)") + "\n")
	}
	return b.String()
}

func (r *Reporter) Audit(report *audit.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.title("Audit"), report.ScanID)
	fmt.Fprintf(&b, "Symbols: %d  Heuristic share: %.1f%%\n\n", report.SymbolCount, report.HeuristicShare*100)

	fmt.Fprintf(&b, "Orphans (%d)\n", len(report.Orphans))
	for _, sym := range report.Orphans {
		fmt.Fprintf(&b, "- %s%s\n", sym.ID, r.muted("  "+sym.File()))
	}

	fmt.Fprintf(&b, "\nCall cycles (%d)\n", len(report.CallCycles))
	for _, cycle := range report.CallCycles {
		fmt.Fprintf(&b, "- %s\n", strings.Join(cycle, " -> "))
	}

	fmt.Fprintf(&b, "\nImport cycles (%d)\n", len(report.ImportCycles))
	for _, cycle := range report.ImportCycles {
		fmt.Fprintf(&b, "- %s\n", strings.Join(cycle, " -> "))
	}

	fmt.Fprintf(&b, "\nComplexity hotspots (%d)\n", len(report.Hotspots))
	for _, sym := range report.Hotspots {
		fmt.Fprintf(&b, "- %s  complexity %d\n", sym.ID, sym.Complexity)
	}
	return b.String()
}

func (r *Reporter) Findings(path string, findings []audit.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %d violations\n", r.title("Tag check"), path, len(findings))
	for _, f := range findings {
		fmt.Fprintf(&b, "- %s:%d: %s\n", f.File, f.Line, f.Message)
	}
	return b.String()
}
