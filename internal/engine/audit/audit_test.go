package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codegraph/internal/engine/graph"
	"codegraph/internal/engine/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symbol(pkg, name string, complexity int, confidence float64) *graph.Symbol {
	return &graph.Symbol{
		ID:         graph.SymbolID(pkg, nil, name),
		Name:       name,
		Kind:       parser.KindFunction,
		Package:    pkg,
		Spans:      []graph.Span{{File: pkg + "/" + name + ".go", StartLine: 1, EndLine: 10}},
		Language:   "go",
		Origin:     graph.OriginDeclared,
		Confidence: confidence,
		Complexity: complexity,
	}
}

func fixtureScan(t *testing.T) *graph.ScanResult {
	t.Helper()

	b := graph.NewBuilder(func(name string) bool { return strings.HasPrefix(name, "test") })
	b.Add(&graph.FileInput{
		Path:    "app/main.go",
		Package: "app",
		Symbols: []*graph.Symbol{
			symbol("app", "main", 1, 1.0),
			symbol("app", "dispatch", 12, 1.0),
			symbol("app", "retry", 4, 1.0),
			symbol("app", "stale", 2, 1.0),
		},
		Calls: []graph.Call{
			{FromID: "app::main", Name: "dispatch", File: "app/main.go", Line: 3, Confidence: 0.9},
			{FromID: "app::dispatch", Name: "retry", File: "app/main.go", Line: 12, Confidence: 0.9},
			{FromID: "app::retry", Name: "dispatch", File: "app/main.go", Line: 30, Confidence: 0.9},
		},
	})
	b.Add(&graph.FileInput{
		Path:     "scripts/legacy.rb",
		Package:  "scripts",
		Language: "ruby",
		Symbols:  []*graph.Symbol{symbol("scripts", "migrate", 3, parser.ConfidenceHeuristic)},
	})

	return &graph.ScanResult{ID: "scan-1", Graph: b.Build()}
}

func TestAuditOrphans(t *testing.T) {
	report := NewAuditor(0).Audit(fixtureScan(t))

	var names []string
	for _, sym := range report.Orphans {
		names = append(names, sym.Name)
	}
	assert.ElementsMatch(t, []string{"stale", "migrate"}, names,
		"main is an entry point, called symbols are not orphans")
}

func TestAuditCallCycles(t *testing.T) {
	report := NewAuditor(0).Audit(fixtureScan(t))

	require.Len(t, report.CallCycles, 1)
	assert.Equal(t, []string{"app::dispatch", "app::retry"}, report.CallCycles[0])
}

func TestAuditHotspots(t *testing.T) {
	report := NewAuditor(2).Audit(fixtureScan(t))

	require.Len(t, report.Hotspots, 2)
	assert.Equal(t, "dispatch", report.Hotspots[0].Name)
	assert.Equal(t, "retry", report.Hotspots[1].Name)
}

func TestAuditHeuristicShare(t *testing.T) {
	report := NewAuditor(0).Audit(fixtureScan(t))

	assert.Equal(t, 5, report.SymbolCount)
	assert.InDelta(t, 0.2, report.HeuristicShare, 0.001)
}

func writeTagFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateTagsCleanFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTagFile(t, dir, "ok.go", "// @see{internal/auth.Login}\n// @see{pkg/api#Handler}\n")

	findings, err := ValidateTags(path)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestValidateTagsViolations(t *testing.T) {
	dir := t.TempDir()
	writeTagFile(t, dir, "bad.go", strings.Join([]string{
		"// @see{internal/auth.Login",
		"// @see{}",
		"// @see{not a symbol!}",
		"// fine line",
	}, "\n"))

	findings, err := ValidateTags(dir)
	require.NoError(t, err)
	require.Len(t, findings, 3)

	assert.Equal(t, 1, findings[0].Line)
	assert.Contains(t, findings[0].Message, "unclosed")
	assert.Equal(t, 2, findings[1].Line)
	assert.Contains(t, findings[1].Message, "empty")
	assert.Equal(t, 3, findings[2].Line)
	assert.Contains(t, findings[2].Message, "invalid characters")
}

func TestValidateTagsMultiplePerLine(t *testing.T) {
	dir := t.TempDir()
	path := writeTagFile(t, dir, "multi.go", "// @see{a.B} then @see{bad one} and @see{c.D}\n")

	findings, err := ValidateTags(path)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "invalid characters")
}

func TestValidateTagsMissingPath(t *testing.T) {
	_, err := ValidateTags(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}
