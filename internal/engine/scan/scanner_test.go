package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"codegraph/internal/core/config"
	"codegraph/internal/engine/graph"
	"codegraph/internal/engine/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fixtureRepo(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, root, "auth/login.go", `package auth

func Login(user string) error {
	return validate(user)
}

func validate(user string) error {
	return nil
}
`)
	writeFile(t, root, "auth/login_test.go", `package auth

func TestLogin(t *testing.T) {
	Login("admin")
}
`)
	writeFile(t, root, "scripts/report.py", `from auth import login

def report():
    login("admin")
`)
	writeFile(t, root, "node_modules/dep.js", `function ignored() {}`)
	return root
}

func newScanner(t *testing.T) *Scanner {
	t.Helper()
	cfg := config.Default()
	s, err := NewScanner(cfg)
	require.NoError(t, err)
	return s
}

func TestScanBuildsResult(t *testing.T) {
	root := fixtureRepo(t)
	s := newScanner(t)

	result, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 3, result.FileCount, "node_modules must be excluded")
	assert.Contains(t, result.Languages, "go")
	assert.Contains(t, result.Languages, "python")
	assert.Equal(t, parser.ModeAST, result.Mode)
	assert.Positive(t, result.SymbolCount)
	assert.Positive(t, result.EdgeCount)

	// Same-file call resolved.
	matches := result.Graph.FindByName("validate")
	require.Len(t, matches, 1)
	callers := result.Graph.Callers(matches[0].ID)
	require.Len(t, callers, 1)
	assert.Equal(t, "Login", callers[0].Name)
}

func TestScanTestEdges(t *testing.T) {
	root := fixtureRepo(t)
	s := newScanner(t)

	result, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	matches := result.Graph.FindByName("Login")
	require.Len(t, matches, 1)
	tests := result.Graph.EdgesTo(matches[0].ID, graph.EdgeTests)
	require.NotEmpty(t, tests)
	from, ok := result.Graph.Symbol(tests[0].From)
	require.True(t, ok)
	assert.Equal(t, "TestLogin", from.Name)
}

func TestScanIsolation(t *testing.T) {
	root := fixtureRepo(t)
	s := newScanner(t)

	first, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	writeFile(t, root, "auth/extra.go", `package auth

func Extra() {}
`)

	second, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	// A rescan yields a new result; the earlier snapshot is untouched.
	assert.NotEqual(t, first.ID, second.ID)
	assert.Empty(t, first.Graph.FindByName("Extra"))
	assert.Len(t, second.Graph.FindByName("Extra"), 1)
}

func TestScanEdgeEndpointsAlwaysPresent(t *testing.T) {
	root := fixtureRepo(t)
	s := newScanner(t)

	result, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	stubs := 0
	for _, edge := range result.Graph.Edges() {
		from, ok := result.Graph.Symbol(edge.From)
		require.True(t, ok, "edge %s -> %s has no From symbol", edge.From, edge.To)
		to, ok := result.Graph.Symbol(edge.To)
		require.True(t, ok, "edge %s -> %s has no To symbol", edge.From, edge.To)

		for _, sym := range []*graph.Symbol{from, to} {
			switch sym.Origin {
			case graph.OriginDeclared:
			case graph.OriginExternal, graph.OriginUnresolved:
				stubs++
			default:
				t.Fatalf("symbol %s has no origin marker", sym.ID)
			}
		}
		for _, candidate := range edge.Candidates {
			_, ok := result.Graph.Symbol(candidate)
			require.True(t, ok, "candidate %s missing from symbol table", candidate)
		}
	}

	// The python file calls a name the scan never declares, so at least
	// one edge must terminate in a marked stub rather than dangle.
	assert.Positive(t, stubs)
}

func TestScanIdempotent(t *testing.T) {
	root := fixtureRepo(t)
	s := newScanner(t)

	first, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	second, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	var firstIDs, secondIDs []string
	for _, sym := range first.Graph.Symbols() {
		firstIDs = append(firstIDs, sym.ID)
	}
	for _, sym := range second.Graph.Symbols() {
		secondIDs = append(secondIDs, sym.ID)
	}
	assert.Equal(t, firstIDs, secondIDs)
	assert.Equal(t, first.Graph.EdgeCount(), second.Graph.EdgeCount())
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}

func TestScanSkippedFileDoesNotBlockOthers(t *testing.T) {
	root := fixtureRepo(t)
	cfg := config.Default()
	cfg.Scan.MaxFileSize = 64
	s, err := NewScanner(cfg)
	require.NoError(t, err)

	result, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	var skipped []string
	for _, d := range result.Diagnostics {
		skipped = append(skipped, filepath.Base(d.Path))
	}
	assert.Contains(t, skipped, "login.go")

	// The small python file still parses and resolves.
	assert.Len(t, result.Graph.FindByName("report"), 1)
}

func TestScanMissingRoot(t *testing.T) {
	s := newScanner(t)
	_, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "gone"))
	assert.Error(t, err)
}

func TestScanCancelled(t *testing.T) {
	root := fixtureRepo(t)
	s := newScanner(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Scan(ctx, root)
	assert.Error(t, err)
}

func TestScanHeuristicMode(t *testing.T) {
	root := fixtureRepo(t)
	cfg := config.Default()
	cfg.Scan.Mode = "heuristic"
	s, err := NewScanner(cfg)
	require.NoError(t, err)

	result, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, parser.ModeHeuristic, result.Mode)

	matches := result.Graph.FindByName("Login")
	require.Len(t, matches, 1)
	assert.LessOrEqual(t, matches[0].Confidence, parser.ConfidenceHeuristic)
}
