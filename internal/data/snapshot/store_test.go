package snapshot

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codegraph/internal/core/errors"
	"codegraph/internal/engine/graph"
	"codegraph/internal/engine/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func fixtureScan(id string) *graph.ScanResult {
	b := graph.NewBuilder(func(name string) bool { return strings.HasPrefix(name, "test") })
	b.Add(&graph.FileInput{
		Path:    "auth/login.go",
		Package: "auth",
		Symbols: []*graph.Symbol{{
			ID:         "auth::login",
			Name:       "login",
			Kind:       parser.KindFunction,
			Package:    "auth",
			Spans:      []graph.Span{{File: "auth/login.go", StartLine: 4, EndLine: 12}},
			Language:   "go",
			Origin:     graph.OriginDeclared,
			Confidence: 1.0,
			Complexity: 3,
		}},
	})
	b.Add(&graph.FileInput{
		Path:    "api/handler.go",
		Package: "api",
		Symbols: []*graph.Symbol{{
			ID:         "api::handle",
			Name:       "handle",
			Kind:       parser.KindFunction,
			Package:    "api",
			Spans:      []graph.Span{{File: "api/handler.go", StartLine: 1, EndLine: 20}},
			Language:   "go",
			Origin:     graph.OriginDeclared,
			Confidence: 1.0,
		}},
		Calls: []graph.Call{
			{FromID: "api::handle", Name: "login", File: "api/handler.go", Line: 7, Confidence: 0.9},
			{FromID: "api::handle", Name: "render", File: "api/handler.go", Line: 9, Confidence: 0.9},
		},
		Imports: []graph.Import{{Module: "auth", Line: 1, Confidence: 0.95}},
	})

	return &graph.ScanResult{
		ID:          id,
		Root:        "/src/app",
		StartedAt:   time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Elapsed:     140 * time.Millisecond,
		Languages:   []string{"go"},
		Mode:        parser.ModeAST,
		FileCount:   2,
		SymbolCount: 2,
		EdgeCount:   3,
		Graph:       b.Build(),
		Diagnostics: []graph.Diagnostic{{Path: "vendor/big.go", Reason: "exceeds max file size"}},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := openStore(t)
	scan := fixtureScan("scan-1")
	require.NoError(t, store.Save(scan))

	loaded, err := store.Load("scan-1")
	require.NoError(t, err)

	assert.Equal(t, scan.Root, loaded.Root)
	assert.Equal(t, scan.StartedAt, loaded.StartedAt)
	assert.Equal(t, scan.Elapsed, loaded.Elapsed)
	assert.Equal(t, scan.Languages, loaded.Languages)
	assert.Equal(t, scan.Mode, loaded.Mode)
	assert.Equal(t, scan.Diagnostics, loaded.Diagnostics)

	assert.Equal(t, scan.Graph.DeclaredCount(), loaded.Graph.DeclaredCount())
	assert.Equal(t, scan.Graph.EdgeCount(), loaded.Graph.EdgeCount())

	sym, ok := loaded.Graph.Symbol("auth::login")
	require.True(t, ok)
	assert.Equal(t, 3, sym.Complexity)
	assert.Equal(t, []graph.Span{{File: "auth/login.go", StartLine: 4, EndLine: 12}}, sym.Spans)

	callers := loaded.Graph.Callers("auth::login")
	require.Len(t, callers, 1)
	assert.Equal(t, "api::handle", callers[0].ID)
}

func TestLoadPreservesUnresolvedEdges(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Save(fixtureScan("scan-1")))

	loaded, err := store.Load("scan-1")
	require.NoError(t, err)

	sym, ok := loaded.Graph.Symbol("unresolved::render")
	require.True(t, ok)
	assert.Equal(t, graph.OriginUnresolved, sym.Origin)
}

func TestSaveReplacesSameScanID(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Save(fixtureScan("scan-1")))
	require.NoError(t, store.Save(fixtureScan("scan-1")))

	ids, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"scan-1"}, ids)
}

func TestLoadUnknownScan(t *testing.T) {
	store := openStore(t)

	_, err := store.Load("absent")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestListOrdersByStartTime(t *testing.T) {
	store := openStore(t)

	older := fixtureScan("scan-old")
	older.StartedAt = older.StartedAt.Add(-time.Hour)
	require.NoError(t, store.Save(older))
	require.NoError(t, store.Save(fixtureScan("scan-new")))

	ids, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"scan-new", "scan-old"}, ids)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}
