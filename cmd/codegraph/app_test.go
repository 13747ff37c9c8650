package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codegraph/internal/core/config"
	"codegraph/internal/core/errors"
	"codegraph/internal/engine/graph"
	"codegraph/internal/engine/impact"
	"codegraph/internal/engine/parser"
	"codegraph/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	cfg, err := loadConfig("./codegraph.toml")
	require.NoError(t, err)
	assert.Equal(t, "ast", cfg.Scan.Mode)
}

func TestLoadConfigExplicitPathMustExist(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codegraph.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scan]\nmode = \"heuristic\"\n"), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "heuristic", cfg.Scan.Mode)
}

func TestResolveScanUsesInMemoryStore(t *testing.T) {
	app, err := NewApp(context.Background(), config.Default())
	require.NoError(t, err)
	defer app.Close(context.Background())

	older := &graph.ScanResult{ID: "scan-old", Graph: graph.Restore(nil, nil)}
	newer := &graph.ScanResult{ID: "scan-new", Graph: graph.Restore(nil, nil)}
	app.scans.Add(older)
	app.scans.Add(newer)

	got, err := app.ResolveScan(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "scan-new", got.ID)

	got, err = app.ResolveScan(context.Background(), "", "scan-old")
	require.NoError(t, err)
	assert.Equal(t, "scan-old", got.ID)

	_, err = app.ResolveScan(context.Background(), "", "absent")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestReporterScanPlain(t *testing.T) {
	r := NewReporter(false)
	out := r.Scan(&graph.ScanResult{
		ID:          "scan-1",
		Root:        "/src/app",
		Mode:        parser.ModeAST,
		Languages:   []string{"go", "python"},
		FileCount:   12,
		SymbolCount: 40,
		EdgeCount:   61,
		Elapsed:     120 * time.Millisecond,
		Diagnostics: []graph.Diagnostic{{Path: "big.go", Reason: "exceeds max file size"}},
	})

	assert.Contains(t, out, "scan-1")
	assert.Contains(t, out, "go, python")
	assert.Contains(t, out, "Files: 12  Symbols: 40  Edges: 61")
	assert.Contains(t, out, "big.go: exceeds max file size")
}

func TestReporterResultMarksLowConfidence(t *testing.T) {
	r := NewReporter(false)
	out := r.Result(&query.Result{
		Kind:   query.KindSearch,
		Target: "login",
		Symbols: []query.SymbolSummary{
			{ID: "auth::login", Kind: parser.KindFunction, Origin: graph.OriginDeclared, Confidence: 0.5, File: "auth/login.py", StartLine: 3},
			{ID: "extern::crypto.hash", Kind: parser.KindFunction, Origin: graph.OriginExternal, Confidence: 0.9},
		},
		Truncated: true,
	})

	assert.Contains(t, out, "confidence 0.50")
	assert.Contains(t, out, "[external]")
	assert.Contains(t, out, "(truncated)")
}

func TestReporterTranslationEchoesQuery(t *testing.T) {
	r := NewReporter(false)
	out := r.Translation(query.Request{Kind: query.KindCallers, Target: "login"})

	assert.Equal(t, "resolved query: kind=callers target=login\n", out)
}

func TestReporterImpactPlain(t *testing.T) {
	r := NewReporter(false)
	out := r.Impact(&impact.Report{
		Target:        &graph.Symbol{ID: "auth::login"},
		Reachable:     []*graph.Symbol{{ID: "api::handle", Spans: []graph.Span{{File: "api/handler.go"}}}},
		DirectCallers: 1,
		TestedCallers: 1,
		Coverage:      1.0,
		Packages:      []string{"api", "auth"},
		Risk:          impact.RiskLow,
	})

	assert.Contains(t, out, "Risk: LOW")
	assert.Contains(t, out, "coverage 1.00")
	assert.Contains(t, out, "api::handle")
	assert.False(t, strings.Contains(out, "truncated"))
}
