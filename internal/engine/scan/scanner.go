package scan

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"codegraph/internal/core/config"
	"codegraph/internal/core/errors"
	"codegraph/internal/engine/facts"
	"codegraph/internal/engine/graph"
	"codegraph/internal/engine/parser"
	"codegraph/internal/engine/walker"
	"codegraph/internal/shared/observability"
	"codegraph/internal/shared/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Scanner runs the full pipeline for one root: walk, parse, normalize,
// build. Each call produces a fresh immutable ScanResult.
type Scanner struct {
	cfg     *config.Config
	parser  *parser.Parser
	walker  *walker.Walker
	limiter *util.Limiter
}

func NewScanner(cfg *config.Config) (*Scanner, error) {
	grammars, err := parser.NewGrammarSet(cfg.LanguageEnabled)
	if err != nil {
		return nil, err
	}
	p := parser.NewParser(grammars, parser.Mode(cfg.Scan.Mode))

	w, err := walker.New(cfg.Exclude.Dirs, cfg.Exclude.Files, p.IsSupportedPath, cfg.Scan.MaxFileSize)
	if err != nil {
		return nil, err
	}

	var limiter *util.Limiter
	if cfg.Scan.ReadRate > 0 {
		limiter = util.NewLimiter(cfg.Scan.ReadRate, cfg.Scan.ReadBurst)
	}

	return &Scanner{cfg: cfg, parser: p, walker: w, limiter: limiter}, nil
}

// Scan walks root and builds its graph. Per-file failures become
// diagnostics on the result; only a bad root or cancellation is fatal.
func (s *Scanner) Scan(ctx context.Context, root string) (*graph.ScanResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "scan")
	defer span.End()
	span.SetAttributes(attribute.String("scan.root", root))

	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "cannot resolve scan root")
	}

	files, skipped, err := s.walker.Walk(absRoot)
	if err != nil {
		return nil, err
	}

	extractor := facts.NewExtractor(absRoot, s.cfg.Tests)

	// Parse fans out over a bounded worker pool; results land in
	// per-index slots so no ordering is lost and no lock is needed.
	records := make([]*graph.FileInput, len(files))
	diags := make([]*graph.Diagnostic, len(files))

	pool, pctx := errgroup.WithContext(ctx)
	pool.SetLimit(s.cfg.Scan.Concurrency)

	for i, path := range files {
		pool.Go(func() error {
			if err := pctx.Err(); err != nil {
				return err
			}
			if err := s.limiter.Wait(pctx, 1); err != nil {
				return err
			}

			content, err := os.ReadFile(path)
			if err != nil {
				diags[i] = &graph.Diagnostic{Path: path, Reason: err.Error()}
				return nil
			}

			observability.ScannedFilesTotal.Inc()
			fileFacts, err := s.parser.ParseFile(path, content)
			if err != nil {
				diags[i] = &graph.Diagnostic{Path: path, Reason: err.Error()}
				slog.Debug("file not parsed", "path", path, "error", err)
				return nil
			}

			records[i] = extractor.Normalize(fileFacts)
			return nil
		})
	}

	if err := pool.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "scan aborted")
	}

	builder := graph.NewBuilder(extractor.IsTestSymbol)
	languages := make(map[string]bool)
	parsed := 0
	for _, rec := range records {
		if rec == nil {
			continue
		}
		parsed++
		languages[rec.Language] = true
		builder.Add(rec)
	}

	g := builder.Build()

	result := &graph.ScanResult{
		ID:          uuid.NewString(),
		Root:        absRoot,
		StartedAt:   start,
		Elapsed:     time.Since(start),
		Languages:   util.SortedStringKeys(languages),
		Mode:        s.parser.Mode(),
		FileCount:   parsed,
		SymbolCount: g.DeclaredCount(),
		EdgeCount:   g.EdgeCount(),
		Graph:       g,
	}

	for _, skip := range skipped {
		result.Diagnostics = append(result.Diagnostics, graph.Diagnostic{Path: skip.Path, Reason: skip.Reason})
	}
	for _, diag := range diags {
		if diag != nil {
			result.Diagnostics = append(result.Diagnostics, *diag)
		}
	}
	sort.Slice(result.Diagnostics, func(i, j int) bool {
		return result.Diagnostics[i].Path < result.Diagnostics[j].Path
	})

	observability.ScanDuration.Observe(result.Elapsed.Seconds())
	observability.UnparsedFilesTotal.Add(float64(len(result.Diagnostics)))
	observability.GraphSymbols.Set(float64(result.SymbolCount))
	observability.GraphEdges.Set(float64(result.EdgeCount))

	slog.Info("scan complete",
		"root", absRoot,
		"files", result.FileCount,
		"symbols", result.SymbolCount,
		"edges", result.EdgeCount,
		"diagnostics", len(result.Diagnostics),
		"elapsed", result.Elapsed)

	return result, nil
}
