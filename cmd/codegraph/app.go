package main

import (
	"context"
	"fmt"

	"codegraph/internal/core/config"
	"codegraph/internal/core/errors"
	"codegraph/internal/data/snapshot"
	"codegraph/internal/engine/audit"
	"codegraph/internal/engine/graph"
	"codegraph/internal/engine/impact"
	"codegraph/internal/engine/scan"
	"codegraph/internal/query"
	"codegraph/internal/shared/observability"
)

// App wires the engine components behind the CLI surface. It owns the
// in-process scan store and the optional on-disk snapshot store.
type App struct {
	cfg       *config.Config
	scanner   *scan.Scanner
	scans     *graph.Store
	queries   *query.Service
	analyzer  *impact.Analyzer
	auditor   *audit.Auditor
	snapshots *snapshot.Store
	report    *Reporter

	shutdownTracing func(context.Context) error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	scanner, err := scan.NewScanner(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:      cfg,
		scanner:  scanner,
		scans:    graph.NewStore(),
		queries:  query.NewService(cfg.Query),
		analyzer: impact.NewAnalyzer(cfg.Impact),
		auditor:  audit.NewAuditor(0),
		report:   NewReporter(!*plain),
	}

	if cfg.Snapshot.Enabled {
		app.snapshots, err = snapshot.Open(cfg.Snapshot.Path)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Observability.OTLPEndpoint != "" {
		app.shutdownTracing, err = observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint)
		if err != nil {
			return nil, err
		}
	}

	return app, nil
}

func (a *App) Close(ctx context.Context) {
	if a.snapshots != nil {
		_ = a.snapshots.Close()
	}
	if a.shutdownTracing != nil {
		_ = a.shutdownTracing(ctx)
	}
}

// ResolveScan produces the scan every other operation runs against:
// a fresh scan of root when given, then the in-memory store, then a
// stored snapshot.
func (a *App) ResolveScan(ctx context.Context, root, scanID string) (*graph.ScanResult, error) {
	if root != "" {
		result, err := a.scanner.Scan(ctx, root)
		if err != nil {
			return nil, err
		}
		a.scans.Add(result)
		if a.snapshots != nil {
			if err := a.snapshots.Save(result); err != nil {
				return nil, err
			}
		}
		return result, nil
	}

	if scanID != "" {
		if result, err := a.scans.Get(scanID); err == nil {
			return result, nil
		}
		if a.snapshots == nil {
			return nil, errors.AddContext(
				errors.New(errors.CodeNotFound, "unknown scan result"), errors.CtxQuery, scanID)
		}
		return a.snapshots.Load(scanID)
	}

	if latest := a.scans.Latest(); latest != nil {
		return latest, nil
	}
	if a.snapshots == nil {
		return nil, errors.New(errors.CodeValidation, "no scan available: pass -scan, or -snapshot to load a stored one")
	}
	ids, err := a.snapshots.List()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errors.New(errors.CodeNotFound, "no snapshots stored yet, run with -scan -snapshot first")
	}
	return a.snapshots.Load(ids[0])
}

func (a *App) RunQuery(ctx context.Context, scanResult *graph.ScanResult, req query.Request) error {
	if req.Kind == query.KindImpact {
		return a.Impact(ctx, scanResult, req.Target)
	}

	result, err := a.queries.Do(ctx, scanResult, req)
	if errors.IsCode(err, errors.CodeAmbiguous) && result != nil {
		fmt.Print(a.report.Ambiguous(req.Target, result.Symbols))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Print(a.report.Result(result))
	return nil
}

// Ask translates a question, echoes the structured query it resolved
// to, then runs it.
func (a *App) Ask(ctx context.Context, scanResult *graph.ScanResult, question string) error {
	req, err := query.Translate(question)
	if err != nil {
		return err
	}
	fmt.Print(a.report.Translation(req))
	return a.RunQuery(ctx, scanResult, req)
}

func (a *App) Impact(ctx context.Context, scanResult *graph.ScanResult, ref string) error {
	target, candidates, err := a.queries.Resolve(scanResult, ref)
	if errors.IsCode(err, errors.CodeAmbiguous) {
		fmt.Print(a.report.Ambiguous(ref, candidates))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Print(a.report.Impact(a.analyzer.Analyze(ctx, scanResult, target)))
	return nil
}

func (a *App) Audit(scanResult *graph.ScanResult) {
	fmt.Print(a.report.Audit(a.auditor.Audit(scanResult)))
}

func (a *App) ValidateTags(path string) error {
	findings, err := audit.ValidateTags(path)
	if err != nil {
		return err
	}
	fmt.Print(a.report.Findings(path, findings))
	if len(findings) > 0 {
		return errors.New(errors.CodeTagSyntax, fmt.Sprintf("%d tag violations", len(findings)))
	}
	return nil
}
