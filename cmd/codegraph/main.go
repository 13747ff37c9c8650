package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"codegraph/internal/core/config"
	"codegraph/internal/core/errors"
	"codegraph/internal/query"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	configPath   = flag.String("config", "./codegraph.toml", "Path to config file")
	scanRoot     = flag.String("scan", "", "Scan a source root and build its graph")
	queryKind    = flag.String("query", "", "Structured query kind: callers|callees|tests-for|search|dependencies|orphans")
	symbolRef    = flag.String("symbol", "", "Symbol reference or name pattern for -query")
	ask          = flag.String("ask", "", "Free-text question, translated to a structured query")
	impactRef    = flag.String("impact", "", "Analyze change impact for a symbol reference")
	auditFlag    = flag.Bool("audit", false, "Run the health audit over the scan")
	validateTags = flag.String("validate-tags", "", "Validate reference tags under a file or directory")
	snapshotFlag = flag.Bool("snapshot", false, "Persist the scan, or load the latest snapshot when no -scan is given")
	scanID       = flag.String("scan-id", "", "Load a specific snapshot by scan ID instead of the latest")
	metricsAddr  = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	plain        = flag.Bool("plain", false, "Disable styled output")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	version      = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("codegraph v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *metricsAddr != "" {
		cfg.Observability.MetricsAddr = *metricsAddr
	}
	if *snapshotFlag {
		cfg.Snapshot.Enabled = true
	}

	ctx := context.Background()

	if cfg.Observability.MetricsAddr != "" {
		go serveMetrics(cfg.Observability.MetricsAddr)
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close(ctx)

	// Tag validation needs no graph; handle it before resolving a scan.
	if *validateTags != "" {
		if err := app.ValidateTags(*validateTags); err != nil {
			fail(err)
		}
		os.Exit(0)
	}

	if *scanRoot == "" && *queryKind == "" && *ask == "" && *impactRef == "" && !*auditFlag {
		flag.Usage()
		os.Exit(2)
	}

	scan, err := app.ResolveScan(ctx, *scanRoot, *scanID)
	if err != nil {
		fail(err)
	}
	if *scanRoot != "" {
		fmt.Print(app.report.Scan(scan))
	}

	switch {
	case *queryKind != "":
		req := query.Request{Kind: query.Kind(*queryKind), Target: *symbolRef, Pattern: *symbolRef}
		if err := app.RunQuery(ctx, scan, req); err != nil {
			fail(err)
		}
	case *ask != "":
		if err := app.Ask(ctx, scan, *ask); err != nil {
			fail(err)
		}
	case *impactRef != "":
		if err := app.Impact(ctx, scan, *impactRef); err != nil {
			fail(err)
		}
	case *auditFlag:
		app.Audit(scan)
	}
}

// loadConfig falls back to built-in defaults when the default config
// path does not exist; an explicit -config must load.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if os.IsNotExist(err) && path == "./codegraph.toml" {
		return config.Default(), nil
	}
	return nil, err
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server stopped", "error", err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	if errors.IsCode(err, errors.CodeUnsupportedQuery) {
		fmt.Fprintln(os.Stderr, "\nSupported questions:")
		for _, shape := range query.SupportedQuestions() {
			fmt.Fprintf(os.Stderr, "  %s\n", shape)
		}
	}
	os.Exit(1)
}
