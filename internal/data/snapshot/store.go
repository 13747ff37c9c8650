package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"codegraph/internal/core/errors"
	"codegraph/internal/engine/graph"
	"codegraph/internal/engine/parser"
	"codegraph/internal/shared/observability"
)

const driverName = "sqlite"

// Store persists scan results to a sqlite file so a graph survives
// process restarts. One writer at a time; WAL keeps readers unblocked.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, errors.New(errors.CodeValidation, "snapshot path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, errors.AddContext(
			errors.New(errors.CodeValidation, "snapshot path is a directory, expected file"),
			errors.CtxPath, cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeIO, "create snapshot directory"), errors.CtxPath, dir)
		}
	}

	// busy_timeout + WAL reduce lock conflicts when queries read while a
	// fresh scan is being written.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "open snapshot database"), errors.CtxPath, cleanPath)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "ping snapshot database"), errors.CtxPath, cleanPath)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeInternal, "initialize snapshot schema"), errors.CtxPath, cleanPath)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Save writes one scan result, replacing any previous snapshot with the
// same scan ID.
func (s *Store) Save(scan *graph.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		observability.SnapshotWriteDuration.Observe(time.Since(start).Seconds())
	}()

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "begin snapshot transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM scans WHERE id = ?`, scan.ID); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "clear previous snapshot")
	}

	if _, err := tx.Exec(`
INSERT INTO scans (id, root, started_at_utc, elapsed_ns, mode, languages, file_count, symbol_count, edge_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.ID,
		scan.Root,
		scan.StartedAt.UTC().Format(time.RFC3339Nano),
		scan.Elapsed.Nanoseconds(),
		string(scan.Mode),
		strings.Join(scan.Languages, ","),
		scan.FileCount,
		scan.SymbolCount,
		scan.EdgeCount,
	); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "insert scan row")
	}

	symStmt, err := tx.Prepare(`
INSERT INTO symbols (scan_id, id, name, kind, package, scope, language, origin, exported, confidence, complexity, spans, decorators)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "prepare symbol insert")
	}
	defer symStmt.Close()

	for _, sym := range scan.Graph.Symbols() {
		spans, err := json.Marshal(sym.Spans)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "encode symbol spans")
		}
		if _, err := symStmt.Exec(
			scan.ID,
			sym.ID,
			sym.Name,
			string(sym.Kind),
			sym.Package,
			strings.Join(sym.Scope, "."),
			sym.Language,
			string(sym.Origin),
			boolInt(sym.Exported),
			sym.Confidence,
			sym.Complexity,
			string(spans),
			strings.Join(sym.Decorators, ","),
		); err != nil {
			return errors.AddContext(
				errors.Wrap(err, errors.CodeInternal, "insert symbol row"), errors.CtxSymbol, sym.ID)
		}
	}

	edgeStmt, err := tx.Prepare(`
INSERT INTO edges (scan_id, seq, kind, from_id, to_id, resolution, candidates, confidence, file, line)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "prepare edge insert")
	}
	defer edgeStmt.Close()

	for seq, edge := range scan.Graph.Edges() {
		if _, err := edgeStmt.Exec(
			scan.ID,
			seq,
			string(edge.Kind),
			edge.From,
			edge.To,
			string(edge.Resolution),
			strings.Join(edge.Candidates, ","),
			edge.Confidence,
			edge.File,
			edge.Line,
		); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "insert edge row")
		}
	}

	for _, diag := range scan.Diagnostics {
		if _, err := tx.Exec(`
INSERT OR REPLACE INTO diagnostics (scan_id, path, reason) VALUES (?, ?, ?)`,
			scan.ID, diag.Path, diag.Reason); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "insert diagnostic row")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "commit snapshot")
	}
	return nil
}

// Load reconstructs a scan result by ID.
func (s *Store) Load(id string) (*graph.ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scan := &graph.ScanResult{ID: id}
	var (
		startedRaw string
		elapsedNS  int64
		mode       string
		languages  string
	)
	err := s.db.QueryRow(`
SELECT root, started_at_utc, elapsed_ns, mode, languages, file_count, symbol_count, edge_count
FROM scans WHERE id = ?`, id).Scan(
		&scan.Root, &startedRaw, &elapsedNS, &mode, &languages,
		&scan.FileCount, &scan.SymbolCount, &scan.EdgeCount,
	)
	if err == sql.ErrNoRows {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotFound, "snapshot not found"), "scan_id", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "read scan row")
	}

	if scan.StartedAt, err = time.Parse(time.RFC3339Nano, startedRaw); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "parse scan timestamp")
	}
	scan.Elapsed = time.Duration(elapsedNS)
	scan.Mode = parser.Mode(mode)
	scan.Languages = splitList(languages)

	symbols, err := s.loadSymbols(id)
	if err != nil {
		return nil, err
	}
	edges, err := s.loadEdges(id)
	if err != nil {
		return nil, err
	}
	if scan.Diagnostics, err = s.loadDiagnostics(id); err != nil {
		return nil, err
	}

	scan.Graph = graph.Restore(symbols, edges)
	return scan, nil
}

// List returns the stored scan IDs, most recent first.
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id FROM scans ORDER BY started_at_utc DESC, id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list snapshots")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "scan snapshot id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) loadSymbols(scanID string) ([]*graph.Symbol, error) {
	rows, err := s.db.Query(`
SELECT id, name, kind, package, scope, language, origin, exported, confidence, complexity, spans, decorators
FROM symbols WHERE scan_id = ?`, scanID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load symbol rows")
	}
	defer rows.Close()

	var symbols []*graph.Symbol
	for rows.Next() {
		var (
			sym        graph.Symbol
			kind       string
			scope      string
			origin     string
			exported   int
			spansRaw   string
			decorators string
		)
		if err := rows.Scan(
			&sym.ID, &sym.Name, &kind, &sym.Package, &scope, &sym.Language,
			&origin, &exported, &sym.Confidence, &sym.Complexity, &spansRaw, &decorators,
		); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "scan symbol row")
		}
		sym.Kind = parser.DeclKind(kind)
		sym.Origin = graph.Origin(origin)
		sym.Exported = exported != 0
		if scope != "" {
			sym.Scope = strings.Split(scope, ".")
		}
		sym.Decorators = splitList(decorators)
		if err := json.Unmarshal([]byte(spansRaw), &sym.Spans); err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeInternal, "decode symbol spans"), errors.CtxSymbol, sym.ID)
		}
		symbols = append(symbols, &sym)
	}
	return symbols, rows.Err()
}

func (s *Store) loadEdges(scanID string) ([]graph.Edge, error) {
	rows, err := s.db.Query(`
SELECT kind, from_id, to_id, resolution, candidates, confidence, file, line
FROM edges WHERE scan_id = ? ORDER BY seq`, scanID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load edge rows")
	}
	defer rows.Close()

	var edges []graph.Edge
	for rows.Next() {
		var (
			edge       graph.Edge
			kind       string
			resolution string
			candidates string
		)
		if err := rows.Scan(
			&kind, &edge.From, &edge.To, &resolution, &candidates,
			&edge.Confidence, &edge.File, &edge.Line,
		); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "scan edge row")
		}
		edge.Kind = graph.EdgeKind(kind)
		edge.Resolution = graph.Resolution(resolution)
		edge.Candidates = splitList(candidates)
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

func (s *Store) loadDiagnostics(scanID string) ([]graph.Diagnostic, error) {
	rows, err := s.db.Query(`
SELECT path, reason FROM diagnostics WHERE scan_id = ? ORDER BY path`, scanID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load diagnostic rows")
	}
	defer rows.Close()

	var diags []graph.Diagnostic
	for rows.Next() {
		var d graph.Diagnostic
		if err := rows.Scan(&d.Path, &d.Reason); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "scan diagnostic row")
		}
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
