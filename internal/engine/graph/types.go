package graph

import (
	"strings"
	"time"

	"codegraph/internal/engine/parser"
)

// Origin distinguishes symbols declared in scanned source from stubs
// created for edges whose target lives outside the scan.
type Origin string

const (
	OriginDeclared   Origin = "declared"
	OriginExternal   Origin = "external"
	OriginUnresolved Origin = "unresolved"
)

type EdgeKind string

const (
	EdgeCalls   EdgeKind = "calls"
	EdgeImports EdgeKind = "imports"
	EdgeTests   EdgeKind = "tests"
)

// Resolution qualifies how an edge target was bound.
type Resolution string

const (
	ResolutionResolved  Resolution = "resolved"
	ResolutionExternal  Resolution = "external"
	ResolutionAmbiguous Resolution = "ambiguous"
)

// Span is one declaration site of a symbol.
type Span struct {
	File      string
	StartLine int
	EndLine   int
}

// Symbol is a named declaration in the graph. Identity is ID; a symbol
// declared at the same identifier in several files keeps one record with
// all spans attached.
type Symbol struct {
	ID         string
	Name       string
	Kind       parser.DeclKind
	Package    string // root-relative directory
	Scope      []string
	Spans      []Span
	Language   string
	Origin     Origin
	Exported   bool
	Confidence float64
	Complexity int
	Decorators []string
}

// File returns the primary declaration file, or "" for a stub.
func (s *Symbol) File() string {
	if len(s.Spans) == 0 {
		return ""
	}
	return s.Spans[0].File
}

// TopLevelPackage returns the first segment of the package path.
func (s *Symbol) TopLevelPackage() string {
	pkg := s.Package
	if idx := strings.IndexByte(pkg, '/'); idx >= 0 {
		pkg = pkg[:idx]
	}
	return pkg
}

// Edge is a directed relation between two symbols. For ambiguous edges To
// holds the first candidate and Candidates the full set; callers decide.
type Edge struct {
	Kind       EdgeKind
	From       string
	To         string
	Resolution Resolution
	Candidates []string
	Confidence float64
	File       string
	Line       int
}

// SymbolID composes the canonical fully-qualified identifier from a
// package path, scope chain, and name.
func SymbolID(pkg string, scope []string, name string) string {
	scoped := parser.ScopedName(scope, name)
	if pkg == "" {
		return scoped
	}
	return pkg + "::" + scoped
}

// SplitSymbolID is the inverse of SymbolID.
func SplitSymbolID(id string) (pkg, scoped string) {
	if idx := strings.Index(id, "::"); idx >= 0 {
		return id[:idx], id[idx+2:]
	}
	return "", id
}

// ScanResult is the immutable product of one scan: the graph plus its
// metadata. Queries read it and never mutate it.
type ScanResult struct {
	ID        string
	Root      string
	StartedAt time.Time
	Elapsed   time.Duration
	Languages []string
	Mode      parser.Mode

	FileCount   int
	SymbolCount int
	EdgeCount   int

	Graph       *Graph
	Diagnostics []Diagnostic
}

// Diagnostic records a file that could not be fully processed.
type Diagnostic struct {
	Path   string
	Reason string
}
