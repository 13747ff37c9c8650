package parser

import "time"

// Mode selects how facts were extracted from a file.
type Mode string

const (
	// ModeAST is a grammar-aware tree-sitter parse.
	ModeAST Mode = "ast"
	// ModeHeuristic is pattern-based extraction used when no grammar applies.
	ModeHeuristic Mode = "heuristic"
)

// Confidence levels by extraction mode and fact class.
const (
	ConfidenceDefinition = 1.0
	ConfidenceCall       = 0.9
	ConfidenceImport     = 0.95
	ConfidenceHeuristic  = 0.5
)

// FileFacts is the raw per-file parser output, before normalization into
// canonical symbols and edges.
type FileFacts struct {
	Path         string
	Language     string
	Mode         Mode
	PackageName  string
	Imports      []ImportFact
	Declarations []Declaration
	References   []ReferenceFact
	LocalSymbols []string // vars, params, receivers; used to filter call noise
	ParsedAt     time.Time
}

type DeclKind string

const (
	KindFunction  DeclKind = "function"
	KindClass     DeclKind = "class"
	KindMethod    DeclKind = "method"
	KindComponent DeclKind = "component"
	KindHook      DeclKind = "hook"
	KindDecorator DeclKind = "decorator"
	KindType      DeclKind = "type"
	// KindPackage is synthesized for import-edge endpoints; parsers never
	// emit it directly.
	KindPackage DeclKind = "package"
)

// Declaration is a named definition found in one file.
type Declaration struct {
	Name       string
	Kind       DeclKind
	Scope      []string // enclosing scope chain, outermost first
	StartLine  int
	EndLine    int
	Exported   bool
	Confidence float64
	Decorators []string

	// Complexity metrics used for hotspot ranking.
	Branches int
	Params   int
	Nesting  int
	LOC      int
}

// ComplexityScore folds the individual metrics into one rank value.
func (d Declaration) ComplexityScore() int {
	score := (d.Branches * 2) + (d.Nesting * 2) + d.Params + (d.LOC / 10)
	if score == 0 {
		score = 1
	}
	return score
}

// ReferenceFact is a call or import usage inside a declaration body.
type ReferenceFact struct {
	Name       string
	Scope      []string // scope chain of the enclosing declaration
	Line       int
	Confidence float64
}

type ImportFact struct {
	Module     string
	Alias      string
	Items      []string // for "from X import a, b"
	Line       int
	Confidence float64
}

// ScopedName joins a scope chain and name into a dotted path.
func ScopedName(scope []string, name string) string {
	full := name
	for i := len(scope) - 1; i >= 0; i-- {
		full = scope[i] + "." + full
	}
	return full
}
