package facts

import (
	"path/filepath"
	"strings"

	"codegraph/internal/core/config"
	"codegraph/internal/engine/graph"
	"codegraph/internal/engine/parser"
)

// Extractor normalizes raw parser facts into canonical symbols and
// pending edges, assigning fully-qualified identifiers.
type Extractor struct {
	root  string
	tests config.Tests
}

func NewExtractor(root string, tests config.Tests) *Extractor {
	return &Extractor{root: root, tests: tests}
}

// Normalize converts one file's parser facts. Symbol IDs compose the
// root-relative package path, the enclosing scope chain, and the name.
func (e *Extractor) Normalize(facts *parser.FileFacts) *graph.FileInput {
	rel := e.relPath(facts.Path)
	pkg := filepath.ToSlash(filepath.Dir(rel))
	if pkg == "." {
		pkg = ""
	}

	rec := &graph.FileInput{
		Path:     rel,
		Package:  pkg,
		Language: facts.Language,
		Mode:     facts.Mode,
		IsTest:   e.IsTestFile(rel),
	}

	// Declared symbols, keyed by scoped name for same-file resolution.
	byScoped := make(map[string]*graph.Symbol, len(facts.Declarations))
	topLevel := make(map[string]*graph.Symbol)
	for _, decl := range facts.Declarations {
		id := graph.SymbolID(pkg, decl.Scope, decl.Name)
		sym := &graph.Symbol{
			ID:      id,
			Name:    decl.Name,
			Kind:    decl.Kind,
			Package: pkg,
			Scope:   decl.Scope,
			Spans: []graph.Span{{
				File:      rel,
				StartLine: decl.StartLine,
				EndLine:   decl.EndLine,
			}},
			Language:   facts.Language,
			Origin:     graph.OriginDeclared,
			Exported:   decl.Exported,
			Confidence: decl.Confidence,
			Complexity: decl.ComplexityScore(),
			Decorators: decl.Decorators,
		}
		rec.Symbols = append(rec.Symbols, sym)
		byScoped[parser.ScopedName(decl.Scope, decl.Name)] = sym
		if len(decl.Scope) == 0 {
			topLevel[decl.Name] = sym
		}
	}

	aliases := importAliases(facts.Imports)

	for _, imp := range facts.Imports {
		rec.Imports = append(rec.Imports, graph.Import{
			Module:     imp.Module,
			Line:       imp.Line,
			Confidence: imp.Confidence,
		})
	}

	for _, ref := range facts.References {
		from := enclosingSymbol(byScoped, ref.Scope)
		fromID := ""
		if from != nil {
			fromID = from.ID
		}

		call := graph.Call{
			FromID:     fromID,
			Name:       ref.Name,
			File:       rel,
			Line:       ref.Line,
			Confidence: ref.Confidence,
		}

		base, member, qualified := splitQualified(ref.Name)
		if qualified {
			if module, ok := aliases[base]; ok {
				// Imported reference: best-guess module for cross-file
				// resolution by the builder.
				call.Name = member
				call.Module = module
			}
		} else if target := resolveSameFile(byScoped, topLevel, ref.Scope, ref.Name); target != nil {
			call.ToID = target.ID
		} else if module, ok := aliases[ref.Name]; ok {
			call.Module = module
		}

		rec.Calls = append(rec.Calls, call)
	}

	return rec
}

// IsTestFile reports whether a root-relative path matches the configured
// test file conventions.
func (e *Extractor) IsTestFile(rel string) bool {
	base := filepath.Base(rel)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for _, suffix := range e.tests.FileSuffixes {
		if strings.HasSuffix(stem, suffix) || strings.HasSuffix(base, suffix) {
			return true
		}
	}
	for _, prefix := range e.tests.FilePrefixes {
		if strings.HasPrefix(base, prefix) {
			return true
		}
	}
	return false
}

// IsTestSymbol reports whether a declared name follows a test naming
// convention (e.g. TestLogin, test_login).
func (e *Extractor) IsTestSymbol(name string) bool {
	for _, prefix := range e.tests.NamePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func (e *Extractor) relPath(path string) string {
	rel, err := filepath.Rel(e.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// importAliases maps the local binding name of each import to its module.
func importAliases(imports []parser.ImportFact) map[string]string {
	aliases := make(map[string]string, len(imports))
	for _, imp := range imports {
		name := imp.Alias
		if name == "" {
			segments := strings.Split(strings.TrimSuffix(imp.Module, "/"), "/")
			name = segments[len(segments)-1]
			// Dotted module paths (python, java) bind their last segment.
			if idx := strings.LastIndex(name, "."); idx >= 0 {
				name = name[idx+1:]
			}
		}
		if name == "_" || name == "." {
			continue
		}
		aliases[name] = imp.Module
		for _, item := range imp.Items {
			aliases[item] = imp.Module
		}
	}
	return aliases
}

// enclosingSymbol finds the innermost declared symbol whose scoped name
// matches the reference's scope chain.
func enclosingSymbol(byScoped map[string]*graph.Symbol, scope []string) *graph.Symbol {
	for end := len(scope); end > 0; end-- {
		chain := scope[:end]
		key := parser.ScopedName(chain[:len(chain)-1], chain[len(chain)-1])
		if sym, ok := byScoped[key]; ok {
			return sym
		}
	}
	return nil
}

// resolveSameFile binds an unqualified reference to a declaration in the
// same file, innermost scope first, then top level.
func resolveSameFile(byScoped, topLevel map[string]*graph.Symbol, scope []string, name string) *graph.Symbol {
	for end := len(scope); end >= 0; end-- {
		key := parser.ScopedName(scope[:end], name)
		if sym, ok := byScoped[key]; ok {
			return sym
		}
	}
	return topLevel[name]
}

func splitQualified(name string) (base, member string, ok bool) {
	idx := strings.IndexByte(name, '.')
	if idx <= 0 || idx == len(name)-1 {
		return name, "", false
	}
	return name[:idx], name[idx+1:], true
}
