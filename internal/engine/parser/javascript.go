package parser

import (
	"strings"
	"time"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// JSExtractor covers javascript, typescript, and tsx.
type JSExtractor struct{}

func (e *JSExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*FileFacts, error) {
	file := &FileFacts{
		Path:     filePath,
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_statement":               e.extractImport,
		"function_declaration":           e.extractFunction,
		"generator_function_declaration": e.extractFunction,
		"class_declaration":              e.extractClass,
		"method_definition":              e.extractMethod,
		"lexical_declaration":            e.extractVarDecl,
		"variable_declaration":           e.extractVarDecl,
		"call_expression":                e.extractCall,
		"formal_parameters":              e.extractParams,
	})
	engine.Walk(ctx, root)

	return file, nil
}

func (e *JSExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	var module string
	var items []string
	var alias string

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "string":
			module = strings.Trim(ctx.Text(child), "\"'`")
		case "import_clause":
			for j := uint(0); j < child.ChildCount(); j++ {
				clause := child.Child(j)
				switch clause.Kind() {
				case "identifier": // default import
					items = append(items, ctx.Text(clause))
				case "named_imports":
					e.collectNamedImports(ctx, clause, &items)
				case "namespace_import":
					for k := uint(0); k < clause.ChildCount(); k++ {
						if clause.Child(k).Kind() == "identifier" {
							alias = ctx.Text(clause.Child(k))
						}
					}
				}
			}
		}
	}

	if module != "" {
		ctx.File.Imports = append(ctx.File.Imports, ImportFact{
			Module: module,
			Alias:  alias,
			Items:  items,
			Line:   ctx.Line(node),
		})
	}
	return true
}

func (e *JSExtractor) collectNamedImports(ctx *ExtractionContext, node *sitter.Node, items *[]string) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "import_specifier" {
			if name := ctx.ChildText(child, "identifier"); name != "" {
				*items = append(*items, name)
			}
		}
	}
}

func (e *JSExtractor) extractFunction(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.ChildText(node, "identifier")
	if name == "" {
		return false
	}
	e.addCallable(ctx, node, name, e.classifyCallable(name, node))
	return false
}

func (e *JSExtractor) extractClass(ctx *ExtractionContext, node *sitter.Node) bool {
	var name string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "identifier" || child.Kind() == "type_identifier" {
			name = ctx.Text(child)
			break
		}
	}
	if name == "" {
		return false
	}

	ctx.File.Declarations = append(ctx.File.Declarations, Declaration{
		Name:       name,
		Kind:       KindClass,
		Scope:      ctx.Scope(),
		StartLine:  ctx.Line(node),
		EndLine:    ctx.EndLine(node),
		Exported:   true,
		Confidence: ConfidenceDefinition,
		LOC:        ctx.EndLine(node) - ctx.Line(node) + 1,
	})
	ctx.File.LocalSymbols = append(ctx.File.LocalSymbols, name)
	ctx.EnterScope(name)
	return false
}

func (e *JSExtractor) extractMethod(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.ChildText(node, "property_identifier")
	if name == "" {
		return false
	}
	e.addCallable(ctx, node, name, KindMethod)
	return false
}

// extractVarDecl handles `const f = () => {}` and plain variable bindings.
func (e *JSExtractor) extractVarDecl(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "variable_declarator" {
			continue
		}
		name := ctx.ChildText(child, "identifier")
		if name == "" {
			continue
		}
		value := child.ChildByFieldName("value")
		if value != nil && (value.Kind() == "arrow_function" || value.Kind() == "function_expression" || value.Kind() == "function") {
			e.addCallable(ctx, child, name, e.classifyCallable(name, value))
			continue
		}
		ctx.File.LocalSymbols = append(ctx.File.LocalSymbols, name)
	}
	return false
}

func (e *JSExtractor) extractParams(ctx *ExtractionContext, node *sitter.Node) bool {
	ctx.AppendLocalIdentifiers(node)
	return true
}

func (e *JSExtractor) extractCall(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return false
	}
	name := ctx.Text(fn)
	if name == "" || name == "require" || name == "import" {
		return false
	}
	if parts := strings.Split(name, "."); len(parts) > 2 {
		name = parts[0] + "." + parts[1]
	}
	ctx.File.References = append(ctx.File.References, ReferenceFact{
		Name:       name,
		Scope:      ctx.Scope(),
		Line:       ctx.Line(node),
		Confidence: ConfidenceCall,
	})
	return false
}

func (e *JSExtractor) addCallable(ctx *ExtractionContext, node *sitter.Node, name string, kind DeclKind) {
	params := node.ChildByFieldName("parameters")
	branches, nesting := e.computeComplexity(node.ChildByFieldName("body"), 0)
	loc := ctx.EndLine(node) - ctx.Line(node) + 1
	if loc < 1 {
		loc = 1
	}

	ctx.File.Declarations = append(ctx.File.Declarations, Declaration{
		Name:       name,
		Kind:       kind,
		Scope:      ctx.Scope(),
		StartLine:  ctx.Line(node),
		EndLine:    ctx.EndLine(node),
		Exported:   !strings.HasPrefix(name, "_"),
		Confidence: ConfidenceDefinition,
		Branches:   branches,
		Params:     e.countParams(params),
		Nesting:    nesting,
		LOC:        loc,
	})
	ctx.File.LocalSymbols = append(ctx.File.LocalSymbols, name)
	ctx.EnterScope(name)
}

// classifyCallable distinguishes React components and hooks from plain
// functions by naming convention and JSX presence.
func (e *JSExtractor) classifyCallable(name string, body *sitter.Node) DeclKind {
	if isHookName(name) {
		return KindHook
	}
	if len(name) > 0 && unicode.IsUpper(rune(name[0])) && containsJSX(body) {
		return KindComponent
	}
	return KindFunction
}

func isHookName(name string) bool {
	if !strings.HasPrefix(name, "use") || len(name) < 4 {
		return false
	}
	return unicode.IsUpper(rune(name[3]))
}

func containsJSX(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	kind := node.Kind()
	if kind == "jsx_element" || kind == "jsx_self_closing_element" || kind == "jsx_fragment" {
		return true
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if containsJSX(node.Child(i)) {
			return true
		}
	}
	return false
}

func (e *JSExtractor) countParams(params *sitter.Node) int {
	if params == nil {
		return 0
	}
	count := 0
	for i := uint(0); i < params.ChildCount(); i++ {
		switch params.Child(i).Kind() {
		case "identifier", "required_parameter", "optional_parameter",
			"object_pattern", "array_pattern", "rest_pattern", "assignment_pattern":
			count++
		}
	}
	return count
}

func (e *JSExtractor) computeComplexity(node *sitter.Node, depth int) (branches int, maxDepth int) {
	if node == nil {
		return 0, depth
	}

	maxDepth = depth
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		childDepth := depth

		switch child.Kind() {
		case "if_statement", "for_statement", "for_in_statement", "while_statement",
			"switch_statement", "try_statement", "catch_clause", "ternary_expression":
			branches++
			childDepth = depth + 1
		}

		subBranches, subDepth := e.computeComplexity(child, childDepth)
		branches += subBranches
		if subDepth > maxDepth {
			maxDepth = subDepth
		}
	}

	return branches, maxDepth
}
