package parser

import (
	"strings"
	"time"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type GoExtractor struct{}

func (e *GoExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*FileFacts, error) {
	file := &FileFacts{
		Path:     filePath,
		Language: "go",
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"package_clause":        e.extractPackage,
		"import_declaration":    e.extractImports,
		"function_declaration":  e.extractFunction,
		"method_declaration":    e.extractMethod,
		"type_declaration":      e.extractType,
		"short_var_declaration": e.extractVarDecl,
		"var_declaration":       e.extractVarDecl,
		"const_declaration":     e.extractVarDecl,
		"parameter_declaration": e.extractParam,
		"range_clause":          e.extractRange,
		"call_expression":       e.extractCall,
	})
	engine.Walk(ctx, root)

	return file, nil
}

func (e *GoExtractor) extractPackage(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "package_identifier" {
			ctx.File.PackageName = ctx.Text(child)
		}
	}
	return true
}

func (e *GoExtractor) extractImports(ctx *ExtractionContext, node *sitter.Node) bool {
	e.walkImports(ctx, node)
	return true
}

func (e *GoExtractor) walkImports(ctx *ExtractionContext, node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		if child.Kind() == "import_spec" {
			var alias, path string
			for j := uint(0); j < child.ChildCount(); j++ {
				spec := child.Child(j)
				switch spec.Kind() {
				case "package_identifier", "_", ".":
					alias = ctx.Text(spec)
				case "interpreted_string_literal", "raw_string_literal":
					path = strings.Trim(ctx.Text(spec), "\"`")
				}
			}
			if path != "" {
				ctx.File.Imports = append(ctx.File.Imports, ImportFact{
					Module: path,
					Alias:  alias,
					Line:   ctx.Line(child),
				})
			}
		} else {
			e.walkImports(ctx, child)
		}
	}
}

func (e *GoExtractor) extractFunction(ctx *ExtractionContext, node *sitter.Node) bool {
	e.extractCallable(ctx, node, KindFunction)
	return false // Continue walking into body
}

func (e *GoExtractor) extractMethod(ctx *ExtractionContext, node *sitter.Node) bool {
	receiver := node.ChildByFieldName("receiver")
	if receiver != nil {
		e.extractParam(ctx, receiver)
	}
	e.extractCallable(ctx, node, KindMethod)
	return false
}

func (e *GoExtractor) extractCallable(ctx *ExtractionContext, node *sitter.Node, kind DeclKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := ctx.Text(nameNode)
	if name == "" {
		return
	}

	scope := ctx.Scope()
	if kind == KindMethod {
		if recv := goReceiverType(ctx, node); recv != "" {
			scope = append(scope, recv)
			// Calls inside the body carry the receiver in their scope chain.
			ctx.EnterScope(recv)
		}
	}

	params := node.ChildByFieldName("parameters")
	paramCount := e.countParameters(params)
	branches, nesting := e.computeComplexity(node.ChildByFieldName("body"), 0)
	loc := ctx.EndLine(node) - ctx.Line(node) + 1
	if loc < 1 {
		loc = 1
	}

	ctx.File.Declarations = append(ctx.File.Declarations, Declaration{
		Name:       name,
		Kind:       kind,
		Scope:      scope,
		StartLine:  ctx.Line(node),
		EndLine:    ctx.EndLine(node),
		Exported:   unicode.IsUpper(rune(name[0])),
		Confidence: ConfidenceDefinition,
		Branches:   branches,
		Params:     paramCount,
		Nesting:    nesting,
		LOC:        loc,
	})

	ctx.File.LocalSymbols = append(ctx.File.LocalSymbols, name)
	ctx.EnterScope(name)
}

func goReceiverType(ctx *ExtractionContext, node *sitter.Node) string {
	receiver := node.ChildByFieldName("receiver")
	if receiver == nil {
		return ""
	}
	var typeName string
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || typeName != "" {
			return
		}
		if n.Kind() == "type_identifier" {
			typeName = ctx.Text(n)
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(receiver)
	return typeName
}

func (e *GoExtractor) countParameters(params *sitter.Node) int {
	if params == nil {
		return 0
	}
	count := 0
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "identifier" {
			count++
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(params)
	return count
}

func (e *GoExtractor) computeComplexity(body *sitter.Node, depth int) (branches int, maxDepth int) {
	if body == nil {
		return 0, depth
	}

	maxDepth = depth
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		childDepth := depth

		switch child.Kind() {
		case "if_statement", "for_statement", "range_clause", "switch_statement",
			"type_switch_statement", "select_statement", "case_clause", "communication_case":
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

func (e *GoExtractor) extractType(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "type_spec" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := ctx.Text(nameNode)
		if name == "" {
			continue
		}
		ctx.File.Declarations = append(ctx.File.Declarations, Declaration{
			Name:       name,
			Kind:       KindType,
			Scope:      ctx.Scope(),
			StartLine:  ctx.Line(child),
			EndLine:    ctx.EndLine(child),
			Exported:   unicode.IsUpper(rune(name[0])),
			Confidence: ConfidenceDefinition,
			LOC:        ctx.EndLine(child) - ctx.Line(child) + 1,
		})
		ctx.File.LocalSymbols = append(ctx.File.LocalSymbols, name)
	}
	return true
}

func (e *GoExtractor) extractVarDecl(ctx *ExtractionContext, node *sitter.Node) bool {
	if node.Kind() == "short_var_declaration" {
		if left := node.ChildByFieldName("left"); left != nil {
			ctx.AppendLocalIdentifiers(left)
		}
		return false
	}
	ctx.AppendLocalIdentifiers(node)
	return false
}

func (e *GoExtractor) extractParam(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "identifier" {
			ctx.File.LocalSymbols = append(ctx.File.LocalSymbols, ctx.Text(child))
		}
	}
	return true
}

func (e *GoExtractor) extractRange(ctx *ExtractionContext, node *sitter.Node) bool {
	if left := node.ChildByFieldName("left"); left != nil {
		ctx.AppendLocalIdentifiers(left)
	}
	return false
}

func (e *GoExtractor) extractCall(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return false
	}

	name := ctx.Text(fn)
	if name == "" || name == "_" {
		return false
	}

	// Keep at most Pkg.Symbol for chained selectors.
	if parts := strings.Split(name, "."); len(parts) > 2 {
		name = parts[0] + "." + parts[1]
	}

	ctx.File.References = append(ctx.File.References, ReferenceFact{
		Name:       name,
		Scope:      ctx.Scope(),
		Line:       ctx.Line(node),
		Confidence: ConfidenceCall,
	})

	return false // walk arguments for nested calls
}
