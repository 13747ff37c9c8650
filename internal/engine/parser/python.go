package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type PythonExtractor struct{}

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*FileFacts, error) {
	file := &FileFacts{
		Path:     filePath,
		Language: "python",
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_statement":      e.extractImport,
		"import_from_statement": e.extractFromImport,
		"function_definition":   e.extractFunction,
		"class_definition":      e.extractClass,
		"assignment":            e.extractAssignment,
		"augmented_assignment":  e.extractAssignment,
		"for_statement":         e.extractFor,
		"call":                  e.extractCall,
	})
	engine.Walk(ctx, root)

	return file, nil
}

func (e *PythonExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "dotted_name", "identifier":
			ctx.File.Imports = append(ctx.File.Imports, ImportFact{
				Module: ctx.Text(child),
				Line:   ctx.Line(child),
			})
		case "aliased_import":
			var module, alias string
			for j := uint(0); j < child.ChildCount(); j++ {
				sub := child.Child(j)
				if sub.Kind() == "dotted_name" || sub.Kind() == "identifier" {
					if module == "" {
						module = ctx.Text(sub)
					} else {
						alias = ctx.Text(sub)
					}
				}
			}
			ctx.File.Imports = append(ctx.File.Imports, ImportFact{
				Module: module,
				Alias:  alias,
				Line:   ctx.Line(child),
			})
		}
	}
	return true
}

func (e *PythonExtractor) extractFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	var module string
	var items []string

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "relative_import":
			module = strings.TrimLeft(ctx.Text(child), ".")
		case "dotted_name", "identifier":
			if module == "" {
				module = ctx.Text(child)
			} else {
				items = append(items, ctx.Text(child))
			}
		case "import_list", "aliased_import":
			e.collectItems(ctx, child, &items)
		}
	}

	ctx.File.Imports = append(ctx.File.Imports, ImportFact{
		Module: module,
		Items:  items,
		Line:   ctx.Line(node),
	})
	return true
}

func (e *PythonExtractor) collectItems(ctx *ExtractionContext, node *sitter.Node, items *[]string) {
	kind := node.Kind()
	if kind == "identifier" || kind == "dotted_name" {
		*items = append(*items, ctx.Text(node))
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.collectItems(ctx, node.Child(i), items)
	}
}

func (e *PythonExtractor) extractFunction(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.ChildText(node, "identifier")
	if name == "" {
		return false
	}

	params := node.ChildByFieldName("parameters")
	if params != nil {
		ctx.AppendLocalIdentifiers(params)
	}

	paramCount := e.countParameters(params)
	branches, nesting := e.computeComplexity(node.ChildByFieldName("body"), 0)
	loc := ctx.EndLine(node) - ctx.Line(node) + 1
	if loc < 1 {
		loc = 1
	}

	kind := KindFunction
	if enclosedByClass(node) {
		kind = KindMethod
	}
	decorators := e.decorators(ctx, node)
	for _, dec := range decorators {
		// property/classmethod wrappers stay methods; a bare decorator
		// definition is recognized by its wrapped inner function.
		if dec == "staticmethod" || dec == "classmethod" {
			kind = KindMethod
		}
	}

	ctx.File.Declarations = append(ctx.File.Declarations, Declaration{
		Name:       name,
		Kind:       kind,
		Scope:      ctx.Scope(),
		StartLine:  ctx.Line(node),
		EndLine:    ctx.EndLine(node),
		Exported:   !strings.HasPrefix(name, "_"),
		Confidence: ConfidenceDefinition,
		Decorators: decorators,
		Branches:   branches,
		Params:     paramCount,
		Nesting:    nesting,
		LOC:        loc,
	})

	ctx.File.LocalSymbols = append(ctx.File.LocalSymbols, name)
	ctx.EnterScope(name)
	return false
}

func enclosedByClass(node *sitter.Node) bool {
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "class_definition":
			return true
		case "function_definition":
			return false
		}
	}
	return false
}

func (e *PythonExtractor) extractClass(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.ChildText(node, "identifier")
	if name == "" {
		return false
	}

	ctx.File.Declarations = append(ctx.File.Declarations, Declaration{
		Name:       name,
		Kind:       KindClass,
		Scope:      ctx.Scope(),
		StartLine:  ctx.Line(node),
		EndLine:    ctx.EndLine(node),
		Exported:   !strings.HasPrefix(name, "_"),
		Confidence: ConfidenceDefinition,
		Decorators: e.decorators(ctx, node),
		LOC:        ctx.EndLine(node) - ctx.Line(node) + 1,
	})

	ctx.File.LocalSymbols = append(ctx.File.LocalSymbols, name)
	ctx.EnterScope(name)
	return false
}

func (e *PythonExtractor) extractAssignment(ctx *ExtractionContext, node *sitter.Node) bool {
	if left := node.ChildByFieldName("left"); left != nil {
		ctx.AppendLocalIdentifiers(left)
	}
	return false
}

func (e *PythonExtractor) extractFor(ctx *ExtractionContext, node *sitter.Node) bool {
	if left := node.ChildByFieldName("left"); left != nil {
		ctx.AppendLocalIdentifiers(left)
	}
	return false
}

func (e *PythonExtractor) extractCall(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "attribute" && child.Kind() != "identifier" {
			continue
		}
		name := ctx.Text(child)
		if name == "" || strings.HasPrefix(name, "self.") {
			continue
		}
		ctx.File.References = append(ctx.File.References, ReferenceFact{
			Name:       name,
			Scope:      ctx.Scope(),
			Line:       ctx.Line(child),
			Confidence: ConfidenceCall,
		})
	}
	return false
}

func (e *PythonExtractor) countParameters(params *sitter.Node) int {
	if params == nil {
		return 0
	}
	count := 0
	for i := uint(0); i < params.ChildCount(); i++ {
		if e.isParameterNode(params.Child(i)) {
			count++
		}
	}
	return count
}

func (e *PythonExtractor) isParameterNode(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind() {
	case "identifier", "typed_parameter", "default_parameter",
		"typed_default_parameter", "list_splat_pattern", "dictionary_splat_pattern":
		return true
	case ",", "(", ")", "*", "/":
		return false
	}
	kind := node.Kind()
	return strings.HasSuffix(kind, "_parameter") || strings.HasSuffix(kind, "_pattern")
}

func (e *PythonExtractor) computeComplexity(node *sitter.Node, depth int) (branches int, maxDepth int) {
	if node == nil {
		return 0, depth
	}

	maxDepth = depth
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		childDepth := depth

		switch child.Kind() {
		case "if_statement", "elif_clause", "for_statement", "while_statement",
			"try_statement", "except_clause", "with_statement", "match_statement":
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

func (e *PythonExtractor) decorators(ctx *ExtractionContext, node *sitter.Node) []string {
	parent := node.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return nil
	}

	decorators := make([]string, 0, parent.ChildCount())
	for i := uint(0); i < parent.ChildCount(); i++ {
		child := parent.Child(i)
		if child.Kind() != "decorator" {
			continue
		}
		dec := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ctx.Text(child)), "@"))
		if dec != "" {
			decorators = append(decorators, dec)
		}
	}
	return decorators
}
