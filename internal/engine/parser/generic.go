package parser

import (
	"regexp"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// genericTier pairs a compiled node-kind regex with a declaration kind.
// Evaluated top-to-bottom; first match wins.
type genericTier struct {
	re   *regexp.Regexp
	kind DeclKind
}

var genericDeclTiers = func() []genericTier {
	specs := []struct {
		pattern string
		kind    DeclKind
	}{
		// Rust and Java callables.
		{`^(function_item|method_declaration|constructor_declaration)$`, KindFunction},
		// Container declarations.
		{`^(class_declaration|interface_declaration|enum_declaration|struct_item|enum_item|trait_item|impl_item)$`, KindClass},
		// Named type aliases.
		{`^(type_item|record_declaration)$`, KindType},
	}

	tiers := make([]genericTier, 0, len(specs))
	for _, s := range specs {
		tiers = append(tiers, genericTier{re: regexp.MustCompile(s.pattern), kind: s.kind})
	}
	return tiers
}()

var genericCallKinds = map[string]bool{
	"call_expression":            true,
	"method_invocation":          true,
	"object_creation_expression": true,
	"macro_invocation":           true,
}

var genericImportKinds = map[string]bool{
	"import_declaration": true, // java
	"use_declaration":    true, // rust
}

// GenericExtractor handles languages without a dedicated extractor (java,
// rust) by classifying node kinds with regex tiers instead of per-kind
// handlers. Less precise than the dedicated extractors but structurally
// faithful: declarations carry real spans and scope chains.
type GenericExtractor struct{}

func NewGenericExtractor() *GenericExtractor { return &GenericExtractor{} }

func (e *GenericExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*FileFacts, error) {
	file := &FileFacts{
		Path:     filePath,
		ParsedAt: time.Now(),
	}
	if root == nil {
		return file, nil
	}

	e.walk(root, source, file, nil)
	return file, nil
}

func (e *GenericExtractor) walk(node *sitter.Node, source []byte, file *FileFacts, scope []string) {
	kind := node.Kind()

	if genericImportKinds[kind] {
		e.extractImport(node, source, file)
		return
	}

	if declKind, ok := classifyGenericDecl(kind); ok {
		name := genericNodeName(node, source)
		if name != "" {
			start := int(node.StartPosition().Row) + 1
			end := int(node.EndPosition().Row) + 1
			declared := declKind
			if declKind == KindFunction && len(scope) > 0 {
				declared = KindMethod
			}
			file.Declarations = append(file.Declarations, Declaration{
				Name:       name,
				Kind:       declared,
				Scope:      append([]string(nil), scope...),
				StartLine:  start,
				EndLine:    end,
				Exported:   true,
				Confidence: ConfidenceDefinition,
				LOC:        end - start + 1,
			})
			file.LocalSymbols = append(file.LocalSymbols, name)
			scope = append(scope, name)
		}
	}

	if genericCallKinds[kind] {
		if name := genericNodeName(node, source); name != "" {
			file.References = append(file.References, ReferenceFact{
				Name:       strings.TrimSuffix(name, "!"),
				Scope:      append([]string(nil), scope...),
				Line:       int(node.StartPosition().Row) + 1,
				Confidence: ConfidenceCall,
			})
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		e.walk(node.Child(i), source, file, scope)
	}
}

func (e *GenericExtractor) extractImport(node *sitter.Node, source []byte, file *FileFacts) {
	var module string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "scoped_identifier", "identifier", "scoped_use_list", "use_as_clause", "use_wildcard":
			module = genericText(child, source)
		}
	}
	if module == "" {
		return
	}
	file.Imports = append(file.Imports, ImportFact{
		Module: strings.TrimSuffix(module, ";"),
		Line:   int(node.StartPosition().Row) + 1,
	})
}

func classifyGenericDecl(kind string) (DeclKind, bool) {
	for _, tier := range genericDeclTiers {
		if tier.re.MatchString(kind) {
			return tier.kind, true
		}
	}
	return "", false
}

// genericNodeName pulls a symbolic name from common field names and child
// kinds, falling back to leaf text for qualified forms.
func genericNodeName(node *sitter.Node, source []byte) string {
	if fn := node.ChildByFieldName("function"); fn != nil {
		if text := genericText(fn, source); text != "" && len(text) <= 128 {
			return text
		}
	}
	if name := node.ChildByFieldName("name"); name != nil {
		if text := genericText(name, source); text != "" && len(text) <= 128 {
			return text
		}
	}
	if typ := node.ChildByFieldName("type"); typ != nil {
		if text := genericText(typ, source); text != "" && len(text) <= 128 {
			return text
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "identifier", "field_identifier", "type_identifier", "property_identifier":
			if text := genericText(child, source); text != "" && len(text) <= 128 {
				return text
			}
		}
	}

	if node.ChildCount() == 0 || node.Kind() == "scoped_identifier" {
		if text := genericText(node, source); len(text) <= 128 {
			return text
		}
	}
	return ""
}

func genericText(node *sitter.Node, source []byte) string {
	start := node.StartByte()
	end := node.EndByte()
	if start >= end || end > uint(len(source)) {
		return ""
	}
	return strings.TrimSpace(string(source[start:end]))
}
