package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node for a language-specific extractor.
// Returns true if the handler has processed children and the walker should stop.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries shared state/helpers used by all extractors.
type ExtractionContext struct {
	Source            []byte
	File              *FileFacts
	ProcessedChildren bool // If true, the walker will skip this node's children

	scope []string
}

// ExtractorEngine walks the syntax tree and dispatches node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}

	ctx.ProcessedChildren = false
	scopeDepth := len(ctx.scope)
	stop := false
	if handler, ok := e.handlers[node.Kind()]; ok {
		stop = handler(ctx, node)
	}

	if !stop && !ctx.ProcessedChildren {
		for i := uint(0); i < node.ChildCount(); i++ {
			e.Walk(ctx, node.Child(i))
		}
	}

	// Handlers that pushed a scope for their body get it popped here.
	ctx.scope = ctx.scope[:scopeDepth]
}

// EnterScope pushes a declaration name; the walker pops it after the
// node's children have been visited.
func (c *ExtractionContext) EnterScope(name string) {
	c.scope = append(c.scope, name)
}

// Scope returns a copy of the current enclosing scope chain.
func (c *ExtractionContext) Scope() []string {
	if len(c.scope) == 0 {
		return nil
	}
	return append([]string(nil), c.scope...)
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

func (c *ExtractionContext) Line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

func (c *ExtractionContext) EndLine(node *sitter.Node) int {
	return int(node.EndPosition().Row) + 1
}

func (c *ExtractionContext) ChildText(node *sitter.Node, kind string) string {
	if node == nil {
		return ""
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return c.Text(child)
		}
	}
	return ""
}

func (c *ExtractionContext) AppendLocalIdentifiers(node *sitter.Node) {
	if node == nil {
		return
	}
	if node.Kind() == "identifier" {
		name := c.Text(node)
		if name != "" && name != "_" {
			c.File.LocalSymbols = append(c.File.LocalSymbols, name)
		}
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		c.AppendLocalIdentifiers(node.Child(i))
	}
}

// IsLocalSymbol reports whether a name (or its leading selector segment)
// was captured as a local variable, parameter, or receiver.
func (c *ExtractionContext) IsLocalSymbol(name string) bool {
	prefix := name
	if idx := indexByte(prefix, '.'); idx >= 0 {
		prefix = prefix[:idx]
	}
	for _, sym := range c.File.LocalSymbols {
		if sym == name || sym == prefix {
			return true
		}
	}
	return false
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
