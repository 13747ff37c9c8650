package parser

import (
	"fmt"
	"strings"

	"codegraph/internal/shared/util"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// LanguageSpec describes one supported language.
type LanguageSpec struct {
	Extensions []string
	Enabled    bool
}

// defaultRegistry maps language IDs to their file extensions.
var defaultRegistry = map[string]LanguageSpec{
	"go":         {Extensions: []string{".go"}, Enabled: true},
	"python":     {Extensions: []string{".py"}, Enabled: true},
	"javascript": {Extensions: []string{".js", ".jsx", ".mjs"}, Enabled: true},
	"typescript": {Extensions: []string{".ts"}, Enabled: true},
	"tsx":        {Extensions: []string{".tsx"}, Enabled: true},
	"java":       {Extensions: []string{".java"}, Enabled: true},
	"rust":       {Extensions: []string{".rs"}, Enabled: true},
}

// GrammarSet holds the loaded tree-sitter grammars and extension table.
type GrammarSet struct {
	languages  map[string]*sitter.Language
	registry   map[string]LanguageSpec
	extensions map[string]string // ".go" -> "go"
}

// Enabled is the per-language on/off switch sourced from configuration.
// Nil means every default language is enabled.
func NewGrammarSet(enabled func(lang string) bool) (*GrammarSet, error) {
	gs := &GrammarSet{
		languages:  make(map[string]*sitter.Language),
		registry:   make(map[string]LanguageSpec),
		extensions: make(map[string]string),
	}

	for _, lang := range util.SortedStringKeys(defaultRegistry) {
		spec := defaultRegistry[lang]
		if enabled != nil && !enabled(lang) {
			spec.Enabled = false
		}
		gs.registry[lang] = spec
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			gs.extensions[strings.ToLower(ext)] = lang
		}

		switch lang {
		case "go":
			gs.languages[lang] = sitter.NewLanguage(tree_sitter_go.Language())
		case "python":
			gs.languages[lang] = sitter.NewLanguage(tree_sitter_python.Language())
		case "javascript":
			gs.languages[lang] = sitter.NewLanguage(tree_sitter_javascript.Language())
		case "typescript":
			gs.languages[lang] = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		case "tsx":
			gs.languages[lang] = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
		case "java":
			gs.languages[lang] = sitter.NewLanguage(tree_sitter_java.Language())
		case "rust":
			gs.languages[lang] = sitter.NewLanguage(tree_sitter_rust.Language())
		default:
			return nil, fmt.Errorf("language %q is enabled but has no grammar binding", lang)
		}
	}

	return gs, nil
}

// Grammar returns the loaded grammar for a language, or nil.
func (gs *GrammarSet) Grammar(lang string) *sitter.Language {
	return gs.languages[lang]
}

// LanguageForExtension maps a lowercase file extension to a language ID.
func (gs *GrammarSet) LanguageForExtension(ext string) string {
	return gs.extensions[strings.ToLower(ext)]
}

func (gs *GrammarSet) SupportedExtensions() []string {
	return util.SortedStringKeys(gs.extensions)
}

func (gs *GrammarSet) EnabledLanguages() []string {
	out := make([]string, 0, len(gs.registry))
	for _, lang := range util.SortedStringKeys(gs.registry) {
		if gs.registry[lang].Enabled {
			out = append(out, lang)
		}
	}
	return out
}
