package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"codegraph/internal/core/errors"
	"codegraph/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Extractor converts a parsed syntax tree into FileFacts.
type Extractor interface {
	Extract(root *sitter.Node, source []byte, filePath string) (*FileFacts, error)
}

// Parser turns file contents into FileFacts, using grammar-aware extraction
// when a grammar is available and heuristic extraction otherwise.
type Parser struct {
	grammars   *GrammarSet
	extractors map[string]Extractor
	heuristic  *HeuristicExtractor
	mode       Mode
}

func NewParser(grammars *GrammarSet, mode Mode) *Parser {
	p := &Parser{
		grammars:   grammars,
		extractors: make(map[string]Extractor),
		heuristic:  NewHeuristicExtractor(),
		mode:       mode,
	}
	p.extractors["go"] = &GoExtractor{}
	p.extractors["python"] = &PythonExtractor{}
	js := &JSExtractor{}
	p.extractors["javascript"] = js
	p.extractors["typescript"] = js
	p.extractors["tsx"] = js
	generic := NewGenericExtractor()
	p.extractors["java"] = generic
	p.extractors["rust"] = generic
	return p
}

// DetectLanguage maps a path to a language ID, or "" when unsupported.
func (p *Parser) DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return p.grammars.LanguageForExtension(ext)
}

func (p *Parser) IsSupportedPath(path string) bool {
	return p.DetectLanguage(path) != ""
}

// ParseFile extracts declarations and references from one file. Errors are
// per-file: callers record them as diagnostics and continue.
func (p *Parser) ParseFile(path string, content []byte) (*FileFacts, error) {
	lang := p.DetectLanguage(path)
	if lang == "" {
		return nil, errors.New(errors.CodeNotSupported, "unsupported language")
	}

	start := time.Now()
	grammar := p.grammars.Grammar(lang)
	if p.mode == ModeHeuristic || grammar == nil {
		facts, err := p.heuristic.ExtractRaw(content, path, lang)
		observability.ParsingDuration.WithLabelValues(lang, string(ModeHeuristic)).Observe(time.Since(start).Seconds())
		return facts, err
	}

	extractor := p.extractors[lang]
	if extractor == nil {
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("no extractor for: %s", lang))
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeParse, "parse failed"), errors.CtxPath, path)
	}
	defer tree.Close()

	facts, err := extractor.Extract(tree.RootNode(), content, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "extraction failed")
	}
	facts.Language = lang
	facts.Mode = ModeAST
	for i := range facts.Imports {
		if facts.Imports[i].Confidence == 0 {
			facts.Imports[i].Confidence = ConfidenceImport
		}
	}
	observability.ParsingDuration.WithLabelValues(lang, string(ModeAST)).Observe(time.Since(start).Seconds())
	return facts, nil
}

// Mode returns the parser's operating mode.
func (p *Parser) Mode() Mode {
	return p.mode
}
