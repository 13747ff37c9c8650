package parser

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
	"time"
)

// heuristicRule pairs a line regex with the fact it produces. The first
// capture group is the symbol or module name.
type heuristicRule struct {
	re   *regexp.Regexp
	kind DeclKind // declarations only
	fact string   // "decl", "ref", or "import"
}

// heuristicRules holds the per-language pattern tables. The "*" entry is
// applied to languages without a table of their own.
var heuristicRules = map[string][]heuristicRule{
	"go": {
		{re: regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?(\w+)\s*\(`), kind: KindFunction, fact: "decl"},
		{re: regexp.MustCompile(`^type\s+(\w+)\s+`), kind: KindType, fact: "decl"},
		{re: regexp.MustCompile(`^import\s+(?:\w+\s+)?"([^"]+)"`), fact: "import"},
		{re: regexp.MustCompile(`^\s+(?:_\s+|\.\s+|\w+\s+)?"([^"]+)"`), fact: "import"},
	},
	"python": {
		{re: regexp.MustCompile(`^\s*def\s+(\w+)\s*\(`), kind: KindFunction, fact: "decl"},
		{re: regexp.MustCompile(`^\s*class\s+(\w+)\s*[(:]`), kind: KindClass, fact: "decl"},
		{re: regexp.MustCompile(`^\s*import\s+([\w.]+)`), fact: "import"},
		{re: regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import\b`), fact: "import"},
	},
	"javascript": {
		{re: regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(`), kind: KindFunction, fact: "decl"},
		{re: regexp.MustCompile(`^\s*(?:export\s+)?class\s+(\w+)`), kind: KindClass, fact: "decl"},
		{re: regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s*)?(?:\([^)]*\)|\w+)\s*=>`), kind: KindFunction, fact: "decl"},
		{re: regexp.MustCompile(`\bfrom\s+['"]([^'"]+)['"]`), fact: "import"},
		{re: regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]`), fact: "import"},
	},
	"java": {
		{re: regexp.MustCompile(`^\s*(?:public|private|protected)?\s*(?:static\s+)?(?:final\s+)?(?:class|interface|enum)\s+(\w+)`), kind: KindClass, fact: "decl"},
		{re: regexp.MustCompile(`^\s*import\s+(?:static\s+)?([\w.]+)`), fact: "import"},
	},
	"rust": {
		{re: regexp.MustCompile(`^\s*(?:pub\s+)?(?:async\s+)?fn\s+(\w+)`), kind: KindFunction, fact: "decl"},
		{re: regexp.MustCompile(`^\s*(?:pub\s+)?(?:struct|enum|trait)\s+(\w+)`), kind: KindClass, fact: "decl"},
		{re: regexp.MustCompile(`^\s*use\s+([\w:]+)`), fact: "import"},
	},
	"*": {
		{re: regexp.MustCompile(`^\s*(?:def|fn|func|function)\s+(\w+)`), kind: KindFunction, fact: "decl"},
		{re: regexp.MustCompile(`^\s*class\s+(\w+)`), kind: KindClass, fact: "decl"},
		{re: regexp.MustCompile(`^\s*(?:import|use|require)\s+["']?([\w./:-]+)`), fact: "import"},
	},
}

// heuristicCallPattern matches call-looking identifiers on any line.
// Shared across languages; filtered against keywords below.
var heuristicCallPattern = regexp.MustCompile(`\b([A-Za-z_][\w.]*)\s*\(`)

var heuristicKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "return": true,
	"func": true, "fn": true, "def": true, "function": true, "catch": true,
	"class": true, "new": true, "not": true, "print": true, "super": true,
}

// HeuristicExtractor extracts declarations, references, and imports from
// raw source text with line regexes. Used when no grammar is available or
// heuristic mode is forced. Every fact carries ConfidenceHeuristic.
type HeuristicExtractor struct{}

func NewHeuristicExtractor() *HeuristicExtractor { return &HeuristicExtractor{} }

func (e *HeuristicExtractor) ExtractRaw(content []byte, path, lang string) (*FileFacts, error) {
	file := &FileFacts{
		Path:     path,
		Language: lang,
		Mode:     ModeHeuristic,
		ParsedAt: time.Now(),
	}

	rules, ok := heuristicRules[lang]
	if !ok {
		rules = heuristicRules["*"]
	}

	// Scope tracking is a single level: the most recent declaration whose
	// indentation is shallower than the current line.
	type openDecl struct {
		name   string
		indent int
	}
	var open *openDecl

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))

		matched := false
		for _, rule := range rules {
			m := rule.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			switch rule.fact {
			case "decl":
				var scope []string
				if open != nil && indent > open.indent {
					scope = []string{open.name}
				}
				file.Declarations = append(file.Declarations, Declaration{
					Name:       m[1],
					Kind:       rule.kind,
					Scope:      scope,
					StartLine:  lineNo,
					EndLine:    lineNo,
					Confidence: ConfidenceHeuristic,
					LOC:        1,
				})
				if open == nil || indent <= open.indent {
					open = &openDecl{name: m[1], indent: indent}
				}
				matched = true
			case "import":
				file.Imports = append(file.Imports, ImportFact{
					Module:     m[1],
					Line:       lineNo,
					Confidence: ConfidenceHeuristic,
				})
				matched = true
			}
			if matched {
				break
			}
		}
		if matched {
			continue
		}

		if open != nil && indent <= open.indent && !strings.HasPrefix(trimmed, "}") {
			// Left the body of the last open declaration.
			if lang == "python" {
				open = nil
			}
		}

		for _, m := range heuristicCallPattern.FindAllStringSubmatch(line, -1) {
			name := m[1]
			base := name
			if idx := strings.Index(base, "."); idx >= 0 {
				base = base[:idx]
			}
			if heuristicKeywords[base] {
				continue
			}
			var scope []string
			if open != nil {
				scope = []string{open.name}
			}
			file.References = append(file.References, ReferenceFact{
				Name:       name,
				Scope:      scope,
				Line:       lineNo,
				Confidence: ConfidenceHeuristic,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return file, nil
}
