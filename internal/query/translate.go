package query

import (
	"regexp"
	"strings"

	"codegraph/internal/core/errors"
	"codegraph/internal/engine/parser"
)

// template pairs a question regexp with the structured request it maps
// to. Ordered; first match wins. Anything outside the set is rejected,
// never guessed at.
type template struct {
	re    *regexp.Regexp
	build func(groups []string) Request
}

var questionTemplates = []template{
	{
		re: regexp.MustCompile(`(?i)^(?:what|who) calls ([\w.:/]+)\??$`),
		build: func(g []string) Request {
			return Request{Kind: KindCallers, Target: g[1]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)^what does ([\w.:/]+) call\??$`),
		build: func(g []string) Request {
			return Request{Kind: KindCallees, Target: g[1]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)^(?:find )?tests? for ([\w.:/]+)\??$`),
		build: func(g []string) Request {
			return Request{Kind: KindTestsFor, Target: g[1]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)^(?:what are the )?dependencies of ([\w.:/]+)\??$`),
		build: func(g []string) Request {
			return Request{Kind: KindDependencies, Target: g[1]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)^(?:what is the )?impact of (?:changing |removing )?([\w.:/]+)\??$`),
		build: func(g []string) Request {
			return Request{Kind: KindImpact, Target: g[1]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)^find all functions in ([\w./-]+)\??$`),
		build: func(g []string) Request {
			return Request{Kind: KindSearch, Pattern: "*", Filter: parser.KindFunction, Package: g[1]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)^find functions? (?:with no|without) callers\??$`),
		build: func(g []string) Request {
			return Request{Kind: KindOrphans}
		},
	},
	{
		re: regexp.MustCompile(`(?i)^(?:find|search)(?: for)? ([\w*?.]+)\??$`),
		build: func(g []string) Request {
			return Request{Kind: KindSearch, Pattern: g[1]}
		},
	},
}

// Translate maps a free-text question to a structured request. The
// returned request doubles as the transparency record of what was
// actually asked of the engine.
func Translate(question string) (Request, error) {
	normalized := strings.Join(strings.Fields(strings.TrimSpace(question)), " ")

	for _, tpl := range questionTemplates {
		if groups := tpl.re.FindStringSubmatch(normalized); groups != nil {
			return tpl.build(groups), nil
		}
	}

	return Request{}, errors.AddContext(
		errors.New(errors.CodeUnsupportedQuery, "question does not match a supported shape"),
		errors.CtxQuery, question)
}

// SupportedQuestions documents the recognized shapes for help output.
func SupportedQuestions() []string {
	return []string{
		"what calls <symbol>",
		"what does <symbol> call",
		"find tests for <symbol>",
		"dependencies of <symbol>",
		"impact of changing <symbol>",
		"find all functions in <package>",
		"find functions with no callers",
		"find <pattern>",
	}
}
