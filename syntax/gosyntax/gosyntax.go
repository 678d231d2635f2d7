// Package gosyntax implements a syntax grammar for Go.
package gosyntax

import (
	"github.com/osch/luced-sub001/grammar"
	"github.com/osch/luced-sub001/style"
	"github.com/osch/luced-sub001/syntax"
)

const escape = `\\(?:[abfnrtv\\'"]|[0-7]{3}|x[0-9a-fA-F]{2}|u[0-9a-fA-F]{4}|U[0-9a-fA-F]{8})`

// Source returns the grammar source for Go.
func Source() grammar.Source {
	return grammar.Source{
		grammar.RootName: {
			ChildPatterns: []string{"comment", "lineComment", "string", "rawString", "rune", "keyword"},
		},
		"keyword": {
			Style:     "keyword",
			Pattern:   `\b(?:break|default|func|interface|select|case|defer|go|map|struct|chan|else|goto|package|switch|const|fallthrough|if|range|type|continue|for|import|return|var)\b`,
			Set:       grammar.MaxExtendSet,
			MaxExtend: 1,
		},
		"comment": {
			Style:        "comment",
			BeginPattern: `/\*`,
			EndPattern:   `\*/`,
			Set:          grammar.MaxBeginExtendSet | grammar.MaxEndExtendSet,
		},
		"lineComment": {
			Style:   "comment",
			Pattern: `//[^\n]*`,
			Set:     grammar.MaxExtendSet,
		},
		"string": {
			Style:         "string",
			BeginPattern:  `"`,
			EndPattern:    `"|$`,
			Set:           grammar.MaxBeginExtendSet | grammar.MaxEndExtendSet,
			MaxEndExtend:  1,
			ChildPatterns: []string{"escape"},
		},
		"escape": {
			Style:   "escape",
			Pattern: escape,
			Set:     grammar.MaxExtendSet,
		},
		"rawString": {
			Style:        "string",
			BeginPattern: "`",
			EndPattern:   "`",
			Set:          grammar.MaxBeginExtendSet | grammar.MaxEndExtendSet,
		},
		"rune": {
			Style:   "string",
			Pattern: `'(?:[^'\\\n]|` + escape + `)'`,
			Set:     grammar.MaxExtendSet,
		},
	}
}

// Styles returns the styles of the Go grammar.
func Styles() style.Table {
	t, err := style.ParseTable(map[string]string{
		style.Default: "",
		"keyword":     "bold",
		"comment":     "fg=#707070",
		"string":      "fg=#2f6f89",
		"escape":      "fg=#2f6f89 bold",
	})
	if err != nil {
		panic(err.Error())
	}
	return t
}

// NewTokenizer returns a new syntax highlighter tokenizer for Go.
func NewTokenizer() *syntax.Tokenizer {
	g, err := grammar.Compile(Source(), Styles())
	if err != nil {
		panic(err.Error())
	}
	return syntax.NewTokenizer(g)
}
