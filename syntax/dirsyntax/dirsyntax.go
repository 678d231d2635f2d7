// Package dirsyntax implements a syntax grammar for directory entries.
package dirsyntax

import (
	"github.com/osch/luced-sub001/grammar"
	"github.com/osch/luced-sub001/style"
	"github.com/osch/luced-sub001/syntax"
)

// Source returns the grammar source for directory entries, one per line.
func Source() grammar.Source {
	return grammar.Source{
		grammar.RootName: {ChildPatterns: []string{"dir", "hidden"}},
		"dir": {
			Style:     "dir",
			Pattern:   `^[^\n]*/$`,
			Set:       grammar.MaxExtendSet,
			MaxExtend: 1,
		},
		"hidden": {
			Style:     "hidden",
			Pattern:   `^(?:[^\n]*/)?\.[^\n]*`,
			Set:       grammar.MaxExtendSet,
			MaxExtend: 1,
		},
	}
}

// Styles returns the styles of the directory grammar.
func Styles() style.Table {
	t, err := style.ParseTable(map[string]string{
		style.Default: "",
		"dir":         "fg=#2f6f89",
		"hidden":      "fg=#707070",
	})
	if err != nil {
		panic(err.Error())
	}
	return t
}

// NewTokenizer returns a new syntax highlighter tokenizer for directory entries.
func NewTokenizer() *syntax.Tokenizer {
	g, err := grammar.Compile(Source(), Styles())
	if err != nil {
		panic(err.Error())
	}
	return syntax.NewTokenizer(g)
}
