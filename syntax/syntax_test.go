package syntax

import (
	"image/color"
	"reflect"
	"testing"

	"github.com/osch/luced-sub001/grammar"
	"github.com/osch/luced-sub001/rope"
	"github.com/osch/luced-sub001/style"
)

func testStyles() style.Table {
	return style.Table{
		style.Default: {FG: color.Black},
		"keyword":     {FG: color.NRGBA{B: 0xFF, A: 0xFF}},
		"comment":     {FG: color.NRGBA{R: 0x70, G: 0x70, B: 0x70, A: 0xFF}},
		"string":      {FG: color.NRGBA{R: 0xFF, A: 0xFF}},
		"escape":      {FG: color.NRGBA{G: 0xFF, A: 0xFF}},
	}
}

func testGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	src := grammar.Source{
		grammar.RootName: {ChildPatterns: []string{"keyword", "comment", "heredoc", "str"}},
		"keyword": {
			Style:     "keyword",
			Pattern:   `\b(?:if|else|for)\b`,
			Set:       grammar.MaxExtendSet,
			MaxExtend: 1,
		},
		"comment": {
			Style:        "comment",
			BeginPattern: `/\*`,
			EndPattern:   `\*/`,
			Set:          grammar.MaxBeginExtendSet | grammar.MaxEndExtendSet,
		},
		"str": {
			Style:          "string",
			BeginPattern:   `(?<quote>")`,
			EndPattern:     `(?<quote>")`,
			Set:            grammar.MaxBeginExtendSet | grammar.MaxEndExtendSet,
			ChildPatterns:  []string{"esc"},
			BeginSubstyles: map[string]string{"quote": "keyword"},
			EndSubstyles:   map[string]string{"quote": "keyword"},
		},
		"esc": {
			Style:   "escape",
			Pattern: `\\.`,
			Set:     grammar.MaxExtendSet,
		},
		"heredoc": {
			Style:          "string",
			BeginPattern:   `<<(?<tag>\w+)\n`,
			EndPattern:     `^(?<tag>\w+)(*tag)$`,
			Set:            grammar.MaxBeginExtendSet | grammar.MaxEndExtendSet,
			MaxEndExtend:   1,
			PushSubpattern: "tag",
		},
	}
	g, err := grammar.Compile(src, testStyles())
	if err != nil {
		t.Fatalf("Compile()=_,%v", err)
	}
	return g
}

// A token is the style name and text of a highlight.
type token struct {
	style, text string
}

func tokens(g *grammar.Grammar, text string, hs []Highlight) []token {
	var toks []token
	for _, h := range hs {
		toks = append(toks, token{g.StyleName(h.StyleID), text[h.At[0]:h.At[1]]})
	}
	return toks
}

func TestTokens(t *testing.T) {
	g := testGrammar(t)
	tests := []struct {
		name     string
		text     string
		from, to int64
		want     []token
	}{
		{
			name: "empty",
			text: "",
			to:   0,
			want: nil,
		},
		{
			name: "containers",
			text: `if a /* c */ "b\"c" else`,
			to:   24,
			want: []token{
				{"keyword", "if"},
				{"default", " a "},
				{"comment", "/* c */"},
				{"default", " "},
				{"keyword", `"`},
				{"string", "b"},
				{"escape", `\"`},
				{"string", "c"},
				{"keyword", `"`},
				{"default", " "},
				{"keyword", "else"},
			},
		},
		{
			name: "clipped",
			text: `if a /* c */ "b\"c" else`,
			to:   8,
			want: []token{
				{"keyword", "if"},
				{"default", " a "},
				{"comment", "/* "},
			},
		},
		{
			name: "from",
			text: `if a /* c */ "b\"c" else`,
			from: 13,
			to:   100,
			want: []token{
				{"keyword", `"`},
				{"string", "b"},
				{"escape", `\"`},
				{"string", "c"},
				{"keyword", `"`},
				{"default", " "},
				{"keyword", "else"},
			},
		},
		{
			name: "unterminated",
			text: "a /* b",
			to:   6,
			want: []token{
				{"default", "a "},
				{"comment", "/* b"},
			},
		},
		{
			name: "pushed subpattern",
			text: "<<EOF\nfoo\nEOFX\nEOF\nif",
			to:   21,
			want: []token{
				{"string", "<<EOF\nfoo\nEOFX\nEOF"},
				{"default", "\n"},
				{"keyword", "if"},
			},
		},
	}
	for _, test := range tests {
		tok := NewTokenizer(g)
		hs := tok.Tokens(rope.NewBufferString(test.text), test.from, test.to)
		if got := tokens(g, test.text, hs); !reflect.DeepEqual(got, test.want) {
			t.Errorf("%s: Tokens()=%v, want %v", test.name, got, test.want)
		}
	}
}

func TestTokensEmptyMatch(t *testing.T) {
	src := grammar.Source{
		grammar.RootName: {ChildPatterns: []string{"paren", "xs"}},
		"xs": {
			Style:   "keyword",
			Pattern: `x*`,
			Set:     grammar.MaxExtendSet,
		},
		"paren": {
			Style:        "string",
			BeginPattern: `\(`,
			EndPattern:   `y*`,
			Set:          grammar.MaxBeginExtendSet | grammar.MaxEndExtendSet,
		},
	}
	g, err := grammar.Compile(src, testStyles())
	if err != nil {
		t.Fatalf("Compile()=_,%v", err)
	}
	tests := []struct {
		text string
		want []token
	}{
		{
			text: "axxb",
			want: []token{
				{"default", "a"},
				{"keyword", "xx"},
				{"default", "b"},
			},
		},
		{
			text: "☺x",
			want: []token{
				{"default", "☺"},
				{"keyword", "x"},
			},
		},
		{
			text: "(yyx",
			want: []token{
				{"string", "(yy"},
				{"keyword", "x"},
			},
		},
	}
	for _, test := range tests {
		hs := NewTokenizer(g).Tokens(rope.NewBufferString(test.text), 0, int64(len(test.text)))
		if got := tokens(g, test.text, hs); !reflect.DeepEqual(got, test.want) {
			t.Errorf("Tokens(%q)=%v, want %v", test.text, got, test.want)
		}
	}
}

func TestTokensStyles(t *testing.T) {
	g := testGrammar(t)
	hs := NewTokenizer(g).Tokens(rope.NewBufferString("if"), 0, 2)
	if len(hs) != 1 {
		t.Fatalf("len(Tokens())=%d, want 1", len(hs))
	}
	if !style.Equal(hs[0].Style, g.Style(g.StyleID("keyword"))) {
		t.Errorf("style=%v, want the keyword style", hs[0].Style)
	}
}

// Matches are found beyond the first window read.
func TestTokensLongGap(t *testing.T) {
	g := testGrammar(t)
	text := make([]byte, 3*minWindow)
	for i := range text {
		text[i] = 'a'
	}
	text[len(text)-3] = ' '
	text = append(text[:len(text)-2], "if"...)
	hs := NewTokenizer(g).Tokens(rope.NewBufferString(string(text)), 0, int64(len(text)))
	want := []token{
		{"default", string(text[:len(text)-2])},
		{"keyword", "if"},
	}
	if got := tokens(g, string(text), hs); !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens()=%v, want %v", got, want)
	}
}
