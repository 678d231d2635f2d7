package script

import (
	"errors"
	"image/color"
	"reflect"
	"strings"
	"testing"

	"go.starlark.net/starlark"

	"github.com/osch/luced-sub001/grammar"
	"github.com/osch/luced-sub001/rope"
	"github.com/osch/luced-sub001/search"
)

const testScript = `
keywords = {"if": True, "for": True, "else": False}
names = set(["x", "y"])
digits = ["1", "2"]
letters = "abc"

def even(s):
	return len(s) % 2 == 0

def same(a, b):
	return a == b

def none(s):
	pass

def fails(s):
	return 1 // 0
`

func testRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt := New(starlark.StringDict{"limit": starlark.MakeInt(3)})
	if err := rt.Exec("test.star", testScript); err != nil {
		t.Fatalf("Exec()=%v", err)
	}
	return rt
}

func TestEvalIndexable(t *testing.T) {
	rt := testRuntime(t)
	tests := []struct {
		expr string
		key  string
		want bool
	}{
		{expr: "keywords", key: "if", want: true},
		{expr: "keywords", key: "else", want: false},
		{expr: "keywords", key: "x", want: false},
		{expr: "names", key: "x", want: true},
		{expr: "names", key: "z", want: false},
		{expr: "digits", key: "2", want: true},
		{expr: "digits", key: "3", want: false},
		{expr: "letters", key: "bc", want: true},
		{expr: "{'a': 1}", key: "a", want: true},
	}
	for _, test := range tests {
		v, err := rt.Eval(test.expr)
		if err != nil {
			t.Errorf("Eval(%q)=_,%v", test.expr, err)
			continue
		}
		ix, ok := v.(search.Indexable)
		if !ok {
			t.Errorf("Eval(%q)=%T, want search.Indexable", test.expr, v)
			continue
		}
		got, err := ix.Index(test.key)
		if got != test.want || err != nil {
			t.Errorf("Eval(%q).Index(%q)=%v,%v, want %v,nil", test.expr, test.key, got, err, test.want)
		}
	}
}

func TestEvalCallable(t *testing.T) {
	rt := testRuntime(t)
	tests := []struct {
		expr string
		args []string
		want bool
	}{
		{expr: "even", args: []string{"ab"}, want: true},
		{expr: "even", args: []string{"abc"}},
		{expr: "same", args: []string{"a", "a"}, want: true},
		{expr: "same", args: []string{"a", "b"}},
		{expr: "none", args: []string{"a"}},
		{expr: "lambda s: len(s) < limit", args: []string{"ab"}, want: true},
		{expr: "len", args: []string{""}},
	}
	for _, test := range tests {
		v, err := rt.Eval(test.expr)
		if err != nil {
			t.Errorf("Eval(%q)=_,%v", test.expr, err)
			continue
		}
		c, ok := v.(search.Callable)
		if !ok {
			t.Errorf("Eval(%q)=%T, want search.Callable", test.expr, v)
			continue
		}
		got, err := c.Call(test.args)
		if got != test.want || err != nil {
			t.Errorf("Eval(%q).Call(%q)=%v,%v, want %v,nil", test.expr, test.args, got, err, test.want)
		}
	}
}

func TestEvalOther(t *testing.T) {
	rt := testRuntime(t)
	if v, err := rt.Eval("limit"); err != nil || v.(starlark.Value).String() != "3" {
		t.Errorf("Eval(limit)=%v,%v, want 3,nil", v, err)
	}
	if _, err := rt.Eval("nope"); err == nil {
		t.Errorf("Eval(nope)=_,nil, want error")
	}
}

func TestSearchCallouts(t *testing.T) {
	rt := testRuntime(t)
	buf := rope.NewBufferString("x = y; if z else w")
	tests := []struct {
		find string
		want int64
	}{
		{find: `(\w+)(*keywords)`, want: 7},
		{find: `\b(\w+)\b(*names)`, want: 0},
		{find: `\b(\w+)\b(*lambda s: s == "z")`, want: 10},
		{find: `(?<a>\w) = (?<b>\w)(*same, a, b)`, want: -1},
		{find: `(?<a>\w) = (?<b>\w)(*lambda *p: p[0] < p[1], a, b)`, want: 0},
	}
	for _, test := range tests {
		got, err := search.Find(buf, test.find, 0, search.Regex|search.AllowMatchAtStart, rt)
		if got != test.want || err != nil {
			t.Errorf("Find(%q)=%d,%v, want %d,nil", test.find, got, err, test.want)
		}
	}

	_, err := search.Find(buf, `\w(*fails)`, 0, search.Regex, rt)
	var se *search.ScriptError
	var ee *starlark.EvalError
	if !errors.As(err, &se) || !errors.As(err, &ee) {
		t.Errorf("Find(fails)=_,%v, want *search.ScriptError wrapping *starlark.EvalError", err)
	}
}

const testGrammar = `
styles = {
	"default": "fg=#000",
	"keyword": "fg=#00f",
	"comment": "fg=#080",
}

grammar = {
	"root": {"style": "default", "childPatterns": ["keyword", "comment"]},
	"keyword": {
		"style": "keyword",
		"pattern": r"\b(if|else)\b",
		"maxExtend": 1,
	},
	"comment": {
		"style": "comment",
		"beginPattern": r"/\*",
		"endPattern": r"\*/",
		"maxBeginExtend": 0,
		"maxEndExtend": 0,
		"endSubstyles": {},
	},
	"heredoc": {
		"style": "comment",
		"beginPattern": r"<<(?<tag>\w+)$",
		"endPattern": r"^(?<tag>\w+)(*tag)$",
		"maxBeginExtend": 1,
		"maxEndExtend": 1,
		"pushSubpattern": "tag",
		"beginSubstyles": {"tag": "keyword"},
	},
}
`

func TestLoadGrammar(t *testing.T) {
	src, styles, err := LoadGrammar("test.star", testGrammar)
	if err != nil {
		t.Fatalf("LoadGrammar()=_,_,%v", err)
	}
	want := grammar.Source{
		"root": {Style: "default", ChildPatterns: []string{"keyword", "comment"}},
		"keyword": {
			Style:     "keyword",
			Pattern:   `\b(if|else)\b`,
			MaxExtend: 1,
			Set:       grammar.MaxExtendSet,
		},
		"comment": {
			Style:        "comment",
			BeginPattern: `/\*`,
			EndPattern:   `\*/`,
			Set:          grammar.MaxBeginExtendSet | grammar.MaxEndExtendSet,
			EndSubstyles: map[string]string{},
		},
		"heredoc": {
			Style:          "comment",
			BeginPattern:   `<<(?<tag>\w+)$`,
			EndPattern:     `^(?<tag>\w+)(*tag)$`,
			MaxBeginExtend: 1,
			MaxEndExtend:   1,
			Set:            grammar.MaxBeginExtendSet | grammar.MaxEndExtendSet,
			PushSubpattern: "tag",
			BeginSubstyles: map[string]string{"tag": "keyword"},
		},
	}
	if !reflect.DeepEqual(src, want) {
		t.Errorf("LoadGrammar()=%#v,_,nil, want %#v", src, want)
	}
	if len(styles) != 3 {
		t.Errorf("len(styles)=%d, want 3", len(styles))
	}
	if !reflect.DeepEqual(styles["keyword"].FG, color.NRGBA{B: 0xff, A: 0xff}) {
		t.Errorf("keyword FG=%v", styles["keyword"].FG)
	}
	if _, err := grammar.Compile(src, styles); err != nil {
		t.Errorf("Compile()=_,%v", err)
	}
}

func TestLoadGrammarErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{src: `x = 1`, want: "grammar is not defined as a dict"},
		{src: `grammar = {"root": 1}`, want: "rule root: not a dict"},
		{src: `grammar = {"root": {"colour": "red"}}`, want: `rule root: unknown field "colour"`},
		{src: `grammar = {"root": {"style": 1}}`, want: "rule root: style: got int, want string"},
		{src: `grammar = {"k": {"maxExtend": "x"}}`, want: "rule k: maxExtend:"},
		{src: `grammar = {"root": {"childPatterns": 1}}`, want: "rule root: childPatterns: got int, want list"},
		{src: `grammar = {}; styles = []`, want: "styles is a list, not a dict"},
		{src: `grammar = {}; styles = {"a": "purple"}`, want: `styles: style a: unknown item "purple"`},
		{src: `grammar = {`, want: "test.star:"},
	}
	for _, test := range tests {
		_, _, err := LoadGrammar("test.star", test.src)
		if err == nil || !strings.Contains(err.Error(), test.want) {
			t.Errorf("LoadGrammar(%q)=_,_,%v, want error containing %q", test.src, err, test.want)
		}
	}
}
