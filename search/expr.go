package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/osch/luced-sub001/regex"
)

// maxCallouts is the number of callout markers available to a find expression.
const maxCallouts = 254

// A PatternError is an error in a find expression.
type PatternError struct {
	// Pos is the byte offset in the find string.
	Pos int
	Msg string
}

func (e *PatternError) Error() string { return fmt.Sprintf("%s at offset %d", e.Msg, e.Pos) }

// A ScriptError is an error raised by the scripting runtime
// while a callout ran during a match.
type ScriptError struct {
	Err error
}

func (e *ScriptError) Error() string { return "callout: " + e.Err.Error() }

func (e *ScriptError) Unwrap() error { return e.Err }

// An expression is a compiled find expression.
type expression struct {
	re       *regex.Regexp
	bindings []binding
}

// A binding is the value and arguments of a callout.
type binding struct {
	value Value
	// args is nil for the implicit argument.
	args []argument
}

// An argument is the groups whose text is passed to a callout.
// A named argument may name several groups;
// the first one that is set is used.
// An argument with no groups is implicit.
type argument struct {
	groups []int
}

// builder builds a pattern along with a map
// from its byte offsets to the byte offsets of the find string.
type builder struct {
	s    strings.Builder
	offs []int
}

// write appends text that came from offset at of the find string.
// If exact is true, each byte maps to its own offset;
// otherwise all bytes map to at.
func (b *builder) write(text string, at int, exact bool) {
	for i := 0; i < len(text); i++ {
		if exact {
			b.offs = append(b.offs, at+i)
		} else {
			b.offs = append(b.offs, at)
		}
	}
	b.s.WriteString(text)
}

func (b *builder) orig(pos int) int {
	if pos < len(b.offs) {
		return b.offs[pos]
	}
	if len(b.offs) == 0 {
		return 0
	}
	return b.offs[len(b.offs)-1] + 1
}

// compile compiles the find expression of a parameter.
// Callout expressions are evaluated by rt.
func compile(p Param, rt Runtime) (*expression, error) {
	var b builder
	if p.Options&WholeWord != 0 {
		b.write(`\b(?:`, 0, false)
	}
	type pending struct {
		value Value
		args  []string
		offs  []int
	}
	var callouts []pending
	if p.Options&Regex == 0 {
		for i, r := range p.Find {
			b.write(regex.Quote(string(r)), i, false)
		}
	} else {
		if i := regex.IndexCallout(p.Find); i >= 0 {
			return nil, &PatternError{Pos: i, Msg: "reserved syntax (?C"}
		}
		refs, err := regex.ScanCallouts(p.Find)
		if err != nil {
			e := err.(*regex.Error)
			return nil, &PatternError{Pos: e.Pos, Msg: e.Msg}
		}
		if len(refs) > maxCallouts {
			return nil, &PatternError{Pos: refs[maxCallouts].Start, Msg: "too many callouts"}
		}
		prev := 0
		for n, ref := range refs {
			b.write(p.Find[prev:ref.Start], prev, true)
			b.write(fmt.Sprintf("(?C%d)", n+1), ref.Start, false)
			prev = ref.End

			parts, offs := regex.SplitArgs(ref.Body)
			base := ref.Start + len("(*")
			src := strings.TrimSpace(parts[0])
			if src == "" {
				return nil, &PatternError{Pos: base, Msg: "empty callout expression"}
			}
			if rt == nil {
				return nil, &PatternError{Pos: base, Msg: "callout with no scripting runtime"}
			}
			v, err := rt.Eval(src)
			if err != nil {
				return nil, &PatternError{Pos: base, Msg: err.Error()}
			}
			switch v.(type) {
			case Indexable, Callable:
			default:
				return nil, &PatternError{Pos: base, Msg: fmt.Sprintf("%s is not callable or indexable", src)}
			}
			c := pending{value: v}
			for i := 1; i < len(parts); i++ {
				c.args = append(c.args, parts[i])
				c.offs = append(c.offs, base+offs[i])
			}
			callouts = append(callouts, c)
		}
		b.write(p.Find[prev:], prev, true)
	}
	if p.Options&WholeWord != 0 {
		b.write(`)\b`, len(p.Find), false)
	}

	re, err := regex.Compile(b.s.String(), regex.Opts{IgnoreCase: p.Options&IgnoreCase != 0})
	if err != nil {
		e := err.(*regex.Error)
		return nil, &PatternError{Pos: b.orig(e.Pos), Msg: e.Msg}
	}
	x := &expression{re: re}
	for _, c := range callouts {
		bnd := binding{value: c.value}
		for i, a := range c.args {
			arg, err := resolveArg(re, strings.TrimSpace(a))
			if err != nil {
				return nil, &PatternError{Pos: c.offs[i], Msg: err.Error()}
			}
			bnd.args = append(bnd.args, arg)
		}
		x.bindings = append(x.bindings, bnd)
	}
	return x, nil
}

func resolveArg(re *regex.Regexp, a string) (argument, error) {
	switch {
	case a == "":
		return argument{}, nil
	case a[0] >= '0' && a[0] <= '9':
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 || n > re.NumSubexp() {
			return argument{}, fmt.Errorf("bad capture number %s", a)
		}
		return argument{groups: []int{n}}, nil
	default:
		var arg argument
		for g, name := range re.SubexpNames() {
			if g > 0 && name == a {
				arg.groups = append(arg.groups, g)
			}
		}
		if arg.groups == nil {
			return argument{}, fmt.Errorf("unknown capture name %s", a)
		}
		return arg, nil
	}
}
