package regex

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

type nodeOp int

const (
	nEmpty nodeOp = iota
	nRune
	nAny
	nClass
	nAssert
	nCap
	nGroup
	nConcat
	nAlt
	nRepeat
	nLook
	nBackref
	nCallout
)

// Assertion kinds.
const (
	bol = iota
	eol
	bot
	eot
	wordb
	nwordb
)

type node struct {
	op    nodeOp
	r     rune
	class [][2]rune
	neg   bool
	kind  int
	cap   int
	name  string
	min   int
	max   int
	lazy  bool
	subs  []*node
}

const maxRepeat = 1000

type parser struct {
	src   string
	ncap  int
	names []string
	opens []int
	refs  []*node
	// numrefs is set if there is a numbered backreference.
	numrefs bool
}

func (p *parser) errorf(t, msg string) *Error {
	return &Error{Pos: len(p.src) - len(t), Msg: msg}
}

func (p *parser) alternate(t string, depth int) (*node, string, error) {
	var alts []*node
	for {
		left, rest, err := p.concat(t, depth)
		if err != nil {
			return nil, "", err
		}
		alts = append(alts, left)
		if t = rest; peek(t) != '|' {
			break
		}
		_, t = next(t) // eat |
	}
	if len(alts) == 1 {
		return alts[0], t, nil
	}
	return &node{op: nAlt, subs: alts}, t, nil
}

func (p *parser) concat(t string, depth int) (*node, string, error) {
	var items []*node
	for {
		switch r := peek(t); {
		case r == eof || r == '|':
			return cat(items), t, nil
		case r == ')':
			if depth == 0 {
				return nil, "", p.errorf(t, "unopened )")
			}
			return cat(items), t, nil
		}
		item, rest, err := p.repeat(t, depth)
		if err != nil {
			return nil, "", err
		}
		items, t = append(items, item), rest
	}
}

func cat(items []*node) *node {
	switch len(items) {
	case 0:
		return &node{op: nEmpty}
	case 1:
		return items[0]
	default:
		return &node{op: nConcat, subs: items}
	}
}

func (p *parser) repeat(t string, depth int) (*node, string, error) {
	left, t, err := p.term(t, depth)
	if err != nil {
		return nil, "", err
	}
	for {
		min, max := 0, -1
		switch r, rest := next(t); r {
		case '*':
			t = rest
		case '+':
			min, t = 1, rest
		case '?':
			max, t = 1, rest
		case '{':
			var ok bool
			if min, max, rest, ok = counted(rest); !ok {
				return left, t, nil
			}
			if max >= 0 && min > max {
				return nil, "", p.errorf(t, "bad repeat count")
			}
			if min > maxRepeat || max > maxRepeat {
				return nil, "", p.errorf(t, "repeat count too large")
			}
			t = rest
		default:
			return left, t, nil
		}
		lazy := false
		if peek(t) == '?' {
			_, t = next(t)
			lazy = true
		}
		left = &node{op: nRepeat, min: min, max: max, lazy: lazy, subs: []*node{left}}
	}
}

// counted parses the remainder of a {n}, {n,}, or {n,m} quantifier.
// If t does not hold one, ok is false and { is taken literally.
func counted(t string) (min, max int, rest string, ok bool) {
	i := strings.IndexByte(t, '}')
	if i < 0 {
		return 0, 0, t, false
	}
	body := t[:i]
	lo, hi := body, body
	if j := strings.IndexByte(body, ','); j >= 0 {
		lo, hi = body[:j], body[j+1:]
	}
	var err error
	if min, err = strconv.Atoi(lo); err != nil || min < 0 {
		return 0, 0, t, false
	}
	switch {
	case hi == lo:
		max = min
	case hi == "":
		max = -1
	default:
		if max, err = strconv.Atoi(hi); err != nil || max < 0 {
			return 0, 0, t, false
		}
	}
	return min, max, t[i+1:], true
}

func (p *parser) term(t0 string, depth int) (*node, string, error) {
	switch r, t := next(t0); r {
	case '\\':
		return p.escape(t0, t)
	case '.':
		return &node{op: nAny}, t, nil
	case '^':
		return &node{op: nAssert, kind: bol}, t, nil
	case '$':
		return &node{op: nAssert, kind: eol}, t, nil
	case '(':
		return p.group(t0, t, depth)
	case '[':
		return p.charclass(t0, t)
	case '*', '+', '?':
		return nil, "", p.errorf(t0, "unexpected "+string(r))
	default:
		return &node{op: nRune, r: r}, t, nil
	}
}

func (p *parser) escape(t0, t string) (*node, string, error) {
	r, t := next(t)
	switch r {
	case eof:
		return &node{op: nRune, r: '\\'}, t, nil
	case 'd', 'D', 'w', 'W', 's', 'S':
		return &node{op: nClass, class: perlClass(r), neg: r < 'a'}, t, nil
	case 'b':
		return &node{op: nAssert, kind: wordb}, t, nil
	case 'B':
		return &node{op: nAssert, kind: nwordb}, t, nil
	case 'A':
		return &node{op: nAssert, kind: bot}, t, nil
	case 'z':
		return &node{op: nAssert, kind: eot}, t, nil
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		n := &node{op: nBackref, cap: int(r - '0')}
		p.refs = append(p.refs, n)
		p.numrefs = true
		return n, t, nil
	case 'k':
		if peek(t) != '<' {
			return nil, "", p.errorf(t0, "bad \\k reference")
		}
		name, rest, ok := groupName(t[1:])
		if !ok {
			return nil, "", p.errorf(t0, "bad \\k reference")
		}
		n := &node{op: nBackref, name: name}
		p.refs = append(p.refs, n)
		return n, rest, nil
	}
	r, t, err := p.runeEscape(t0, r, t)
	if err != nil {
		return nil, "", err
	}
	return &node{op: nRune, r: r}, t, nil
}

// runeEscape interprets an escape that denotes a single rune.
// r is the rune following the \.
func (p *parser) runeEscape(t0 string, r rune, t string) (rune, string, error) {
	switch r {
	case 'n':
		return '\n', t, nil
	case 't':
		return '\t', t, nil
	case 'r':
		return '\r', t, nil
	case 'f':
		return '\f', t, nil
	case 'v':
		return '\v', t, nil
	case 'e':
		return 0x1B, t, nil
	case '0':
		return 0, t, nil
	case 'x':
		var hex string
		if peek(t) == '{' {
			i := strings.IndexByte(t, '}')
			if i < 0 {
				return 0, "", p.errorf(t0, "unclosed \\x{")
			}
			hex, t = t[1:i], t[i+1:]
		} else if len(t) >= 2 {
			hex, t = t[:2], t[2:]
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, "", p.errorf(t0, "bad \\x escape")
		}
		return rune(v), t, nil
	}
	return r, t, nil
}

func (p *parser) group(t0, t string, depth int) (*node, string, error) {
	n := &node{op: nGroup}
	switch {
	case strings.HasPrefix(t, "?:"):
		t = t[2:]
	case strings.HasPrefix(t, "?="), strings.HasPrefix(t, "?!"):
		n = &node{op: nLook, neg: t[1] == '!'}
		t = t[2:]
	case strings.HasPrefix(t, "?<="), strings.HasPrefix(t, "?<!"):
		n = &node{op: nLook, neg: t[2] == '!', kind: 1}
		t = t[3:]
	case strings.HasPrefix(t, "?C"):
		return p.callout(t0, t[2:])
	case strings.HasPrefix(t, "?<"), strings.HasPrefix(t, "?P<"):
		name, rest, ok := groupName(t[strings.IndexByte(t, '<')+1:])
		if !ok {
			return nil, "", p.errorf(t0, "bad group name")
		}
		n = p.capture(t0, name)
		t = rest
	case strings.HasPrefix(t, "?"):
		return nil, "", p.errorf(t0, "unknown group syntax")
	default:
		n = p.capture(t0, "")
	}
	body, t, err := p.alternate(t, depth+1)
	if err != nil {
		return nil, "", err
	}
	r, t := next(t)
	if r != ')' {
		return nil, "", p.errorf(t0, "unclosed (")
	}
	n.subs = []*node{body}
	return n, t, nil
}

func (p *parser) capture(t0, name string) *node {
	p.ncap++
	p.names = append(p.names, name)
	p.opens = append(p.opens, len(p.src)-len(t0))
	return &node{op: nCap, cap: p.ncap, name: name}
}

func (p *parser) callout(t0, t string) (*node, string, error) {
	i := strings.IndexByte(t, ')')
	if i < 0 {
		return nil, "", p.errorf(t0, "unclosed (?C")
	}
	num := 0
	if digits := t[:i]; digits != "" {
		var err error
		if num, err = strconv.Atoi(digits); err != nil || num < 0 || num > 255 {
			return nil, "", p.errorf(t0, "bad callout number")
		}
	}
	return &node{op: nCallout, cap: num}, t[i+1:], nil
}

func groupName(t string) (string, string, bool) {
	i := strings.IndexByte(t, '>')
	if i <= 0 {
		return "", t, false
	}
	name := t[:i]
	for j, r := range name {
		if !isWordRune(r) || (j == 0 && '0' <= r && r <= '9') {
			return "", t, false
		}
	}
	return name, t[i+1:], true
}

func (p *parser) charclass(t0, t string) (*node, string, error) {
	n := &node{op: nClass}
	if peek(t) == '^' {
		_, t = next(t) // eat ^
		n.neg = true
	}
	first := true
	for len(t) > 0 {
		r, rest := next(t)
		switch {
		case r == ']' && !first:
			return n, rest, nil
		case r == '\\':
			er, rest2 := next(rest)
			switch er {
			case 'd', 'w', 's':
				n.class = append(n.class, perlClass(er)...)
				t, first = rest2, false
				continue
			case 'D', 'W', 'S':
				return nil, "", p.errorf(t, "negated class escape in charclass")
			case eof:
				return nil, "", p.errorf(t0, "unclosed [")
			}
			var err error
			if r, rest, err = p.runeEscape(t, er, rest2); err != nil {
				return nil, "", err
			}
		}
		lo, hi := r, r
		if strings.HasPrefix(rest, "-") && len(rest) > 1 && rest[1] != ']' {
			hi, rest = next(rest[1:])
			if hi == '\\' {
				er, rest2 := next(rest)
				var err error
				if hi, rest, err = p.runeEscape(rest, er, rest2); err != nil {
					return nil, "", err
				}
			}
			if lo > hi {
				return nil, "", p.errorf(t, "bad range")
			}
		}
		n.class = append(n.class, [2]rune{lo, hi})
		t, first = rest, false
	}
	return nil, "", p.errorf(t0, "unclosed [")
}

func perlClass(r rune) [][2]rune {
	switch r {
	case 'd', 'D':
		return [][2]rune{{'0', '9'}}
	case 'w', 'W':
		return [][2]rune{{'0', '9'}, {'A', 'Z'}, {'_', '_'}, {'a', 'z'}}
	default:
		return [][2]rune{{'\t', '\r'}, {' ', ' '}}
	}
}

// resolveRefs checks that backreferences name existing groups
// and returns, for each, the groups it may refer to.
func (p *parser) resolveRefs() ([][]int, error) {
	var refs [][]int
	for i, n := range p.refs {
		var groups []int
		if n.name == "" {
			if n.cap <= p.ncap {
				groups = []int{n.cap}
			}
		} else {
			for j, name := range p.names {
				if name == n.name {
					groups = append(groups, j)
				}
			}
		}
		if len(groups) == 0 {
			return nil, &Error{Pos: len(p.src), Msg: "reference to non-existent group"}
		}
		n.cap = i
		refs = append(refs, groups)
	}
	return refs, nil
}

const eof = -1

func next(t string) (rune, string) {
	if len(t) == 0 {
		return eof, ""
	}
	r, w := utf8.DecodeRuneInString(t)
	return r, t[w:]
}

func peek(t string) rune {
	r, _ := next(t)
	return r
}

func isWordRune(r rune) bool {
	return r == '_' || '0' <= r && r <= '9' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z'
}
