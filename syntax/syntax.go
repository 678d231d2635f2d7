// Package syntax highlights text with a compiled grammar.
package syntax

import (
	"unicode/utf8"

	"github.com/osch/luced-sub001/grammar"
	"github.com/osch/luced-sub001/regex"
	"github.com/osch/luced-sub001/style"
)

// A Highlight is a style applied to an addressed string of text.
type Highlight struct {
	// At is the addressed string.
	At [2]int64
	// StyleID is the grammar's ID of the style.
	StyleID int
	// Style is the style to apply to the string.
	style.Style
}

// Text is the text highlighted.
type Text interface {
	Len() int64
	Window(start, end int64) []byte
}

// minWindow is the size of the first window read for a match.
const minWindow = 4096

// A Tokenizer splits text into highlights
// by walking it with a grammar.
type Tokenizer struct {
	g *grammar.Grammar
}

// NewTokenizer returns a new Tokenizer for a grammar.
func NewTokenizer(g *grammar.Grammar) *Tokenizer { return &Tokenizer{g: g} }

// Grammar returns the tokenizer's grammar.
func (t *Tokenizer) Grammar() *grammar.Grammar { return t.g }

// A frame is an open rule.
type frame struct {
	rule int
	// pushed is the text of the rule's pushed subpattern.
	pushed string
}

// Tokens returns the highlights of the text in [from, to), in text order.
// The highlights cover every byte of the range.
// At from, only the root rule may be open;
// 0 and the start of a line outside of any container are such positions.
func (t *Tokenizer) Tokens(txt Text, from, to int64) []Highlight {
	n := txt.Len()
	if to > n {
		to = n
	}
	if from < 0 {
		from = 0
	}
	tz := tokenizer{g: t.g, txt: txt, n: n, to: to, lastEmpty: -1}
	stack := []frame{{rule: 0}}
	for pos := from; pos < to; {
		top := stack[len(stack)-1]
		r := t.g.Rule(top.rule)
		caps, ok := tz.match(r, top.pushed, pos)
		if !ok {
			tz.emit(pos, to, r.Style)
			break
		}
		ms, me := caps[0], caps[1]
		if ms == me {
			if ms == tz.lastEmpty {
				_, w := utf8.DecodeRune(txt.Window(pos, pos+utf8.UTFMax))
				if w == 0 {
					w = 1
				}
				tz.emit(pos, pos+int64(w), r.Style)
				pos += int64(w)
				continue
			}
			tz.lastEmpty = ms
		}
		tz.emit(pos, ms, r.Style)
		switch i := t.g.MatchedChild(top.rule, tz.caps); i {
		case grammar.EndMatched:
			tz.emitSubs(ms, me, r.Style, r.EndSubstyles, caps)
			stack = stack[:len(stack)-1]
		default:
			child := r.Children[i]
			cr := t.g.Rule(child.Rule)
			tz.emitSubs(ms, me, cr.Style, child.Substyles, caps)
			if cr.HasEnd {
				f := frame{rule: child.Rule}
				if s, e := slot(caps, child.PushedSlot); s >= 0 {
					f.pushed = string(txt.Window(s, e))
				}
				stack = append(stack, f)
			}
		}
		pos = me
	}
	return tz.hs
}

type tokenizer struct {
	g         *grammar.Grammar
	txt       Text
	n, to     int64
	lastEmpty int64
	caps      []int
	hs        []Highlight
}

// match finds the next match of a rule's program at or after pos.
// The returned captures are text positions.
func (tz *tokenizer) match(r *grammar.Rule, pushed string, pos int64) ([]int64, bool) {
	re := r.Program
	if re == nil {
		return nil, false
	}
	if cap(tz.caps) < tz.g.MaxCaptures() {
		tz.caps = make([]int, tz.g.MaxCaptures())
	}
	tz.caps = tz.caps[:re.CaptureSize()]
	ext := int64(r.MaxExtend)
	lo := pos - ext
	if lo < 0 {
		lo = 0
	}
	for size := int64(minWindow); ; size *= 2 {
		hi := pos + size
		if hi > tz.n {
			hi = tz.n
		}
		end := hi + ext
		if end > tz.n {
			end = tz.n
		}
		in := regex.Input{
			Text: tz.txt.Window(lo, end),
			Base: lo,
			Len:  tz.n,
		}
		if r.HasPushedSubstr() {
			in.Callout = pushedCallout(r.PushedEndSlot, pushed)
		}
		ok, err := re.Match(in, int(pos-lo), false, tz.caps)
		if err == nil && ok && int64(tz.caps[1])+lo <= hi {
			caps := make([]int64, len(tz.caps))
			for i, c := range tz.caps {
				caps[i] = -1
				if c >= 0 {
					caps[i] = int64(c) + lo
				}
			}
			return caps, true
		}
		if err != nil || hi == tz.n {
			return nil, false
		}
	}
}

// pushedCallout returns a callout function
// accepting the pushed capture only if its text is pushed.
func pushedCallout(slot int, pushed string) func(*regex.CalloutBlock) int {
	return func(cb *regex.CalloutBlock) int {
		if cb.Number != grammar.PushedCallout {
			return 0
		}
		if text, ok := cb.Capture(slot); ok && string(text) == pushed {
			return 0
		}
		return 1
	}
}

func slot(caps []int64, i int) (int64, int64) {
	if i < 0 || 2*i+1 >= len(caps) || caps[2*i+1] < 0 {
		return -1, -1
	}
	return caps[2*i], caps[2*i+1]
}

// emitSubs emits [s, e) in a style,
// with the text of the substyle captures in their own styles.
func (tz *tokenizer) emitSubs(s, e int64, id int, subs []grammar.Substyle, caps []int64) {
	for _, sub := range subs {
		cs, ce := slot(caps, sub.Slot)
		if cs < s || ce > e {
			continue
		}
		tz.emit(s, cs, id)
		tz.emit(cs, ce, sub.Style)
		s = ce
	}
	tz.emit(s, e, id)
}

// emit adds a highlight, clipped to the end of the range.
// Adjacent highlights of the same style are merged.
func (tz *tokenizer) emit(s, e int64, id int) {
	if e > tz.to {
		e = tz.to
	}
	if s >= e {
		return
	}
	if k := len(tz.hs) - 1; k >= 0 && tz.hs[k].StyleID == id && tz.hs[k].At[1] == s {
		tz.hs[k].At[1] = e
		return
	}
	tz.hs = append(tz.hs, Highlight{At: [2]int64{s, e}, StyleID: id, Style: tz.g.Style(id)})
}
