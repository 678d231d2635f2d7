package regex

import (
	"bytes"
	"unicode"
	"unicode/utf8"
)

// unknown is returned for runes outside of the window
// that are not beyond either end of the full text.
const unknown = -2

// Input is the text that Match runs on.
//
// Text is a window onto a larger text:
// it begins at byte offset Base of the full text,
// which is Len bytes long.
// Assertions at the edges of the window (^, $, \b, \A, \z)
// only succeed where the window edge is the edge of the full text.
// A zero Len means the window is the full text.
type Input struct {
	Text []byte
	Base int64
	Len  int64
	// Callout, if non-nil, is called at every callout marker
	// reached during the match.
	// It returns 0 to continue matching,
	// a positive value to fail the current path and backtrack,
	// or a negative value to abort the whole match.
	Callout func(*CalloutBlock) int
	// Before is the text of the full text just before the window.
	// It is only read for the implicit callout argument.
	Before []byte
}

// A CalloutBlock describes the state of a match at a callout marker.
// It is only valid for the duration of the callout.
type CalloutBlock struct {
	// Number is the callout number, n of (?Cn).
	Number int
	// Pos is the window offset at which the marker was reached.
	Pos int
	// Captures is the capture vector so far, in window offsets.
	// Unset captures are -1.
	Captures []int
	// LastCaptured is the number of the most recently closed group,
	// or 0 if none has closed.
	LastCaptured int
	// Text is the window.
	Text []byte
	// Before is Input.Before.
	Before []byte
}

// Capture returns the text of capture n and whether it is set.
func (cb *CalloutBlock) Capture(n int) ([]byte, bool) {
	if n < 0 || 2*n+1 >= len(cb.Captures) {
		return nil, false
	}
	s, e := cb.Captures[2*n], cb.Captures[2*n+1]
	if s < 0 || e < 0 || s > e {
		return nil, false
	}
	return cb.Text[s:e], true
}

// Implicit returns the implicit callout argument:
// the text of the most recently closed group if it ends at Pos,
// otherwise the byte just before Pos.
// At the start of the window that byte is the last byte of Before,
// and nil if Before is empty.
func (cb *CalloutBlock) Implicit() []byte {
	if cb.LastCaptured > 0 && cb.Captures[2*cb.LastCaptured+1] == cb.Pos {
		if text, ok := cb.Capture(cb.LastCaptured); ok {
			return text
		}
	}
	switch {
	case cb.Pos > 0:
		return cb.Text[cb.Pos-1 : cb.Pos]
	case len(cb.Before) > 0:
		return cb.Before[len(cb.Before)-1:]
	}
	return nil
}

// Match attempts to match the expression in the window.
//
// If anchored is true, the match must begin at window offset at.
// Otherwise the first position at or after at where the expression matches
// is found, scanning forward a rune at a time.
//
// On success, caps, which should be CaptureSize long,
// is filled with window offsets: the match is caps[0:2],
// group n is caps[2n:2n+2], and unset groups are -1.
//
// The error is ErrAborted if a callout aborted the match.
func (re *Regexp) Match(in Input, at int, anchored bool, caps []int) (bool, error) {
	if Debug {
		debug("prog:\n%s\n", re.DebugString())
	}
	m := newMachine(re, &in)
	for start := at; start <= len(in.Text); {
		if !anchored && re.pre != nil {
			if start >= len(in.Text) {
				return false, nil
			}
			if start = re.pre.next(in.Text, start); start < 0 {
				return false, nil
			}
		}
		m.reset(start)
		end, ok := m.run(re.prog, 0, start, false)
		if m.err != nil {
			return false, m.err
		}
		if ok {
			m.slots[1] = end
			copy(caps, m.slots[:re.CaptureSize()])
			return true, nil
		}
		if anchored || start >= len(in.Text) {
			break
		}
		_, w := utf8.DecodeRune(in.Text[start:])
		start += w
	}
	return false, nil
}

// MatchString reports whether the expression matches anywhere in s.
func (re *Regexp) MatchString(s string) bool {
	ok, _ := re.Match(Input{Text: []byte(s)}, 0, false, make([]int, re.CaptureSize()))
	return ok
}

type machine struct {
	re    *Regexp
	in    *Input
	text  []byte
	total int64
	slots []int
	marks int
	last  int
	stack []entry
	err   error
}

// An entry is either a branch point (slot < 0) to resume at,
// or a slot value to restore when backtracking past it.
type entry struct {
	pc, pos   int
	slot, old int
}

func newMachine(re *Regexp, in *Input) *machine {
	m := &machine{re: re, in: in, text: in.Text}
	m.total = in.Len
	if end := in.Base + int64(len(in.Text)); m.total < end {
		m.total = end
	}
	m.marks = re.CaptureSize()
	m.last = m.marks + re.nmark
	m.slots = make([]int, m.last+1)
	return m
}

func (m *machine) reset(start int) {
	for i := range m.slots {
		m.slots[i] = -1
	}
	m.slots[0] = start
	m.slots[m.last] = 0
	m.stack = m.stack[:0]
}

func (m *machine) run(prog []instr, pc, pos int, rev bool) (int, bool) {
	base := len(m.stack)
	for {
		if m.err != nil {
			m.unwind(base)
			return 0, false
		}
		if Debug {
			debug("	%4d %d: %s\n", pos, pc, prog[pc].DebugString(m.re, pc))
		}
		ok := true
		switch in := prog[pc]; in.op {
		case match:
			m.commit(base)
			return pos, true
		case char:
			var r rune
			r, pos = m.step(pos, rev)
			ok = r >= 0 && m.eqRune(r, rune(in.arg))
			pc++
		case anyrune:
			var r rune
			r, pos = m.step(pos, rev)
			ok = r >= 0 && r != '\n'
			pc++
		case class, nclass:
			var r rune
			r, pos = m.step(pos, rev)
			ok = r >= 0 && m.inClass(r, m.re.class[in.arg]) == (in.op == class)
			pc++
		case assert:
			ok = m.assert(in.arg, pos)
			pc++
		case jmp:
			pc = in.arg
		case fork:
			m.push(in.arg, pos)
			pc++
		case rfork:
			m.push(pc+1, pos)
			pc = in.arg
		case save:
			m.set(in.arg, pos)
			if in.close {
				m.set(m.last, in.arg/2)
			}
			pc++
		case mark:
			m.set(m.marks+in.arg, pos)
			pc++
		case progress:
			ok = m.slots[m.marks+in.arg] != pos
			pc++
		case lookop:
			ok = m.look(in.arg, pos)
			pc++
		case backref:
			pos, ok = m.backref(in.arg, pos, rev)
			pc++
		case callout:
			switch r := m.callout(in.arg, pos); {
			case r < 0:
				m.err = ErrAborted
			case r > 0:
				ok = false
			}
			pc++
		}
		if !ok {
			if pc, pos, ok = m.backtrack(base); !ok {
				return 0, false
			}
		}
	}
}

func (m *machine) push(pc, pos int) {
	m.stack = append(m.stack, entry{pc: pc, pos: pos, slot: -1})
}

func (m *machine) set(slot, v int) {
	m.stack = append(m.stack, entry{slot: slot, old: m.slots[slot]})
	m.slots[slot] = v
}

// backtrack pops entries down to the next branch point above base,
// restoring slots on the way.
func (m *machine) backtrack(base int) (int, int, bool) {
	for len(m.stack) > base {
		e := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		if e.slot < 0 {
			return e.pc, e.pos, true
		}
		m.slots[e.slot] = e.old
	}
	return 0, 0, false
}

// unwind pops all entries above base, restoring slots.
func (m *machine) unwind(base int) {
	for len(m.stack) > base {
		e := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		if e.slot >= 0 {
			m.slots[e.slot] = e.old
		}
	}
}

// commit drops the branch points above base.
// Restore entries are kept, so that backtracking
// past a successful lookaround undoes its captures.
func (m *machine) commit(base int) {
	kept := m.stack[:base]
	for _, e := range m.stack[base:] {
		if e.slot >= 0 {
			kept = append(kept, e)
		}
	}
	m.stack = kept
}

func (m *machine) look(i, pos int) bool {
	l := m.re.looks[i]
	base := len(m.stack)
	_, ok := m.run(l.prog, 0, pos, l.behind)
	switch {
	case m.err != nil:
		return false
	case l.neg && ok:
		m.unwind(base)
		return false
	case l.neg:
		return true
	default:
		return ok
	}
}

func (m *machine) backref(i, pos int, rev bool) (int, bool) {
	for _, g := range m.re.refs[i] {
		s, e := m.slots[2*g], m.slots[2*g+1]
		if s < 0 || e < 0 || s > e {
			continue
		}
		sub := m.text[s:e]
		var seg []byte
		if rev {
			if pos < len(sub) {
				return pos, false
			}
			seg, pos = m.text[pos-len(sub):pos], pos-len(sub)
		} else {
			if pos+len(sub) > len(m.text) {
				return pos, false
			}
			seg, pos = m.text[pos:pos+len(sub)], pos+len(sub)
		}
		if m.re.opts.IgnoreCase {
			return pos, bytes.EqualFold(seg, sub)
		}
		return pos, bytes.Equal(seg, sub)
	}
	return pos, false
}

func (m *machine) callout(num, pos int) int {
	if m.in.Callout == nil {
		return 0
	}
	return m.in.Callout(&CalloutBlock{
		Number:       num,
		Pos:          pos,
		Captures:     m.slots[:m.re.CaptureSize()],
		LastCaptured: m.slots[m.last],
		Text:         m.text,
		Before:       m.in.Before,
	})
}

func (m *machine) step(pos int, rev bool) (rune, int) {
	if rev {
		if pos <= 0 {
			return eof, pos
		}
		r, w := utf8.DecodeLastRune(m.text[:pos])
		return r, pos - w
	}
	if pos >= len(m.text) {
		return eof, pos
	}
	r, w := utf8.DecodeRune(m.text[pos:])
	return r, pos + w
}

func (m *machine) before(pos int) rune {
	switch {
	case pos > 0:
		r, _ := utf8.DecodeLastRune(m.text[:pos])
		return r
	case m.in.Base == 0:
		return eof
	default:
		return unknown
	}
}

func (m *machine) after(pos int) rune {
	switch {
	case pos < len(m.text):
		r, _ := utf8.DecodeRune(m.text[pos:])
		return r
	case m.in.Base+int64(pos) >= m.total:
		return eof
	default:
		return unknown
	}
}

func (m *machine) assert(kind, pos int) bool {
	switch kind {
	case bol:
		r := m.before(pos)
		return r == eof || r == '\n'
	case eol:
		r := m.after(pos)
		return r == eof || r == '\n'
	case bot:
		return m.in.Base+int64(pos) == 0
	case eot:
		return m.in.Base+int64(pos) == m.total
	case wordb:
		return isWordRune(m.before(pos)) != isWordRune(m.after(pos))
	case nwordb:
		return isWordRune(m.before(pos)) == isWordRune(m.after(pos))
	}
	return false
}

func (m *machine) eqRune(r, want rune) bool {
	if r == want {
		return true
	}
	if !m.re.opts.IgnoreCase {
		return false
	}
	for f := unicode.SimpleFold(want); f != want; f = unicode.SimpleFold(f) {
		if f == r {
			return true
		}
	}
	return false
}

func (m *machine) inClass(r rune, cl [][2]rune) bool {
	if classContains(cl, r) {
		return true
	}
	if !m.re.opts.IgnoreCase {
		return false
	}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if classContains(cl, f) {
			return true
		}
	}
	return false
}

func classContains(cl [][2]rune, r rune) bool {
	for _, c := range cl {
		if c[0] <= r && r <= c[1] {
			return true
		}
	}
	return false
}
