// Package search finds find expressions in a text buffer.
//
// A Searcher searches forward or backward from a position,
// reading only a window of the buffer around the region searched.
// A find expression is literal text or, with the Regex option,
// an expression of package regex.
// An expression may contain callouts, (*expr) or (*expr,arg1,arg2,...),
// which evaluate expr once in a scripting Runtime
// and consult the resulting value mid-match:
// the match continues only where the value accepts the argument text.
package search

import (
	"errors"

	"github.com/osch/luced-sub001/regex"
)

// Options modify a search.
type Options uint

// The options.
const (
	// Backward searches toward the start of the buffer.
	Backward Options = 1 << iota
	// IgnoreCase matches letters regardless of their case.
	IgnoreCase
	// Regex interprets the find string as an expression.
	// Otherwise it is literal text.
	Regex
	// WholeWord only matches at word boundaries.
	WholeWord
	// AllowMatchAtStart accepts a match at the search position itself.
	// Otherwise such a match is skipped,
	// so that repeated searches make progress.
	AllowMatchAtStart
)

// A Param is a find string with its options.
type Param struct {
	Find string
	Options
}

// DefaultAssertionLength is the default number of bytes
// that a search may read outside of the region searched
// to resolve lookaround assertions.
const DefaultAssertionLength = 1024

// Text is the buffer searched.
type Text interface {
	// Len returns the length in bytes.
	Len() int64
	// Window returns a copy of the bytes in [start, end).
	Window(start, end int64) []byte
}

// A Value is the result of evaluating a callout expression.
// It is a Callable or an Indexable.
type Value interface{}

// A Callable is a Value that is called with the callout arguments.
type Callable interface {
	// Call reports whether the arguments are accepted.
	Call(args []string) (bool, error)
}

// An Indexable is a Value that is indexed with the first callout argument.
type Indexable interface {
	// Index reports whether the key is present.
	Index(key string) (bool, error)
}

// A Runtime evaluates callout expressions.
type Runtime interface {
	Eval(expr string) (Value, error)
}

// ErrBusy is returned by a search started from a callout
// of a search running on the same Searcher.
var ErrBusy = errors.New("search: searcher is busy")

// A Searcher searches a buffer.
// The find expression is compiled when first needed
// and kept until a parameter changes.
// A Searcher must not be used concurrently.
type Searcher struct {
	buf Text
	rt  Runtime

	param Param
	expr  *expression // nil if it must be compiled

	pos      int64
	maxEnd   int64
	minStart int64
	hasMax   bool
	hasMin   bool
	fwdLen   int64
	backLen  int64

	busy  bool
	found bool
	caps  []int64
}

// New returns a new Searcher of a buffer.
// Callout expressions are evaluated by rt, which may be nil
// if no find expression has callouts.
func New(buf Text, rt Runtime) *Searcher {
	return &Searcher{
		buf:     buf,
		rt:      rt,
		fwdLen:  DefaultAssertionLength,
		backLen: DefaultAssertionLength,
	}
}

// SetParam sets the find string and options.
func (s *Searcher) SetParam(p Param) *Searcher {
	if p != s.param {
		s.param = p
		s.expr = nil
	}
	return s
}

// SetFind sets the find string.
func (s *Searcher) SetFind(find string) *Searcher {
	return s.SetParam(Param{Find: find, Options: s.param.Options})
}

// SetOptions sets the options.
func (s *Searcher) SetOptions(opts Options) *Searcher {
	return s.SetParam(Param{Find: s.param.Find, Options: opts})
}

// Param returns the find string and options.
func (s *Searcher) Param() Param { return s.param }

// SetPosition sets the position at which the next search starts.
func (s *Searcher) SetPosition(pos int64) *Searcher {
	s.pos = pos
	return s
}

// Position returns the position at which the next search starts.
// A search that skips a match at the position moves it.
func (s *Searcher) Position() int64 { return s.pos }

// SetMaxEnd sets the largest end of a match.
func (s *Searcher) SetMaxEnd(end int64) *Searcher {
	s.maxEnd, s.hasMax = end, true
	return s
}

// ClearMaxEnd removes the bound set by SetMaxEnd.
func (s *Searcher) ClearMaxEnd() *Searcher {
	s.hasMax = false
	return s
}

// SetMinStart sets the smallest start of a match found by a backward search.
func (s *Searcher) SetMinStart(start int64) *Searcher {
	s.minStart, s.hasMin = start, true
	return s
}

// ClearMinStart removes the bound set by SetMinStart.
func (s *Searcher) ClearMinStart() *Searcher {
	s.hasMin = false
	return s
}

// SetMaxForwardAssertionLength sets how far past the region searched
// a search may read.
// Negative lengths are taken as 0.
func (s *Searcher) SetMaxForwardAssertionLength(n int64) *Searcher {
	s.fwdLen = max64(0, n)
	return s
}

// SetMaxBackwardAssertionLength sets how far before the region searched
// a search may read.
// Negative lengths are taken as 0.
// The byte just before the window is still read
// for the implicit argument of a callout.
func (s *Searcher) SetMaxBackwardAssertionLength(n int64) *Searcher {
	s.backLen = max64(0, n)
	return s
}

// SetBuffer sets the buffer searched.
func (s *Searcher) SetBuffer(buf Text) *Searcher {
	s.buf = buf
	s.found = false
	return s
}

// WasFound reports whether the last search found a match.
func (s *Searcher) WasFound() bool { return s.found }

// MatchBegin returns the start of the last match.
func (s *Searcher) MatchBegin() int64 { return s.CaptureBegin(0) }

// MatchEnd returns the end of the last match.
func (s *Searcher) MatchEnd() int64 {
	if !s.found {
		return -1
	}
	return s.caps[1]
}

// MatchLength returns the length of the last match.
func (s *Searcher) MatchLength() int64 { return s.CaptureLength(0) }

// CaptureBegin returns the start of capture group n of the last match,
// or -1 if it is not set.
func (s *Searcher) CaptureBegin(n int) int64 {
	if !s.found || n < 0 || 2*n+1 >= len(s.caps) {
		return -1
	}
	return s.caps[2*n]
}

// CaptureLength returns the length of capture group n of the last match,
// or 0 if it is not set.
func (s *Searcher) CaptureLength(n int) int64 {
	if b := s.CaptureBegin(n); b >= 0 {
		return s.caps[2*n+1] - b
	}
	return 0
}

// Captures returns the capture vector of the last match:
// pairs of start and end positions of the match and of each group,
// with -1 for unset groups.
func (s *Searcher) Captures() []int64 {
	if !s.found {
		return nil
	}
	return append([]int64(nil), s.caps...)
}

// Quote returns text with the meta-characters of expressions escaped.
func Quote(text string) string { return regex.Quote(text) }

// Find returns the start of the first match of find
// searching from pos with the given options, or -1.
func Find(buf Text, find string, pos int64, opts Options, rt Runtime) (int64, error) {
	s := New(buf, rt).SetParam(Param{Find: find, Options: opts}).SetPosition(pos)
	ok, err := s.FindNext()
	if err != nil || !ok {
		return -1, err
	}
	return s.MatchBegin(), nil
}

func (s *Searcher) prepare() (*expression, error) {
	if s.busy {
		return nil, ErrBusy
	}
	s.found = false
	if s.expr == nil {
		x, err := compile(s.param, s.rt)
		if err != nil {
			return nil, err
		}
		s.expr = x
	}
	return s.expr, nil
}

// DoesMatch reports whether the expression matches at the position.
func (s *Searcher) DoesMatch() (bool, error) {
	x, err := s.prepare()
	if err != nil {
		return false, err
	}
	n := s.buf.Len()
	if s.pos < 0 || s.pos > n {
		return false, nil
	}
	return s.match(x, 0, n, s.pos, true)
}

// FindNext searches from the position in the direction of the options.
// It reports whether a match was found.
// The error is a *PatternError if the find expression is bad,
// and a *ScriptError if a callout failed.
func (s *Searcher) FindNext() (bool, error) {
	x, err := s.prepare()
	if err != nil {
		return false, err
	}
	if s.param.Options&Backward != 0 {
		return s.backward(x)
	}
	return s.forward(x)
}

type attempt int

const (
	first attempt = iota
	retry
)

func (s *Searcher) end() int64 {
	if n := s.buf.Len(); !s.hasMax || s.maxEnd > n {
		return n
	}
	return s.maxEnd
}

func (s *Searcher) forward(x *expression) (bool, error) {
	n := s.buf.Len()
	start := s.pos
	for a := first; a <= retry; a++ {
		if s.pos < 0 {
			s.pos = 0
		}
		if s.pos > n {
			return false, nil
		}
		epos := s.end()
		lo := max64(0, s.pos-s.backLen)
		hi := min64(n, max64(epos, s.pos)+s.fwdLen)
		ok, err := s.match(x, lo, hi, s.pos, false)
		if err != nil || !ok {
			return false, err
		}
		if s.caps[1] > epos {
			s.found = false
			return false, nil
		}
		if a == first && s.caps[0] == start && s.param.Options&AllowMatchAtStart == 0 {
			s.found = false
			s.pos = start + 1
			continue
		}
		return true, nil
	}
	return false, nil
}

func (s *Searcher) backward(x *expression) (bool, error) {
	n := s.buf.Len()
	floor := int64(0)
	if s.hasMin && s.minStart > 0 {
		floor = s.minStart
	}
	if s.pos > n {
		s.pos = n
	}
	start := s.pos
	epos := s.end()
	lo := max64(0, floor-s.backLen)
	hi := min64(n, max64(epos, s.pos)+s.fwdLen)
	var window []byte
	for a := first; s.pos >= floor; a = retry {
		if window == nil {
			window = s.buf.Window(lo, hi)
		}
		ok, err := s.matchIn(x, window, lo, s.pos, true)
		switch {
		case err != nil:
			return false, err
		case ok && s.caps[1] <= epos:
			if a == first && s.caps[0] >= start && s.param.Options&AllowMatchAtStart == 0 {
				s.found = false
				break
			}
			return true, nil
		}
		s.found = false
		s.pos--
	}
	return false, nil
}

// match runs one match on the window [lo, hi) of the buffer.
func (s *Searcher) match(x *expression, lo, hi, at int64, anchored bool) (bool, error) {
	return s.matchIn(x, s.buf.Window(lo, hi), lo, at, anchored)
}

// matchIn runs one match on a window beginning at lo.
// On success the capture vector holds buffer positions.
func (s *Searcher) matchIn(x *expression, window []byte, lo, at int64, anchored bool) (bool, error) {
	var failure error
	in := regex.Input{
		Text: window,
		Base: lo,
		Len:  s.buf.Len(),
	}
	if len(x.bindings) > 0 {
		in.Callout = trampoline(x, &failure)
		if lo > 0 {
			in.Before = s.buf.Window(lo-1, lo)
		}
	}
	caps := make([]int, x.re.CaptureSize())
	s.busy = true
	ok, err := x.re.Match(in, int(at-lo), anchored, caps)
	s.busy = false
	switch {
	case failure != nil:
		return false, failure
	case err != nil:
		return false, err
	case !ok:
		return false, nil
	}
	s.caps = s.caps[:0]
	for _, c := range caps {
		if c < 0 {
			s.caps = append(s.caps, -1)
		} else {
			s.caps = append(s.caps, int64(c)+lo)
		}
	}
	s.found = true
	return true, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
