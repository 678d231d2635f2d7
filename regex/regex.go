// Package regex implements the regular expression language
// used by grammars and by the find command.
//
// It grew out of a plan9-style expression language
// and adds the Perl constructs that syntax grammars need:
// named groups, lookaround, backreferences, lazy and counted repetition,
// and mid-match callouts.
//
// The grammar is:
//
//	regexp = alternate.
//	alternate = concat { "|" concat }.
//	concat = { repeat }.
//	repeat = term { quant [ "?" ] }.
//	quant = "*" | "+" | "?" | "{" digits [ "," [ digits ] ] "}".
//	term = "." | "^" | "$" | group | charclass | escape | literal.
//	group = "(" [ "?:" | "?=" | "?!" | "?<=" | "?<!" | "?<" name ">" | "?P<" name ">" ] regexp ")"
//		| "(?C" [ digits ] ")".
//	charclass = "[" [ "^" ] classitem { classitem } "]".
//
// The meta characters are:
//
//	| alternation
//	* + ? {n,m} repetition, greedy; followed by ? they are lazy
//	. any non-newline rune
//	^ $ beginning and end of line
//	() capturing group, (?:) non-capturing group, (?<name>) named group
//	(?=) (?!) lookahead, (?<=) (?<!) lookbehind
//	(?Cn) callout number n
//	[] character class (^ negates, - is a range)
//	\d \w \s and \D \W \S ASCII classes
//	\b \B word boundary, \A \z beginning and end of text
//	\1-\9 and \k<name> backreferences
//	\n \t \r \f \v \e \0 \xHH \x{H...} rune escapes
//	\ otherwise is the literal of the following rune
//	  or is \ itself if there is no following rune.
//
// Alternation is leftmost-first: an earlier alternative
// is preferred over a later one whenever both match.
// All positions are byte offsets.
package regex

import (
	"errors"
	"fmt"
)

// ErrAborted is returned by Match when a callout aborted the match.
var ErrAborted = errors.New("match aborted by callout")

// An Error is a syntax error in an expression.
type Error struct {
	// Pos is the byte offset in the expression at which the error was found.
	Pos int
	// Msg describes the error.
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s at offset %d", e.Msg, e.Pos) }

// Opts are compile-time options. The zero value is default.
type Opts struct {
	// IgnoreCase matches letters regardless of their case.
	IgnoreCase bool
}

// Regexp is a compiled regular expression.
// A Regexp is immutable and may be shared.
type Regexp struct {
	source string
	opts   Opts
	prog   []instr
	looks  []look
	class  [][][2]rune
	refs   [][]int
	ncap   int
	nmark  int
	names  []string
	opens  []int
	numref bool
	pre    *prefilter
}

type look struct {
	prog   []instr
	behind bool
	neg    bool
}

// Compile compiles an expression.
func Compile(expr string, opts Opts) (*Regexp, error) {
	p := &parser{src: expr, names: []string{""}, opens: []int{0}}
	n, t, err := p.alternate(expr, 0)
	if err != nil {
		return nil, err
	}
	if t != "" {
		return nil, p.errorf(t, "unopened )")
	}
	refs, err := p.resolveRefs()
	if err != nil {
		return nil, err
	}
	re := &Regexp{
		source: expr,
		opts:   opts,
		refs:   refs,
		ncap:   p.ncap,
		names:  p.names,
		opens:  p.opens,
		numref: p.numrefs,
	}
	c := &compiler{re: re}
	re.prog = c.compile(n, false)
	re.nmark = c.nmark
	if !opts.IgnoreCase {
		re.pre = buildPrefilter(prefixes(n))
	}
	return re, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string, opts Opts) *Regexp {
	re, err := Compile(expr, opts)
	if err != nil {
		panic("regex: Compile(" + expr + "): " + err.Error())
	}
	return re
}

// String returns the source text of the expression.
func (re *Regexp) String() string { return re.source }

// NumSubexp returns the number of capturing groups.
func (re *Regexp) NumSubexp() int { return re.ncap }

// CaptureSize returns the length of the capture vector
// that Match fills: two offsets for the whole match
// and two for every capturing group.
func (re *Regexp) CaptureSize() int { return 2 * (re.ncap + 1) }

// SubexpNames returns the names of the capturing groups.
// Element 0 is the whole match and always "";
// unnamed groups are "" too.
func (re *Regexp) SubexpNames() []string { return re.names }

// SubexpIndex returns the number of the first group with the given name,
// or -1 if there is none.
func (re *Regexp) SubexpIndex(name string) int {
	return re.SubexpIndexIn(name, 1, re.ncap+1)
}

// SubexpIndexIn is like SubexpIndex,
// but only considers groups numbered in [from, to).
func (re *Regexp) SubexpIndexIn(name string, from, to int) int {
	if to > re.ncap+1 {
		to = re.ncap + 1
	}
	for i := from; i < to; i++ {
		if name != "" && re.names[i] == name {
			return i
		}
	}
	return -1
}

// SubexpAt returns the number of the group
// whose opening parenthesis is at byte offset off of the expression,
// or -1 if no group opens there.
func (re *Regexp) SubexpAt(off int) int {
	for i := 1; i <= re.ncap; i++ {
		if re.opens[i] == off {
			return i
		}
	}
	return -1
}

// HasNumberedRefs reports whether the expression
// contains a numbered backreference, \1 through \9.
func (re *Regexp) HasNumberedRefs() bool { return re.numref }
