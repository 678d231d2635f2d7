package regex

import (
	"unicode/utf8"

	"github.com/coregx/ahocorasick"
)

// maxPrefixes bounds the literal set handed to the prefilter.
const maxPrefixes = 256

// prefixes returns a set of non-empty literals,
// one of which begins every match of n,
// or nil if there is no such set.
func prefixes(n *node) []string {
	switch n.op {
	case nRune:
		if n.r == utf8.RuneError {
			return nil
		}
		return []string{string(n.r)}
	case nCap, nGroup:
		return prefixes(n.subs[0])
	case nRepeat:
		if n.min == 0 {
			return nil
		}
		return prefixes(n.subs[0])
	case nAlt:
		var set []string
		for _, sub := range n.subs {
			p := prefixes(sub)
			if p == nil || len(set)+len(p) > maxPrefixes {
				return nil
			}
			set = append(set, p...)
		}
		return set
	case nConcat:
		var lit []rune
		for _, sub := range n.subs {
			if sub.op != nRune || sub.r == utf8.RuneError {
				break
			}
			lit = append(lit, sub.r)
		}
		if len(lit) > 0 {
			return []string{string(lit)}
		}
		return prefixes(n.subs[0])
	}
	return nil
}

// A prefilter finds candidate match starts.
type prefilter struct {
	auto *ahocorasick.Automaton
	// maxLen is the byte length of the longest literal.
	maxLen int
}

func buildPrefilter(set []string) *prefilter {
	if len(set) == 0 {
		return nil
	}
	pre := &prefilter{}
	b := ahocorasick.NewBuilder()
	for _, lit := range set {
		b.AddPattern([]byte(lit))
		if len(lit) > pre.maxLen {
			pre.maxLen = len(lit)
		}
	}
	auto, err := b.Build()
	if err != nil {
		return nil
	}
	pre.auto = auto
	return pre
}

// next returns a rune offset at or after start
// that no occurrence of a literal begins before,
// or -1 if no literal occurs at or after start.
//
// The automaton reports the occurrence that ends first,
// which may begin after an overlapping one that ends later,
// so its end only bounds the leftmost start from below.
func (pre *prefilter) next(text []byte, start int) int {
	c := pre.auto.Find(text, start)
	if c == nil {
		return -1
	}
	i := c.End - pre.maxLen
	if i <= start {
		return start
	}
	for i > start && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}
