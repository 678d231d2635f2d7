package grammar

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/twmb/murmur3"
)

// RootName is the name of the root rule.
const RootName = "root"

// Source is the declarative form of a grammar:
// a mapping from rule name to rule.
type Source map[string]RuleSource

// A RuleSource declares one rule.
//
// A leaf rule has a Pattern and MaxExtend.
// A container rule has a BeginPattern, an EndPattern,
// MaxBeginExtend, and MaxEndExtend.
// The root rule has only a Style and ChildPatterns.
type RuleSource struct {
	// Style names the style of text matched by the rule.
	Style string

	Pattern      string
	BeginPattern string
	EndPattern   string

	// The extents bound, in bytes, how far a lookaround
	// in the corresponding pattern may reach outside its match.
	MaxExtend      int
	MaxBeginExtend int
	MaxEndExtend   int
	// Set tells which of the extents were given.
	Set Fields

	// ChildPatterns names the rules that may begin inside a container,
	// in priority order.
	ChildPatterns []string

	// Substyles map capture names to style names.
	Substyles      map[string]string
	BeginSubstyles map[string]string
	EndSubstyles   map[string]string

	// PushSubpattern names a capture of both the begin and end patterns.
	// The end pattern marks it with (*name) just after the capture;
	// the rule only ends where the two captures have the same text.
	PushSubpattern string
}

// Fields is a set of optional RuleSource fields.
type Fields uint8

// The optional fields.
const (
	MaxExtendSet Fields = 1 << iota
	MaxBeginExtendSet
	MaxEndExtendSet
)

// names returns the rule names, root first and the rest sorted.
func (src Source) names() []string {
	names := make([]string, 0, len(src))
	for name := range src {
		if name != RootName {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{RootName}, names...)
}

// fingerprint serializes the source in a deterministic order.
// Every string is length-prefixed, so distinct sources
// have distinct serializations.
// The result ends with a 128-bit murmur3 digest of the serialization.
func fingerprint(src Source) []byte {
	var buf []byte
	str := func(s string) {
		buf = binary.AppendUvarint(buf, uint64(len(s)))
		buf = append(buf, s...)
	}
	num := func(n int) { buf = binary.AppendVarint(buf, int64(n)) }
	strMap := func(m map[string]string) {
		keys := sortedKeys(m)
		num(len(keys))
		for _, k := range keys {
			str(k)
			str(m[k])
		}
	}
	names := src.names()
	num(len(names))
	for _, name := range names {
		r := src[name]
		str(name)
		str(r.Style)
		str(r.Pattern)
		str(r.BeginPattern)
		str(r.EndPattern)
		num(int(r.Set))
		num(r.MaxExtend)
		num(r.MaxBeginExtend)
		num(r.MaxEndExtend)
		num(len(r.ChildPatterns))
		for _, c := range r.ChildPatterns {
			str(c)
		}
		strMap(r.Substyles)
		strMap(r.BeginSubstyles)
		strMap(r.EndSubstyles)
		str(r.PushSubpattern)
	}
	h := murmur3.New128()
	h.Write(buf)
	return h.Sum(buf)
}

// sameFingerprint compares the digests first.
func sameFingerprint(a, b []byte) bool {
	const n = 16
	if len(a) < n || len(b) < n {
		return false
	}
	return bytes.Equal(a[len(a)-n:], b[len(b)-n:]) && bytes.Equal(a, b)
}
