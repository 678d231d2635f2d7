// Package grammar compiles declarative syntax grammars.
//
// A grammar is a set of named rules.
// A leaf rule matches a single pattern.
// A container rule matches a begin pattern,
// then any of its child rules,
// until its end pattern matches.
// The root rule is a container without begin or end.
//
// Each container, the root included, is compiled into one expression:
// an alternation with a branch for the begin pattern of each child,
// in priority order, followed by a branch for its own end pattern.
// Each branch is a capture group, so the capture vector of a match
// tells which branch matched.
package grammar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/osch/luced-sub001/regex"
	"github.com/osch/luced-sub001/style"
)

// PushedCallout is the callout number marking a pushed subpattern
// in an end pattern.
const PushedCallout = 255

// Results of MatchedChild that are not child indices.
const (
	EndMatched = -1
	NoMatch    = -2
)

// A ConfigError is an error in a grammar source.
type ConfigError struct {
	// Rule is the name of the offending rule.
	Rule string
	Msg  string
}

func (e *ConfigError) Error() string { return "rule " + e.Rule + ": " + e.Msg }

// A Grammar is a compiled grammar.
// Apart from its styles, which UpdateStyles may replace,
// a Grammar is immutable.
type Grammar struct {
	rules       []Rule
	styleNames  []string
	styleIDs    map[string]int
	styles      atomic.Pointer[[]style.Style]
	maxCaptures int
	maxExtend   int
	fingerprint []byte
}

// A Rule is a compiled rule.
type Rule struct {
	Name  string
	Style int
	// HasEnd is set for container rules other than the root.
	HasEnd bool

	Pattern        string // the pattern of a leaf or the begin pattern of a container
	EndPattern     string
	MaxBeginExtend int
	MaxEndExtend   int

	Children []Child

	// EndSubstyles are resolved against Program.
	EndSubstyles []Substyle
	// PushSubpattern is the name of the pushed capture, if any.
	PushSubpattern string
	// PushedEndSlot is the group of the pushed capture in the end branch,
	// or -1.
	PushedEndSlot int

	// Program is the compiled expression of a container,
	// or nil for a leaf or a container with no branches.
	Program *regex.Regexp
	// EndSlot is the group of the end branch of Program, or -1.
	EndSlot int
	// MaxExtend is the largest extent of any branch of Program.
	MaxExtend int
}

// A Child is a child rule of a container,
// with its captures resolved against the container's Program.
type Child struct {
	Rule int
	// BeginSlot is the group of the child's branch.
	BeginSlot int
	// PushedSlot is the group of the child's pushed capture, or -1.
	PushedSlot int
	// Substyles are the child's substyles (begin substyles of a container).
	Substyles []Substyle
}

// A Substyle styles the text of a capture group.
type Substyle struct {
	Name  string
	Slot  int
	Style int
}

// HasPushedSubstr reports whether the rule has a pushed subpattern.
func (r *Rule) HasPushedSubstr() bool { return r.PushSubpattern != "" }

// Rules returns the rules. Rule 0 is the root.
func (g *Grammar) Rules() []Rule { return g.rules }

// Rule returns rule i.
func (g *Grammar) Rule(i int) *Rule { return &g.rules[i] }

// RuleIndex returns the index of the named rule, or -1.
func (g *Grammar) RuleIndex(name string) int {
	for i := range g.rules {
		if g.rules[i].Name == name {
			return i
		}
	}
	return -1
}

// Style returns the style with the given ID.
func (g *Grammar) Style(id int) style.Style { return (*g.styles.Load())[id] }

// StyleID returns the ID of a style name, or -1.
// The default style has ID 0.
func (g *Grammar) StyleID(name string) int {
	if id, ok := g.styleIDs[name]; ok {
		return id
	}
	return -1
}

// StyleName returns the name of the style with the given ID.
func (g *Grammar) StyleName(id int) string { return g.styleNames[id] }

// MaxCaptures returns the largest capture vector of any rule program.
func (g *Grammar) MaxCaptures() int { return g.maxCaptures }

// MaxExtend returns the largest extent declared by any rule.
func (g *Grammar) MaxExtend() int { return g.maxExtend }

// Fingerprint returns the structural fingerprint of the source.
func (g *Grammar) Fingerprint() []byte { return g.fingerprint }

// SameStructure reports whether two grammars were compiled
// from structurally identical sources.
// Such grammars differ at most in their styles.
func (g *Grammar) SameStructure(other *Grammar) bool {
	return g != nil && other != nil && sameFingerprint(g.fingerprint, other.fingerprint)
}

// MatchedChild returns the index in rule's Children
// of the first child whose branch is set in caps,
// EndMatched if none is set but the end branch is,
// or NoMatch.
func (g *Grammar) MatchedChild(rule int, caps []int) int {
	r := &g.rules[rule]
	for i, c := range r.Children {
		if set(caps, c.BeginSlot) {
			return i
		}
	}
	if r.HasEnd && set(caps, r.EndSlot) {
		return EndMatched
	}
	return NoMatch
}

func set(caps []int, slot int) bool {
	return slot >= 0 && 2*slot < len(caps) && caps[2*slot] >= 0
}

// UpdateStyles re-resolves the style names of the grammar in a new table.
// It reports whether any style changed.
// If a name is missing from the table, the styles are not changed.
func (g *Grammar) UpdateStyles(styles style.Table) (bool, error) {
	next, err := resolveStyles(g.styleNames, styles)
	if err != nil {
		return false, err
	}
	cur := *g.styles.Load()
	changed := false
	for i := range next {
		if !style.Equal(cur[i], next[i]) {
			changed = true
			break
		}
	}
	if changed {
		g.styles.Store(&next)
	}
	return changed, nil
}

func resolveStyles(names []string, table style.Table) ([]style.Style, error) {
	styles := make([]style.Style, len(names))
	for i, name := range names {
		sty, ok := table[name]
		if !ok {
			return nil, &ConfigError{Rule: RootName, Msg: fmt.Sprintf("unknown style %q", name)}
		}
		styles[i] = sty
	}
	return styles, nil
}

// Compile compiles a grammar source using the styles of a table.
// The table must have a style.Default entry.
// The error is a *ConfigError.
func Compile(src Source, styles style.Table) (*Grammar, error) {
	if _, ok := src[RootName]; !ok {
		return nil, &ConfigError{Rule: RootName, Msg: "missing"}
	}
	if _, ok := styles[style.Default]; !ok {
		return nil, &ConfigError{Rule: RootName, Msg: fmt.Sprintf("no %q style", style.Default)}
	}
	c := &compiler{
		src:    src,
		table:  styles,
		g:      &Grammar{styleIDs: make(map[string]int)},
		index:  make(map[string]int),
		begins: make(map[string]*regex.Regexp),
	}
	c.styleID(style.Default)
	names := src.names()
	for i, name := range names {
		c.index[name] = i
	}
	c.g.rules = make([]Rule, len(names))
	for i, name := range names {
		if err := c.declare(i, name, src[name]); err != nil {
			return nil, err
		}
	}
	for i := range c.g.rules {
		if err := c.link(i); err != nil {
			return nil, err
		}
	}
	ss, err := resolveStyles(c.g.styleNames, styles)
	if err != nil {
		return nil, err
	}
	c.g.styles.Store(&ss)
	c.g.fingerprint = fingerprint(src)
	return c.g, nil
}

type compiler struct {
	src   Source
	table style.Table
	g     *Grammar
	index map[string]int
	// begins are the compiled begin patterns, for validation.
	begins map[string]*regex.Regexp
}

func (c *compiler) styleID(name string) (int, bool) {
	if id, ok := c.g.styleIDs[name]; ok {
		return id, true
	}
	if _, ok := c.table[name]; !ok {
		return -1, false
	}
	id := len(c.g.styleNames)
	c.g.styleNames = append(c.g.styleNames, name)
	c.g.styleIDs[name] = id
	return id, true
}

// declare validates a rule source and fills in the rule,
// apart from its program and resolved captures.
func (c *compiler) declare(i int, name string, rs RuleSource) error {
	errorf := func(f string, args ...interface{}) error {
		return &ConfigError{Rule: name, Msg: fmt.Sprintf(f, args...)}
	}
	r := &c.g.rules[i]
	*r = Rule{Name: name, PushedEndSlot: -1, EndSlot: -1}
	if i > 0 && !isIdent(name) {
		return errorf("name is not an identifier")
	}
	styleName := rs.Style
	if styleName == "" {
		if i > 0 {
			return errorf("no style")
		}
		styleName = style.Default
	}
	var ok bool
	if r.Style, ok = c.styleID(styleName); !ok {
		return errorf("unknown style %q", styleName)
	}

	leaf := rs.Pattern != ""
	container := rs.BeginPattern != "" || rs.EndPattern != ""
	switch {
	case i == 0:
		if leaf || container || rs.Set != 0 || rs.Substyles != nil ||
			rs.BeginSubstyles != nil || rs.EndSubstyles != nil || rs.PushSubpattern != "" {
			return errorf("the root rule may only have a style and child patterns")
		}
	case leaf && container:
		return errorf("both pattern and beginPattern/endPattern")
	case leaf:
		if rs.Set&MaxExtendSet == 0 {
			return errorf("no maxExtend")
		}
		if rs.Set&(MaxBeginExtendSet|MaxEndExtendSet) != 0 ||
			rs.ChildPatterns != nil || rs.BeginSubstyles != nil ||
			rs.EndSubstyles != nil || rs.PushSubpattern != "" {
			return errorf("container field in a leaf rule")
		}
		r.Pattern = rs.Pattern
		r.MaxBeginExtend = rs.MaxExtend
	case container:
		switch {
		case rs.BeginPattern == "":
			return errorf("no beginPattern")
		case rs.EndPattern == "":
			return errorf("no endPattern")
		case rs.Set&MaxBeginExtendSet == 0:
			return errorf("no maxBeginExtend")
		case rs.Set&MaxEndExtendSet == 0:
			return errorf("no maxEndExtend")
		case rs.Set&MaxExtendSet != 0 || rs.Substyles != nil:
			return errorf("leaf field in a container rule")
		}
		r.HasEnd = true
		r.Pattern = rs.BeginPattern
		r.EndPattern = rs.EndPattern
		r.MaxBeginExtend = rs.MaxBeginExtend
		r.MaxEndExtend = rs.MaxEndExtend
		r.PushSubpattern = rs.PushSubpattern
	default:
		return errorf("no pattern or beginPattern/endPattern")
	}
	if r.MaxBeginExtend < 0 || r.MaxEndExtend < 0 {
		return errorf("negative extent")
	}
	for _, p := range []string{r.Pattern, r.EndPattern} {
		if p != "" && strings.TrimSpace(p) == "" {
			return errorf("empty pattern")
		}
	}
	if i > 0 {
		if err := c.checkBegin(r); err != nil {
			return err
		}
	}
	if r.HasEnd {
		var err error
		if r.EndPattern, err = c.spliceEnd(r); err != nil {
			return err
		}
	}
	subs := rs.Substyles
	if r.HasEnd {
		subs = rs.BeginSubstyles
	}
	for _, capName := range sortedKeys(subs) {
		if c.begins[name].SubexpIndex(capName) < 0 {
			return errorf("substyle capture %q is not in the pattern", capName)
		}
		if _, ok := c.styleID(subs[capName]); !ok {
			return errorf("unknown style %q", subs[capName])
		}
	}
	for _, capName := range sortedKeys(rs.EndSubstyles) {
		if _, ok := c.styleID(rs.EndSubstyles[capName]); !ok {
			return errorf("unknown style %q", rs.EndSubstyles[capName])
		}
	}
	for _, child := range rs.ChildPatterns {
		if _, ok := c.src[child]; !ok || child == RootName {
			return errorf("unknown child pattern %q", child)
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// checkBegin compiles the begin pattern on its own.
func (c *compiler) checkBegin(r *Rule) error {
	field := "beginPattern"
	if !r.HasEnd {
		field = "pattern"
	}
	if err := checkReserved(r.Pattern); err != nil {
		return &ConfigError{Rule: r.Name, Msg: field + ": " + err.Error()}
	}
	refs, err := regex.ScanCallouts(r.Pattern)
	if err == nil && len(refs) > 0 {
		err = fmt.Errorf("callout (*%s) outside of an end pattern", refs[0].Body)
	}
	if err != nil {
		return &ConfigError{Rule: r.Name, Msg: field + ": " + err.Error()}
	}
	re, err := compileStandalone(r.Pattern)
	if err != nil {
		return &ConfigError{Rule: r.Name, Msg: field + ": " + err.Error()}
	}
	if r.PushSubpattern != "" && re.SubexpIndex(r.PushSubpattern) < 0 {
		return &ConfigError{Rule: r.Name, Msg: fmt.Sprintf("pushSubpattern %q is not a capture of the beginPattern", r.PushSubpattern)}
	}
	c.begins[r.Name] = re
	return nil
}

// spliceEnd returns the end pattern
// with its pushed subpattern reference replaced by a callout marker.
func (c *compiler) spliceEnd(r *Rule) (string, error) {
	errorf := func(f string, args ...interface{}) error {
		return &ConfigError{Rule: r.Name, Msg: "endPattern: " + fmt.Sprintf(f, args...)}
	}
	if err := checkReserved(r.EndPattern); err != nil {
		return "", errorf("%v", err)
	}
	refs, err := regex.ScanCallouts(r.EndPattern)
	if err != nil {
		return "", errorf("%v", err)
	}
	var s strings.Builder
	prev := 0
	for _, ref := range refs {
		if r.PushSubpattern == "" || ref.Body != r.PushSubpattern {
			return "", errorf("(*%s) does not name the pushSubpattern", ref.Body)
		}
		s.WriteString(r.EndPattern[prev:ref.Start])
		fmt.Fprintf(&s, "(?C%d)", PushedCallout)
		prev = ref.End
	}
	s.WriteString(r.EndPattern[prev:])
	if r.PushSubpattern != "" && len(refs) == 0 {
		return "", errorf("no (*%s)", r.PushSubpattern)
	}
	end := s.String()
	re, err := compileStandalone(end)
	if err != nil {
		return "", errorf("%v", err)
	}
	if r.PushSubpattern != "" && re.SubexpIndex(r.PushSubpattern) < 0 {
		return "", errorf("pushSubpattern %q is not a capture", r.PushSubpattern)
	}
	for capName := range c.src[r.Name].EndSubstyles {
		if re.SubexpIndex(capName) < 0 {
			return "", errorf("substyle capture %q is not in the pattern", capName)
		}
	}
	return end, nil
}

func checkReserved(p string) error {
	if i := regex.IndexCallout(p); i >= 0 {
		return &regex.Error{Pos: i, Msg: "reserved syntax (?C"}
	}
	return nil
}

func compileStandalone(p string) (*regex.Regexp, error) {
	re, err := regex.Compile(p, regex.Opts{})
	if err != nil {
		return nil, err
	}
	if re.HasNumberedRefs() {
		return nil, errors.New("numbered backreference; use \\k<name>")
	}
	return re, nil
}

// link compiles the program of a container
// and resolves the captures of its branches.
func (c *compiler) link(i int) error {
	r := &c.g.rules[i]
	rs := c.src[r.Name]
	if !r.HasEnd && i > 0 {
		return nil
	}
	var expr strings.Builder
	var opens []int
	branch := func(name, pattern string) {
		if expr.Len() > 0 {
			expr.WriteByte('|')
		}
		opens = append(opens, expr.Len())
		fmt.Fprintf(&expr, "(?<%s>%s)", name, pattern)
	}
	for _, child := range rs.ChildPatterns {
		branch(child, c.g.rules[c.index[child]].Pattern)
	}
	if r.HasEnd {
		branch(r.Name, r.EndPattern)
	}
	r.MaxExtend = r.MaxEndExtend
	if len(opens) == 0 {
		return nil
	}
	re, err := regex.Compile(expr.String(), regex.Opts{})
	if err != nil {
		return &ConfigError{Rule: r.Name, Msg: err.Error()}
	}
	r.Program = re
	slots := make([]int, len(opens)+1)
	for j, off := range opens {
		slots[j] = re.SubexpAt(off)
	}
	slots[len(opens)] = re.NumSubexp() + 1
	for j, childName := range rs.ChildPatterns {
		ci := c.index[childName]
		cr := &c.g.rules[ci]
		from, to := slots[j], slots[j+1]
		child := Child{Rule: ci, BeginSlot: from, PushedSlot: -1}
		if cr.PushSubpattern != "" {
			child.PushedSlot = re.SubexpIndexIn(cr.PushSubpattern, from+1, to)
		}
		subs := c.src[childName].Substyles
		if cr.HasEnd {
			subs = c.src[childName].BeginSubstyles
		}
		child.Substyles = c.substyles(subs, re, from+1, to)
		r.Children = append(r.Children, child)
		if cr.MaxBeginExtend > r.MaxExtend {
			r.MaxExtend = cr.MaxBeginExtend
		}
	}
	if r.HasEnd {
		r.EndSlot = slots[len(opens)-1]
		end := slots[len(opens)]
		r.EndSubstyles = c.substyles(rs.EndSubstyles, re, r.EndSlot+1, end)
		if r.PushSubpattern != "" {
			r.PushedEndSlot = re.SubexpIndexIn(r.PushSubpattern, r.EndSlot+1, end)
		}
	}
	if n := re.CaptureSize(); n > c.g.maxCaptures {
		c.g.maxCaptures = n
	}
	for _, x := range []int{r.MaxExtend, r.MaxBeginExtend} {
		if x > c.g.maxExtend {
			c.g.maxExtend = x
		}
	}
	return nil
}

// substyles resolves substyles against groups [from, to) of a program,
// in order of group number.
func (c *compiler) substyles(subs map[string]string, re *regex.Regexp, from, to int) []Substyle {
	var ss []Substyle
	for g := from; g < to; g++ {
		name := re.SubexpNames()[g]
		styleName, ok := subs[name]
		if !ok || re.SubexpIndexIn(name, from, to) != g {
			continue
		}
		id, _ := c.styleID(styleName)
		ss = append(ss, Substyle{Name: name, Slot: g, Style: id})
	}
	return ss
}

func isIdent(s string) bool {
	for i, r := range s {
		if !(r == '_' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || i > 0 && '0' <= r && r <= '9') {
			return false
		}
	}
	return s != ""
}
