package script

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"

	"github.com/osch/luced-sub001/grammar"
	"github.com/osch/luced-sub001/style"
)

// LoadGrammar runs a grammar file.
// The file defines a global grammar,
// a dict from rule names to dicts of rule fields,
// and optionally a global styles,
// a dict from style names to style specs (see style.Parse).
//
//	styles = {"default": "fg=#000000", "keyword": "fg=#0000ff bold"}
//	grammar = {
//		"root": {"style": "default", "childPatterns": ["keyword"]},
//		"keyword": {"style": "keyword", "pattern": r"\b(if|else)\b", "maxExtend": 1},
//	}
//
// If src is nil, the file is read from filename.
func LoadGrammar(filename string, src interface{}) (grammar.Source, style.Table, error) {
	rt := New(nil)
	if err := rt.Exec(filename, src); err != nil {
		return nil, nil, err
	}
	g, ok := rt.Global("grammar").(*starlark.Dict)
	if !ok {
		return nil, nil, fmt.Errorf("%s: grammar is not defined as a dict", filename)
	}
	source, err := toSource(g)
	if err != nil {
		return nil, nil, err
	}
	var styles style.Table
	switch s := rt.Global("styles").(type) {
	case nil:
	case *starlark.Dict:
		specs, err := toStringMap(s)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: styles: %w", filename, err)
		}
		if styles, err = style.ParseTable(specs); err != nil {
			return nil, nil, fmt.Errorf("%s: styles: %w", filename, err)
		}
	default:
		return nil, nil, fmt.Errorf("%s: styles is a %s, not a dict", filename, s.Type())
	}
	return source, styles, nil
}

func toSource(d *starlark.Dict) (grammar.Source, error) {
	src := make(grammar.Source, d.Len())
	for _, item := range d.Items() {
		name, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("grammar: rule name %s is not a string", item[0])
		}
		fields, ok := item[1].(*starlark.Dict)
		if !ok {
			return nil, &grammar.ConfigError{Rule: name, Msg: "not a dict"}
		}
		rs, err := toRuleSource(fields)
		if err != nil {
			return nil, &grammar.ConfigError{Rule: name, Msg: err.Error()}
		}
		src[name] = rs
	}
	return src, nil
}

func toRuleSource(d *starlark.Dict) (grammar.RuleSource, error) {
	var rs grammar.RuleSource
	keys := make([]string, 0, d.Len())
	vals := make(map[string]starlark.Value, d.Len())
	for _, item := range d.Items() {
		k, ok := starlark.AsString(item[0])
		if !ok {
			return rs, fmt.Errorf("field %s is not a string", item[0])
		}
		keys = append(keys, k)
		vals[k] = item[1]
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := vals[k]
		var err error
		switch k {
		case "style":
			rs.Style, err = toString(v)
		case "pattern":
			rs.Pattern, err = toString(v)
		case "beginPattern":
			rs.BeginPattern, err = toString(v)
		case "endPattern":
			rs.EndPattern, err = toString(v)
		case "pushSubpattern":
			rs.PushSubpattern, err = toString(v)
		case "maxExtend":
			rs.MaxExtend, err = starlark.AsInt32(v)
			rs.Set |= grammar.MaxExtendSet
		case "maxBeginExtend":
			rs.MaxBeginExtend, err = starlark.AsInt32(v)
			rs.Set |= grammar.MaxBeginExtendSet
		case "maxEndExtend":
			rs.MaxEndExtend, err = starlark.AsInt32(v)
			rs.Set |= grammar.MaxEndExtendSet
		case "childPatterns":
			rs.ChildPatterns, err = toStrings(v)
		case "substyles":
			rs.Substyles, err = toStringMap(v)
		case "beginSubstyles":
			rs.BeginSubstyles, err = toStringMap(v)
		case "endSubstyles":
			rs.EndSubstyles, err = toStringMap(v)
		default:
			return rs, fmt.Errorf("unknown field %q", k)
		}
		if err != nil {
			return rs, fmt.Errorf("%s: %w", k, err)
		}
	}
	return rs, nil
}

func toString(v starlark.Value) (string, error) {
	s, ok := starlark.AsString(v)
	if !ok {
		return "", fmt.Errorf("got %s, want string", v.Type())
	}
	return s, nil
}

func toStrings(v starlark.Value) ([]string, error) {
	iter, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("got %s, want list", v.Type())
	}
	it := iter.Iterate()
	defer it.Done()
	var strs []string
	var x starlark.Value
	for it.Next(&x) {
		s, err := toString(x)
		if err != nil {
			return nil, err
		}
		strs = append(strs, s)
	}
	return strs, nil
}

func toStringMap(v starlark.Value) (map[string]string, error) {
	d, ok := v.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("got %s, want dict", v.Type())
	}
	m := make(map[string]string, d.Len())
	for _, item := range d.Items() {
		k, err := toString(item[0])
		if err != nil {
			return nil, err
		}
		if m[k], err = toString(item[1]); err != nil {
			return nil, err
		}
	}
	return m, nil
}
