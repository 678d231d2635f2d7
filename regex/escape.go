package regex

import "strings"

const meta = `|*+?{}.^$()[]\`

// Quote returns the argument with any meta-characters escaped.
// The result is an expression matching exactly the argument.
func Quote(t string) string {
	var s strings.Builder
	for _, r := range t {
		if strings.ContainsRune(meta, r) {
			s.WriteRune('\\')
		}
		s.WriteRune(r)
	}
	return s.String()
}

// A CalloutRef is an inline callout construct, (*body), in an expression.
type CalloutRef struct {
	// Start and End are the byte offsets of the construct,
	// from its ( to just past its ).
	Start, End int
	// Body is the text between (* and ).
	Body string
}

// ScanCallouts returns the (*body) constructs of an expression
// in the order they appear.
// Escaped parentheses and character classes are skipped;
// parentheses, brackets, and quoted strings inside a body nest.
// The error is an *Error if a construct is unterminated.
func ScanCallouts(expr string) ([]CalloutRef, error) {
	var refs []CalloutRef
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '\\':
			i++
		case '[':
			i = skipClass(expr, i)
		case '(':
			if !strings.HasPrefix(expr[i:], "(*") {
				continue
			}
			end, ok := bodyEnd(expr, i+2)
			if !ok {
				return nil, &Error{Pos: i, Msg: "unclosed (*"}
			}
			refs = append(refs, CalloutRef{Start: i, End: end + 1, Body: expr[i+2 : end]})
			i = end
		}
	}
	return refs, nil
}

// IndexCallout returns the offset of the first callout marker, (?C,
// in an expression, or -1 if there is none.
// Escaped parentheses and character classes are skipped.
func IndexCallout(expr string) int {
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '\\':
			i++
		case '[':
			i = skipClass(expr, i)
		case '(':
			if strings.HasPrefix(expr[i:], "(?C") {
				return i
			}
		}
	}
	return -1
}

// skipClass returns the offset of the ] closing the class opened at i,
// or the last offset if it is unclosed.
func skipClass(expr string, i int) int {
	j := i + 1
	if j < len(expr) && expr[j] == '^' {
		j++
	}
	if j < len(expr) && expr[j] == ']' {
		j++
	}
	for ; j < len(expr); j++ {
		switch expr[j] {
		case '\\':
			j++
		case ']':
			return j
		}
	}
	return len(expr) - 1
}

// bodyEnd returns the offset of the ) closing a callout body beginning at i.
func bodyEnd(expr string, i int) (int, bool) {
	depth := 0
	var quote byte
	for ; i < len(expr); i++ {
		c := expr[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' && depth == 0:
			return i, true
		case c == ')' || c == ']' || c == '}':
			depth--
		}
	}
	return 0, false
}

// SplitArgs splits a callout body at its top-level commas.
// The offsets of the parts relative to the body are returned too.
func SplitArgs(body string) ([]string, []int) {
	var parts []string
	var offs []int
	depth, start := 0, 0
	var quote byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			parts, offs = append(parts, body[start:i]), append(offs, start)
			start = i + 1
		}
	}
	return append(parts, body[start:]), append(offs, start)
}
