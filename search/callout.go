package search

import (
	"fmt"

	"github.com/osch/luced-sub001/regex"
)

// trampoline returns the callout function of a match of x.
// A callout that fails or panics aborts the match
// and leaves its error in *failure.
func trampoline(x *expression, failure *error) func(*regex.CalloutBlock) int {
	return func(cb *regex.CalloutBlock) (ret int) {
		if cb.Number < 1 || cb.Number > len(x.bindings) {
			return 0
		}
		defer func() {
			if r := recover(); r != nil {
				*failure = &ScriptError{Err: fmt.Errorf("panic: %v", r)}
				ret = -1
			}
		}()
		bnd := x.bindings[cb.Number-1]
		args := bnd.argStrings(cb)
		var ok bool
		var err error
		switch v := bnd.value.(type) {
		case Indexable:
			ok, err = v.Index(args[0])
		case Callable:
			ok, err = v.Call(args)
		}
		switch {
		case err != nil:
			*failure = &ScriptError{Err: err}
			return -1
		case ok:
			return 0
		default:
			return 1
		}
	}
}

func (bnd binding) argStrings(cb *regex.CalloutBlock) []string {
	if len(bnd.args) == 0 {
		return []string{string(cb.Implicit())}
	}
	args := make([]string, len(bnd.args))
	for i, a := range bnd.args {
		if len(a.groups) == 0 {
			args[i] = string(cb.Implicit())
			continue
		}
		for _, g := range a.groups {
			if text, ok := cb.Capture(g); ok {
				args[i] = string(text)
				break
			}
		}
	}
	return args
}
