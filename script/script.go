// Package script is a Starlark scripting runtime.
// It evaluates the callout expressions of find expressions
// and loads grammar files.
package script

import (
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/osch/luced-sub001/search"
)

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// A Runtime is a Starlark thread with a global scope.
// Scripts run with Exec add to the scope;
// Eval evaluates expressions in it.
//
// A Runtime must not be used concurrently.
type Runtime struct {
	thread  *starlark.Thread
	globals starlark.StringDict
}

var _ search.Runtime = (*Runtime)(nil)

// New returns a new Runtime whose scope holds the predeclared values.
func New(predeclared starlark.StringDict) *Runtime {
	globals := make(starlark.StringDict, len(predeclared))
	for k, v := range predeclared {
		globals[k] = v
	}
	return &Runtime{
		thread:  &starlark.Thread{Name: "script"},
		globals: globals,
	}
}

// Exec runs a script, adding its globals to the scope.
// If src is nil, the script is read from the named file;
// otherwise src is a string, []byte, or io.Reader.
func (rt *Runtime) Exec(filename string, src interface{}) error {
	globals, err := starlark.ExecFileOptions(fileOptions, rt.thread, filename, src, rt.globals)
	if err != nil {
		return err
	}
	for k, v := range globals {
		rt.globals[k] = v
	}
	return nil
}

// Global returns a global of the scope, or nil.
func (rt *Runtime) Global(name string) starlark.Value { return rt.globals[name] }

// Value evaluates an expression in the scope.
func (rt *Runtime) Value(expr string) (starlark.Value, error) {
	return starlark.EvalOptions(fileOptions, rt.thread, "<expr>", expr, rt.globals)
}

// Eval evaluates a callout expression.
// Callable values are returned as a search.Callable,
// and mappings and containers as a search.Indexable.
// Other values are returned as they are.
func (rt *Runtime) Eval(expr string) (search.Value, error) {
	v, err := rt.Value(expr)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case starlark.Callable:
		return callable{rt: rt, fn: v}, nil
	case starlark.Mapping:
		return mapping{m: v}, nil
	case *starlark.Set, *starlark.List, starlark.Tuple, starlark.String:
		return container{v: v}, nil
	}
	return v, nil
}

func truth(v starlark.Value) bool {
	return v != starlark.None && bool(v.Truth())
}

type callable struct {
	rt *Runtime
	fn starlark.Callable
}

// Call calls the function with the arguments as strings.
func (c callable) Call(args []string) (bool, error) {
	tuple := make(starlark.Tuple, len(args))
	for i, a := range args {
		tuple[i] = starlark.String(a)
	}
	v, err := starlark.Call(c.rt.thread, c.fn, tuple, nil)
	if err != nil {
		return false, err
	}
	return truth(v), nil
}

type mapping struct {
	m starlark.Mapping
}

// Index reports whether the key maps to a true value.
func (m mapping) Index(key string) (bool, error) {
	v, found, err := m.m.Get(starlark.String(key))
	if err != nil || !found {
		return false, err
	}
	return truth(v), nil
}

type container struct {
	v starlark.Value
}

// Index reports whether the key is in the container.
func (c container) Index(key string) (bool, error) {
	v, err := starlark.Binary(syntax.IN, starlark.String(key), c.v)
	if err != nil {
		return false, err
	}
	return truth(v), nil
}
