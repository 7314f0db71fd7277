// Package expr represents small computations (equality checks, hashes,
// copies) as expr-lang source over named, typed parameters. Definitions stay
// inspectable until compiled: the body parses into expr-lang's ast, where
// rewrites patch identifier nodes and re-serialize, which is how parameter
// substitution and nullable lifting work. Compilation goes through
// expr-lang's compiler and evaluation runs its VM.
//
// Lambdas are immutable: every transform returns a new Lambda and never
// modifies its input.
package expr

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/expr-lang/expr/parser"
)

// Param is a named, typed parameter of a definition.
type Param struct {
	Name string
	Type reflect.Type
}

// NewParam creates a parameter of the given type.
func NewParam(name string, typ reflect.Type) Param {
	return Param{Name: name, Type: typ}
}

// Function is a helper callable from definition source, registered with the
// compiler under its name. Fn follows the expr-lang variadic convention.
type Function struct {
	Name string
	Fn   func(args ...any) (any, error)
}

// Lambda is a parameterized definition: expr-lang source plus the parameters
// it is evaluated over. Construct with Parse; the zero value is not usable.
type Lambda struct {
	params []Param
	source string
	funcs  map[string]Function
	bound  map[string]any
}

// Parse builds a lambda from expr-lang source. Only the syntax is checked
// here; identifiers beyond the parameters and registered functions are
// rejected when the lambda is compiled.
func Parse(source string, params ...Param) (*Lambda, error) {
	if _, err := parser.Parse(source); err != nil {
		return nil, fmt.Errorf("expr: parse %q: %w", source, err)
	}
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if p.Name == "" || p.Type == nil {
			return nil, fmt.Errorf("expr: parameter needs a name and a type")
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("expr: duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
	}
	return &Lambda{params: params, source: source}, nil
}

// MustParse is Parse for statically known source; it panics on error.
func MustParse(source string, params ...Param) *Lambda {
	l, err := Parse(source, params...)
	if err != nil {
		panic(err)
	}
	return l
}

// WithFunctions returns a copy of l with the helpers registered for
// compilation. A later registration under a name replaces an earlier one.
func (l *Lambda) WithFunctions(fns ...Function) *Lambda {
	c := l.clone()
	if c.funcs == nil {
		c.funcs = make(map[string]Function, len(fns))
	}
	for _, f := range fns {
		c.funcs[f.Name] = f
	}
	return c
}

// Params returns the parameters in declaration order.
func (l *Lambda) Params() []Param {
	return slices.Clone(l.params)
}

// Source returns the body source.
func (l *Lambda) Source() string {
	return l.source
}

func (l *Lambda) String() string {
	names := make([]string, len(l.params))
	for i, p := range l.params {
		names[i] = p.Name
	}
	return fmt.Sprintf("(%s) => %s", strings.Join(names, ", "), l.source)
}

// Bind fixes every parameter to a value and returns the closed form: a
// zero-parameter lambda whose environment carries the values. The value
// count must match the parameter count, and a non-nil value must be
// assignable to its parameter's type. Since each parameter is a distinct
// name, binding is order-independent.
func (l *Lambda) Bind(values ...any) (*Lambda, error) {
	if len(values) != len(l.params) {
		return nil, fmt.Errorf("expr: bind with %d values, lambda takes %d", len(values), len(l.params))
	}
	c := l.clone()
	if c.bound == nil {
		c.bound = make(map[string]any, len(values))
	}
	for i, p := range l.params {
		if v := values[i]; v != nil {
			if vt := reflect.TypeOf(v); !vt.AssignableTo(p.Type) {
				return nil, fmt.Errorf("expr: bind %s with %s, want %s", p.Name, vt, p.Type)
			}
		}
		c.bound[p.Name] = values[i]
	}
	c.params = nil
	return c, nil
}

func (l *Lambda) clone() *Lambda {
	c := &Lambda{params: slices.Clone(l.params), source: l.source}
	if l.funcs != nil {
		c.funcs = maps.Clone(l.funcs)
	}
	if l.bound != nil {
		c.bound = maps.Clone(l.bound)
	}
	return c
}

// Nullable returns the nullable form of t: the pointer form for value types,
// t itself for types that already admit nil.
func Nullable(t reflect.Type) reflect.Type {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return t
	}
	return reflect.PointerTo(t)
}
