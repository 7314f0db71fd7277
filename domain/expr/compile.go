package expr

import (
	"fmt"
	"reflect"

	exprlang "github.com/expr-lang/expr"
)

// Func is a compiled definition, callable over type-erased values. A Func is
// immutable and safe for concurrent use.
type Func func(args ...any) (any, error)

// Compile lowers a lambda into a callable through expr-lang's compiler. The
// compilation environment exposes exactly the parameters and bound values,
// so stray identifiers fail here rather than at evaluation time. Helper
// functions attached to the lambda are registered alongside the built-in
// unwrap.
func Compile(l *Lambda) (Func, error) {
	if l == nil {
		return nil, fmt.Errorf("expr: compile of nil lambda")
	}

	env := make(map[string]any, len(l.params)+len(l.bound))
	for _, p := range l.params {
		env[p.Name] = reflect.Zero(p.Type).Interface()
	}
	for name, v := range l.bound {
		env[name] = v
	}

	opts := []exprlang.Option{
		exprlang.Env(env),
		exprlang.Function("unwrap", unwrap),
	}
	for _, f := range l.funcs {
		opts = append(opts, exprlang.Function(f.Name, f.Fn))
	}

	program, err := exprlang.Compile(l.source, opts...)
	if err != nil {
		return nil, fmt.Errorf("expr: compile %q: %w", l.source, err)
	}

	params := l.params
	bound := l.bound
	return func(args ...any) (any, error) {
		if len(args) != len(params) {
			return nil, fmt.Errorf("expr: call with %d arguments, want %d", len(args), len(params))
		}
		callEnv := make(map[string]any, len(params)+len(bound))
		for name, v := range bound {
			callEnv[name] = v
		}
		for i, p := range params {
			callEnv[p.Name] = args[i]
		}
		return exprlang.Run(program, callEnv)
	}, nil
}

// unwrap dereferences a nullable value. Nil is an evaluation error, so a
// lifted definition fails on nil instead of inventing null semantics.
func unwrap(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("unwrap requires 1 argument")
	}
	rv := reflect.ValueOf(args[0])
	if !rv.IsValid() {
		return nil, fmt.Errorf("unwrap of nil")
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("unwrap of nil %s", rv.Type())
		}
		return rv.Elem().Interface(), nil
	}
	return args[0], nil
}
