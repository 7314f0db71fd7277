// Package comparer provides value comparison, hashing, and snapshotting
// descriptors used by change detection. A comparer is built once from five
// expression definitions, compiled through expr-lang at construction, and
// immutable thereafter; it is safe for unrestricted concurrent use.
//
// The key variants exist because a value used as an identity or index key may
// carry different equivalence semantics than the same value compared for
// change detection (a case-insensitive key over a case-sensitive value, for
// example).
package comparer

import (
	"fmt"
	"reflect"

	"github.com/artpar/entrack/domain/expr"
)

// Def holds the five expression definitions a comparer is built from.
// All five are required.
type Def struct {
	Equal    *expr.Lambda // (T, T) -> bool
	Hash     *expr.Lambda // (T) -> uint64
	KeyEqual *expr.Lambda // (T, T) -> bool
	KeyHash  *expr.Lambda // (T) -> uint64
	Snapshot *expr.Lambda // (T) -> T
}

// ValueComparer is the type-erased boundary. It lets comparers over
// heterogeneous types live in one collection (model metadata stores one per
// property). Arguments must hold values of the comparer's Type; anything else
// is a caller programming error.
type ValueComparer interface {
	// Type is the value type this comparer applies to.
	Type() reflect.Type

	Equal(a, b any) bool
	Hash(v any) uint64
	KeyEqual(a, b any) bool
	KeyHash(v any) uint64

	// Snapshot returns an independent copy of v. For mutable composite types
	// the copy is deep: mutating v afterwards does not affect the result.
	Snapshot(v any) any

	// Expression accessors expose the original definition forms so callers
	// can inline or further rewrite the logic before compiling it themselves.
	EqualExpression() *expr.Lambda
	HashExpression() *expr.Lambda
	KeyEqualExpression() *expr.Lambda
	KeyHashExpression() *expr.Lambda
	SnapshotExpression() *expr.Lambda
}

// Comparer is a typed comparison/snapshot descriptor for values of type T.
// Construct with New; the zero value is not usable.
type Comparer[T any] struct {
	def Def
	typ reflect.Type

	equal    expr.Func
	hash     expr.Func
	keyEqual expr.Func
	keyHash  expr.Func
	snapshot expr.Func
}

// New builds a comparer from the given definitions. All five definitions are
// required and must be lambdas over T with the documented arity; violations
// are reported immediately. Every definition is compiled here; nothing
// compiles on the call path.
//
// Definitions must keep Equal and Hash consistent: Equal(a, b) implies
// Hash(a) == Hash(b), and likewise for the key variants. This is required for
// correct behavior of hashing containers downstream and is not checked here.
func New[T any](def Def) (*Comparer[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	checks := []struct {
		name  string
		l     *expr.Lambda
		arity int
	}{
		{"Equal", def.Equal, 2},
		{"Hash", def.Hash, 1},
		{"KeyEqual", def.KeyEqual, 2},
		{"KeyHash", def.KeyHash, 1},
		{"Snapshot", def.Snapshot, 1},
	}
	for _, c := range checks {
		if err := checkLambda(c.name, c.l, c.arity, typ); err != nil {
			return nil, err
		}
	}

	cmp := &Comparer[T]{def: def, typ: typ}
	var err error
	if cmp.equal, err = expr.Compile(def.Equal); err != nil {
		return nil, fmt.Errorf("comparer: compile Equal: %w", err)
	}
	if cmp.hash, err = expr.Compile(def.Hash); err != nil {
		return nil, fmt.Errorf("comparer: compile Hash: %w", err)
	}
	if cmp.keyEqual, err = expr.Compile(def.KeyEqual); err != nil {
		return nil, fmt.Errorf("comparer: compile KeyEqual: %w", err)
	}
	if cmp.keyHash, err = expr.Compile(def.KeyHash); err != nil {
		return nil, fmt.Errorf("comparer: compile KeyHash: %w", err)
	}
	if cmp.snapshot, err = expr.Compile(def.Snapshot); err != nil {
		return nil, fmt.Errorf("comparer: compile Snapshot: %w", err)
	}
	return cmp, nil
}

func checkLambda(name string, l *expr.Lambda, arity int, typ reflect.Type) error {
	if l == nil {
		return fmt.Errorf("comparer: %s definition is required", name)
	}
	params := l.Params()
	if len(params) != arity {
		return fmt.Errorf("comparer: %s definition takes %d parameters, want %d", name, len(params), arity)
	}
	for i, p := range params {
		if p.Type != typ {
			return fmt.Errorf("comparer: %s definition parameter %d has type %s, want %s", name, i, p.Type, typ)
		}
	}
	return nil
}

// Type returns the value type this comparer applies to.
func (c *Comparer[T]) Type() reflect.Type { return c.typ }

// Equal reports whether a and b are equal for change detection.
func (c *Comparer[T]) Equal(a, b T) bool {
	return c.callBool(c.equal, "Equal", a, b)
}

// Hash returns a digest of v consistent with Equal.
func (c *Comparer[T]) Hash(v T) uint64 {
	return c.callUint64(c.hash, "Hash", v)
}

// KeyEqual reports whether a and b are equal when used as keys.
func (c *Comparer[T]) KeyEqual(a, b T) bool {
	return c.callBool(c.keyEqual, "KeyEqual", a, b)
}

// KeyHash returns a digest of v consistent with KeyEqual.
func (c *Comparer[T]) KeyHash(v T) uint64 {
	return c.callUint64(c.keyHash, "KeyHash", v)
}

// Snapshot returns an independent copy of v.
func (c *Comparer[T]) Snapshot(v T) T {
	out, err := c.snapshot(v)
	if err != nil {
		panic(fmt.Sprintf("comparer: Snapshot(%s): %v", c.typ, err))
	}
	return out.(T)
}

func (c *Comparer[T]) EqualExpression() *expr.Lambda    { return c.def.Equal }
func (c *Comparer[T]) HashExpression() *expr.Lambda     { return c.def.Hash }
func (c *Comparer[T]) KeyEqualExpression() *expr.Lambda { return c.def.KeyEqual }
func (c *Comparer[T]) KeyHashExpression() *expr.Lambda  { return c.def.KeyHash }
func (c *Comparer[T]) SnapshotExpression() *expr.Lambda { return c.def.Snapshot }

// Erased returns the type-erased view of the comparer for storage alongside
// comparers of other types.
func (c *Comparer[T]) Erased() ValueComparer { return erased[T]{c} }

// Definitions were validated at construction, so an evaluation failure can
// only mean a malformed Apply function or a type-confused caller. Both are
// programming errors, reported as panics rather than returned.
func (c *Comparer[T]) callBool(fn expr.Func, name string, a, b T) bool {
	out, err := fn(a, b)
	if err != nil {
		panic(fmt.Sprintf("comparer: %s(%s): %v", name, c.typ, err))
	}
	return out.(bool)
}

func (c *Comparer[T]) callUint64(fn expr.Func, name string, v T) uint64 {
	out, err := fn(v)
	if err != nil {
		panic(fmt.Sprintf("comparer: %s(%s): %v", name, c.typ, err))
	}
	return out.(uint64)
}

type erased[T any] struct {
	c *Comparer[T]
}

func (e erased[T]) Type() reflect.Type     { return e.c.typ }
func (e erased[T]) Equal(a, b any) bool    { return e.c.Equal(a.(T), b.(T)) }
func (e erased[T]) Hash(v any) uint64      { return e.c.Hash(v.(T)) }
func (e erased[T]) KeyEqual(a, b any) bool { return e.c.KeyEqual(a.(T), b.(T)) }
func (e erased[T]) KeyHash(v any) uint64   { return e.c.KeyHash(v.(T)) }
func (e erased[T]) Snapshot(v any) any     { return e.c.Snapshot(v.(T)) }

func (e erased[T]) EqualExpression() *expr.Lambda    { return e.c.def.Equal }
func (e erased[T]) HashExpression() *expr.Lambda     { return e.c.def.Hash }
func (e erased[T]) KeyEqualExpression() *expr.Lambda { return e.c.def.KeyEqual }
func (e erased[T]) KeyHashExpression() *expr.Lambda  { return e.c.def.KeyHash }
func (e erased[T]) SnapshotExpression() *expr.Lambda { return e.c.def.Snapshot }
