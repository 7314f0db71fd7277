package comparer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"reflect"
	"strings"
	"time"

	"github.com/artpar/entrack/domain/expr"
)

// Built-in definitions for the value types a mapped model commonly carries.
// Each returns a Def ready for New; callers can also take the lambdas apart
// and rewrite them (see LiftEqualNullable).
//
// Helpers the definitions call are registered on the lambdas as expr
// functions, following the variadic convention.

var hashFn = expr.Function{Name: "hash", Fn: func(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("hash requires 1 argument")
	}
	return HashString(fmt.Sprintf("%v", args[0])), nil
}}

var bytesEqualFn = expr.Function{Name: "bytesEqual", Fn: func(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("bytesEqual requires 2 arguments")
	}
	a, err := toBytes(args[0])
	if err != nil {
		return nil, err
	}
	b, err := toBytes(args[1])
	if err != nil {
		return nil, err
	}
	return bytes.Equal(a, b), nil
}}

var bytesHashFn = expr.Function{Name: "bytesHash", Fn: func(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("bytesHash requires 1 argument")
	}
	b, err := toBytes(args[0])
	if err != nil {
		return nil, err
	}
	return HashBytes(b), nil
}}

var bytesCloneFn = expr.Function{Name: "bytesClone", Fn: func(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("bytesClone requires 1 argument")
	}
	b, err := toBytes(args[0])
	if err != nil {
		return nil, err
	}
	return bytes.Clone(b), nil
}}

var timeHashFn = expr.Function{Name: "timeHash", Fn: func(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("timeHash requires 1 argument")
	}
	t, ok := args[0].(time.Time)
	if !ok {
		return nil, fmt.Errorf("timeHash requires a time.Time argument")
	}
	return HashUint64(uint64(t.UnixNano())), nil
}}

var equalFoldFn = expr.Function{Name: "equalFold", Fn: func(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("equalFold requires 2 arguments")
	}
	a, aok := args[0].(string)
	b, bok := args[1].(string)
	if !aok || !bok {
		return nil, fmt.Errorf("equalFold requires string arguments")
	}
	return strings.EqualFold(a, b), nil
}}

var foldFn = expr.Function{Name: "fold", Fn: func(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("fold requires 1 argument")
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("fold requires a string argument")
	}
	return strings.ToLower(s), nil
}}

func toBytes(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("want []byte, got %T", v)
	}
	return b, nil
}

// DefaultDef returns definitions using expr-lang equality, a digest of the
// value's printed form, and an identity snapshot. Suitable for immutable
// scalar types; do not use it for mutable composites, where an identity
// snapshot would alias the original.
func DefaultDef[T comparable]() Def {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	eq := expr.MustParse("a == b", expr.NewParam("a", typ), expr.NewParam("b", typ))
	hash := expr.MustParse("hash(v)", expr.NewParam("v", typ)).WithFunctions(hashFn)
	return Def{
		Equal:    eq,
		Hash:     hash,
		KeyEqual: eq,
		KeyHash:  hash,
		Snapshot: expr.MustParse("v", expr.NewParam("v", typ)),
	}
}

// BytesDef returns definitions for []byte with deep equality and a deep-copy
// snapshot, so later mutation of the source cannot corrupt a stored baseline.
func BytesDef() Def {
	typ := reflect.TypeOf((*[]byte)(nil)).Elem()
	eq := expr.MustParse("bytesEqual(a, b)",
		expr.NewParam("a", typ), expr.NewParam("b", typ)).WithFunctions(bytesEqualFn)
	hash := expr.MustParse("bytesHash(v)", expr.NewParam("v", typ)).WithFunctions(bytesHashFn)
	snapshot := expr.MustParse("bytesClone(v)", expr.NewParam("v", typ)).WithFunctions(bytesCloneFn)
	return Def{Equal: eq, Hash: hash, KeyEqual: eq, KeyHash: hash, Snapshot: snapshot}
}

// TimeDef returns definitions for time.Time comparing instants, so two
// representations of the same moment in different locations are equal. The
// hash uses the Unix timestamp for consistency with that equality.
func TimeDef() Def {
	typ := reflect.TypeOf((*time.Time)(nil)).Elem()
	eq := expr.MustParse("a.Equal(b)", expr.NewParam("a", typ), expr.NewParam("b", typ))
	hash := expr.MustParse("timeHash(v)", expr.NewParam("v", typ)).WithFunctions(timeHashFn)
	return Def{
		Equal:    eq,
		Hash:     hash,
		KeyEqual: eq,
		KeyHash:  hash,
		Snapshot: expr.MustParse("v", expr.NewParam("v", typ)),
	}
}

// FoldedStringDef returns definitions for strings whose value comparison is
// case-sensitive but whose key comparison folds case: two spellings of the
// same identifier collide as keys while still registering as a value change.
func FoldedStringDef() Def {
	typ := reflect.TypeOf((*string)(nil)).Elem()
	return Def{
		Equal: expr.MustParse("a == b", expr.NewParam("a", typ), expr.NewParam("b", typ)),
		Hash:  expr.MustParse("hash(v)", expr.NewParam("v", typ)).WithFunctions(hashFn),
		KeyEqual: expr.MustParse("equalFold(a, b)",
			expr.NewParam("a", typ), expr.NewParam("b", typ)).WithFunctions(equalFoldFn),
		KeyHash: expr.MustParse("hash(fold(v))",
			expr.NewParam("v", typ)).WithFunctions(hashFn, foldFn),
		Snapshot: expr.MustParse("v", expr.NewParam("v", typ)),
	}
}

// HashBytes returns the FNV-1a digest of b.
func HashBytes(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

// HashString returns the FNV-1a digest of s.
func HashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// HashUint64 returns the FNV-1a digest of v's big-endian bytes.
func HashUint64(v uint64) uint64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return HashBytes(buf[:])
}
