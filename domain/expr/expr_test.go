package expr_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/artpar/entrack/domain/expr"
)

func int64Type() reflect.Type { return reflect.TypeOf((*int64)(nil)).Elem() }

// eqLambda builds (a, b) => a == b over int64.
func eqLambda(t *testing.T) *expr.Lambda {
	t.Helper()
	l, err := expr.Parse("a == b",
		expr.NewParam("a", int64Type()),
		expr.NewParam("b", int64Type()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return l
}

func TestParse_Validation(t *testing.T) {
	if _, err := expr.Parse("a ==", expr.NewParam("a", int64Type())); err == nil {
		t.Error("bad syntax: expected error")
	}
	if _, err := expr.Parse("a", expr.NewParam("a", int64Type()), expr.NewParam("a", int64Type())); err == nil {
		t.Error("duplicate parameter: expected error")
	}
	if _, err := expr.Parse("a", expr.Param{Name: "a"}); err == nil {
		t.Error("untyped parameter: expected error")
	}
}

func TestCompile_Operators(t *testing.T) {
	tests := []struct {
		name   string
		source string
		x, y   int64
		want   any
	}{
		{"eq true", "a == b", 4, 4, true},
		{"eq false", "a == b", 4, 5, false},
		{"ne", "a != b", 4, 5, true},
		{"lt", "a < b", 4, 5, true},
		{"gt", "a > b", 4, 5, false},
		{"add", "a + b", 4, 5, int64(9)},
		{"mul", "a * b", 4, 5, int64(20)},
		{"and", "a == 4 && b == 5", 4, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := expr.Parse(tt.source,
				expr.NewParam("a", int64Type()),
				expr.NewParam("b", int64Type()))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			fn, err := expr.Compile(l)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			got, err := fn(tt.x, tt.y)
			if err != nil {
				t.Fatalf("call: %v", err)
			}
			if got != tt.want {
				t.Errorf("%q on (%v, %v) = %v (%T), want %v", tt.source, tt.x, tt.y, got, got, tt.want)
			}
		})
	}
}

func TestCompile_IntegerArithmeticStaysExact(t *testing.T) {
	l, err := expr.Parse("a + b",
		expr.NewParam("a", int64Type()),
		expr.NewParam("b", int64Type()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fn, err := expr.Compile(l)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	// Values above 2^53 cannot round-trip through float64.
	big := int64(1) << 60
	got, err := fn(big, int64(1))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got != big+1 {
		t.Errorf("%d + 1 = %v, want %d", big, got, big+1)
	}
}

func TestCompile_RejectsUnknownIdentifier(t *testing.T) {
	l, err := expr.Parse("a == c", expr.NewParam("a", int64Type()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := expr.Compile(l); err == nil {
		t.Fatal("unknown identifier: expected compile error")
	}
}

func TestCompile_ArityMismatchOnCall(t *testing.T) {
	fn, err := expr.Compile(eqLambda(t))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := fn(int64(1)); err == nil {
		t.Fatal("one argument for a two-parameter lambda: expected error")
	}
}

func TestCompile_ShortCircuit(t *testing.T) {
	calls := 0
	tally := expr.Function{Name: "tally", Fn: func(args ...any) (any, error) {
		calls++
		return args[0], nil
	}}

	l, err := expr.Parse("p && tally(p)", expr.NewParam("p", reflect.TypeOf((*bool)(nil)).Elem()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fn, err := expr.Compile(l.WithFunctions(tally))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if got, _ := fn(false); got != false {
		t.Errorf("false && tally = %v, want false", got)
	}
	if calls != 0 {
		t.Errorf("right operand evaluated %d times, want short-circuit", calls)
	}
	if got, _ := fn(true); got != true {
		t.Errorf("true && tally = %v, want true", got)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestCompile_FunctionErrorPropagates(t *testing.T) {
	boom := expr.Function{Name: "boom", Fn: func(args ...any) (any, error) {
		return nil, errors.New("no value")
	}}
	l, err := expr.Parse("boom(v)", expr.NewParam("v", int64Type()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fn, err := expr.Compile(l.WithFunctions(boom))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := fn(int64(1)); err == nil {
		t.Fatal("expected evaluation error from the helper function")
	}
}

func TestBind_ConstantsMatchDirectEvaluation(t *testing.T) {
	l := eqLambda(t)

	// Binding both parameters yields a closed lambda whose evaluation equals
	// calling the original on the same values.
	bound, err := l.Bind(int64(7), int64(7))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	closed, err := expr.Compile(bound)
	if err != nil {
		t.Fatalf("Compile bound: %v", err)
	}
	direct, err := expr.Compile(l)
	if err != nil {
		t.Fatalf("Compile original: %v", err)
	}

	got, err := closed()
	if err != nil {
		t.Fatalf("closed call: %v", err)
	}
	want, err := direct(int64(7), int64(7))
	if err != nil {
		t.Fatalf("direct call: %v", err)
	}
	if got != want {
		t.Errorf("bound evaluation = %v, direct = %v", got, want)
	}
}

func TestBind_Validation(t *testing.T) {
	l := eqLambda(t)
	if _, err := l.Bind(int64(1)); err == nil {
		t.Error("one value for two parameters: expected error")
	}
	if _, err := l.Bind(int64(1), "x"); err == nil {
		t.Error("string value for int64 parameter: expected error")
	}
}

func TestReplaceIdentifier_OrderIndependent(t *testing.T) {
	l := eqLambda(t)

	first, err := l.ReplaceIdentifier("a", "1")
	if err != nil {
		t.Fatalf("ReplaceIdentifier: %v", err)
	}
	first, err = first.ReplaceIdentifier("b", "2")
	if err != nil {
		t.Fatalf("ReplaceIdentifier: %v", err)
	}

	second, err := l.ReplaceIdentifier("b", "2")
	if err != nil {
		t.Fatalf("ReplaceIdentifier: %v", err)
	}
	second, err = second.ReplaceIdentifier("a", "1")
	if err != nil {
		t.Fatalf("ReplaceIdentifier: %v", err)
	}

	if first.Source() != second.Source() {
		t.Errorf("substitution order changed result: %q vs %q", first.Source(), second.Source())
	}
}

func TestReplaceIdentifier_DoesNotMutateInput(t *testing.T) {
	l := eqLambda(t)
	before := l.Source()

	if _, err := l.ReplaceIdentifier("a", "9"); err != nil {
		t.Fatalf("ReplaceIdentifier: %v", err)
	}
	if l.Source() != before {
		t.Errorf("input lambda mutated: %q, want %q", l.Source(), before)
	}
}

func TestLiftNullable(t *testing.T) {
	l := eqLambda(t)
	lifted, err := l.LiftNullable()
	if err != nil {
		t.Fatalf("LiftNullable: %v", err)
	}

	for i, p := range lifted.Params() {
		if p.Type != reflect.TypeOf((**int64)(nil)).Elem() {
			t.Errorf("parameter %d type = %s, want *int64", i, p.Type)
		}
	}
	if !strings.Contains(lifted.Source(), "unwrap(a)") {
		t.Errorf("lifted source = %q, want unwrapped parameters", lifted.Source())
	}

	fn, err := expr.Compile(lifted)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	x, y := int64(3), int64(3)
	got, err := fn(&x, &y)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got != true {
		t.Errorf("lifted(&3, &3) = %v, want true", got)
	}
	if _, err := fn((*int64)(nil), &y); err == nil {
		t.Fatal("nil argument: expected unwrap failure")
	}
}

func TestLiftNullable_NilAdmittingTypeUnchanged(t *testing.T) {
	l, err := expr.Parse("v", expr.NewParam("v", reflect.TypeOf((*[]byte)(nil)).Elem()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	lifted, err := l.LiftNullable()
	if err != nil {
		t.Fatalf("LiftNullable: %v", err)
	}
	if lifted != l {
		t.Error("slice-typed lambda should be returned unchanged")
	}
}

func TestNullable(t *testing.T) {
	if got := expr.Nullable(int64Type()); got != reflect.TypeOf((**int64)(nil)).Elem() {
		t.Errorf("Nullable(int64) = %s, want *int64", got)
	}
	// Types that already admit nil are returned unchanged.
	for _, typ := range []reflect.Type{
		reflect.TypeOf((**int64)(nil)).Elem(),
		reflect.TypeOf((*[]byte)(nil)).Elem(),
		reflect.TypeOf((*map[string]int)(nil)).Elem(),
	} {
		if got := expr.Nullable(typ); got != typ {
			t.Errorf("Nullable(%s) = %s, want identity", typ, got)
		}
	}
}

func TestString_Forms(t *testing.T) {
	l := eqLambda(t)
	s := l.String()
	if !strings.Contains(s, "=>") || !strings.Contains(s, "==") {
		t.Errorf("String() = %q, want lambda form with operator", s)
	}
	if l.Source() != "a == b" {
		t.Errorf("Source() = %q, want original source", l.Source())
	}
}
