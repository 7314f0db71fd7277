package comparer

import (
	"fmt"

	"github.com/artpar/entrack/domain/expr"
)

// LiftEqualNullable rewrites a two-parameter equality expression over T into
// one over the nullable form of T. Each new parameter is passed through
// unwrap before it reaches the original body, so the body's semantics are
// preserved exactly for non-nil inputs. No nil handling is added: evaluating
// the result with a nil argument fails in the unwrap. The rewrite is pure;
// the input lambda is left untouched.
//
// Types that already admit nil (slices, maps, pointers) have no separate
// nullable form; for those the input lambda is returned as-is.
func LiftEqualNullable(eq *expr.Lambda) (*expr.Lambda, error) {
	if eq == nil {
		return nil, fmt.Errorf("comparer: equality expression is required")
	}
	if n := len(eq.Params()); n != 2 {
		return nil, fmt.Errorf("comparer: equality expression takes %d parameters, want 2", n)
	}
	return eq.LiftNullable()
}

// LiftHashNullable is the one-parameter analogue of LiftEqualNullable for
// hash-code expressions.
func LiftHashNullable(hash *expr.Lambda) (*expr.Lambda, error) {
	if hash == nil {
		return nil, fmt.Errorf("comparer: hash expression is required")
	}
	if n := len(hash.Params()); n != 1 {
		return nil, fmt.Errorf("comparer: hash expression takes %d parameters, want 1", n)
	}
	return hash.LiftNullable()
}
