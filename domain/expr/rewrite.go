package expr

import (
	"fmt"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// identPatcher replaces every identifier node with a given name. Walks are
// post-order, so a replacement that mentions the name again is not rewritten
// a second time.
type identPatcher struct {
	name string
	node func() ast.Node
}

func (p *identPatcher) Visit(node *ast.Node) {
	if id, ok := (*node).(*ast.IdentifierNode); ok && id.Value == p.name {
		ast.Patch(node, p.node())
	}
}

// ReplaceIdentifier returns a copy of l with every occurrence of the named
// identifier in the body replaced by the parsed fragment. The input lambda
// is left untouched, and substitutions of distinct names commute.
func (l *Lambda) ReplaceIdentifier(name, fragment string) (*Lambda, error) {
	if _, err := parser.Parse(fragment); err != nil {
		return nil, fmt.Errorf("expr: parse replacement %q: %w", fragment, err)
	}
	tree, err := parser.Parse(l.source)
	if err != nil {
		return nil, fmt.Errorf("expr: parse %q: %w", l.source, err)
	}

	node := tree.Node
	ast.Walk(&node, &identPatcher{name: name, node: func() ast.Node {
		t, _ := parser.Parse(fragment)
		return t.Node
	}})

	c := l.clone()
	c.source = node.String()
	return c, nil
}

// LiftNullable returns a copy of l whose parameters take the nullable form
// of their types and whose body passes each such parameter through unwrap
// before it reaches the original expression, preserving its semantics
// exactly for non-nil inputs. No nil handling is added: evaluating the
// result with a nil argument fails in the unwrap. Parameters whose type
// already admits nil are kept as they are; when no parameter needs lifting
// the input lambda is returned unchanged.
func (l *Lambda) LiftNullable() (*Lambda, error) {
	out := l
	params := make([]Param, len(l.params))
	lifted := false
	for i, p := range l.params {
		params[i] = p
		nt := Nullable(p.Type)
		if nt == p.Type {
			continue
		}
		var err error
		out, err = out.ReplaceIdentifier(p.Name, "unwrap("+p.Name+")")
		if err != nil {
			return nil, err
		}
		params[i] = Param{Name: p.Name, Type: nt}
		lifted = true
	}
	if !lifted {
		return l, nil
	}
	c := out.clone()
	c.params = params
	return c, nil
}
