package condition

import (
	"fmt"
	"math"
	"strings"
)

// Resolver supplies field values by dot path.
type Resolver interface {
	Lookup(path string) (any, bool)
}

// Fields is a flat path-to-value Resolver.
type Fields map[string]any

func (f Fields) Lookup(path string) (any, bool) {
	v, ok := f[path]
	return v, ok
}

// Program is a parsed, reusable expression.
type Program struct {
	Source string
	root   Node
}

// Compile parses src once so that it can be evaluated many times.
func Compile(src string) (*Program, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	return &Program{Source: src, root: root}, nil
}

func (p *Program) Eval(r Resolver) (bool, error) {
	return Evaluate(p.root, r)
}

// Evaluate walks the tree. AND and OR short-circuit.
func Evaluate(n Node, r Resolver) (bool, error) {
	switch e := n.(type) {
	case *Logical:
		left, err := Evaluate(e.Left, r)
		if err != nil {
			return false, err
		}
		if left != e.And {
			return left, nil
		}
		return Evaluate(e.Right, r)
	case *Not:
		v, err := Evaluate(e.Inner, r)
		return !v, err
	case *Truthy:
		v, err := lookup(e.Field, r)
		if err != nil {
			return false, err
		}
		b, ok := v.(bool)
		if !ok {
			return false, fmt.Errorf("field %q is %T, not a flag", e.Field, v)
		}
		return b, nil
	case *Comparison:
		return evalComparison(e, r)
	default:
		return false, fmt.Errorf("unknown node %T", n)
	}
}

func evalComparison(c *Comparison, r Resolver) (bool, error) {
	left, err := resolve(c.Left, r)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case OpIn:
		for _, candidate := range c.List {
			if equal(left, candidate) {
				return true, nil
			}
		}
		return false, nil
	case OpMatches:
		s, ok := left.(string)
		if !ok {
			return false, fmt.Errorf("matches: %T is not a string", left)
		}
		return c.Pattern.MatchString(s), nil
	}

	right, err := resolve(c.Right, r)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case OpEq:
		return equal(left, right), nil
	case OpNeq:
		return !equal(left, right), nil
	case OpContains:
		s, ok := left.(string)
		if !ok {
			return false, fmt.Errorf("contains: %T is not a string", left)
		}
		return strings.Contains(s, fmt.Sprint(right)), nil
	case OpGt, OpGte, OpLt, OpLte:
		return ordered(c.Op, left, right)
	default:
		return false, fmt.Errorf("unknown operator %q", c.Op)
	}
}

func resolve(o Operand, r Resolver) (any, error) {
	if o.IsField() {
		return lookup(o.Field, r)
	}
	return o.Literal, nil
}

func lookup(path string, r Resolver) (any, error) {
	v, ok := r.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("field %q not found", path)
	}
	return v, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// equal compares numbers by value, flags as flags and everything else by
// its string form.
func equal(a, b any) bool {
	if x, ok := number(a); ok {
		y, ok := number(b)
		return ok && math.Abs(x-y) < 1e-9
	}
	if x, ok := a.(bool); ok {
		y, ok := b.(bool)
		return ok && x == y
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func ordered(op Operator, a, b any) (bool, error) {
	x, ok1 := number(a)
	y, ok2 := number(b)
	if !ok1 || !ok2 {
		return false, fmt.Errorf("%s needs numbers, got %T and %T", op, a, b)
	}
	switch op {
	case OpGt:
		return x > y, nil
	case OpGte:
		return x >= y, nil
	case OpLt:
		return x < y, nil
	default:
		return x <= y, nil
	}
}
