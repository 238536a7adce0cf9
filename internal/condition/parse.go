package condition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Operator is a comparison operator.
type Operator string

const (
	OpEq       Operator = "=="
	OpNeq      Operator = "!="
	OpGt       Operator = ">"
	OpGte      Operator = ">="
	OpLt       Operator = "<"
	OpLte      Operator = "<="
	OpContains Operator = "contains"
	OpMatches  Operator = "matches"
	OpIn       Operator = "in"
)

// Node is an expression tree node.
type Node interface {
	node()
}

// Logical is a short-circuit AND or OR.
type Logical struct {
	And         bool
	Left, Right Node
}

type Not struct {
	Inner Node
}

// Comparison is <operand> <op> <operand>. For OpIn, List holds the candidates;
// for OpMatches, Pattern is compiled at parse time.
type Comparison struct {
	Left    Operand
	Op      Operator
	Right   Operand
	List    []any
	Pattern *regexp.Regexp
}

// Truthy is a bare field used as a condition, e.g. "profile.pep".
type Truthy struct {
	Field string
}

func (*Logical) node()    {}
func (*Not) node()        {}
func (*Comparison) node() {}
func (*Truthy) node()     {}

// Operand is a literal or a dot-path field reference.
type Operand struct {
	Field   string
	Literal any
}

func (o Operand) IsField() bool { return o.Field != "" }

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) keyword(word string) bool {
	t := p.peek()
	return t.kind == tokIdent && strings.EqualFold(t.val, word)
}

func (p *parser) expect(kind tokenKind, what string) error {
	if t := p.next(); t.kind != kind {
		return fmt.Errorf("position %d: expected %s, got %q", t.pos, what, t.val)
	}
	return nil
}

// Parse turns src into an expression tree.
//
//	or         = and { "OR" and }
//	and        = unary { "AND" unary }
//	unary      = "NOT" unary | "(" or ")" | comparison
//	comparison = operand [ op operand | "contains" operand | "matches" string | "in" list ]
func Parse(src string) (Node, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("position %d: unexpected %q after expression", t.pos, t.val)
	}
	return n, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Logical{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Logical{And: true, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.keyword("NOT") {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{Inner: inner}, nil
	}
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	t := p.peek()
	switch {
	case t.kind == tokOp:
		p.next()
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return &Comparison{Left: left, Op: Operator(t.val), Right: right}, nil

	case p.keyword("contains"):
		p.next()
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return &Comparison{Left: left, Op: OpContains, Right: right}, nil

	case p.keyword("matches"):
		p.next()
		pt := p.next()
		if pt.kind != tokString {
			return nil, fmt.Errorf("position %d: matches needs a string pattern", pt.pos)
		}
		re, err := regexp.Compile(pt.val)
		if err != nil {
			return nil, fmt.Errorf("position %d: invalid pattern %q: %w", pt.pos, pt.val, err)
		}
		return &Comparison{Left: left, Op: OpMatches, Right: Operand{Literal: pt.val}, Pattern: re}, nil

	case p.keyword("in"):
		p.next()
		list, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return &Comparison{Left: left, Op: OpIn, List: list}, nil
	}

	if !left.IsField() {
		return nil, fmt.Errorf("position %d: expected comparison operator, got %q", t.pos, t.val)
	}
	return &Truthy{Field: left.Field}, nil
}

func (p *parser) parseList() ([]any, error) {
	if err := p.expect(tokLBracket, "'['"); err != nil {
		return nil, err
	}
	var list []any
	for p.peek().kind != tokRBracket {
		if len(list) > 0 {
			if err := p.expect(tokComma, "','"); err != nil {
				return nil, err
			}
		}
		o, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if o.IsField() {
			return nil, fmt.Errorf("list entries must be literals, got field %q", o.Field)
		}
		list = append(list, o.Literal)
	}
	p.next()
	return list, nil
}

func (p *parser) parseOperand() (Operand, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return Operand{Literal: t.val}, nil
	case tokNumber:
		f, err := strconv.ParseFloat(t.val, 64)
		if err != nil {
			return Operand{}, fmt.Errorf("position %d: invalid number %q", t.pos, t.val)
		}
		return Operand{Literal: f}, nil
	case tokBool:
		return Operand{Literal: t.val == "true"}, nil
	case tokIdent:
		return Operand{Field: t.val}, nil
	default:
		return Operand{}, fmt.Errorf("position %d: expected operand, got %q", t.pos, t.val)
	}
}
