package expr

import (
	"fmt"
	"strconv"
	"strings"
)

type node interface {
	eval(env *env) (Value, error)
}

type (
	literal struct{ v Value }
	name    struct{ id string }
	unary   struct {
		op string
		x  node
	}
	binary struct {
		op   string
		x, y node
	}
	logical struct {
		and  bool
		x, y node
	}
	not struct{ x node }
	// compare holds a chain such as a < b <= c.
	compare struct {
		ops      []string
		operands []node
	}
	call struct {
		fn   string
		args []node
	}
)

type parser struct {
	toks  []token
	pos   int
	names map[string]bool
	order []string
	calls []string
}

func parse(src string) (*parser, node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, nil, err
	}
	p := &parser{toks: toks, names: make(map[string]bool)}
	if p.peek().kind == tokEOF {
		return nil, nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, t.text, t.pos)
	}
	return p, n, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp && t.kind != tokIdent {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseOr() (node, error) {
	x, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.isOp("or", "||"); !ok {
			return x, nil
		}
		p.next()
		y, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		x = &logical{and: false, x: x, y: y}
	}
}

func (p *parser) parseAnd() (node, error) {
	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.isOp("and", "&&"); !ok {
			return x, nil
		}
		p.next()
		y, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		x = &logical{and: true, x: x, y: y}
	}
}

func (p *parser) parseNot() (node, error) {
	if _, ok := p.isOp("not", "!"); ok {
		p.next()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &not{x: x}, nil
	}
	return p.parseComparison()
}

var comparisonOps = []string{"==", "!=", "<", "<=", ">", ">="}

func (p *parser) parseComparison() (node, error) {
	x, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	c := &compare{operands: []node{x}}
	for {
		op, ok := p.isOp(comparisonOps...)
		if !ok || p.peek().kind != tokOp {
			break
		}
		p.next()
		y, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		c.ops = append(c.ops, op)
		c.operands = append(c.operands, y)
	}
	if len(c.ops) == 0 {
		return x, nil
	}
	return c, nil
}

func (p *parser) parseAdditive() (node, error) {
	x, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp("+", "-")
		if !ok || p.peek().kind != tokOp {
			return x, nil
		}
		p.next()
		y, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		x = &binary{op: op, x: x, y: y}
	}
}

func (p *parser) parseMultiplicative() (node, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp("*", "/", "//", "%")
		if !ok || p.peek().kind != tokOp {
			return x, nil
		}
		p.next()
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		x = &binary{op: op, x: x, y: y}
	}
}

func (p *parser) parseUnary() (node, error) {
	if op, ok := p.isOp("-", "+"); ok && p.peek().kind == tokOp {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unary{op: op, x: x}, nil
	}
	return p.parsePower()
}

// parsePower binds tighter than a unary minus on its left and accepts a
// signed exponent on its right, so -2**2 is -4 and 2**-1 is 0.5.
func (p *parser) parsePower() (node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if _, ok := p.isOp("**"); ok && p.peek().kind == tokOp {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &binary{op: "**", x: base, y: exp}, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return parseNumber(t.text)
	case tokString:
		return &literal{v: StringValue(t.text)}, nil
	case tokLParen:
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if r := p.next(); r.kind != tokRParen {
			return nil, fmt.Errorf("%w: expected ')' at offset %d", ErrSyntax, r.pos)
		}
		return x, nil
	case tokIdent:
		switch t.text {
		case "True", "true":
			return &literal{v: BoolValue(true)}, nil
		case "False", "false":
			return &literal{v: BoolValue(false)}, nil
		case "None", "null":
			return &literal{v: NullValue()}, nil
		case "and", "or", "not":
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, t.text, t.pos)
		}
		if p.peek().kind == tokLParen {
			return p.parseCall(t.text)
		}
		if strings.HasPrefix(t.text, "__") {
			return nil, fmt.Errorf("%w: %q is not allowed", ErrDisallowed, t.text)
		}
		if !p.names[t.text] {
			p.names[t.text] = true
			p.order = append(p.order, t.text)
		}
		return &name{id: t.text}, nil
	case tokEOF:
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	default:
		return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, t.text, t.pos)
	}
}

func (p *parser) parseCall(fn string) (node, error) {
	p.next() // (
	p.calls = append(p.calls, fn)
	c := &call{fn: fn}
	if p.peek().kind == tokRParen {
		p.next()
		return c, nil
	}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		c.args = append(c.args, arg)
		t := p.next()
		if t.kind == tokRParen {
			return c, nil
		}
		if t.kind != tokComma {
			return nil, fmt.Errorf("%w: expected ',' or ')' at offset %d", ErrSyntax, t.pos)
		}
	}
}

func parseNumber(text string) (node, error) {
	if !strings.ContainsAny(text, ".eE") {
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: integer literal %s", ErrOverflow, text)
		}
		return &literal{v: IntValue(i)}, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed number %s", ErrSyntax, text)
	}
	return &literal{v: FloatValue(f)}, nil
}
