package selector

import (
	"slices"
	"strconv"
	"strings"
)

// Parse parses a complete selector. The selector must be a single-parameter
// lambda.
func Parse(src string) (*LambdaExpr, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}

	e, err := p.expr()
	if err != nil {
		return nil, err
	}

	if t := p.peek(); t.Kind != TokEOF {
		return nil, syntaxError(t.Pos, "unexpected %s after selector", t)
	}

	lam, ok := e.(*LambdaExpr)
	if !ok {
		return nil, syntaxError(e.Pos(), "selector must be a lambda such as o => new { ... }")
	}

	if len(lam.Params) != 1 {
		return nil, syntaxError(lam.At, "selector lambda must take exactly one parameter, got %d", len(lam.Params))
	}

	return lam, nil
}

// ParseExpr parses a standalone expression.
func ParseExpr(src string) (Expr, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}

	e, err := p.expr()
	if err != nil {
		return nil, err
	}

	if t := p.peek(); t.Kind != TokEOF {
		return nil, syntaxError(t.Pos, "unexpected %s", t)
	}

	return e, nil
}

type parser struct {
	toks []Token
	i    int
}

func (p *parser) peek() Token {
	return p.toks[p.i]
}

func (p *parser) peekAt(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}

	return p.toks[p.i+n]
}

func (p *parser) next() Token {
	t := p.toks[p.i]
	if t.Kind != TokEOF {
		p.i++
	}

	return t
}

func (p *parser) expect(op string) (Token, error) {
	t := p.next()
	if !t.is(op) {
		return t, syntaxError(t.Pos, "expected %q, got %s", op, t)
	}

	return t, nil
}

func (p *parser) ident() (Token, error) {
	t := p.next()
	if t.Kind != TokIdent {
		return t, syntaxError(t.Pos, "expected identifier, got %s", t)
	}

	return t, nil
}

func (p *parser) expr() (Expr, error) {
	if params, at, ok := p.lambdaHead(); ok {
		body, err := p.expr()
		if err != nil {
			return nil, err
		}

		return &LambdaExpr{At: at, Params: params, Body: body}, nil
	}

	test, err := p.coalesce()
	if err != nil {
		return nil, err
	}

	if !p.peek().is("?") {
		return test, nil
	}

	at := p.next().Pos

	then, err := p.expr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(":"); err != nil {
		return nil, err
	}

	els, err := p.expr()
	if err != nil {
		return nil, err
	}

	return &CondExpr{At: at, Test: test, Then: then, Else: els}, nil
}

// lambdaHead consumes "p =>" or "(p, q) =>" when present.
func (p *parser) lambdaHead() ([]string, int, bool) {
	start := p.peek()

	if start.Kind == TokIdent && p.peekAt(1).is("=>") {
		p.i += 2
		return []string{start.Text}, start.Pos, true
	}

	if !start.is("(") {
		return nil, 0, false
	}

	var params []string
	n := 1
	for {
		t := p.peekAt(n)
		if t.Kind != TokIdent {
			return nil, 0, false
		}

		params = append(params, t.Text)
		n++

		if p.peekAt(n).is(",") {
			n++
			continue
		}

		if p.peekAt(n).is(")") && p.peekAt(n+1).is("=>") {
			p.i += n + 2
			return params, start.Pos, true
		}

		return nil, 0, false
	}
}

func (p *parser) coalesce() (Expr, error) {
	left, err := p.binary(0)
	if err != nil {
		return nil, err
	}

	if !p.peek().is("??") {
		return left, nil
	}

	at := p.next().Pos

	right, err := p.coalesce()
	if err != nil {
		return nil, err
	}

	return &BinaryExpr{At: at, Op: "??", X: left, Y: right}, nil
}

// precedence lists binary operators from loosest to tightest.
var precedence = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parser) binary(level int) (Expr, error) {
	if level == len(precedence) {
		return p.unary()
	}

	left, err := p.binary(level + 1)
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		if t.Kind != TokOp || !slices.Contains(precedence[level], t.Text) {
			return left, nil
		}

		p.next()

		right, err := p.binary(level + 1)
		if err != nil {
			return nil, err
		}

		left = &BinaryExpr{At: t.Pos, Op: t.Text, X: left, Y: right}
	}
}

func (p *parser) unary() (Expr, error) {
	t := p.peek()
	if t.is("!") || t.is("-") {
		p.next()

		x, err := p.unary()
		if err != nil {
			return nil, err
		}

		return &UnaryExpr{At: t.Pos, Op: t.Text, X: x}, nil
	}

	return p.postfix()
}

func (p *parser) postfix() (Expr, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}

	for p.peek().is(".") || p.peek().is("?.") {
		safe := p.next().Text == "?."

		name, err := p.ident()
		if err != nil {
			return nil, err
		}

		typeArgs := p.typeArgs()

		if !p.peek().is("(") {
			if typeArgs != nil {
				return nil, syntaxError(name.Pos, "type arguments on %s without a call", name.Text)
			}

			x = &MemberExpr{At: name.Pos, X: x, Name: name.Text, Safe: safe}

			continue
		}

		args, err := p.args()
		if err != nil {
			return nil, err
		}

		x = &CallExpr{At: name.Pos, X: x, Name: name.Text, Safe: safe, TypeArgs: typeArgs, Args: args}
	}

	return x, nil
}

func (p *parser) primary() (Expr, error) {
	t := p.peek()

	switch t.Kind {
	case TokIdent:
		switch t.Text {
		case "new":
			return p.newExpr()
		case "true", "false":
			p.next()
			return &Literal{At: t.Pos, Kind: LitBool, Value: t.Text == "true", Raw: t.Text}, nil
		case "null":
			p.next()
			return &Literal{At: t.Pos, Kind: LitNull, Raw: t.Text}, nil
		}

		p.next()

		typeArgs := p.typeArgs()
		if !p.peek().is("(") {
			if typeArgs != nil {
				return nil, syntaxError(t.Pos, "type arguments on %s without a call", t.Text)
			}

			return &Ident{At: t.Pos, Name: t.Text}, nil
		}

		args, err := p.args()
		if err != nil {
			return nil, err
		}

		return &CallExpr{At: t.Pos, Name: t.Text, TypeArgs: typeArgs, Args: args}, nil

	case TokInt:
		p.next()

		v, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return nil, syntaxError(t.Pos, "invalid integer %s", t.Text)
		}

		return &Literal{At: t.Pos, Kind: LitInt, Value: v, Raw: t.Text}, nil

	case TokFloat:
		p.next()

		v, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, syntaxError(t.Pos, "invalid number %s", t.Text)
		}

		return &Literal{At: t.Pos, Kind: LitFloat, Value: v, Raw: t.Text}, nil

	case TokString:
		p.next()

		v, err := strconv.Unquote(t.Text)
		if err != nil {
			return nil, syntaxError(t.Pos, "invalid string literal %s", t.Text)
		}

		return &Literal{At: t.Pos, Kind: LitString, Value: v, Raw: t.Text}, nil
	}

	switch {
	case t.is("("):
		p.next()

		e, err := p.expr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(")"); err != nil {
			return nil, err
		}

		return e, nil

	case t.is("["):
		p.next()

		if _, err := p.expect("]"); err != nil {
			return nil, err
		}

		return &EmptyList{At: t.Pos}, nil
	}

	return nil, syntaxError(t.Pos, "unexpected %s", t)
}

// typeArgs speculatively parses <T, U> directly followed by "(". Anything
// else is left for the comparison operators.
func (p *parser) typeArgs() []string {
	if !p.peek().is("<") {
		return nil
	}

	save := p.i
	p.next()

	var out []string
	for {
		name, ok := p.qualified()
		if !ok {
			p.i = save
			return nil
		}

		out = append(out, name)

		if p.peek().is(",") {
			p.next()
			continue
		}

		if p.peek().is(">") && p.peekAt(1).is("(") {
			p.next()
			return out
		}

		p.i = save

		return nil
	}
}

// qualified parses Name or pkg.Name.
func (p *parser) qualified() (string, bool) {
	if p.peek().Kind != TokIdent {
		return "", false
	}

	parts := []string{p.next().Text}
	for p.peek().is(".") && p.peekAt(1).Kind == TokIdent {
		p.next()
		parts = append(parts, p.next().Text)
	}

	return strings.Join(parts, "."), true
}

func (p *parser) args() ([]Expr, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}

	var args []Expr
	for !p.peek().is(")") {
		a, err := p.expr()
		if err != nil {
			return nil, err
		}

		args = append(args, a)

		if !p.peek().is(",") {
			break
		}

		p.next()
	}

	if _, err := p.expect(")"); err != nil {
		return nil, err
	}

	return args, nil
}

func (p *parser) newExpr() (Expr, error) {
	at := p.next().Pos

	n := &NewExpr{At: at}
	if p.peek().Kind == TokIdent {
		n.Type, _ = p.qualified()
	}

	if _, err := p.expect("{"); err != nil {
		return nil, err
	}

	for !p.peek().is("}") {
		m, err := p.member()
		if err != nil {
			return nil, err
		}

		n.Members = append(n.Members, m)

		if !p.peek().is(",") {
			break
		}

		p.next()
	}

	if _, err := p.expect("}"); err != nil {
		return nil, err
	}

	return n, nil
}

func (p *parser) member() (Member, error) {
	t := p.peek()
	if t.Kind == TokIdent && p.peekAt(1).is("=") {
		p.i += 2

		v, err := p.expr()
		if err != nil {
			return Member{}, err
		}

		return Member{At: t.Pos, Name: t.Text, Explicit: true, Value: v}, nil
	}

	v, err := p.expr()
	if err != nil {
		return Member{}, err
	}

	return Member{At: t.Pos, Value: v}, nil
}
