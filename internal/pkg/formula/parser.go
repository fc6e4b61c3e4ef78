package formula

import (
	"fmt"
	"strings"
)

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind, what string) error {
	tok := p.next()
	if tok.kind != kind {
		return &SyntaxError{Pos: tok.start, Msg: fmt.Sprintf("expected %s", what)}
	}
	return nil
}

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokPlus && tok.kind != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binary{op: tok.kind, left: left, right: right}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokStar && tok.kind != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binary{op: tok.kind, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if p.peek().kind == tokMinus {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return negate{operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return number(tok.num), nil
	case tokIdent:
		if p.peek().kind != tokLParen {
			return variable(tok.text), nil
		}
		return p.parseCall(tok)
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokEOF:
		return nil, &SyntaxError{Pos: tok.start, Msg: "unexpected end of formula"}
	default:
		return nil, &SyntaxError{Pos: tok.start, Msg: fmt.Sprintf("unexpected %q", tok.text)}
	}
}

func (p *parser) parseCall(name token) (node, error) {
	fn := strings.ToLower(name.text)
	arity, ok := functions[fn]
	if !ok {
		return nil, &SyntaxError{Pos: name.start, Msg: fmt.Sprintf("unknown function %q", name.text)}
	}
	p.next() // (

	var args []node
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	if len(args) < arity.min || (arity.max > 0 && len(args) > arity.max) {
		return nil, &SyntaxError{Pos: name.start, Msg: fmt.Sprintf("%s takes %s arguments", fn, arity)}
	}
	return call{fn: fn, args: args}, nil
}

type arity struct{ min, max int }

func (a arity) String() string {
	switch {
	case a.max == 0:
		return fmt.Sprintf("at least %d", a.min)
	case a.min == a.max:
		return fmt.Sprintf("%d", a.min)
	default:
		return fmt.Sprintf("%d to %d", a.min, a.max)
	}
}

var functions = map[string]arity{
	"min":   {min: 1},
	"max":   {min: 1},
	"round": {min: 1, max: 2},
}
