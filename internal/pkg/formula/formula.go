// Package formula evaluates the arithmetic expressions used by formula-mode
// salary components. Expressions are parsed into a tree and evaluated over
// decimal values only; nothing is ever executed.
//
// Grammar:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = "-" unary | primary
//	primary = number | ident | ident "(" expr { "," expr } ")" | "(" expr ")"
//
// Functions: min(a, b, ...), max(a, b, ...), round(x) and round(x, places).
package formula

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrSyntax          = errors.New("formula syntax error")
	ErrUnknownVariable = errors.New("formula references unknown variable")
	ErrDivisionByZero  = errors.New("formula divides by zero")
)

type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at %d: %s", ErrSyntax.Error(), e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownVariable.Error(), e.Name)
}

func (e *UnknownVariableError) Unwrap() error { return ErrUnknownVariable }

// Lookup resolves a variable name. ok is false for unknown names.
type Lookup func(name string) (value decimal.Decimal, ok bool)

// Expr is a parsed formula.
type Expr struct {
	src  string
	root node
}

// Parse compiles src into an Expr.
func Parse(src string) (*Expr, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, &SyntaxError{Pos: tok.start, Msg: fmt.Sprintf("unexpected %q", tok.text)}
	}
	return &Expr{src: src, root: root}, nil
}

func (e *Expr) String() string { return e.src }

// Variables lists the distinct variable names referenced, in order of first use.
func (e *Expr) Variables() []string {
	seen := make(map[string]bool)
	var names []string
	e.root.walk(func(n node) {
		if v, ok := n.(variable); ok && !seen[string(v)] {
			seen[string(v)] = true
			names = append(names, string(v))
		}
	})
	return names
}

// Eval evaluates the expression, resolving variables through lookup.
func (e *Expr) Eval(lookup Lookup) (decimal.Decimal, error) {
	return e.root.eval(lookup)
}

// Evaluate parses and evaluates src in one step.
func Evaluate(src string, lookup Lookup) (decimal.Decimal, error) {
	expr, err := Parse(src)
	if err != nil {
		return decimal.Zero, err
	}
	return expr.Eval(lookup)
}
