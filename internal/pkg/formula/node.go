package formula

import (
	"github.com/shopspring/decimal"
)

type node interface {
	eval(lookup Lookup) (decimal.Decimal, error)
	walk(fn func(node))
}

type number decimal.Decimal

func (n number) eval(Lookup) (decimal.Decimal, error) { return decimal.Decimal(n), nil }
func (n number) walk(fn func(node))                   { fn(n) }

type variable string

func (v variable) eval(lookup Lookup) (decimal.Decimal, error) {
	if lookup != nil {
		if val, ok := lookup(string(v)); ok {
			return val, nil
		}
	}
	return decimal.Zero, &UnknownVariableError{Name: string(v)}
}

func (v variable) walk(fn func(node)) { fn(v) }

type negate struct {
	operand node
}

func (n negate) eval(lookup Lookup) (decimal.Decimal, error) {
	v, err := n.operand.eval(lookup)
	if err != nil {
		return decimal.Zero, err
	}
	return v.Neg(), nil
}

func (n negate) walk(fn func(node)) {
	fn(n)
	n.operand.walk(fn)
}

type binary struct {
	op          tokenKind
	left, right node
}

func (b binary) eval(lookup Lookup) (decimal.Decimal, error) {
	l, err := b.left.eval(lookup)
	if err != nil {
		return decimal.Zero, err
	}
	r, err := b.right.eval(lookup)
	if err != nil {
		return decimal.Zero, err
	}
	switch b.op {
	case tokPlus:
		return l.Add(r), nil
	case tokMinus:
		return l.Sub(r), nil
	case tokStar:
		return l.Mul(r), nil
	default:
		if r.IsZero() {
			return decimal.Zero, ErrDivisionByZero
		}
		return l.Div(r), nil
	}
}

func (b binary) walk(fn func(node)) {
	fn(b)
	b.left.walk(fn)
	b.right.walk(fn)
}

type call struct {
	fn   string
	args []node
}

func (c call) eval(lookup Lookup) (decimal.Decimal, error) {
	values := make([]decimal.Decimal, 0, len(c.args))
	for _, a := range c.args {
		v, err := a.eval(lookup)
		if err != nil {
			return decimal.Zero, err
		}
		values = append(values, v)
	}
	switch c.fn {
	case "min":
		return decimal.Min(values[0], values[1:]...), nil
	case "max":
		return decimal.Max(values[0], values[1:]...), nil
	default: // round
		places := int32(0)
		if len(values) == 2 {
			places = int32(values[1].IntPart())
		}
		return values[0].Round(places), nil
	}
}

func (c call) walk(fn func(node)) {
	fn(c)
	for _, a := range c.args {
		a.walk(fn)
	}
}
