package statutory

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Slab is one bracket of a slab table. A nil UpTo is the open top bracket.
// Value is a percentage for TDS and a flat monthly amount for PT.
type Slab struct {
	UpTo  *decimal.Decimal
	Value decimal.Decimal
}

// Config holds rates and slab tables. Rates are percentages.
type Config struct {
	PFRate            decimal.Decimal
	PFWageCeiling     decimal.Decimal // zero means no ceiling
	ESIRate           decimal.Decimal
	ESIGrossThreshold decimal.Decimal // zero means always applicable
	TDSSlabs          []Slab          // annual income brackets
	PTSlabs           []Slab          // monthly gross brackets
}

func DefaultConfig() Config {
	return Config{
		PFRate:            decimal.NewFromInt(12),
		PFWageCeiling:     decimal.NewFromInt(15000),
		ESIRate:           decimal.RequireFromString("0.75"),
		ESIGrossThreshold: decimal.NewFromInt(21000),
		TDSSlabs:          MustParseSlabs("300000:0,700000:5,1000000:10,1200000:15,1500000:20,inf:30"),
		PTSlabs:           MustParseSlabs("7500:0,10000:175,inf:200"),
	}
}

// ParseSlabs parses "upper:value,upper:value,...". The last upper bound may
// be "inf". Bounds must be strictly increasing.
func ParseSlabs(s string) ([]Slab, error) {
	var slabs []Slab
	var last *decimal.Decimal
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		upper, value, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid slab %q: expected upper:value", part)
		}
		if last == nil && len(slabs) > 0 {
			return nil, fmt.Errorf("invalid slab %q: nothing may follow the open bracket", part)
		}

		v, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid slab value %q: %w", value, err)
		}

		slab := Slab{Value: v}
		if u := strings.TrimSpace(upper); !strings.EqualFold(u, "inf") {
			bound, err := decimal.NewFromString(u)
			if err != nil {
				return nil, fmt.Errorf("invalid slab bound %q: %w", upper, err)
			}
			if last != nil && !bound.GreaterThan(*last) {
				return nil, fmt.Errorf("invalid slab bound %q: bounds must increase", upper)
			}
			slab.UpTo = &bound
		}
		slabs = append(slabs, slab)
		last = slab.UpTo
	}
	return slabs, nil
}

func MustParseSlabs(s string) []Slab {
	slabs, err := ParseSlabs(s)
	if err != nil {
		panic(err)
	}
	return slabs
}

// NewRuleSet returns the PF, ESI, TDS and PT rules in application order.
func NewRuleSet(cfg Config) []payroll.StatutoryRule {
	return []payroll.StatutoryRule{
		pfRule{rate: cfg.PFRate, ceiling: cfg.PFWageCeiling},
		esiRule{rate: cfg.ESIRate, threshold: cfg.ESIGrossThreshold},
		tdsRule{slabs: cfg.TDSSlabs},
		ptRule{slabs: cfg.PTSlabs},
	}
}

// pfRule: employee provident fund, a rate of basic capped at the wage ceiling.
type pfRule struct {
	rate    decimal.Decimal
	ceiling decimal.Decimal
}

func (pfRule) Kind() payroll.StatutoryKind { return payroll.StatutoryPF }

func (r pfRule) Compute(_ context.Context, in payroll.StatutoryInput) (decimal.Decimal, error) {
	wage := in.Basic
	if r.ceiling.IsPositive() && wage.GreaterThan(r.ceiling) {
		wage = r.ceiling
	}
	return wage.Mul(r.rate).Div(hundred), nil
}

// esiRule: employee state insurance, a rate of gross while gross is within the threshold.
type esiRule struct {
	rate      decimal.Decimal
	threshold decimal.Decimal
}

func (esiRule) Kind() payroll.StatutoryKind { return payroll.StatutoryESI }

func (r esiRule) Compute(_ context.Context, in payroll.StatutoryInput) (decimal.Decimal, error) {
	if r.threshold.IsPositive() && in.Gross.GreaterThan(r.threshold) {
		return decimal.Zero, nil
	}
	return in.Gross.Mul(r.rate).Div(hundred), nil
}

// tdsRule: income tax withheld monthly, from the annualised gross taxed progressively.
type tdsRule struct {
	slabs []Slab
}

func (tdsRule) Kind() payroll.StatutoryKind { return payroll.StatutoryTDS }

func (r tdsRule) Compute(_ context.Context, in payroll.StatutoryInput) (decimal.Decimal, error) {
	annual := in.Gross.Mul(twelve)
	tax := decimal.Zero
	lower := decimal.Zero
	for _, s := range r.slabs {
		if !annual.GreaterThan(lower) {
			break
		}
		upper := annual
		if s.UpTo != nil && s.UpTo.LessThan(annual) {
			upper = *s.UpTo
		}
		tax = tax.Add(upper.Sub(lower).Mul(s.Value).Div(hundred))
		if s.UpTo == nil {
			break
		}
		lower = *s.UpTo
	}
	return tax.Div(twelve), nil
}

// ptRule: professional tax, a flat monthly amount chosen by gross bracket.
type ptRule struct {
	slabs []Slab
}

func (ptRule) Kind() payroll.StatutoryKind { return payroll.StatutoryPT }

func (r ptRule) Compute(_ context.Context, in payroll.StatutoryInput) (decimal.Decimal, error) {
	for _, s := range r.slabs {
		if s.UpTo == nil || !in.Gross.GreaterThan(*s.UpTo) {
			return s.Value, nil
		}
	}
	return decimal.Zero, nil
}
