package structure

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/structure"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/formula"
	"github.com/shopspring/decimal"
)

// CTCVariable is the formula identifier bound to the assignment CTC.
const CTCVariable = "CTC"

var hundred = decimal.NewFromInt(100)

type resolver struct{}

func NewResolver() structure.Resolver {
	return resolver{}
}

// Resolve evaluates every component of s in display order. A component may
// only depend on components evaluated before it; there is no dependency sort.
func (resolver) Resolve(s structure.Structure, in structure.ResolveInput) (structure.Plan, error) {
	components := ordered(s.Components)

	byID := make(map[string]decimal.Decimal, len(components))
	byCode := make(map[string]decimal.Decimal, len(components))
	lookup := func(name string) (decimal.Decimal, bool) {
		if name == CTCVariable {
			return in.CTC, true
		}
		v, ok := byCode[name]
		return v, ok
	}

	plan := structure.Plan{StructureID: s.ID, Lines: make([]structure.ResolvedLine, 0, len(components))}
	for _, c := range components {
		amount, err := evaluate(c, components, in.CTC, byID, lookup)
		if err != nil {
			return structure.Plan{}, err
		}
		amount = clamp(amount, c.MinValue, c.MaxValue)

		line := structure.ResolvedLine{
			PayComponentID: c.PayComponentID,
			Code:           c.Code,
			Name:           c.Name,
			Type:           c.Type,
			Category:       c.Category,
			Mode:           c.CalculationMode,
			Amount:         amount,
			Prorate:        c.CalculationMode == structure.ModeAttendanceBased,
			IsVariable:     c.IsVariable,
		}
		if override, ok := in.Overrides[c.PayComponentID]; ok {
			line.Amount = override
			line.Overridden = true
			line.Prorate = false
		}

		byID[c.PayComponentID] = line.Amount
		byCode[c.Code] = line.Amount
		plan.Lines = append(plan.Lines, line)
	}

	return plan, nil
}

func evaluate(
	c structure.StructureComponent,
	all []structure.StructureComponent,
	ctc decimal.Decimal,
	resolved map[string]decimal.Decimal,
	lookup formula.Lookup,
) (decimal.Decimal, error) {
	switch c.CalculationMode {
	case structure.ModeFixed:
		if c.Value == nil {
			return decimal.Zero, fmt.Errorf("%w: %s has no value", structure.ErrInvalidComponentSettings, c.Code)
		}
		return *c.Value, nil

	case structure.ModePercentage:
		return percentageOf(c, all, ctc, resolved)

	case structure.ModeFormula:
		if c.Formula == nil {
			return decimal.Zero, fmt.Errorf("%w: %s has no formula", structure.ErrInvalidFormula, c.Code)
		}
		v, err := formula.Evaluate(*c.Formula, lookup)
		if err != nil {
			return decimal.Zero, formulaError(c, err)
		}
		return v, nil

	case structure.ModeAttendanceBased:
		if c.Value != nil {
			return *c.Value, nil
		}
		return percentageOf(c, all, ctc, resolved)

	default:
		return decimal.Zero, fmt.Errorf("%w: %s has unknown calculation mode %q", structure.ErrInvalidComponentSettings, c.Code, c.CalculationMode)
	}
}

func percentageOf(
	c structure.StructureComponent,
	all []structure.StructureComponent,
	ctc decimal.Decimal,
	resolved map[string]decimal.Decimal,
) (decimal.Decimal, error) {
	if c.Percentage == nil {
		return decimal.Zero, fmt.Errorf("%w: %s has no percentage", structure.ErrInvalidComponentSettings, c.Code)
	}
	base := ctc
	if c.BaseComponentID != nil {
		v, ok := resolved[*c.BaseComponentID]
		if !ok {
			return decimal.Zero, &structure.ReferenceError{Component: c.Code, Reference: codeOf(all, *c.BaseComponentID)}
		}
		base = v
	}
	return base.Mul(*c.Percentage).Div(hundred), nil
}

func formulaError(c structure.StructureComponent, err error) error {
	var unknown *formula.UnknownVariableError
	if errors.As(err, &unknown) {
		return &structure.ReferenceError{Component: c.Code, Reference: unknown.Name}
	}
	return fmt.Errorf("%w: %s: %v", structure.ErrInvalidFormula, c.Code, err)
}

func clamp(v decimal.Decimal, lo, hi *decimal.Decimal) decimal.Decimal {
	if lo != nil && v.LessThan(*lo) {
		v = *lo
	}
	if hi != nil && v.GreaterThan(*hi) {
		v = *hi
	}
	return v
}

// CheckReferences verifies, without evaluating anything, that every
// percentage base and formula variable names a component that resolves
// earlier, and that every formula parses.
func CheckReferences(components []structure.StructureComponent) error {
	seenIDs := make(map[string]bool, len(components))
	seenCodes := make(map[string]bool, len(components))

	for _, c := range ordered(components) {
		if c.BaseComponentID != nil && !seenIDs[*c.BaseComponentID] {
			return &structure.ReferenceError{Component: c.Code, Reference: codeOf(components, *c.BaseComponentID)}
		}
		if c.CalculationMode == structure.ModeFormula && c.Formula != nil {
			expr, err := formula.Parse(*c.Formula)
			if err != nil {
				return formulaError(c, err)
			}
			for _, name := range expr.Variables() {
				if name != CTCVariable && !seenCodes[name] {
					return &structure.ReferenceError{Component: c.Code, Reference: name}
				}
			}
		}
		seenIDs[c.PayComponentID] = true
		seenCodes[c.Code] = true
	}
	return nil
}

// ordered returns a copy sorted by display order, keeping insertion order for ties.
func ordered(components []structure.StructureComponent) []structure.StructureComponent {
	out := make([]structure.StructureComponent, len(components))
	copy(out, components)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

func codeOf(components []structure.StructureComponent, payComponentID string) string {
	for _, c := range components {
		if c.PayComponentID == payComponentID {
			return c.Code
		}
	}
	return payComponentID
}
