package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

// StatutoryKind enum. StatutoryOrder is the order rules are applied in.
type StatutoryKind string

const (
	StatutoryPF  StatutoryKind = "PF"
	StatutoryESI StatutoryKind = "ESI"
	StatutoryTDS StatutoryKind = "TDS"
	StatutoryPT  StatutoryKind = "PT"
)

var StatutoryOrder = []StatutoryKind{StatutoryPF, StatutoryESI, StatutoryTDS, StatutoryPT}

type StatutoryInput struct {
	Gross decimal.Decimal
	Basic decimal.Decimal
}

// StatutoryRule computes one statutory deduction. Rates and slabs are the
// rule's own configuration.
type StatutoryRule interface {
	Kind() StatutoryKind
	Compute(ctx context.Context, in StatutoryInput) (decimal.Decimal, error)
}
