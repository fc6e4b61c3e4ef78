package structure

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type StructureService interface {
	CreatePayComponent(ctx context.Context, req CreatePayComponentRequest) (PayComponentResponse, error)
	ListPayComponents(ctx context.Context, activeOnly bool) ([]PayComponentResponse, error)

	CreateVersion(ctx context.Context, req CreateStructureRequest) (StructureResponse, error)
	Supersede(ctx context.Context, req SupersedeStructureRequest) (StructureResponse, error)
	GetVersion(ctx context.Context, id string) (StructureResponse, error)
	ResolveActive(ctx context.Context, name string, asOf time.Time) (StructureResponse, error)
	History(ctx context.Context, name string) ([]StructureResponse, error)
	ListCurrent(ctx context.Context, asOf time.Time) ([]StructureResponse, error)
}

// ResolveInput carries the per-employee values a structure is evaluated against.
type ResolveInput struct {
	CTC       decimal.Decimal
	Overrides map[string]decimal.Decimal // pay component id -> value
}

// ResolvedLine is one evaluated component. Amount is unrounded and, for
// Prorate lines, still the full-period amount.
type ResolvedLine struct {
	PayComponentID string
	Code           string
	Name           string
	Type           ComponentType
	Category       ComponentCategory
	Mode           CalculationMode
	Amount         decimal.Decimal
	Prorate        bool
	Overridden     bool
	IsVariable     bool
}

// Plan is the ordered evaluation result of one structure version.
type Plan struct {
	StructureID string
	Lines       []ResolvedLine
}

// Resolver turns a structure version into an evaluation plan.
type Resolver interface {
	Resolve(s Structure, in ResolveInput) (Plan, error)
}
