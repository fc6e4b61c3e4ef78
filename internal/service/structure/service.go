package structure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/master/grade"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/structure"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/go-chi/jwtauth/v5"
)

type StructureServiceImpl struct {
	tx            database.Transactor
	structureRepo structure.StructureRepository
	gradeRepo     grade.GradeRepository
	auditLog      audit.Recorder
}

func NewStructureService(
	tx database.Transactor,
	structureRepo structure.StructureRepository,
	gradeRepo grade.GradeRepository,
	auditLog audit.Recorder,
) structure.StructureService {
	return &StructureServiceImpl{
		tx:            tx,
		structureRepo: structureRepo,
		gradeRepo:     gradeRepo,
		auditLog:      auditLog,
	}
}

// Helper to get company_id and user_id from JWT context
func getClaimsFromContext(ctx context.Context) (companyID, userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", fmt.Errorf("company_id claim is missing or invalid")
	}

	userID, _ = claims["user_id"].(string)

	return companyID, userID, nil
}

// ========== PAY COMPONENTS ==========

func (s *StructureServiceImpl) CreatePayComponent(ctx context.Context, req structure.CreatePayComponentRequest) (structure.PayComponentResponse, error) {
	if err := req.Validate(); err != nil {
		return structure.PayComponentResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return structure.PayComponentResponse{}, err
	}

	created, err := s.structureRepo.CreatePayComponent(ctx, structure.PayComponent{
		CompanyID:   companyID,
		Code:        req.Code,
		Name:        req.Name,
		Type:        structure.ComponentType(req.Type),
		Category:    structure.ComponentCategory(req.Category),
		Description: req.Description,
		IsActive:    true,
	})
	if err != nil {
		return structure.PayComponentResponse{}, err
	}

	return toPayComponentResponse(created), nil
}

func (s *StructureServiceImpl) ListPayComponents(ctx context.Context, activeOnly bool) ([]structure.PayComponentResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	components, err := s.structureRepo.ListPayComponents(ctx, companyID, activeOnly)
	if err != nil {
		return nil, err
	}

	responses := make([]structure.PayComponentResponse, 0, len(components))
	for _, c := range components {
		responses = append(responses, toPayComponentResponse(c))
	}
	return responses, nil
}

func toPayComponentResponse(c structure.PayComponent) structure.PayComponentResponse {
	return structure.PayComponentResponse{
		ID:          c.ID,
		Code:        c.Code,
		Name:        c.Name,
		Type:        string(c.Type),
		Category:    string(c.Category),
		Description: c.Description,
		IsActive:    c.IsActive,
	}
}

// ========== VERSIONS ==========

func (s *StructureServiceImpl) CreateVersion(ctx context.Context, req structure.CreateStructureRequest) (structure.StructureResponse, error) {
	if err := req.Validate(); err != nil {
		return structure.StructureResponse{}, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return structure.StructureResponse{}, err
	}

	rng, err := req.Range()
	if err != nil {
		return structure.StructureResponse{}, err
	}
	if rng.Inverted() {
		return structure.StructureResponse{}, structure.ErrInvertedRange
	}

	exists, err := s.structureRepo.ExistsByNameOrCode(ctx, companyID, req.Name, req.Code)
	if err != nil {
		return structure.StructureResponse{}, err
	}
	if exists {
		return structure.StructureResponse{}, structure.ErrDuplicateNameOrCode
	}

	if req.GradeID != nil {
		if _, err := s.gradeRepo.GetByID(ctx, *req.GradeID, companyID); err != nil {
			return structure.StructureResponse{}, err
		}
	}

	components, err := s.buildComponents(ctx, companyID, req.Components)
	if err != nil {
		return structure.StructureResponse{}, err
	}

	created, err := s.structureRepo.Create(ctx, structure.Structure{
		CompanyID:     companyID,
		Name:          req.Name,
		Code:          req.Code,
		GradeID:       req.GradeID,
		Version:       1,
		EffectiveFrom: rng.From,
		EffectiveTo:   rng.To,
		IsActive:      true,
		CreatedBy:     optional(userID),
		Components:    components,
	})
	if err != nil {
		return structure.StructureResponse{}, err
	}

	response := structure.ToResponse(created)
	s.auditLog.Log(ctx, companyID, userID, audit.ActionStructureCreated, audit.ResourceStructure, created.ID, nil, response)
	slog.Info("salary structure created", "structure_id", created.ID, "name", created.Name, "company_id", companyID)

	return response, nil
}

func (s *StructureServiceImpl) Supersede(ctx context.Context, req structure.SupersedeStructureRequest) (structure.StructureResponse, error) {
	if err := req.Validate(); err != nil {
		return structure.StructureResponse{}, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return structure.StructureResponse{}, err
	}

	rng, err := req.Range()
	if err != nil {
		return structure.StructureResponse{}, err
	}
	if rng.Inverted() {
		return structure.StructureResponse{}, structure.ErrInvertedRange
	}

	base, err := s.structureRepo.GetByID(ctx, req.BaseVersionID, companyID)
	if err != nil {
		return structure.StructureResponse{}, err
	}

	var components []structure.StructureComponent
	if len(req.Components) == 0 {
		components = copyComponents(base.Components)
	} else {
		components, err = s.buildComponents(ctx, companyID, req.Components)
		if err != nil {
			return structure.StructureResponse{}, err
		}
	}

	var created structure.Structure
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		versions, err := s.structureRepo.ListByName(ctx, companyID, base.Name)
		if err != nil {
			return err
		}

		predecessor, err := checkTimeline(versions, rng)
		if err != nil {
			return err
		}

		if predecessor != nil {
			if err := s.structureRepo.Close(ctx, predecessor.ID, companyID, rng.From); err != nil {
				return err
			}
		}

		changeLog := req.ChangeLog
		baseID := base.ID
		created, err = s.structureRepo.Create(ctx, structure.Structure{
			CompanyID:     companyID,
			Name:          base.Name,
			Code:          base.Code,
			GradeID:       base.GradeID,
			Version:       nextVersion(versions),
			BaseVersionID: &baseID,
			ChangeLog:     &changeLog,
			EffectiveFrom: rng.From,
			EffectiveTo:   rng.To,
			IsActive:      rng.To == nil,
			CreatedBy:     optional(userID),
			Components:    components,
		})
		return err
	})
	if err != nil {
		return structure.StructureResponse{}, err
	}

	response := structure.ToResponse(created)
	s.auditLog.Log(ctx, companyID, userID, audit.ActionStructureSuperseded, audit.ResourceStructure, created.ID, structure.ToResponse(base), response)
	slog.Info("salary structure superseded",
		"structure_id", created.ID,
		"base_version_id", base.ID,
		"version", created.Version,
		"company_id", companyID,
	)

	return response, nil
}

// checkTimeline validates rng against every version of one name. It returns
// the open-ended version that has to be closed at rng.From, if any.
func checkTimeline(versions []structure.Structure, rng structure.DateRange) (*structure.Structure, error) {
	var (
		predecessor *structure.Structure
		previous    *structure.Structure
		next        *structure.Structure
	)

	for i := range versions {
		v := versions[i]
		existing := v.Range()

		if v.EffectiveTo == nil {
			if !v.EffectiveFrom.Before(rng.From) {
				return nil, &structure.OverlapError{ConflictID: v.ID, ConflictVersion: v.Version, ConflictRange: existing, Requested: rng}
			}
			predecessor = &versions[i]
			closedAt := rng.From
			existing.To = &closedAt
		}

		if existing.Overlaps(rng) {
			return nil, &structure.OverlapError{ConflictID: v.ID, ConflictVersion: v.Version, ConflictRange: existing, Requested: rng}
		}

		if v.EffectiveFrom.Before(rng.From) {
			if previous == nil || v.EffectiveFrom.After(previous.EffectiveFrom) {
				previous = &versions[i]
			}
		} else if next == nil || v.EffectiveFrom.Before(next.EffectiveFrom) {
			next = &versions[i]
		}
	}

	if previous != nil && previous != predecessor && previous.EffectiveTo != nil && previous.EffectiveTo.Before(rng.From) {
		return nil, &structure.GapError{
			NeighbourID:    previous.ID,
			NeighbourRange: previous.Range(),
			Requested:      rng,
			GapFrom:        *previous.EffectiveTo,
			GapTo:          rng.From,
		}
	}
	if next != nil && rng.To != nil && rng.To.Before(next.EffectiveFrom) {
		return nil, &structure.GapError{
			NeighbourID:    next.ID,
			NeighbourRange: next.Range(),
			Requested:      rng,
			GapFrom:        *rng.To,
			GapTo:          next.EffectiveFrom,
		}
	}

	return predecessor, nil
}

func nextVersion(versions []structure.Structure) int {
	highest := 0
	for _, v := range versions {
		if v.Version > highest {
			highest = v.Version
		}
	}
	return highest + 1
}

func (s *StructureServiceImpl) GetVersion(ctx context.Context, id string) (structure.StructureResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return structure.StructureResponse{}, err
	}

	found, err := s.structureRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return structure.StructureResponse{}, err
	}
	return structure.ToResponse(found), nil
}

func (s *StructureServiceImpl) ResolveActive(ctx context.Context, name string, asOf time.Time) (structure.StructureResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return structure.StructureResponse{}, err
	}

	versions, err := s.structureRepo.ListByName(ctx, companyID, name)
	if err != nil {
		return structure.StructureResponse{}, err
	}
	for _, v := range versions {
		if v.Range().Contains(asOf) {
			return structure.ToResponse(v), nil
		}
	}
	return structure.StructureResponse{}, fmt.Errorf("%w: no version of %q is effective on %s",
		structure.ErrStructureNotFound, name, asOf.Format("2006-01-02"))
}

func (s *StructureServiceImpl) History(ctx context.Context, name string) ([]structure.StructureResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	versions, err := s.structureRepo.ListByName(ctx, companyID, name)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, structure.ErrStructureNotFound
	}

	responses := make([]structure.StructureResponse, 0, len(versions))
	for _, v := range versions {
		responses = append(responses, structure.ToResponse(v))
	}
	return responses, nil
}

func (s *StructureServiceImpl) ListCurrent(ctx context.Context, asOf time.Time) ([]structure.StructureResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	versions, err := s.structureRepo.ListActiveAt(ctx, companyID, asOf)
	if err != nil {
		return nil, err
	}

	responses := make([]structure.StructureResponse, 0, len(versions))
	for _, v := range versions {
		responses = append(responses, structure.ToResponse(v))
	}
	return responses, nil
}

// ========== HELPERS ==========

// buildComponents joins the requested components with the catalog and checks
// their references before anything is written.
func (s *StructureServiceImpl) buildComponents(ctx context.Context, companyID string, inputs []structure.ComponentInput) ([]structure.StructureComponent, error) {
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.PayComponentID)
	}

	catalog, err := s.structureRepo.GetPayComponentsByIDs(ctx, companyID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]structure.PayComponent, len(catalog))
	for _, c := range catalog {
		byID[c.ID] = c
	}

	components := make([]structure.StructureComponent, 0, len(inputs))
	for _, in := range inputs {
		pc, ok := byID[in.PayComponentID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", structure.ErrPayComponentNotFound, in.PayComponentID)
		}
		components = append(components, structure.StructureComponent{
			PayComponentID:  in.PayComponentID,
			CalculationMode: structure.CalculationMode(in.CalculationMode),
			Value:           in.Value,
			Percentage:      in.Percentage,
			BaseComponentID: in.BaseComponentID,
			Formula:         in.Formula,
			MinValue:        in.MinValue,
			MaxValue:        in.MaxValue,
			IsVariable:      in.IsVariable,
			DisplayOrder:    in.DisplayOrder,
			Code:            pc.Code,
			Name:            pc.Name,
			Type:            pc.Type,
			Category:        pc.Category,
		})
	}

	if err := CheckReferences(components); err != nil {
		return nil, err
	}
	return components, nil
}

func copyComponents(components []structure.StructureComponent) []structure.StructureComponent {
	out := make([]structure.StructureComponent, 0, len(components))
	for _, c := range components {
		c.ID = ""
		c.StructureID = ""
		out = append(out, c)
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IsConfigurationError reports whether err comes from an inconsistent
// structure definition rather than from storage.
func IsConfigurationError(err error) bool {
	return errors.Is(err, structure.ErrUnresolvedBaseReference) ||
		errors.Is(err, structure.ErrInvalidFormula) ||
		errors.Is(err, structure.ErrInvalidComponentSettings)
}
