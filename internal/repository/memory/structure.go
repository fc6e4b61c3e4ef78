package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/structure"
)

type structureRepository struct {
	s *Store
}

func NewStructureRepository(s *Store) structure.StructureRepository {
	return &structureRepository{s: s}
}

func (r *structureRepository) CreatePayComponent(ctx context.Context, component structure.PayComponent) (structure.PayComponent, error) {
	defer r.s.lock(ctx)()

	for _, c := range r.s.state.payComponents {
		if c.CompanyID == component.CompanyID && strings.EqualFold(c.Code, component.Code) {
			return structure.PayComponent{}, structure.ErrPayComponentCodeExists
		}
	}

	now := time.Now()
	component.ID = newID()
	component.CreatedAt = now
	component.UpdatedAt = now
	r.s.state.payComponents[component.ID] = component
	return component, nil
}

func (r *structureRepository) GetPayComponentsByIDs(ctx context.Context, companyID string, ids []string) ([]structure.PayComponent, error) {
	defer r.s.rlock(ctx)()

	var out []structure.PayComponent
	for _, id := range ids {
		if c, ok := r.s.state.payComponents[id]; ok && c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *structureRepository) ListPayComponents(ctx context.Context, companyID string, activeOnly bool) ([]structure.PayComponent, error) {
	defer r.s.rlock(ctx)()

	var out []structure.PayComponent
	for _, c := range r.s.state.payComponents {
		if c.CompanyID != companyID || (activeOnly && !c.IsActive) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *structureRepository) ExistsByNameOrCode(ctx context.Context, companyID, name, code string) (bool, error) {
	defer r.s.rlock(ctx)()

	for _, s := range r.s.state.structures {
		if s.CompanyID == companyID && (strings.EqualFold(s.Name, name) || strings.EqualFold(s.Code, code)) {
			return true, nil
		}
	}
	return false, nil
}

func (r *structureRepository) Create(ctx context.Context, s structure.Structure) (structure.Structure, error) {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.state.structures {
		if s.Version != 1 || existing.CompanyID != s.CompanyID || existing.Version != 1 {
			continue
		}
		if strings.EqualFold(existing.Name, s.Name) || strings.EqualFold(existing.Code, s.Code) {
			return structure.Structure{}, structure.ErrDuplicateNameOrCode
		}
	}

	for _, existing := range r.s.state.structures {
		if existing.CompanyID != s.CompanyID || existing.Name != s.Name {
			continue
		}
		if existing.Version == s.Version || (existing.EffectiveTo == nil && s.EffectiveTo == nil) {
			return structure.Structure{}, structure.ErrOverlappingRange
		}
	}

	now := time.Now()
	s.ID = newID()
	s.CreatedAt = now
	s.UpdatedAt = now

	components := make([]structure.StructureComponent, 0, len(s.Components))
	for _, c := range s.Components {
		pc, ok := r.s.state.payComponents[c.PayComponentID]
		if !ok || pc.CompanyID != s.CompanyID {
			return structure.Structure{}, structure.ErrPayComponentNotFound
		}
		c.ID = newID()
		c.StructureID = s.ID
		c.Code = pc.Code
		c.Name = pc.Name
		c.Type = pc.Type
		c.Category = pc.Category
		components = append(components, c)
	}
	s.Components = components

	r.s.state.structures[s.ID] = s
	return copyStructure(s), nil
}

func (r *structureRepository) GetByID(ctx context.Context, id string, companyID string) (structure.Structure, error) {
	defer r.s.rlock(ctx)()

	s, ok := r.s.state.structures[id]
	if !ok || s.CompanyID != companyID {
		return structure.Structure{}, structure.ErrStructureNotFound
	}
	return copyStructure(s), nil
}

func (r *structureRepository) ListByName(ctx context.Context, companyID, name string) ([]structure.Structure, error) {
	defer r.s.rlock(ctx)()

	var out []structure.Structure
	for _, s := range r.s.state.structures {
		if s.CompanyID == companyID && s.Name == name {
			out = append(out, copyStructure(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveFrom.Before(out[j].EffectiveFrom) })
	return out, nil
}

func (r *structureRepository) ListActiveAt(ctx context.Context, companyID string, asOf time.Time) ([]structure.Structure, error) {
	defer r.s.rlock(ctx)()

	var out []structure.Structure
	for _, s := range r.s.state.structures {
		if s.CompanyID == companyID && s.Range().Contains(asOf) {
			out = append(out, copyStructure(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *structureRepository) Close(ctx context.Context, id string, companyID string, effectiveTo time.Time) error {
	defer r.s.lock(ctx)()

	s, ok := r.s.state.structures[id]
	if !ok || s.CompanyID != companyID {
		return structure.ErrStructureNotFound
	}
	s.EffectiveTo = &effectiveTo
	s.IsActive = false
	s.UpdatedAt = time.Now()
	r.s.state.structures[id] = s
	return nil
}

// copyStructure detaches the component slice and orders it for evaluation.
func copyStructure(s structure.Structure) structure.Structure {
	s.Components = slices.Clone(s.Components)
	sort.SliceStable(s.Components, func(i, j int) bool {
		return s.Components[i].DisplayOrder < s.Components[j].DisplayOrder
	})
	return s
}
