package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/structure"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type structureRepository struct {
	db *database.DB
	tx database.Transactor
}

func NewStructureRepository(db *database.DB) structure.StructureRepository {
	return &structureRepository{db: db, tx: NewTransactor(db)}
}

// ========== PAY COMPONENTS ==========

const payComponentColumns = `id, company_id, code, name, type, category, description, is_active, created_at, updated_at`

func scanPayComponent(row pgx.Row) (structure.PayComponent, error) {
	var c structure.PayComponent
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Type, &c.Category,
		&c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *structureRepository) CreatePayComponent(ctx context.Context, component structure.PayComponent) (structure.PayComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO pay_components (id, company_id, code, name, type, category, description, is_active)
		VALUES (uuidv7(), $1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + payComponentColumns

	c, err := scanPayComponent(q.QueryRow(ctx, query,
		component.CompanyID, component.Code, component.Name, component.Type, component.Category,
		component.Description, component.IsActive,
	))
	if err != nil {
		if isUniqueViolation(err, "uk_pay_component_code") {
			return structure.PayComponent{}, structure.ErrPayComponentCodeExists
		}
		return structure.PayComponent{}, fmt.Errorf("failed to create pay component: %w", err)
	}
	return c, nil
}

func (r *structureRepository) GetPayComponentsByIDs(ctx context.Context, companyID string, ids []string) ([]structure.PayComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payComponentColumns + ` FROM pay_components WHERE company_id = $1 AND id = ANY($2::uuid[])`

	rows, err := q.Query(ctx, query, companyID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get pay components: %w", err)
	}
	defer rows.Close()

	return collectPayComponents(rows)
}

func (r *structureRepository) ListPayComponents(ctx context.Context, companyID string, activeOnly bool) ([]structure.PayComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payComponentColumns + ` FROM pay_components WHERE company_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY code ASC`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pay components: %w", err)
	}
	defer rows.Close()

	return collectPayComponents(rows)
}

func collectPayComponents(rows pgx.Rows) ([]structure.PayComponent, error) {
	var components []structure.PayComponent
	for rows.Next() {
		c, err := scanPayComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pay component: %w", err)
		}
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return components, nil
}

// ========== VERSIONS ==========

const structureColumns = `id, company_id, name, code, grade_id, version, base_version_id, change_log,
	effective_from, effective_to, is_active, created_by, created_at, updated_at`

func scanStructure(row pgx.Row) (structure.Structure, error) {
	var s structure.Structure
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.Name, &s.Code, &s.GradeID, &s.Version, &s.BaseVersionID, &s.ChangeLog,
		&s.EffectiveFrom, &s.EffectiveTo, &s.IsActive, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *structureRepository) ExistsByNameOrCode(ctx context.Context, companyID, name, code string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS(
			SELECT 1 FROM salary_structures
			WHERE company_id = $1 AND deleted_at IS NULL
			  AND (LOWER(name) = LOWER($2) OR LOWER(code) = LOWER($3))
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, companyID, name, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check salary structure name: %w", err)
	}
	return exists, nil
}

// Create inserts the version row and its components atomically, joining the
// caller's transaction when there is one.
func (r *structureRepository) Create(ctx context.Context, s structure.Structure) (structure.Structure, error) {
	var created structure.Structure
	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		query := `
			INSERT INTO salary_structures (
				id, company_id, name, code, grade_id, version, base_version_id, change_log,
				effective_from, effective_to, is_active, created_by
			) VALUES (uuidv7(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING ` + structureColumns

		var err error
		created, err = scanStructure(q.QueryRow(ctx, query,
			s.CompanyID, s.Name, s.Code, s.GradeID, s.Version, s.BaseVersionID, s.ChangeLog,
			s.EffectiveFrom, s.EffectiveTo, s.IsActive, s.CreatedBy,
		))
		if err != nil {
			if isUniqueViolation(err, "uk_structure_first_version_name") || isUniqueViolation(err, "uk_structure_first_version_code") {
				return structure.ErrDuplicateNameOrCode
			}
			if isUniqueViolation(err, "uk_structure_name_version") || isUniqueViolation(err, "uk_structure_open_version") {
				return structure.ErrOverlappingRange
			}
			return fmt.Errorf("failed to create salary structure: %w", err)
		}

		componentQuery := `
			INSERT INTO salary_structure_components (
				id, structure_id, pay_component_id, calculation_mode, value, percentage,
				base_component_id, formula, min_value, max_value, is_variable, display_order
			) VALUES (uuidv7(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		for _, c := range s.Components {
			_, err := q.Exec(ctx, componentQuery,
				created.ID, c.PayComponentID, c.CalculationMode, c.Value, c.Percentage,
				c.BaseComponentID, c.Formula, c.MinValue, c.MaxValue, c.IsVariable, c.DisplayOrder,
			)
			if err != nil {
				if isUniqueViolation(err, "uk_structure_component") {
					return structure.ErrDuplicateComponent
				}
				if isForeignKeyViolation(err) {
					return structure.ErrPayComponentNotFound
				}
				return fmt.Errorf("failed to create structure component: %w", err)
			}
		}

		created.Components, err = r.components(ctx, created.ID)
		return err
	})
	if err != nil {
		return structure.Structure{}, err
	}
	return created, nil
}

func (r *structureRepository) components(ctx context.Context, structureID string) ([]structure.StructureComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT sc.id, sc.structure_id, sc.pay_component_id, sc.calculation_mode, sc.value, sc.percentage,
			   sc.base_component_id, sc.formula, sc.min_value, sc.max_value, sc.is_variable, sc.display_order,
			   pc.code, pc.name, pc.type, pc.category
		FROM salary_structure_components sc
		JOIN pay_components pc ON pc.id = sc.pay_component_id
		WHERE sc.structure_id = $1
		ORDER BY sc.display_order ASC, sc.id ASC
	`

	rows, err := q.Query(ctx, query, structureID)
	if err != nil {
		return nil, fmt.Errorf("failed to get structure components: %w", err)
	}
	defer rows.Close()

	components := []structure.StructureComponent{}
	for rows.Next() {
		var c structure.StructureComponent
		err := rows.Scan(
			&c.ID, &c.StructureID, &c.PayComponentID, &c.CalculationMode, &c.Value, &c.Percentage,
			&c.BaseComponentID, &c.Formula, &c.MinValue, &c.MaxValue, &c.IsVariable, &c.DisplayOrder,
			&c.Code, &c.Name, &c.Type, &c.Category,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan structure component: %w", err)
		}
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return components, nil
}

func (r *structureRepository) GetByID(ctx context.Context, id string, companyID string) (structure.Structure, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + structureColumns + ` FROM salary_structures WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL`

	s, err := scanStructure(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return structure.Structure{}, structure.ErrStructureNotFound
		}
		return structure.Structure{}, fmt.Errorf("failed to get salary structure: %w", err)
	}

	s.Components, err = r.components(ctx, s.ID)
	if err != nil {
		return structure.Structure{}, err
	}
	return s, nil
}

func (r *structureRepository) ListByName(ctx context.Context, companyID, name string) ([]structure.Structure, error) {
	query := `
		SELECT ` + structureColumns + `
		FROM salary_structures
		WHERE company_id = $1 AND name = $2 AND deleted_at IS NULL
		ORDER BY effective_from ASC
	`
	return r.list(ctx, query, companyID, name)
}

func (r *structureRepository) ListActiveAt(ctx context.Context, companyID string, asOf time.Time) ([]structure.Structure, error) {
	query := `
		SELECT ` + structureColumns + `
		FROM salary_structures
		WHERE company_id = $1 AND deleted_at IS NULL
		  AND effective_from <= $2 AND (effective_to IS NULL OR effective_to > $2)
		ORDER BY name ASC
	`
	return r.list(ctx, query, companyID, asOf)
}

func (r *structureRepository) list(ctx context.Context, query string, args ...interface{}) ([]structure.Structure, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary structures: %w", err)
	}

	var structures []structure.Structure
	for rows.Next() {
		s, err := scanStructure(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan salary structure: %w", err)
		}
		structures = append(structures, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	// Components are loaded after the version rows are drained; a connection
	// cannot run two queries at once inside a transaction.
	for i := range structures {
		structures[i].Components, err = r.components(ctx, structures[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return structures, nil
}

func (r *structureRepository) Close(ctx context.Context, id string, companyID string, effectiveTo time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_structures
		SET effective_to = $1, is_active = FALSE, updated_at = NOW()
		WHERE id = $2 AND company_id = $3 AND deleted_at IS NULL
	`

	commandTag, err := q.Exec(ctx, query, effectiveTo, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to close salary structure: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return structure.ErrStructureNotFound
	}
	return nil
}
