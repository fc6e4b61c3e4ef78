package grade

import "context"

type GradeRepository interface {
	// Create returns ErrGradeNameExists when the company already has a grade with the name.
	Create(ctx context.Context, grade Grade) (Grade, error)
	GetByID(ctx context.Context, id string, companyID string) (Grade, error)
	List(ctx context.Context, companyID string) ([]Grade, error)
}
