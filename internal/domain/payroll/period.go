package payroll

import (
	"fmt"
	"time"
)

// Period is a payroll month.
type Period struct {
	Year  int
	Month time.Month
}

func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// FirstDay returns the first calendar day of the period (UTC).
func (p Period) FirstDay() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns the last calendar day of the period (UTC).
func (p Period) LastDay() time.Time {
	return p.FirstDay().AddDate(0, 1, -1)
}
