package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/audit"
)

type auditSink struct {
	s *Store
}

func NewAuditSink(s *Store) audit.Sink {
	return &auditSink{s: s}
}

func (a *auditSink) Record(ctx context.Context, entry audit.Entry) error {
	defer a.s.lock(ctx)()

	entry.ID = newID()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	a.s.state.audit = append(a.s.state.audit, entry)
	return nil
}

// AuditEntries returns the recorded entries of a company in insertion order.
func (s *Store) AuditEntries(companyID string) []audit.Entry {
	defer s.rlock(context.Background())()

	var out []audit.Entry
	for _, e := range s.state.audit {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out
}
