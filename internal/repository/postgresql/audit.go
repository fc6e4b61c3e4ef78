package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type auditSink struct {
	db *database.DB
}

func NewAuditSink(db *database.DB) audit.Sink {
	return &auditSink{db: db}
}

// Record implements audit.Sink.
func (a *auditSink) Record(ctx context.Context, entry audit.Entry) error {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO audit_events (id, company_id, actor_id, action, resource_type, resource_id, before_json, after_json)
		VALUES (uuidv7(), $1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query,
		entry.CompanyID, entry.ActorID, entry.Action, entry.ResourceType, entry.ResourceID,
		nullableJSON(entry.Before), nullableJSON(entry.After),
	)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
