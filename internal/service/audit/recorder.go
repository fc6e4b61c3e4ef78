package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/audit"
)

type recorder struct {
	sink audit.Sink
}

// NewRecorder returns a Recorder that writes to sink and only logs failures.
// Entries are written after the audited change has committed, so a failed
// write must never undo the change.
func NewRecorder(sink audit.Sink) audit.Recorder {
	return &recorder{sink: sink}
}

func (r *recorder) Log(ctx context.Context, companyID, actorID, action, resourceType, resourceID string, before, after interface{}) {
	entry := audit.Entry{
		CompanyID:    companyID,
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Before:       marshal(before, action),
		After:        marshal(after, action),
		CreatedAt:    time.Now(),
	}

	// The request context may already be cancelled once the response is written.
	if err := r.sink.Record(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("failed to record audit entry",
			"error", err,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
			"company_id", companyID,
		)
	}
}

func marshal(v interface{}, action string) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		slog.Warn("failed to marshal audit payload", "error", err, "action", action)
		return nil
	}
	return b
}
