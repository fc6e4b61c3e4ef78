package audit

import "context"

// Sink persists audit entries.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// Recorder is what services call. It never fails the caller.
type Recorder interface {
	Log(ctx context.Context, companyID, actorID, action, resourceType, resourceID string, before, after interface{})
}
