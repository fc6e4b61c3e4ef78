package audit

import (
	"encoding/json"
	"time"
)

// Action names recorded by the payroll engine.
const (
	ActionStructureCreated    = "structure.created"
	ActionStructureSuperseded = "structure.superseded"
	ActionAssignmentCreated   = "assignment.created"
	ActionRunCreated          = "payroll_run.created"
	ActionRunApproved         = "payroll_run.approved"
	ActionRunRejected         = "payroll_run.rejected"
	ActionRunRecalculated     = "payroll_run.recalculated"
	ActionRunDeleted          = "payroll_run.deleted"
	ActionRunInterrupted      = "payroll_run.interrupted"
	ActionRecordAdjusted      = "payroll_record.adjusted"
	ActionGradeCreated        = "grade.created"
)

// Resource types
const (
	ResourceStructure  = "salary_structure"
	ResourceAssignment = "salary_assignment"
	ResourceRun        = "payroll_run"
	ResourceRecord     = "payroll_record"
	ResourceGrade      = "grade"
)

type Entry struct {
	ID           string
	CompanyID    string
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	Before       json.RawMessage
	After        json.RawMessage
	CreatedAt    time.Time
}
